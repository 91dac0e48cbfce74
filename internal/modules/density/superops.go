package density

import (
	"gonum.org/v1/gonum/mat"

	"github.com/avermex/qphi/internal/modules/operators"
)

// Commutator returns [H, rho] = H*rho - rho*H.
func Commutator(h, rho *mat.CDense) *mat.CDense {
	return operators.Sub(operators.Mul(h, rho), operators.Mul(rho, h))
}

// Dissipator returns D[L](rho) = L rho L† - (L†L rho + rho L†L)/2.
func Dissipator(l, rho *mat.CDense) *mat.CDense {
	ldag := operators.Dagger(l)
	sandwich := operators.Mul(operators.Mul(l, rho), ldag)

	ldagl := operators.Mul(ldag, l)
	anti := operators.Add(operators.Mul(ldagl, rho), operators.Mul(rho, ldagl))

	return operators.Sub(sandwich, operators.Scale(0.5, anti))
}
