package sweep

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/avermex/qphi/internal/modules/phi"
	"github.com/avermex/qphi/internal/modules/reservoir"
)

// Cache memoizes run results by configuration hash. A run is a pure
// function of its configuration, so cached entries never go stale.
type Cache struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewCache creates a run-result cache backed by the results database.
func NewCache(db *sql.DB, log zerolog.Logger) *Cache {
	return &Cache{
		db:  db,
		log: log.With().Str("service", "phi_cache").Logger(),
	}
}

// hashConfig creates a deterministic hash of a run configuration. All
// physically meaningful fields participate; field order is fixed by the
// format string.
func hashConfig(cfg reservoir.Config) string {
	key := fmt.Sprintf("%d|%d|%v|%v|%g|%g|%g|%g|%g|%g",
		cfg.Modes, cfg.Levels, cfg.Frequencies, cfg.Coupling,
		cfg.DecayRate, cfg.ThermalOccupation, cfg.DephasingRate,
		cfg.NoiseAmplitude, cfg.TimeStep, cfg.Duration)
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:16])
}

// Get returns the cached result for cfg, or nil on a miss. Cache failures
// are logged and treated as misses; the caller just recomputes.
func (c *Cache) Get(cfg reservoir.Config) *phi.RunResult {
	var payload []byte
	err := c.db.QueryRow(
		`SELECT payload FROM phi_cache WHERE config_hash = ?`, hashConfig(cfg),
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		c.log.Warn().Err(err).Msg("Cache lookup failed, recomputing")
		return nil
	}

	var result phi.RunResult
	if err := msgpack.Unmarshal(payload, &result); err != nil {
		c.log.Warn().Err(err).Msg("Cache payload corrupt, recomputing")
		return nil
	}
	return &result
}

// Put stores a run result. Failures are logged, not propagated; the cache
// is an optimization, never a correctness dependency.
func (c *Cache) Put(cfg reservoir.Config, result *phi.RunResult) {
	payload, err := msgpack.Marshal(result)
	if err != nil {
		c.log.Warn().Err(err).Msg("Failed to encode cache payload")
		return
	}
	_, err = c.db.Exec(
		`INSERT OR REPLACE INTO phi_cache (config_hash, payload, created_at) VALUES (?, ?, ?)`,
		hashConfig(cfg), payload, time.Now().Unix(),
	)
	if err != nil {
		c.log.Warn().Err(err).Msg("Failed to store cache payload")
	}
}
