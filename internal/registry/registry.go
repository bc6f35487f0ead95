package registry

import (
	"fmt"
	"sync"

	"github.com/quizmill/scoring-core/internal/engine"
)

// #region tiers

// Tier names the subscription levels the registry knows about.
const (
	TierFree    = "free"
	TierPlus    = "plus"
	TierPremium = "premium"
)

// TierConfig is one tier's engine-version map and feature set.
type TierConfig struct {
	Versions        map[engine.Type]engine.Version `yaml:"versions"`
	Features        map[string]bool                `yaml:"features"`
	TimeoutMS       int                            `yaml:"timeout_ms"`
	FallbackEnabled bool                           `yaml:"fallback_enabled"`
}

// Config maps tier names to their configuration.
type Config struct {
	Tiers map[string]TierConfig `yaml:"tiers"`
}

// DefaultConfig returns the built-in tier table: free runs v1 everywhere,
// plus upgrades retention and difficulty, premium runs v2 across the board.
func DefaultConfig() Config {
	v1All := map[engine.Type]engine.Version{
		engine.TypeRetention:  engine.V1,
		engine.TypeDifficulty: engine.V1,
		engine.TypePriority:   engine.V1,
		engine.TypePace:       engine.V1,
	}
	return Config{Tiers: map[string]TierConfig{
		TierFree: {
			Versions:        v1All,
			TimeoutMS:       2000,
			FallbackEnabled: true,
		},
		TierPlus: {
			Versions: map[engine.Type]engine.Version{
				engine.TypeRetention:  engine.V2,
				engine.TypeDifficulty: engine.V2,
				engine.TypePriority:   engine.V1,
				engine.TypePace:       engine.V1,
			},
			TimeoutMS:       3000,
			FallbackEnabled: true,
		},
		TierPremium: {
			Versions: map[engine.Type]engine.Version{
				engine.TypeRetention:  engine.V2,
				engine.TypeDifficulty: engine.V2,
				engine.TypePriority:   engine.V2,
				engine.TypePace:       engine.V2,
			},
			Features: map[string]bool{
				"prerequisite_cascade":  false,
				"cross_subject_synergy": false,
			},
			TimeoutMS:       5000,
			FallbackEnabled: true,
		},
	}}
}

// #endregion tiers

// #region resolution

// Resolution is the registry's answer for one engine call.
type Resolution struct {
	Version    engine.Version
	Tier       TierConfig
	Overridden bool
	Source     string // "user", "global", or "tier"
}

// #endregion

// #region registry

// overrideKey scopes an override to (engine, user). User is empty for global
// overrides.
type overrideKey struct {
	engine engine.Type
	user   string
}

// Registry resolves the engine version for a (engine, tier, user) triple.
// Override layers are checked before the tier default: per-user first, then
// global. Overrides have no TTL; the caller clears them.
type Registry struct {
	mu        sync.RWMutex
	cfg       Config
	overrides map[overrideKey]engine.Version
}

// New builds a registry. An empty config falls back to the built-in tiers.
func New(cfg Config) *Registry {
	if len(cfg.Tiers) == 0 {
		cfg = DefaultConfig()
	}
	return &Registry{cfg: cfg, overrides: make(map[overrideKey]engine.Version)}
}

// SetUserOverride pins one user's version for one engine.
func (r *Registry) SetUserOverride(userID string, et engine.Type, v engine.Version) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[overrideKey{engine: et, user: userID}] = v
}

// ClearUserOverride removes a user pin.
func (r *Registry) ClearUserOverride(userID string, et engine.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.overrides, overrideKey{engine: et, user: userID})
}

// SetGlobalOverride pins an engine's version for every user. Used to park an
// engine on v1 while a v2 incident is live.
func (r *Registry) SetGlobalOverride(et engine.Type, v engine.Version) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[overrideKey{engine: et}] = v
}

// ClearGlobalOverride removes a global pin.
func (r *Registry) ClearGlobalOverride(et engine.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.overrides, overrideKey{engine: et})
}

// Resolve returns the version to run for one engine call. Unknown tiers
// resolve to free.
func (r *Registry) Resolve(et engine.Type, tier, userID string) Resolution {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tc, ok := r.cfg.Tiers[tier]
	if !ok {
		tc = r.cfg.Tiers[TierFree]
	}

	if userID != "" {
		if v, ok := r.overrides[overrideKey{engine: et, user: userID}]; ok {
			return Resolution{Version: v, Tier: tc, Overridden: true, Source: "user"}
		}
	}
	if v, ok := r.overrides[overrideKey{engine: et}]; ok {
		return Resolution{Version: v, Tier: tc, Overridden: true, Source: "global"}
	}

	v, ok := tc.Versions[et]
	if !ok {
		v = engine.V1
	}
	return Resolution{Version: v, Tier: tc, Source: "tier"}
}

// Validate rejects configs naming unknown engines or versions.
func (c Config) Validate() error {
	for tier, tc := range c.Tiers {
		for et, v := range tc.Versions {
			if !knownType(et) {
				return fmt.Errorf("tier %s: unknown engine type %q", tier, et)
			}
			if v != engine.V1 && v != engine.V2 {
				return fmt.Errorf("tier %s: engine %s: unknown version %q", tier, et, v)
			}
		}
	}
	return nil
}

func knownType(et engine.Type) bool {
	for _, t := range engine.AllTypes {
		if t == et {
			return true
		}
	}
	return false
}

// #endregion registry
