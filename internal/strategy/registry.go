package strategy

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Registry stores strategy configurations in memory, keyed by generated id.
// Ids come from a UUID generator rather than the collection size, so
// concurrent creates never collide and deletion cannot recycle an id.
type Registry struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	configs map[string]Config
}

// NewRegistry creates an empty strategy registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		logger:  logger,
		configs: make(map[string]Config),
	}
}

// Create validates and stores a configuration, returning its assigned id.
func (r *Registry) Create(cfg Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	id := uuid.New().String()

	r.mu.Lock()
	r.configs[id] = cfg
	r.mu.Unlock()

	r.logger.Info("Strategy created",
		zap.String("id", id),
		zap.String("type", string(cfg.Kind)),
		zap.String("symbol", cfg.Symbol),
	)
	return id, nil
}

// Get returns the configuration for id, or ErrNotFound.
func (r *Registry) Get(id string) (Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.configs[id]
	if !ok {
		return Config{}, ErrNotFound
	}
	return cfg, nil
}

// List returns a copy of the full id to configuration mapping.
func (r *Registry) List() map[string]Config {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Config, len(r.configs))
	for id, cfg := range r.configs {
		out[id] = cfg
	}
	return out
}
