package services

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/epeers/repricer/internal/cache"
	"github.com/epeers/repricer/internal/engine"
	"github.com/epeers/repricer/internal/models"
	"github.com/epeers/repricer/internal/repository"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var (
	ErrStrategyNotFound  = repository.ErrStrategyNotFound
	ErrProtectedStrategy = errors.New("the default strategy cannot be deleted")
)

// DefaultStrategyName is the seeded strategy; it is protected from deletion.
const DefaultStrategyName = "default"

// strategyStore is the persistence surface the service needs; satisfied by
// *repository.StrategyRepository.
type strategyStore interface {
	Count(ctx context.Context) (int, error)
	List(ctx context.Context) ([]models.Strategy, error)
	GetByName(ctx context.Context, name string) (*models.Strategy, error)
	GetActive(ctx context.Context) (*models.Strategy, error)
	Save(ctx context.Context, name, description string, config engine.StrategyConfig, active bool) (*models.Strategy, error)
	Delete(ctx context.Context, name string) error
	Activate(ctx context.Context, name string) error
}

// StrategyService manages stored pricing strategies and builds validated
// engine configs from them.
type StrategyService struct {
	repo     strategyStore
	cfgCache *cache.StrategyCache
}

// NewStrategyService creates a new StrategyService
func NewStrategyService(repo strategyStore, cfgCache *cache.StrategyCache) *StrategyService {
	return &StrategyService{
		repo:     repo,
		cfgCache: cfgCache,
	}
}

// seedFile mirrors the on-disk YAML layout of the default strategy.
type seedFile struct {
	Name        string                `yaml:"name"`
	Description string                `yaml:"description"`
	Config      engine.StrategyConfig `yaml:"config"`
}

// Seed loads the default strategy from the YAML seed file and inserts it as
// active, but only when the store is empty. The seed is validated the same
// way as uploaded strategies.
func (s *StrategyService) Seed(ctx context.Context, path string) error {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to check strategy store: %w", err)
	}
	if count > 0 {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read strategy seed: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("failed to parse strategy seed: %w", err)
	}
	if seed.Name == "" {
		seed.Name = DefaultStrategyName
	}

	if _, err := engine.NewStrategyConfig(seed.Config); err != nil {
		return fmt.Errorf("strategy seed is invalid: %w", err)
	}

	if _, err := s.repo.Save(ctx, seed.Name, seed.Description, seed.Config, true); err != nil {
		return err
	}

	log.WithField("strategy", seed.Name).Info("seeded default pricing strategy")
	return nil
}

// List returns all stored strategies plus the active strategy's name
func (s *StrategyService) List(ctx context.Context) ([]models.Strategy, string, error) {
	strategies, err := s.repo.List(ctx)
	if err != nil {
		return nil, "", err
	}

	active := ""
	for _, st := range strategies {
		if st.IsActive {
			active = st.Name
			break
		}
	}
	return strategies, active, nil
}

// Get retrieves one strategy by name
func (s *StrategyService) Get(ctx context.Context, name string) (*models.Strategy, error) {
	return s.repo.GetByName(ctx, name)
}

// Save validates and upserts a strategy. Validation happens here so a broken
// config is rejected at save time, not at the first batch run against it.
func (s *StrategyService) Save(ctx context.Context, req *models.SaveStrategyRequest) (*models.Strategy, error) {
	if _, err := engine.NewStrategyConfig(req.Config); err != nil {
		return nil, err
	}

	strategy, err := s.repo.Save(ctx, req.Name, req.Description, req.Config, false)
	if err != nil {
		return nil, err
	}

	// The saved strategy may be the active one, cached under the empty name.
	s.cfgCache.InvalidateAll()
	log.WithField("strategy", req.Name).Info("strategy saved")
	return strategy, nil
}

// Delete removes a strategy; the default strategy is protected
func (s *StrategyService) Delete(ctx context.Context, name string) error {
	if name == DefaultStrategyName {
		return ErrProtectedStrategy
	}
	if err := s.repo.Delete(ctx, name); err != nil {
		return err
	}
	// The deleted strategy may be the active one, cached under the empty name.
	s.cfgCache.InvalidateAll()
	return nil
}

// Activate makes the named strategy the batch default
func (s *StrategyService) Activate(ctx context.Context, name string) error {
	if err := s.repo.Activate(ctx, name); err != nil {
		return err
	}
	// Active-by-default lookups are cached under the empty name.
	s.cfgCache.InvalidateAll()
	log.WithField("strategy", name).Info("strategy activated")
	return nil
}

// EngineConfig loads a strategy and builds the validated, immutable config
// the engine runs against. An empty name selects the active strategy.
func (s *StrategyService) EngineConfig(ctx context.Context, name string) (*engine.StrategyConfig, error) {
	if cfg, ok := s.cfgCache.Get(name); ok {
		return cfg, nil
	}

	var strategy *models.Strategy
	var err error
	if name == "" {
		strategy, err = s.repo.GetActive(ctx)
	} else {
		strategy, err = s.repo.GetByName(ctx, name)
	}
	if err != nil {
		return nil, err
	}

	cfg, err := engine.NewStrategyConfig(strategy.Config)
	if err != nil {
		return nil, fmt.Errorf("stored strategy %q: %w", strategy.Name, err)
	}

	s.cfgCache.Set(name, cfg)
	return cfg, nil
}
