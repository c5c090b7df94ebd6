package services

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/epeers/repricer/internal/cache"
	"github.com/epeers/repricer/internal/engine"
	"github.com/epeers/repricer/internal/models"
	"gopkg.in/yaml.v3"
)

// The shipped seed must always build a valid engine config; a broken seed
// would fail every fresh deployment at startup.
func TestShippedSeedStrategyIsValid(t *testing.T) {
	data, err := os.ReadFile("../../configs/default_strategy.yaml")
	if err != nil {
		t.Fatalf("failed to read seed file: %v", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		t.Fatalf("failed to parse seed file: %v", err)
	}
	if seed.Name != "default" {
		t.Errorf("unexpected seed name %q", seed.Name)
	}

	cfg, err := engine.NewStrategyConfig(seed.Config)
	if err != nil {
		t.Fatalf("seed config failed validation: %v", err)
	}

	if cfg.ReferenceColumn != "Retail valuation" {
		t.Errorf("unexpected reference column %q", cfg.ReferenceColumn)
	}
	if len(cfg.AgeBands) != 7 || len(cfg.RatingBands) != 4 {
		t.Errorf("unexpected band counts: %d age, %d rating", len(cfg.AgeBands), len(cfg.RatingBands))
	}

	// Every configured band pair must have a matrix entry, so the seed can
	// never produce a matrix-lookup data error.
	for _, age := range cfg.AgeBands {
		row, ok := cfg.TargetMatrix[age.Name]
		if !ok {
			t.Errorf("matrix missing age band %q", age.Name)
			continue
		}
		for _, rating := range cfg.RatingBands {
			if row[rating.Name] == 0 {
				t.Errorf("matrix missing entry [%q][%q]", age.Name, rating.Name)
			}
		}
	}
}

// memStrategyStore is an in-memory strategyStore for cache behavior tests.
type memStrategyStore struct {
	byName map[string]*models.Strategy
	active string
}

func newMemStrategyStore() *memStrategyStore {
	return &memStrategyStore{byName: make(map[string]*models.Strategy)}
}

func (m *memStrategyStore) Count(ctx context.Context) (int, error) {
	return len(m.byName), nil
}

func (m *memStrategyStore) List(ctx context.Context) ([]models.Strategy, error) {
	out := make([]models.Strategy, 0, len(m.byName))
	for _, st := range m.byName {
		out = append(out, *st)
	}
	return out, nil
}

func (m *memStrategyStore) GetByName(ctx context.Context, name string) (*models.Strategy, error) {
	st, ok := m.byName[name]
	if !ok {
		return nil, ErrStrategyNotFound
	}
	return st, nil
}

func (m *memStrategyStore) GetActive(ctx context.Context) (*models.Strategy, error) {
	if m.active == "" {
		return nil, ErrStrategyNotFound
	}
	return m.byName[m.active], nil
}

func (m *memStrategyStore) Save(ctx context.Context, name, description string, config engine.StrategyConfig, active bool) (*models.Strategy, error) {
	st, ok := m.byName[name]
	if !ok {
		st = &models.Strategy{Name: name}
		m.byName[name] = st
	}
	st.Description = description
	st.Config = config
	if active {
		m.active = name
	}
	st.IsActive = m.active == name
	return st, nil
}

func (m *memStrategyStore) Delete(ctx context.Context, name string) error {
	if _, ok := m.byName[name]; !ok {
		return ErrStrategyNotFound
	}
	delete(m.byName, name)
	if m.active == name {
		m.active = ""
	}
	return nil
}

func (m *memStrategyStore) Activate(ctx context.Context, name string) error {
	if _, ok := m.byName[name]; !ok {
		return ErrStrategyNotFound
	}
	m.active = name
	return nil
}

// storedConfig builds a minimal valid config whose matrix percent identifies
// which version of a strategy the service handed back.
func storedConfig(pct float64) engine.StrategyConfig {
	return engine.StrategyConfig{
		ReferenceColumn: "Retail valuation",
		ToleranceType:   engine.TolerancePercent,
		ToleranceValue:  2,
		StaleDays:       7,
		NudgeType:       engine.NudgePercent,
		NudgeValue:      1,
		RoundingMode:    engine.RoundingExact,
		AgeBands: engine.BandList{
			{Name: "0-30", Min: 0, Max: 30},
			{Name: "31+", Min: 31, Open: true},
		},
		RatingBands: engine.BandList{
			{Name: "0-59", Min: 0, Max: 59},
			{Name: "60+", Min: 60, Open: true},
		},
		TargetMatrix: map[string]map[string]float64{
			"0-30": {"0-59": pct, "60+": pct},
			"31+":  {"0-59": pct, "60+": pct},
		},
	}
}

// Saving over the active strategy must not leave a stale build behind: the
// active strategy's config is cached under the empty name, and the next
// active-by-default batch has to see the updated percents.
func TestStrategyService_SaveClearsCachedActiveConfig(t *testing.T) {
	ctx := context.Background()
	store := newMemStrategyStore()
	if _, err := store.Save(ctx, "default", "", storedConfig(95), true); err != nil {
		t.Fatalf("seeding store: %v", err)
	}

	svc := NewStrategyService(store, cache.NewStrategyCache(time.Minute))

	cfg, err := svc.EngineConfig(ctx, "")
	if err != nil {
		t.Fatalf("initial config load: %v", err)
	}
	if got := cfg.TargetMatrix["0-30"]["0-59"]; got != 95 {
		t.Fatalf("initial percent = %v, want 95", got)
	}

	if _, err := svc.Save(ctx, &models.SaveStrategyRequest{Name: "default", Config: storedConfig(90)}); err != nil {
		t.Fatalf("save: %v", err)
	}

	cfg, err = svc.EngineConfig(ctx, "")
	if err != nil {
		t.Fatalf("config load after save: %v", err)
	}
	if got := cfg.TargetMatrix["0-30"]["0-59"]; got != 90 {
		t.Errorf("percent after save = %v, want 90 (stale cached config served)", got)
	}
}

// Deleting the active strategy must clear its cached build too; a following
// active-by-default lookup should report not-found, not price against the
// deleted strategy for the rest of the TTL.
func TestStrategyService_DeleteClearsCachedActiveConfig(t *testing.T) {
	ctx := context.Background()
	store := newMemStrategyStore()
	if _, err := store.Save(ctx, "summer", "", storedConfig(97), true); err != nil {
		t.Fatalf("seeding store: %v", err)
	}

	svc := NewStrategyService(store, cache.NewStrategyCache(time.Minute))

	if _, err := svc.EngineConfig(ctx, ""); err != nil {
		t.Fatalf("initial config load: %v", err)
	}

	if err := svc.Delete(ctx, "summer"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := svc.EngineConfig(ctx, ""); !errors.Is(err, ErrStrategyNotFound) {
		t.Errorf("config load after delete: err = %v, want ErrStrategyNotFound", err)
	}
}
