package engine

import (
	"errors"
	"fmt"
)

// Tolerance, nudge and rounding enums. String-typed so configs stored as JSON
// round-trip without mapping tables.
type ToleranceType string

const (
	TolerancePercent ToleranceType = "percent"
	ToleranceFixed   ToleranceType = "fixed"
)

type NudgeType string

const (
	NudgePercent NudgeType = "percent"
	NudgeFixed   NudgeType = "fixed"
)

type NudgePreference string

const (
	NudgeDrop NudgePreference = "drop"
	NudgeAdd  NudgePreference = "add"
	NudgeAuto NudgePreference = "auto"
)

type RoundingMode string

const (
	RoundingExact  RoundingMode = "exact"
	RoundingCharm  RoundingMode = "charm_49_99"
	RoundingEnds49 RoundingMode = "ends_4_9"
)

var ErrInvalidConfig = errors.New("invalid strategy config")

// StrategyConfig is the fully resolved pricing strategy for one batch run.
// Build it with NewStrategyConfig; a validated config is never mutated by the
// engine.
type StrategyConfig struct {
	ReferenceColumn string                        `json:"reference_column" yaml:"reference_column"`
	ToleranceType   ToleranceType                 `json:"tolerance_type" yaml:"tolerance_type"`
	ToleranceValue  float64                       `json:"tolerance_value" yaml:"tolerance_value"`
	StaleDays       int                           `json:"stale_days" yaml:"stale_days"`
	NudgeType       NudgeType                     `json:"nudge_type" yaml:"nudge_type"`
	NudgeValue      float64                       `json:"nudge_value" yaml:"nudge_value"`
	NudgePreference NudgePreference               `json:"nudge_preference" yaml:"nudge_preference"`
	RoundingMode    RoundingMode                  `json:"rounding_mode" yaml:"rounding_mode"`
	AgeBands        BandList                      `json:"age_bands" yaml:"age_bands"`
	RatingBands     BandList                      `json:"rating_bands" yaml:"rating_bands"`
	TargetMatrix    map[string]map[string]float64 `json:"target_matrix" yaml:"target_matrix"`
}

// legacy spellings of the rounding modes, still present in stored strategies.
var roundingAliases = map[RoundingMode]RoundingMode{
	"49/99":         RoundingCharm,
	"ends_with_4_9": RoundingEnds49,
}

// NewStrategyConfig normalizes and validates a raw config, returning an
// immutable copy. It fails fast: a config that would produce wrong matrix
// lookups is rejected before any record is processed.
func NewStrategyConfig(raw StrategyConfig) (*StrategyConfig, error) {
	cfg := raw

	if alias, ok := roundingAliases[cfg.RoundingMode]; ok {
		cfg.RoundingMode = alias
	}
	if cfg.NudgePreference == "" {
		cfg.NudgePreference = NudgeDrop
	}

	if cfg.ReferenceColumn == "" {
		return nil, fmt.Errorf("%w: reference_column is required", ErrInvalidConfig)
	}
	if cfg.ToleranceType != TolerancePercent && cfg.ToleranceType != ToleranceFixed {
		return nil, fmt.Errorf("%w: unknown tolerance_type %q", ErrInvalidConfig, cfg.ToleranceType)
	}
	if cfg.ToleranceValue < 0 {
		return nil, fmt.Errorf("%w: tolerance_value must be >= 0", ErrInvalidConfig)
	}
	if cfg.StaleDays < 0 {
		return nil, fmt.Errorf("%w: stale_days must be >= 0", ErrInvalidConfig)
	}
	if cfg.NudgeType != NudgePercent && cfg.NudgeType != NudgeFixed {
		return nil, fmt.Errorf("%w: unknown nudge_type %q", ErrInvalidConfig, cfg.NudgeType)
	}
	if cfg.NudgeValue < 0 {
		return nil, fmt.Errorf("%w: nudge_value must be >= 0", ErrInvalidConfig)
	}
	if err := validateAgeBands(cfg.AgeBands); err != nil {
		return nil, fmt.Errorf("%w: age_bands: %s", ErrInvalidConfig, err)
	}
	if len(cfg.RatingBands) == 0 {
		return nil, fmt.Errorf("%w: rating_bands must not be empty", ErrInvalidConfig)
	}
	if len(cfg.TargetMatrix) == 0 {
		return nil, fmt.Errorf("%w: target_matrix must not be empty", ErrInvalidConfig)
	}

	return &cfg, nil
}

// validateAgeBands enforces the age-band shape: the first band starts at 0,
// consecutive bands are contiguous (max+1 == next min), and only the last
// band is open-ended.
func validateAgeBands(bands BandList) error {
	if len(bands) == 0 {
		return errors.New("must not be empty")
	}
	if bands[0].Min != 0 {
		return fmt.Errorf("first band %q must start at 0", bands[0].Name)
	}
	for i, b := range bands {
		last := i == len(bands)-1
		if last {
			if !b.Open {
				return fmt.Errorf("last band %q must be open-ended", b.Name)
			}
			break
		}
		if b.Open {
			return fmt.Errorf("band %q is open-ended but not last", b.Name)
		}
		if b.Max < b.Min {
			return fmt.Errorf("band %q has max < min", b.Name)
		}
		if next := bands[i+1]; b.Max+1 != next.Min {
			return fmt.Errorf("band %q (max %v) is not contiguous with %q (min %v)",
				b.Name, b.Max, next.Name, next.Min)
		}
	}
	return nil
}
