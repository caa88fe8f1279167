package clean

import (
	"context"
	"encoding/json"

	"github.com/c360/cleansweep/component"
	"github.com/c360/cleansweep/errors"
	"github.com/c360/cleansweep/transform"
)

// StageConfig is the JSON configuration for the clean stage.
type StageConfig struct {
	Rules []Rule `json:"rules"`
}

// Stage wraps an Engine as a pipeline stage.
type Stage struct {
	engine *Engine
	deps   component.Dependencies
}

// NewStage is the component factory for the clean stage.
func NewStage(rawConfig json.RawMessage, deps component.Dependencies) (component.Stage, error) {
	var cfg StageConfig
	if len(rawConfig) > 0 {
		if err := json.Unmarshal(rawConfig, &cfg); err != nil {
			return nil, errors.WrapInvalid(err, "clean", "NewStage", "parse config")
		}
	}

	engine, err := NewEngine(cfg.Rules, deps.StageLogger("clean"))
	if err != nil {
		return nil, err
	}
	return &Stage{engine: engine, deps: deps}, nil
}

// Name implements component.Stage.
func (s *Stage) Name() string { return "clean" }

// Process applies the cleaning rules to the batch.
func (s *Stage) Process(ctx context.Context, batch []transform.Record) ([]transform.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := s.engine.Apply(batch)
	if s.deps.Metrics != nil && len(out) < len(batch) {
		s.deps.Metrics.CoreMetrics().RecordDropped("clean", "rule", len(batch)-len(out))
	}
	return out, nil
}
