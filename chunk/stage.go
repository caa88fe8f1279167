package chunk

import (
	"context"
	"encoding/json"

	"github.com/c360/cleansweep/component"
	"github.com/c360/cleansweep/errors"
	"github.com/c360/cleansweep/transform"
)

// StageConfig is the JSON configuration for the chunk stage.
type StageConfig struct {
	// Field is the record field holding the text to chunk.
	Field string `json:"field"`
	// Strategy names the strategy to use; unknown names use the default.
	Strategy string `json:"strategy,omitempty"`
	// Strategies optionally defines extra strategies for this stage.
	Strategies []Strategy `json:"strategies,omitempty"`
}

// Stage wraps chunking as a pipeline stage.
type Stage struct {
	field    string
	strategy Strategy
	deps     component.Dependencies
}

// NewStage is the component factory for the chunk stage.
func NewStage(rawConfig json.RawMessage, deps component.Dependencies) (component.Stage, error) {
	var cfg StageConfig
	if len(rawConfig) > 0 {
		if err := json.Unmarshal(rawConfig, &cfg); err != nil {
			return nil, errors.WrapInvalid(err, "chunk", "NewStage", "parse config")
		}
	}
	if cfg.Field == "" {
		return nil, errors.WrapInvalid(
			errors.ErrMissingConfig, "chunk", "NewStage", "validate field")
	}

	registry, err := NewRegistry(cfg.Strategies...)
	if err != nil {
		return nil, err
	}
	return &Stage{
		field:    cfg.Field,
		strategy: registry.Lookup(cfg.Strategy),
		deps:     deps,
	}, nil
}

// Name implements component.Stage.
func (s *Stage) Name() string { return "chunk" }

// Process fans each record out into its chunks.
func (s *Stage) Process(ctx context.Context, batch []transform.Record) ([]transform.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := ChunkRecords(batch, s.field, s.strategy)
	if err != nil {
		return nil, err
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.CoreMetrics().RecordEmitted("chunk", len(out))
	}
	return out, nil
}
