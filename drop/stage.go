// Package drop removes named fields from every record in a batch. Unlike
// the clean stage, which filters whole records, drop trims columns while
// keeping every row.
package drop

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/c360/cleansweep/component"
	"github.com/c360/cleansweep/errors"
	"github.com/c360/cleansweep/transform"
)

// StageConfig is the JSON configuration for the drop stage.
type StageConfig struct {
	// Fields are the record field names to remove. Names absent from a
	// record are ignored.
	Fields []string `json:"fields"`
}

// Stage removes the configured fields from each record.
type Stage struct {
	fields map[string]bool
	deps   component.Dependencies
}

// NewStage is the component factory for the drop stage.
func NewStage(rawConfig json.RawMessage, deps component.Dependencies) (component.Stage, error) {
	var cfg StageConfig
	if len(rawConfig) > 0 {
		if err := json.Unmarshal(rawConfig, &cfg); err != nil {
			return nil, errors.WrapInvalid(err, "drop", "NewStage", "parse config")
		}
	}
	if len(cfg.Fields) == 0 {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: drop stage requires at least one field", errors.ErrMissingConfig),
			"drop", "NewStage", "validate config")
	}

	fields := make(map[string]bool, len(cfg.Fields))
	for _, name := range cfg.Fields {
		if name == "" {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: drop stage field names must not be empty", errors.ErrInvalidConfig),
				"drop", "NewStage", "validate config")
		}
		fields[name] = true
	}
	return &Stage{fields: fields, deps: deps}, nil
}

// Name implements component.Stage.
func (s *Stage) Name() string { return "drop" }

// Process returns the batch with the configured fields removed. Record
// order and the order of surviving fields are preserved.
func (s *Stage) Process(ctx context.Context, batch []transform.Record) ([]transform.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]transform.Record, len(batch))
	for i, rec := range batch {
		var trimmed transform.Record
		for _, f := range rec.Fields() {
			if !s.fields[f.Name] {
				trimmed.Set(f.Name, f.Value)
			}
		}
		out[i] = trimmed
	}
	return out, nil
}
