// Package component defines the stage abstraction the pipeline is built
// from, plus a registry that creates stages from configuration.
//
// A stage receives a record batch and returns a transformed batch. Stages
// are created by factories from raw JSON configuration, so pipelines can be
// assembled from config files without compile-time knowledge of each
// stage's settings.
package component

import (
	"context"
	"encoding/json"

	"github.com/c360/cleansweep/transform"
)

// Stage processes record batches. Implementations must be safe for
// concurrent Process calls.
type Stage interface {
	// Name returns the stage's registered name, used in logs and metrics.
	Name() string

	// Process transforms a batch. Returning an error fails the document
	// the batch came from; the batch itself must not be mutated.
	Process(ctx context.Context, batch []transform.Record) ([]transform.Record, error)
}

// Factory creates a stage from raw JSON configuration. Factories parse and
// validate their own config and must not do I/O; connection setup belongs
// in the pipeline's run phase.
type Factory func(rawConfig json.RawMessage, deps Dependencies) (Stage, error)
