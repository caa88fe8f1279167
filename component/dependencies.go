package component

import (
	"log/slog"

	"github.com/c360/cleansweep/metric"
	"github.com/c360/cleansweep/storage"
)

// Dependencies provides the shared resources stages may use. Any field can
// be nil; accessors fall back to safe defaults.
type Dependencies struct {
	Logger  *slog.Logger            // structured logger
	Metrics *metric.MetricsRegistry // Prometheus registry
	Store   storage.Store           // artifact store
}

// GetLogger returns the configured logger or slog.Default.
func (d *Dependencies) GetLogger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// StageLogger returns a logger tagged with the stage name.
func (d *Dependencies) StageLogger(stage string) *slog.Logger {
	return d.GetLogger().With("stage", stage)
}
