// Package componentregistry registers the built-in pipeline stages.
package componentregistry

import (
	stderrors "errors"

	"github.com/c360/cleansweep/chunk"
	"github.com/c360/cleansweep/clean"
	"github.com/c360/cleansweep/component"
	"github.com/c360/cleansweep/drop"
	"github.com/c360/cleansweep/errors"
)

// Register adds every built-in stage factory to the registry:
//   - clean: regex-driven record cleaning
//   - chunk: text field chunking
//   - drop: field removal
func Register(registry *component.Registry) error {
	if registry == nil {
		return errors.WrapFatal(
			stderrors.New("registry cannot be nil"),
			"componentregistry", "Register", "registry validation")
	}

	if err := registry.Register("clean", clean.NewStage); err != nil {
		return errors.Wrap(err, "componentregistry", "Register", "clean stage registration")
	}
	if err := registry.Register("chunk", chunk.NewStage); err != nil {
		return errors.Wrap(err, "componentregistry", "Register", "chunk stage registration")
	}
	if err := registry.Register("drop", drop.NewStage); err != nil {
		return errors.Wrap(err, "componentregistry", "Register", "drop stage registration")
	}
	return nil
}
