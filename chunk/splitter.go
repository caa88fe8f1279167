// Package chunk splits record text fields into overlapping chunks sized for
// downstream consumers. Splitting is strategy-driven: a strategy names its
// separators, chunk size and overlap, and unknown strategy names fall back to
// the default.
package chunk

import (
	"fmt"
	"strings"

	"github.com/c360/cleansweep/errors"
)

// Strategy configures how text is split.
type Strategy struct {
	Name string `json:"name" yaml:"name"`
	// Separators are tried in order; the empty string splits at character
	// boundaries and is always the implicit last resort.
	Separators   []string `json:"separators,omitempty" yaml:"separators,omitempty"`
	ChunkSize    int      `json:"chunk_size,omitempty" yaml:"chunk_size,omitempty"`
	ChunkOverlap int      `json:"chunk_overlap,omitempty" yaml:"chunk_overlap,omitempty"`
}

// DefaultStrategy mirrors the common paragraph-first recursive split.
func DefaultStrategy() Strategy {
	return Strategy{
		Name:         "default",
		Separators:   []string{"\n\n", "\n", " ", ""},
		ChunkSize:    1000,
		ChunkOverlap: 200,
	}
}

// Registry holds named strategies. Lookup of an unknown name returns the
// default strategy.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry builds a registry seeded with the default strategy. Extra
// strategies may override the default by name.
func NewRegistry(extra ...Strategy) (*Registry, error) {
	r := &Registry{strategies: map[string]Strategy{"default": DefaultStrategy()}}
	for _, s := range extra {
		if err := validateStrategy(s); err != nil {
			return nil, err
		}
		r.strategies[s.Name] = s
	}
	return r, nil
}

func validateStrategy(s Strategy) error {
	switch {
	case s.Name == "":
		return strategyErr(s, "name is required")
	case s.ChunkSize <= 0:
		return strategyErr(s, "chunk_size must be positive")
	case s.ChunkOverlap < 0:
		return strategyErr(s, "chunk_overlap must not be negative")
	case s.ChunkOverlap >= s.ChunkSize:
		return strategyErr(s, "chunk_overlap must be smaller than chunk_size")
	}
	return nil
}

func strategyErr(s Strategy, detail string) error {
	return errors.WrapInvalid(
		fmt.Errorf("%w: strategy %q: %s", errors.ErrInvalidConfig, s.Name, detail),
		"chunk", "NewRegistry", "validate strategy")
}

// Lookup returns the named strategy, or the default when the name is unknown.
func (r *Registry) Lookup(name string) Strategy {
	if s, ok := r.strategies[name]; ok {
		return s
	}
	return r.strategies["default"]
}

// Split chunks the text per the strategy. Chunks are trimmed of surrounding
// whitespace and empty chunks are dropped. Every chunk is at most ChunkSize
// long, and consecutive chunks share up to ChunkOverlap of trailing context.
func Split(text string, s Strategy) []string {
	seps := s.Separators
	if len(seps) == 0 {
		seps = DefaultStrategy().Separators
	}
	return splitRecursive(text, seps, s.ChunkSize, s.ChunkOverlap)
}

func splitRecursive(text string, seps []string, size, overlap int) []string {
	sep := ""
	var rest []string
	for i, candidate := range seps {
		if candidate == "" {
			break
		}
		if strings.Contains(text, candidate) {
			sep = candidate
			rest = seps[i+1:]
			break
		}
	}

	var pieces []string
	if sep == "" {
		return splitBySize(text, size, overlap)
	}
	pieces = strings.Split(text, sep)

	var out []string
	var pending []string
	flush := func() {
		if len(pending) > 0 {
			out = append(out, mergePieces(pending, sep, size, overlap)...)
			pending = nil
		}
	}
	for _, piece := range pieces {
		if len(piece) <= size {
			pending = append(pending, piece)
			continue
		}
		flush()
		if len(rest) == 0 {
			out = append(out, splitBySize(piece, size, overlap)...)
		} else {
			out = append(out, splitRecursive(piece, rest, size, overlap)...)
		}
	}
	flush()
	return out
}

// splitBySize is the last-resort character-level split. It slices on rune
// boundaries so a multi-byte character is never cut in half.
func splitBySize(text string, size, overlap int) []string {
	runes := []rune(text)
	var out []string
	step := size - overlap
	if step <= 0 {
		step = size
	}
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			out = append(out, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}

// mergePieces greedily packs small pieces into chunks no larger than size,
// carrying overlap-worth of trailing pieces into the next chunk.
func mergePieces(pieces []string, sep string, size, overlap int) []string {
	var out []string
	var window []string
	total := 0

	sepIf := func(n int) int {
		if n > 0 {
			return len(sep)
		}
		return 0
	}
	emit := func() {
		if chunk := strings.TrimSpace(strings.Join(window, sep)); chunk != "" {
			out = append(out, chunk)
		}
	}

	for _, piece := range pieces {
		if total+len(piece)+sepIf(len(window)) > size && len(window) > 0 {
			emit()
			// shed leading pieces until the retained tail fits the
			// overlap budget and leaves room for the new piece
			for total > overlap ||
				(total+len(piece)+sepIf(len(window)) > size && total > 0) {
				total -= len(window[0]) + sepIf(len(window)-1)
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += len(piece) + sepIf(len(window)-1)
	}
	emit()
	return out
}
