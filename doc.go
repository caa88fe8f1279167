// Package cleansweep transforms semi-structured JSON documents into flat
// records using declarative mapping specifications.
//
// # Architecture
//
// A run flows through three phases:
//
//	┌─────────────────────────────────────┐
//	│            Tokenizer                │  Order-preserving walk of the
//	│   (document → path/value tokens)    │  source document
//	└─────────────────────────────────────┘
//	           ↓ feeds
//	┌─────────────────────────────────────┐
//	│           Transformer               │  Mapping-driven field binding,
//	│  (tokens + mapping spec → records)  │  wildcard fan-out, coercion
//	└─────────────────────────────────────┘
//	           ↓ feeds
//	┌─────────────────────────────────────┐
//	│           Stage Chain               │  Optional post-processing:
//	│      (clean, chunk, drop)           │  cleaning rules, text chunking
//	└─────────────────────────────────────┘
//
// The tokenizer walks a parsed document in source order and emits one
// token per leaf, addressed by a JSONPath-style path. The transformer
// matches tokens against the mapping spec's source paths, groups
// wildcard matches into aligned or cartesian fan-out sets, applies
// defaults and type coercion, and emits flat records. Configured stages
// then filter, rewrite, or split the records.
//
// # Packages
//
// Core transformation:
//   - document: ordered JSON values with duplicate-key retention
//   - address: path parsing, resolution, and wildcard binding
//   - tokenize: document walking and token emission
//   - mapping: mapping spec loading and schema validation
//   - transform: record assembly, fan-out, and coercion
//
// Post-processing stages:
//   - clean: pattern-based record cleaning rules
//   - chunk: text splitting with configurable strategies
//   - drop: field removal
//   - component, componentregistry: stage factories and registration
//
// Infrastructure:
//   - pipeline: concurrent document processing
//   - storage: pluggable artifact backends (filesystem, NATS ObjectStore)
//   - config: run configuration loading and validation
//   - metric: Prometheus metrics
//   - errors: classified error handling
//   - pkg/retry, pkg/worker, pkg/cache: supporting utilities
//
// # Usage
//
// Transform a document directly:
//
//	spec, _ := mapping.Load("orders.yaml")
//	records, _ := transform.New().TransformBytes(spec, data, "$.payload")
//
// Or run the full pipeline from a config file:
//
//	cleansweep --config run.yaml
//
// The binary loads the mapping, opens the configured store, assembles
// the stage chain from the built-in registry, and processes every
// configured document key concurrently.
package cleansweep
