// Package tokenize flattens structured documents into ordered sequences of
// (path address, scalar value) tokens.
//
// Tokenization is a deterministic depth-first, left-to-right traversal:
// object members in source insertion order, array elements in index order.
// Composite nodes are traversed but never emitted; every terminal scalar
// produces exactly one token. The resulting order is load-bearing for
// downstream fan-out alignment and must not be re-sorted.
package tokenize

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/c360/cleansweep/address"
	"github.com/c360/cleansweep/document"
	"github.com/c360/cleansweep/errors"
)

// Token is one (path address, scalar value) pair extracted from a document.
// Tokens are created fresh per tokenize call and never mutated.
type Token struct {
	Path  address.Path
	Value document.Value
}

// Tokenizer flattens documents into token sequences. It holds no state and
// is safe for concurrent use.
type Tokenizer struct{}

// New creates a Tokenizer.
func New() *Tokenizer {
	return &Tokenizer{}
}

// Tokenize loads the JSON document at documentPath, optionally scopes it to
// the subtree addressed by root (empty string or "$" means the document top
// level), and returns the ordered token sequence.
//
// Token paths are rendered relative to the effective root, so scoping to
// "$.a" over {"a":{"b":1}} yields the single token ($.b, 1).
func (t *Tokenizer) Tokenize(documentPath, root string) ([]Token, error) {
	data, err := os.ReadFile(documentPath)
	if err != nil {
		if e, ok := err.(*fs.PathError); ok && os.IsNotExist(e) {
			return nil, errors.WrapTransient(
				fmt.Errorf("%w: %s", errors.ErrDocumentNotFound, documentPath),
				"Tokenizer", "Tokenize", "read document")
		}
		return nil, errors.WrapTransient(err, "Tokenizer", "Tokenize", "read document")
	}
	return t.TokenizeBytes(data, root)
}

// TokenizeBytes tokenizes an in-memory JSON encoding.
func (t *Tokenizer) TokenizeBytes(data []byte, root string) ([]Token, error) {
	doc, err := document.DecodeBytes(data)
	if err != nil {
		return nil, err
	}
	return t.TokenizeValue(doc, root)
}

// TokenizeValue tokenizes an already-decoded document tree. An unresolvable
// root (missing key, out-of-range index, scalar where a composite stands)
// fails with ErrPathResolution rather than returning an empty sequence.
func (t *Tokenizer) TokenizeValue(doc document.Value, root string) ([]Token, error) {
	rootPath, err := address.Parse(root)
	if err != nil {
		return nil, err
	}
	if !rootPath.IsConcrete() {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: root %q must not contain wildcards", errors.ErrPathResolution, root),
			"Tokenizer", "TokenizeValue", "validate root")
	}

	scoped := doc
	if !rootPath.IsRoot() {
		scoped, err = rootPath.Resolve(doc)
		if err != nil {
			return nil, err
		}
	}

	var tokens []Token
	walk(scoped, address.Root(), &tokens)
	return tokens, nil
}

func walk(v document.Value, path address.Path, out *[]Token) {
	switch v.Kind() {
	case document.KindObject:
		for _, m := range v.Members() {
			walk(m.Value, path.Key(m.Key), out)
		}
	case document.KindArray:
		for i, e := range v.Elems() {
			walk(e, path.Index(i), out)
		}
	default:
		*out = append(*out, Token{Path: path, Value: v})
	}
}
