// Package schemafile loads declarative schema documents and data files.
//
// A schema document is a node description in YAML or JSON:
//
//	name: User
//	schema:
//	  type: object
//	  properties:
//	    id: {type: string, uuid: true}
//	    age: {type: number, int: true, min: 0, optional: true}
//	    friends: {type: array, items: {type: ref, ref: User}}
//
// A document without a schema key is itself the node. Every node carries a
// type naming a dsl.Kind plus that kind's parameters; the wrapper keys
// optional, nullable, default, catch, brand, readonly and description apply
// to any node. A bare string such as "string" is shorthand for {type: string}.
// YAML streams may hold several documents; refs resolve by document name.
package schemafile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/reoring/goskemac/dsl"
)

var (
	// ErrSyntax is returned for input that does not decode.
	ErrSyntax = errors.New("schemafile: syntax error")
	// ErrDuplicateKey is returned when an object repeats a key.
	ErrDuplicateKey = errors.New("schemafile: duplicate key")
	// ErrInvalidDocument is returned for documents that do not describe a
	// schema node.
	ErrInvalidDocument = errors.New("schemafile: invalid document")
	// ErrUnknownRef is returned for refs naming no document.
	ErrUnknownRef = errors.New("schemafile: unknown ref")
)

// Format is the encoding of a file.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
)

func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "yaml"
}

// FormatOf picks the format from a file extension. Anything but .json is
// treated as YAML, which is a superset of JSON.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Document is one named schema.
type Document struct {
	Name string
	Node dsl.Node
}

func decode(data []byte, f Format) ([]any, error) {
	if f == FormatJSON {
		v, err := decodeJSON(data)
		if err != nil {
			return nil, err
		}
		return []any{v}, nil
	}
	return decodeYAML(data)
}

// Parse builds the schema documents held in data.
func Parse(data []byte, f Format) ([]Document, error) {
	raw, err := decode(data, f)
	if err != nil {
		return nil, err
	}
	b := newBuilder()
	docs := make([]Document, 0, len(raw))
	for i, v := range raw {
		doc, err := b.document(v, i)
		if err != nil {
			return nil, err
		}
		if doc.Name != "" {
			if _, dup := b.named[doc.Name]; dup {
				return nil, fmt.Errorf("%w: document name %q is used twice", ErrInvalidDocument, doc.Name)
			}
			b.named[doc.Name] = doc.Node
		}
		docs = append(docs, doc)
	}
	if err := b.checkRefs(); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no documents", ErrInvalidDocument)
	}
	return docs, nil
}

// Load reads and parses a schema file.
func Load(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	docs, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return docs, nil
}

// Pick returns the document called name, or the first document when name is
// empty.
func Pick(docs []Document, name string) (Document, error) {
	if name == "" && len(docs) > 0 {
		return docs[0], nil
	}
	for _, d := range docs {
		if d.Name == name {
			return d, nil
		}
	}
	return Document{}, fmt.Errorf("%w: no document named %q", ErrUnknownRef, name)
}

// DecodeData decodes data values for validation: objects become
// map[string]any, arrays []any and numbers float64. Duplicate keys are
// rejected.
func DecodeData(data []byte, f Format) ([]any, error) {
	raw, err := decode(data, f)
	if err != nil {
		return nil, err
	}
	for i, v := range raw {
		raw[i] = plain(v)
	}
	return raw, nil
}

// LoadData reads and decodes a data file.
func LoadData(path string) ([]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	vals, err := DecodeData(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return vals, nil
}
