package compiler

import "errors"

var (
	// ErrUnsupportedKind is returned for schema node kinds outside the
	// compiled vocabulary.
	ErrUnsupportedKind = errors.New("goskemac: unsupported schema kind")
	// ErrNotInlinable is returned when aggressive inlining meets a value
	// that cannot be expressed as literal construction code.
	ErrNotInlinable = errors.New("goskemac: value cannot be inlined")
	// ErrCyclicSchema is returned when a node reappears on its own ancestor
	// chain.
	ErrCyclicSchema = errors.New("goskemac: cyclic schema")
	// ErrInvalidSchema is returned for structurally invalid nodes.
	ErrInvalidSchema = errors.New("goskemac: invalid schema")
)
