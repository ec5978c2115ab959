package verify

// Status is the per-node parse status register. Updates combine with bitwise
// OR; once Invalid is set it stays set.
type Status uint8

const (
	// Valid means no issue was reported.
	Valid Status = 0
	// Dirty means at least one issue was reported but validation of the
	// current node may continue.
	Dirty Status = 1
	// Invalid means a fatal issue was reported and validation of the current
	// node stops.
	Invalid Status = 2
)

func (s Status) String() string {
	switch {
	case s == Valid:
		return "valid"
	case s&Invalid != 0:
		return "invalid"
	default:
		return "dirty"
	}
}

// ParserFunc is the signature of a compiled validator. Both the in-process
// evaluator and generated standalone sources produce values of this type.
type ParserFunc func(input any, ctx *Context) Status
