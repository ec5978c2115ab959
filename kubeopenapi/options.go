package kubeopenapi

import "fmt"

// UnknownBehavior configures how unknown fields are treated for objects
// whose schema does not decide it through additionalProperties or
// x-kubernetes-preserve-unknown-fields.
type UnknownBehavior int

const (
	UnknownPrune UnknownBehavior = iota
	UnknownStrict
	UnknownPreserve
)

// DefaultMode controls how defaults from the schema are applied.
type DefaultMode int

const (
	DefaultIgnore DefaultMode = iota
	DefaultApply
)

// Profile selects a compatibility profile.
type Profile string

const (
	// ProfileStructuralV1 rejects schemas that are not structural: every
	// node must declare a type unless it preserves unknown fields or is
	// int-or-string.
	ProfileStructuralV1 Profile = "structural-v1"
	// ProfileLoose accepts untyped nodes as any, with a warning.
	ProfileLoose Profile = "loose"
)

// Options controls import behavior for Kubernetes OpenAPI v3 schemas.
type Options struct {
	Profile     Profile
	Unknown     UnknownBehavior
	DefaultMode DefaultMode
	// EnableEmbeddedChecks requires apiVersion, kind and metadata on
	// objects marked x-kubernetes-embedded-resource.
	EnableEmbeddedChecks bool
}

// Diag carries non-fatal warnings produced during import.
type Diag interface {
	HasWarnings() bool
	Warnings() []string
}

type simpleDiag struct{ ws []string }

func (d *simpleDiag) HasWarnings() bool  { return len(d.ws) > 0 }
func (d *simpleDiag) Warnings() []string { return append([]string(nil), d.ws...) }
func (d *simpleDiag) warnf(path, f string, a ...any) {
	d.ws = append(d.ws, path+": "+fmt.Sprintf(f, a...))
}
