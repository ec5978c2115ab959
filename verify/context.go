package verify

// ErrorMapContext is handed to an ErrorMap together with the issue.
type ErrorMapContext struct {
	// Data is the offending input value.
	Data any
	// DefaultError is the message produced by the next lower-priority map,
	// or "" for the lowest one.
	DefaultError string
}

// ErrorMap derives a human-readable message for an issue.
type ErrorMap func(issue Issue, ctx ErrorMapContext) string

// Context is the verifier context threaded through a compiled validator. It
// owns the issue sink of one parse call; a parse never shares it with
// another goroutine.
type Context struct {
	// Output receives the validated value of the function scope.
	Output any
	// Dependencies is the read-only table captured at compile time.
	Dependencies []any
	// BasePath is prefixed to every reported path.
	BasePath []any
	// ErrorMaps are consulted from last to first; the first entry has the
	// highest priority.
	ErrorMaps []ErrorMap
	// Issues collects reported issues in order.
	Issues Issues
}

// NewContext builds a context for one parse call.
func NewContext(deps []any, basePath []any, maps ...ErrorMap) *Context {
	ms := make([]ErrorMap, 0, len(maps))
	for _, m := range maps {
		if m != nil {
			ms = append(ms, m)
		}
	}
	return &Context{Output: Undefined, Dependencies: deps, BasePath: basePath, ErrorMaps: ms}
}

// Report records an issue raised by input. The base path is prefixed and,
// unless the issue carries an explicit message, the error maps derive one.
func (c *Context) Report(issue Issue, input any) {
	if len(c.BasePath) > 0 {
		full := make([]any, 0, len(c.BasePath)+len(issue.Path))
		full = append(full, c.BasePath...)
		issue.Path = append(full, issue.Path...)
	}
	if issue.Message == "" {
		msg := ""
		for i := len(c.ErrorMaps) - 1; i >= 0; i-- {
			msg = c.ErrorMaps[i](issue, ErrorMapContext{Data: input, DefaultError: msg})
		}
		issue.Message = msg
	}
	c.Issues = append(c.Issues, issue)
}

// Fork returns a copy sharing dependencies, base path and error maps but
// with an empty issue sink. Isolated trials (union options, catch) report
// into forks.
func (c *Context) Fork() *Context {
	return &Context{
		Output:       Undefined,
		Dependencies: c.Dependencies,
		BasePath:     c.BasePath,
		ErrorMaps:    c.ErrorMaps,
	}
}

// Adopt moves the issues of a fork into c unchanged. Paths and messages
// were already resolved when the fork recorded them.
func (c *Context) Adopt(other *Context) {
	c.Issues = append(c.Issues, other.Issues...)
}
