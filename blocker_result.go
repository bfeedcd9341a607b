package adblock

import (
	"fmt"
	"strings"
)

// RedirectType is the kind of a [Redirect].
type RedirectType string

// RedirectType values.
const (
	// RedirectTypeResource means that the request is served a resource from
	// the resource table.
	RedirectTypeResource RedirectType = "resource"

	// RedirectTypeURL means that the request is redirected to a URL from a
	// $redirect-url rule.
	RedirectTypeURL RedirectType = "url"
)

// Redirect is the replacement for a blocked request.  It is either a
// [*RedirectResource] or a [*RedirectURL].
type Redirect interface {
	// Type returns the kind of the redirect.
	Type() (t RedirectType)

	// Value returns the data URL or the URL to serve.
	Value() (v string)
}

// RedirectResource is a [Redirect] to a resource, rendered as a data URL.
type RedirectResource struct {
	// DataURL is the "data:" URL with the base64-encoded content of the
	// resource.
	DataURL string
}

// type check
var _ Redirect = (*RedirectResource)(nil)

// Type implements the [Redirect] interface for *RedirectResource.
func (r *RedirectResource) Type() (t RedirectType) { return RedirectTypeResource }

// Value implements the [Redirect] interface for *RedirectResource.
func (r *RedirectResource) Value() (v string) { return r.DataURL }

// RedirectURL is a [Redirect] to a literal URL.
type RedirectURL struct {
	URL string
}

// type check
var _ Redirect = (*RedirectURL)(nil)

// Type implements the [Redirect] interface for *RedirectURL.
func (r *RedirectURL) Type() (t RedirectType) { return RedirectTypeURL }

// Value implements the [Redirect] interface for *RedirectURL.
func (r *RedirectURL) Value() (v string) { return r.URL }

// BlockerResult is the result of checking a network request.
type BlockerResult struct {
	// Redirect is the replacement for the request, if any.  It is reported
	// even when an exception prevents the request from being blocked, so
	// callers must only apply it when Matched is true.
	Redirect Redirect

	// Exception is the text of the exception rule that prevented the block.
	// It is only set if the rules were compiled in debug mode.
	Exception string

	// Filter is the text of the blocking rule.  It is only set if the rules
	// were compiled in debug mode.
	Filter string

	// Error is the description of the problem with the input, if any.
	Error string

	// Matched is true if the request must be blocked.
	Matched bool

	// Important is true if the block came from an $important rule and cannot
	// be overridden.
	Important bool
}

// String implements the [fmt.Stringer] interface for *BlockerResult.
func (res *BlockerResult) String() (s string) {
	b := &strings.Builder{}
	_, _ = fmt.Fprintf(b, "BlockerResult(matched=%t, important=%t, redirect=", res.Matched, res.Important)
	if res.Redirect == nil {
		b.WriteString("None")
	} else {
		_, _ = fmt.Fprintf(b, "%s(%q)", res.Redirect.Type(), res.Redirect.Value())
	}

	for _, f := range []struct {
		name string
		val  string
	}{
		{"exception", res.Exception},
		{"filter", res.Filter},
		{"error", res.Error},
	} {
		if f.val == "" {
			_, _ = fmt.Fprintf(b, ", %s=None", f.name)
		} else {
			_, _ = fmt.Fprintf(b, ", %s=%q", f.name, f.val)
		}
	}

	b.WriteByte(')')

	return b.String()
}
