// Package resources contains the table of the named resources used by the
// $redirect network rules and the scriptlet cosmetic rules.
package resources

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/AdguardTeam/golibs/errors"
)

const (
	// ErrInvalidBase64Content is returned when the content of a resource is
	// not valid base64.
	ErrInvalidBase64Content errors.Error = "invalid base64 content"

	// ErrInvalidUTF8Content is returned when the decoded content of a textual
	// resource is not valid UTF-8.
	ErrInvalidUTF8Content errors.Error = "invalid utf-8 content"

	// ErrNotFound is returned when there is no resource with the given name or
	// alias.
	ErrNotFound errors.Error = "resource not found"
)

// ContentTypeTemplate is the content type of scriptlet templates.  Templates
// can only be injected as scriptlets and never serve as redirects.
const ContentTypeTemplate = "template"

// Resource is a named resource.
type Resource struct {
	// Name is the primary name of the resource.
	Name string `msgpack:"n"`

	// ContentType is either a MIME type or [ContentTypeTemplate].
	ContentType string `msgpack:"t"`

	// Content is the base64-encoded content of the resource.
	Content string `msgpack:"c"`

	// Aliases are the additional names of the resource.
	Aliases []string `msgpack:"a,omitempty"`

	// text is the decoded content of a textual resource.
	text string
}

// isText returns true if the decoded content of a resource with the content
// type ct must be valid UTF-8.
func isText(ct string) (ok bool) {
	mime, _, _ := strings.Cut(ct, ";")
	mime = strings.TrimSpace(strings.ToLower(mime))

	switch mime {
	case
		ContentTypeTemplate,
		"application/javascript",
		"application/json",
		"application/x-javascript",
		"image/svg+xml":
		return true
	default:
		return strings.HasPrefix(mime, "text/")
	}
}

// validate decodes and checks the content of r.
func (r *Resource) validate() (err error) {
	b, err := base64.StdEncoding.DecodeString(r.Content)
	if err != nil {
		return fmt.Errorf("resource %q: %w: %w", r.Name, ErrInvalidBase64Content, err)
	}

	if !isText(r.ContentType) {
		return nil
	}

	if !utf8.Valid(b) {
		return fmt.Errorf("resource %q: %w", r.Name, ErrInvalidUTF8Content)
	}

	r.text = string(b)

	return nil
}

// Table is a registry of resources addressable by name or alias.  It is not
// safe for concurrent use.
type Table struct {
	// resources maps the names of resources to resources.
	resources map[string]*Resource

	// aliases maps the aliases of resources to their names.
	aliases map[string]string
}

// NewTable returns a new empty resource table.
func NewTable() (t *Table) {
	return &Table{
		resources: map[string]*Resource{},
		aliases:   map[string]string{},
	}
}

// Add validates r and adds it to the table, replacing the resource with the
// same name.  If r is invalid, t is unchanged.
func (t *Table) Add(r *Resource) (err error) {
	err = r.validate()
	if err != nil {
		return err
	}

	t.add(r)

	return nil
}

// AddAll validates all resources and then adds them to the table.  If any of
// them is invalid, none are added and the errors for all invalid resources are
// returned.
func (t *Table) AddAll(rs []*Resource) (err error) {
	var errs []error
	for i, r := range rs {
		if err = r.validate(); err != nil {
			errs = append(errs, fmt.Errorf("at index %d: %w", i, err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	for _, r := range rs {
		t.add(r)
	}

	return nil
}

// add adds a validated resource.
func (t *Table) add(r *Resource) {
	if prev, ok := t.resources[r.Name]; ok {
		for _, a := range prev.Aliases {
			if t.aliases[a] == prev.Name {
				delete(t.aliases, a)
			}
		}
	}

	t.resources[r.Name] = r
	for _, a := range r.Aliases {
		t.aliases[a] = r.Name
	}
}

// Get returns the resource by its name or alias.
func (t *Table) Get(nameOrAlias string) (r *Resource, err error) {
	if r, ok := t.resources[nameOrAlias]; ok {
		return r, nil
	}

	if name, ok := t.aliases[nameOrAlias]; ok {
		return t.resources[name], nil
	}

	return nil, fmt.Errorf("%q: %w", nameOrAlias, ErrNotFound)
}

// Len returns the number of resources in the table.
func (t *Table) Len() (n int) {
	return len(t.resources)
}

// Resources returns all resources sorted by name.
func (t *Table) Resources() (rs []*Resource) {
	rs = make([]*Resource, 0, len(t.resources))
	for _, r := range t.resources {
		rs = append(rs, r)
	}

	slices.SortFunc(rs, func(a, b *Resource) (res int) {
		return strings.Compare(a.Name, b.Name)
	})

	return rs
}

// RedirectDataURL returns the data URL serving the resource with the given
// name or alias in place of a blocked request.  ok is false if there is no
// such resource or if it is a template.
func (t *Table) RedirectDataURL(nameOrAlias string) (u string, ok bool) {
	r, err := t.Get(nameOrAlias)
	if err != nil || r.ContentType == ContentTypeTemplate {
		return "", false
	}

	return "data:" + r.ContentType + ";base64," + r.Content, true
}

// reArgPlaceholder matches the "{{n}}" argument placeholders of scriptlet
// templates.
var reArgPlaceholder = regexp.MustCompile(`\{\{([0-9]+)\}\}`)

// argEscaper escapes scriptlet arguments to be put into JavaScript string
// literals.
var argEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"<", `\x3C`,
)

// Scriptlet renders the scriptlet with the given name and arguments.  The name
// may omit the ".js" suffix.  The placeholders "{{1}}", "{{2}}" and so on are
// replaced with the escaped arguments, and the placeholders without a
// corresponding argument are removed.  The body is wrapped into a try-catch
// block.
func (t *Table) Scriptlet(name string, args []string) (script string, err error) {
	r, err := t.Get(name)
	if errors.Is(err, ErrNotFound) && !strings.HasSuffix(name, ".js") {
		r, err = t.Get(name + ".js")
	}

	if err != nil {
		return "", fmt.Errorf("scriptlet: %w", err)
	}

	switch strings.ToLower(r.ContentType) {
	case ContentTypeTemplate, "application/javascript":
		// Go on.
	default:
		return "", fmt.Errorf("scriptlet %q: bad content type %q", name, r.ContentType)
	}

	body := reArgPlaceholder.ReplaceAllStringFunc(r.text, func(ph string) (arg string) {
		n, _ := strconv.Atoi(ph[len("{{") : len(ph)-len("}}")])
		if n < 1 || n > len(args) {
			return ""
		}

		return argEscaper.Replace(args[n-1])
	})

	return "try {\n" + body + "\n} catch ( e ) { }\n", nil
}
