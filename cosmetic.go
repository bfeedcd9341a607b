package adblock

import (
	"cmp"
	"log/slog"
	"slices"
	"strings"

	"github.com/AdguardTeam/adblock/filterutil"
	"github.com/AdguardTeam/adblock/resources"
	"github.com/AdguardTeam/adblock/rules"
	"github.com/AdguardTeam/golibs/container"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/bits-and-blooms/bloom/v3"
)

// bloomFalsePositiveRate is the false positive rate of the class and id token
// filter.
const bloomFalsePositiveRate = 0.01

// URLSpecificResources are the cosmetic directives for a page.
type URLSpecificResources struct {
	// StyleSelectors maps selectors to the style declarations applied to the
	// matching elements.
	StyleSelectors map[string][]string `json:"style_selectors"`

	// InjectedScript is the concatenation of the scriptlets to inject.
	InjectedScript string `json:"injected_script"`

	// HideSelectors are the selectors of the elements to hide.
	HideSelectors []string `json:"hide_selectors"`

	// Exceptions are the selectors that must not be hidden on the page.  They
	// should be passed to [Engine.HiddenClassIDSelectors].
	Exceptions []string `json:"exceptions"`

	// GenericHide is true if the generic cosmetic rules are disabled on the
	// page.
	GenericHide bool `json:"generichide"`
}

// tokenSelector is a generic hiding selector keyed by the class or id it
// starts with.
type tokenSelector struct {
	// token is the class prefixed with "." or the id prefixed with "#".
	token string

	// sel is the selector.
	sel string
}

// compareTokenSelectors orders tokenSelector values by their tokens.
func compareTokenSelectors(a, b tokenSelector) (res int) {
	return cmp.Compare(a.token, b.token)
}

// ordRule is a cosmetic rule with its position in the filter lists.
type ordRule struct {
	rule *rules.CosmeticRule
	ord  int
}

// hostRules are the cosmetic rules indexed under a hostname or an entity.
type hostRules struct {
	// rules are the rules with the key among their permitted domains.
	rules []ordRule

	// genericExceptions are the selectors of the generic rules with the key
	// among their restricted domains.
	genericExceptions []string
}

// CosmeticCache is the index of the cosmetic rules.  It is safe for concurrent
// use as long as the resources table is not modified.
type CosmeticCache struct {
	logger    *slog.Logger
	resources *resources.Table

	// specific maps hostnames and entities like "google.*" to the rules
	// applying to them.
	specific map[string]*hostRules

	// tokenSels are the generic selectors starting with a class or an id,
	// sorted by the token.
	tokenSels []tokenSelector

	// tokens contains every token of tokenSels.  Page tokens missing from it
	// are not searched in tokenSels.
	tokens *bloom.BloomFilter

	// genericHide are the generic hiding selectors not keyed by a class or an
	// id.
	genericHide []string

	// genericStyles are the generic CSS rules.
	genericStyles []*rules.CosmeticRule

	// genericScriptlets are the generic scriptlet rules.
	genericScriptlets []*rules.CosmeticRule
}

// newCosmeticCache compiles rs into a cosmetic cache.  res is used to render
// the scriptlets.
func newCosmeticCache(
	logger *slog.Logger,
	rs []*rules.CosmeticRule,
	res *resources.Table,
) (c *CosmeticCache) {
	c = &CosmeticCache{
		logger:    logger,
		resources: res,
		specific:  map[string]*hostRules{},
	}

	for i, r := range rs {
		c.add(r, i)
	}

	slices.SortStableFunc(c.tokenSels, compareTokenSelectors)

	c.tokens = bloom.NewWithEstimates(uint(max(len(c.tokenSels), 1)), bloomFalsePositiveRate)
	for _, ts := range c.tokenSels {
		c.tokens.AddString(ts.token)
	}

	return c
}

// hostRulesFor returns the rules for key, creating them if necessary.
func (c *CosmeticCache) hostRulesFor(key string) (hr *hostRules) {
	hr, ok := c.specific[key]
	if !ok {
		hr = &hostRules{}
		c.specific[key] = hr
	}

	return hr
}

// add indexes r, ord is its position in the filter lists.
func (c *CosmeticCache) add(r *rules.CosmeticRule, ord int) {
	if !r.IsGeneric() {
		for _, d := range r.PermittedDomains() {
			hr := c.hostRulesFor(d)
			hr.rules = append(hr.rules, ordRule{rule: r, ord: ord})
		}

		return
	}

	switch r.Type {
	case rules.CosmeticElementHiding:
		for _, d := range r.RestrictedDomains() {
			hr := c.hostRulesFor(d)
			hr.genericExceptions = append(hr.genericExceptions, r.Content)
		}

		c.addGenericSelector(r.Content)
	case rules.CosmeticCSS:
		c.genericStyles = append(c.genericStyles, r)
	case rules.CosmeticScriptlet:
		c.genericScriptlets = append(c.genericScriptlets, r)
	}
}

// addGenericSelector indexes a generic hiding selector by its leading class or
// id, if any.
func (c *CosmeticCache) addGenericSelector(sel string) {
	if strings.Contains(sel, ",") {
		c.genericHide = append(c.genericHide, sel)

		return
	}

	token, ok := leadingToken(sel)
	if !ok {
		c.genericHide = append(c.genericHide, sel)

		return
	}

	c.tokenSels = append(c.tokenSels, tokenSelector{
		token: sel[:1] + token,
		sel:   sel,
	})
}

// selectorsFor returns the generic selectors keyed by token, which must be
// prefixed with "." or "#".
func (c *CosmeticCache) selectorsFor(token string) (tss []tokenSelector) {
	i, ok := slices.BinarySearchFunc(c.tokenSels, tokenSelector{token: token}, compareTokenSelectors)
	if !ok {
		return nil
	}

	j := i + 1
	for ; j < len(c.tokenSels) && c.tokenSels[j].token == token; j++ {
	}

	return c.tokenSels[i:j]
}

// leadingToken returns the class or id that sel starts with.  ok is false if
// sel does not start with a class or an id selector.
func leadingToken(sel string) (token string, ok bool) {
	if len(sel) < 2 || (sel[0] != '.' && sel[0] != '#') {
		return "", false
	}

	i := 1
	for ; i < len(sel) && isTokenChar(sel[i]); i++ {
	}

	if i == 1 {
		return "", false
	}

	if i < len(sel) && !strings.ContainsRune(" .#[:>+~", rune(sel[i])) {
		return "", false
	}

	return sel[1:i], true
}

// isTokenChar returns true if c can be a part of an unescaped CSS class or id.
func isTokenChar(c byte) (ok bool) {
	return c == '-' || c == '_' || c >= 0x80 ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// matchingRules returns the specific rules that apply to hostname in filter
// list order and the generic selectors excepted on it.
func (c *CosmeticCache) matchingRules(hostname string) (rs []*rules.CosmeticRule, genericExc []string) {
	var matched []ordRule
	visit := func(key string) {
		hr, ok := c.specific[key]
		if !ok {
			return
		}

		matched = append(matched, hr.rules...)
		genericExc = append(genericExc, hr.genericExceptions...)
	}

	for _, d := range filterutil.Subdomains(hostname) {
		visit(d)
		if entity, ok := rules.EntityKey(d); ok {
			visit(entity)
		}
	}

	slices.SortFunc(matched, func(a, b ordRule) (res int) { return a.ord - b.ord })
	matched = slices.CompactFunc(matched, func(a, b ordRule) (ok bool) { return a.ord == b.ord })

	for _, m := range matched {
		if m.rule.Match(hostname) {
			rs = append(rs, m.rule)
		}
	}

	return rs, genericExc
}

// hostnameResources returns the cosmetic directives for hostname.
// genericHide disables the generic rules apart from scriptlets.
func (c *CosmeticCache) hostnameResources(hostname string, genericHide bool) (res *URLSpecificResources) {
	hostname = strings.ToLower(hostname)
	specific, genericExc := c.matchingRules(hostname)

	exceptions := container.NewMapSet(genericExc...)
	styleExceptions := container.NewMapSet[string]()
	scriptletExceptions := container.NewMapSet[string]()
	noScriptlets := false

	var hide []string
	var styles, scriptlets []*rules.CosmeticRule
	for _, r := range specific {
		switch {
		case r.Whitelist && r.Type == rules.CosmeticElementHiding:
			exceptions.Add(r.Content)
		case r.Whitelist && r.Type == rules.CosmeticCSS:
			styleExceptions.Add(r.Content + "{" + r.Style)
		case r.Whitelist && r.Type == rules.CosmeticScriptlet:
			if r.ScriptletName == "" {
				noScriptlets = true
			}

			scriptletExceptions.Add(r.Content)
		case r.Type == rules.CosmeticElementHiding:
			hide = append(hide, r.Content)
		case r.Type == rules.CosmeticCSS:
			styles = append(styles, r)
		case r.Type == rules.CosmeticScriptlet:
			scriptlets = append(scriptlets, r)
		}
	}

	if !genericHide {
		hide = append(hide, c.genericHide...)
		styles = append(matchGeneric(c.genericStyles, hostname), styles...)
	}

	scriptlets = append(matchGeneric(c.genericScriptlets, hostname), scriptlets...)

	hideSet := container.NewMapSet[string]()
	for _, sel := range hide {
		if !exceptions.Has(sel) {
			hideSet.Add(sel)
		}
	}

	res = &URLSpecificResources{
		StyleSelectors: map[string][]string{},
		HideSelectors:  sortedValues(hideSet),
		Exceptions:     sortedValues(exceptions),
		GenericHide:    genericHide,
	}

	for _, r := range styles {
		if !styleExceptions.Has(r.Content + "{" + r.Style) {
			res.StyleSelectors[r.Content] = append(res.StyleSelectors[r.Content], r.Style)
		}
	}

	if !noScriptlets {
		res.InjectedScript = c.renderScriptlets(scriptlets, scriptletExceptions)
	}

	return res
}

// matchGeneric returns the generic rules from rs that are not restricted on
// hostname.
func matchGeneric(rs []*rules.CosmeticRule, hostname string) (matched []*rules.CosmeticRule) {
	for _, r := range rs {
		if r.Match(hostname) {
			matched = append(matched, r)
		}
	}

	return matched
}

// renderScriptlets renders and concatenates the scriptlets that are not
// excepted.  The scriptlets that cannot be rendered are skipped.
func (c *CosmeticCache) renderScriptlets(
	rs []*rules.CosmeticRule,
	excepted *container.MapSet[string],
) (script string) {
	b := &strings.Builder{}
	for _, r := range rs {
		if excepted.Has(r.Content) {
			continue
		}

		s, err := c.resources.Scriptlet(r.ScriptletName, r.ScriptletArgs)
		if err != nil {
			c.logger.Debug("skipping scriptlet", "name", r.ScriptletName, slogutil.KeyError, err)

			continue
		}

		b.WriteString(s)
	}

	return b.String()
}

// hiddenClassIDSelectors returns the generic selectors that require one of
// classes or ids, excluding the ones in exceptions.
func (c *CosmeticCache) hiddenClassIDSelectors(classes, ids, exceptions []string) (sels []string) {
	var hits []string
	for _, class := range classes {
		if t := "." + class; c.tokens.TestString(t) {
			hits = append(hits, t)
		}
	}

	for _, id := range ids {
		if t := "#" + id; c.tokens.TestString(t) {
			hits = append(hits, t)
		}
	}

	if len(hits) == 0 {
		return []string{}
	}

	exc := container.NewMapSet(exceptions...)
	set := container.NewMapSet[string]()
	for _, t := range hits {
		for _, ts := range c.selectorsFor(t) {
			if !exc.Has(ts.sel) {
				set.Add(ts.sel)
			}
		}
	}

	return sortedValues(set)
}

// sortedValues returns the sorted values of set.  It never returns nil.
func sortedValues(set *container.MapSet[string]) (vals []string) {
	vals = set.Values()
	if vals == nil {
		vals = []string{}
	}

	slices.Sort(vals)

	return vals
}
