package rules

import (
	"fmt"
	"strings"

	"github.com/AdguardTeam/golibs/errors"
)

// CosmeticRuleType is the enumeration of different cosmetic rules.
type CosmeticRuleType uint8

// CosmeticRuleType enumeration.
const (
	// CosmeticElementHiding hides the elements matching the selector.
	CosmeticElementHiding CosmeticRuleType = iota + 1

	// CosmeticCSS applies a style to the elements matching the selector.
	CosmeticCSS

	// CosmeticScriptlet injects a scriptlet into the page.
	CosmeticScriptlet
)

// Cosmetic rule markers.
const (
	markerElementHiding          = "##"
	markerElementHidingException = "#@#"
	markerCSS                    = "#$#"
	markerCSSException           = "#@$#"
)

// cosmeticRulesMarkers contains all the known cosmetic rule markers, longer
// ones first, so that a marker is never mistaken for its prefix.  Only the
// first four are supported, the others denote extended CSS, JavaScript and
// HTML filtering rules.
var cosmeticRulesMarkers = []string{
	markerCSSException,
	"#@$?#",
	"#$?#",
	"#@?#",
	"#@%#",
	markerElementHidingException,
	markerCSS,
	"#?#",
	"#%#",
	markerElementHiding,
	"$@$",
	"$$",
}

const (
	scriptletPrefix = "+js("
	styleSuffix     = ":style("
)

// proceduralMarkers are the pseudo-classes of procedural cosmetic rules which
// cannot be represented by a plain CSS selector.
var proceduralMarkers = []string{
	":-abp-",
	":contains(",
	":has-text(",
	":if(",
	":if-not(",
	":matches-attr(",
	":matches-css",
	":matches-path(",
	":matches-property(",
	":min-text-length(",
	":nth-ancestor(",
	":others(",
	":remove(",
	":remove-attr(",
	":remove-class(",
	":upward(",
	":watch-attr(",
	":xpath(",
}

// CosmeticRule represents a cosmetic rule: an element hiding rule, a CSS rule
// or a scriptlet rule.
//
// See https://adguard.com/kb/general/ad-filtering/create-own-filters/#cosmetic-rules.
type CosmeticRule struct {
	// RuleText is the original rule text.  It is empty if the rule has been
	// loaded without debug information.
	RuleText string

	// Content is the CSS selector of an element hiding or a CSS rule, or the
	// normalized scriptlet call, "name, arg1, arg2", of a scriptlet rule.
	Content string

	// Style is the style declaration of a CSS rule.
	Style string

	// ScriptletName is the name of the scriptlet.  It is empty for the
	// exception that disables all scriptlets.
	ScriptletName string

	// ScriptletArgs are the arguments of the scriptlet.
	ScriptletArgs []string

	permittedDomains  []string
	restrictedDomains []string

	// Type of the rule.
	Type CosmeticRuleType

	// Whitelist means that this rule is an exception and it disables other
	// cosmetic rules with the same content.
	Whitelist bool
}

// type check
var _ Rule = (*CosmeticRule)(nil)

// isCosmetic checks if this is a cosmetic filtering rule.
func isCosmetic(line string) (ok bool) {
	index, _ := findCosmeticRuleMarker(line)

	return index != -1
}

// findCosmeticRuleMarker looks for a cosmetic rule marker in the rule text and
// returns the starting index and the marker found.  If nothing is found, it
// returns -1.
func findCosmeticRuleMarker(ruleText string) (index int, marker string) {
	index = -1
	for _, m := range cosmeticRulesMarkers {
		i := strings.Index(ruleText, m)
		if i != -1 && (index == -1 || i < index) {
			index, marker = i, m
		}
	}

	return index, marker
}

// NewCosmeticRule parses the rule text and creates a new cosmetic rule.
func NewCosmeticRule(ruleText string) (f *CosmeticRule, err error) {
	index, marker := findCosmeticRuleMarker(ruleText)
	if index == -1 {
		return nil, &RuleSyntaxError{msg: "not a cosmetic rule", ruleText: ruleText}
	}

	f = &CosmeticRule{
		RuleText: ruleText,
	}

	switch marker {
	case markerElementHiding, markerCSS:
		// Go on.
	case markerElementHidingException, markerCSSException:
		f.Whitelist = true
	default:
		return nil, ErrUnsupportedRule
	}

	if index > 0 {
		f.permittedDomains, f.restrictedDomains, err = loadDomains(ruleText[:index], ",")
		if err != nil {
			return nil, &RuleSyntaxError{msg: err.Error(), ruleText: ruleText}
		}
	}

	content := strings.TrimSpace(ruleText[index+len(marker):])
	if content == "" {
		return nil, &RuleSyntaxError{msg: "empty rule content", ruleText: ruleText}
	}

	switch {
	case marker == markerCSS || marker == markerCSSException:
		err = f.loadCSS(content)
	case strings.HasPrefix(content, scriptletPrefix):
		err = f.loadScriptlet(content)
	case strings.HasSuffix(content, ")") && strings.Contains(content, styleSuffix):
		err = f.loadStyle(content)
	default:
		f.Type = CosmeticElementHiding
		f.Content = content
		err = validateSelector(content)
	}

	if err != nil {
		if errors.Is(err, ErrUnsupportedRule) {
			return nil, err
		}

		return nil, &RuleSyntaxError{msg: err.Error(), ruleText: ruleText}
	}

	if f.Whitelist && len(f.permittedDomains) == 0 {
		return nil, &RuleSyntaxError{
			msg:      "generic exceptions are not supported",
			ruleText: ruleText,
		}
	}

	return f, nil
}

// loadCSS loads a "selector { style }" rule.
func (f *CosmeticRule) loadCSS(content string) (err error) {
	if !strings.HasSuffix(content, "}") {
		return errors.Error("css rule must end with }")
	}

	open := strings.IndexByte(content, '{')
	if open == -1 {
		return errors.Error("css rule must contain {")
	}

	return f.setStyle(content[:open], content[open+1:len(content)-1])
}

// loadStyle loads a "selector:style(style)" rule.
func (f *CosmeticRule) loadStyle(content string) (err error) {
	i := strings.LastIndex(content, styleSuffix)

	return f.setStyle(content[:i], content[i+len(styleSuffix):len(content)-1])
}

// setStyle validates and sets the selector and the style of a CSS rule.
func (f *CosmeticRule) setStyle(selector, style string) (err error) {
	selector, style = strings.TrimSpace(selector), strings.TrimSpace(style)
	if err = validateSelector(selector); err != nil {
		return err
	}

	switch {
	case style == "":
		return errors.Error("empty style")
	case strings.ContainsAny(style, "{}"), strings.Contains(style, "url("):
		return fmt.Errorf("forbidden style %q", style)
	}

	f.Type = CosmeticCSS
	f.Content = selector
	f.Style = style

	return nil
}

// loadScriptlet loads a "+js(name, arg1, ...)" rule.
func (f *CosmeticRule) loadScriptlet(content string) (err error) {
	if !strings.HasSuffix(content, ")") {
		return errors.Error("scriptlet call must end with )")
	}

	args := splitWithEscapeCharacter(content[len(scriptletPrefix):len(content)-1], ',', '\\', true)
	for i, a := range args {
		args[i] = strings.TrimSpace(a)
	}

	if len(args) == 0 || args[0] == "" {
		if !f.Whitelist {
			return errors.Error("empty scriptlet name")
		}
	} else {
		f.ScriptletName = args[0]
		f.ScriptletArgs = args[1:]
	}

	f.Type = CosmeticScriptlet
	f.Content = strings.Join(args, ", ")

	return nil
}

// validateSelector returns an error if the selector cannot be used as a plain
// CSS selector.
func validateSelector(selector string) (err error) {
	if selector == "" {
		return errors.Error("empty selector")
	}

	if strings.ContainsAny(selector, "{}") {
		return fmt.Errorf("selector %q contains curly brackets", selector)
	}

	for _, m := range proceduralMarkers {
		if strings.Contains(selector, m) {
			return ErrUnsupportedRule
		}
	}

	return nil
}

// Text implements the [Rule] interface for *CosmeticRule.
func (f *CosmeticRule) Text() (s string) {
	return f.RuleText
}

// String returns the original rule text.
func (f *CosmeticRule) String() (s string) {
	return f.RuleText
}

// PermittedDomains returns the domains this rule applies to.
func (f *CosmeticRule) PermittedDomains() (domains []string) {
	return f.permittedDomains
}

// RestrictedDomains returns the domains this rule does not apply to.
func (f *CosmeticRule) RestrictedDomains() (domains []string) {
	return f.restrictedDomains
}

// IsGeneric returns true if the rule is not limited to a set of domains.
func (f *CosmeticRule) IsGeneric() (ok bool) {
	return len(f.permittedDomains) == 0
}

// Match returns true if this rule can be used on the specified hostname.
func (f *CosmeticRule) Match(hostname string) (ok bool) {
	if len(f.restrictedDomains) > 0 && isDomainOrSubdomainOfAny(hostname, f.restrictedDomains) {
		return false
	}

	return len(f.permittedDomains) == 0 || isDomainOrSubdomainOfAny(hostname, f.permittedDomains)
}
