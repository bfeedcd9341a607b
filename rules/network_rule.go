package rules

import (
	"fmt"
	"math/bits"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/AdguardTeam/adblock/filterutil"
	"github.com/AdguardTeam/golibs/errors"
)

const (
	maskWhiteList    = "@@"
	optionsDelimiter = '$'
	escapeCharacter  = '\\'
)

// ErrTooWideRule is returned if the rule matches all URLs but has no domain or
// denyallow restrictions.
const ErrTooWideRule errors.Error = "the rule is too wide, add domain or denyallow " +
	"restrictions or make it more specific"

// ErrRedirectURLDisabled is returned for $redirect-url rules when redirect URLs
// are not enabled in the parse options.
const ErrRedirectURLDisabled errors.Error = "$redirect-url is not enabled"

var (
	reEscapedOptionsDelimiter = regexp.MustCompile(regexp.QuoteMeta("\\$"))
	reRegexpBrackets1         = regexp.MustCompile(`([^\\])\(.*[^\\]\)`)
	reRegexpBrackets2         = regexp.MustCompile(`([^\\])\{.*[^\\]\}`)
	reRegexpBrackets3         = regexp.MustCompile(`([^\\])\[.*[^\\]\]`)
	reRegexpEscapedCharacters = regexp.MustCompile(`([^\\])\[a-zA-Z]`)
	reRegexpSpecialCharacters = regexp.MustCompile(`[\\^$*+?.()|[\]{}]`)
)

// NetworkRuleOption is the enumeration of various rule options.  In order to
// save memory, we store some options as a flag.
type NetworkRuleOption uint64

// NetworkRuleOption enumeration.
const (
	OptionThirdParty NetworkRuleOption = 1 << iota // $third-party modifier
	OptionMatchCase                                // $match-case modifier
	OptionImportant                                // $important modifier
	OptionBadfilter                                // $badfilter modifier

	// OptionGenerichide is the $generichide modifier.  It disables generic
	// cosmetic rules on the matching pages.
	OptionGenerichide

	// OptionRedirect is the $redirect modifier.  The rule blocks the request
	// and redirects it to a resource.
	OptionRedirect

	// OptionRedirectRule is the $redirect-rule modifier.  The rule only
	// redirects requests that are blocked by other rules.
	OptionRedirectRule

	// OptionRedirectURL is the $redirect-url modifier.  The rule blocks the
	// request and redirects it to a literal URL.
	OptionRedirectURL

	// OptionBlacklistOnly are the options that only blocking rules may have.
	OptionBlacklistOnly = OptionImportant

	// OptionWhitelistOnly are the options that only exception rules may have.
	OptionWhitelistOnly = OptionGenerichide

	// OptionRedirectAny is the set of all redirect options.
	OptionRedirectAny = OptionRedirect | OptionRedirectRule | OptionRedirectURL
)

// Count returns the count of enabled options.
func (o NetworkRuleOption) Count() (n int) {
	return bits.OnesCount64(uint64(o))
}

// NetworkRule is a basic filtering rule.
//
// See https://adguard.com/kb/general/ad-filtering/create-own-filters/#basic-rules.
type NetworkRule struct {
	// RuleText is the original rule text.  It is empty if the rule has been
	// loaded without debug information.
	RuleText string

	// Shortcut is the longest substring of the rule pattern with no special
	// characters.
	Shortcut string

	// Tag is the value of the $tag modifier.  Rules with a tag only match while
	// the tag is enabled.
	Tag string

	// redirect is the resource name or, for $redirect-url, the URL.
	redirect string

	permittedDomains  []string // a list of permitted domains from the $domain modifier
	restrictedDomains []string // a list of restricted domains from the $domain modifier
	denyAllowDomains  []string // a list of excluded domains from the $denyallow modifier

	pattern string         // pattern is the basic rule pattern ready to be compiled to regex
	regex   *regexp.Regexp // regex is the regular expression compiled from the pattern

	enabledOptions  NetworkRuleOption // Flag with all enabled rule options
	disabledOptions NetworkRuleOption // Flag with all disabled rule options

	// mu protects regex and invalid, which are initialized lazily.
	mu sync.Mutex

	permittedRequestTypes  RequestType // Flag with all permitted request types. 0 means ALL.
	restrictedRequestTypes RequestType // Flag with all restricted request types. 0 means NONE.

	// redirectPriority is the priority of the redirect, higher wins.
	redirectPriority int32

	// Whitelist is true if this is an exception rule.
	Whitelist bool

	invalid bool // Marker that the rule is invalid. Match will always return false in this case
}

// type check
var _ Rule = (*NetworkRule)(nil)

// NewNetworkRule parses the rule text and returns a filter rule.  opts may be
// nil.
func NewNetworkRule(ruleText string, opts *ParseOptions) (r *NetworkRule, err error) {
	if opts == nil {
		opts = defaultParseOptions
	}

	pattern, options, whitelist, err := parseRuleText(ruleText)
	if err != nil {
		return nil, err
	}

	r = &NetworkRule{
		RuleText:  ruleText,
		Whitelist: whitelist,
		pattern:   pattern,
	}

	err = r.loadOptions(options, opts.IncludeRedirectURLs)
	if errors.Is(err, ErrRedirectURLDisabled) {
		return nil, err
	} else if err != nil {
		return nil, &RuleSyntaxError{msg: err.Error(), ruleText: ruleText}
	}

	// example.org/* -> example.org^
	if strings.HasSuffix(r.pattern, "/*") {
		r.pattern = r.pattern[:len(r.pattern)-len("/*")] + "^"
	}

	if r.isTooWide() {
		return nil, ErrTooWideRule
	}

	r.loadShortcut()

	return r, nil
}

// isTooWide returns true if the rule matches almost every request and has no
// restrictions to narrow it.
func (f *NetworkRule) isTooWide() (ok bool) {
	p := f.pattern
	if p != MaskStartURL && p != MaskPipe && p != MaskAnyCharacter && len(p) >= 3 {
		return false
	}

	return len(f.permittedDomains) == 0 && len(f.denyAllowDomains) == 0
}

// Text implements the [Rule] interface for *NetworkRule.
func (f *NetworkRule) Text() (s string) {
	return f.RuleText
}

// String returns the original rule text.
func (f *NetworkRule) String() (s string) {
	return f.RuleText
}

// Match checks if this filtering rule matches the specified request.
func (f *NetworkRule) Match(r *Request) (ok bool) {
	switch {
	case
		!f.matchShortcut(r),
		f.IsOptionEnabled(OptionThirdParty) && !r.ThirdParty,
		f.IsOptionDisabled(OptionThirdParty) && r.ThirdParty,
		!f.matchRequestType(r.RequestType),
		!f.matchRequestDomain(r.Hostname),
		!f.matchSourceDomain(r.SourceHostname),
		!f.matchPattern(r):
		return false
	}

	return true
}

// IsOptionEnabled returns true if the specified option is enabled.
func (f *NetworkRule) IsOptionEnabled(option NetworkRuleOption) (ok bool) {
	return (f.enabledOptions & option) == option
}

// IsOptionDisabled returns true if the specified option is disabled.
func (f *NetworkRule) IsOptionDisabled(option NetworkRuleOption) (ok bool) {
	return (f.disabledOptions & option) == option
}

// GetPermittedDomains returns the domains this rule is allowed on.
func (f *NetworkRule) GetPermittedDomains() (domains []string) {
	return f.permittedDomains
}

// IsRegexRule returns true if rule's pattern is a regular expression.
func (f *NetworkRule) IsRegexRule() (ok bool) {
	return len(f.pattern) > 1 &&
		strings.HasPrefix(f.pattern, MaskRegexRule) &&
		strings.HasSuffix(f.pattern, MaskRegexRule)
}

// IsGeneric returns true if the rule is not restricted to a limited set of
// domains.  Note that it might be forbidden on some domains, though.
func (f *NetworkRule) IsGeneric() (ok bool) {
	return len(f.permittedDomains) == 0
}

// IsImportant returns true if the rule has the $important modifier.
func (f *NetworkRule) IsImportant() (ok bool) {
	return f.IsOptionEnabled(OptionImportant)
}

// IsBadfilter returns true if the rule has the $badfilter modifier.
func (f *NetworkRule) IsBadfilter() (ok bool) {
	return f.IsOptionEnabled(OptionBadfilter)
}

// IsRedirect returns true if the rule has any of the redirect modifiers.
func (f *NetworkRule) IsRedirect() (ok bool) {
	return f.enabledOptions&OptionRedirectAny != 0
}

// IsRedirectURL returns true if the redirect target of the rule is a literal
// URL and not a resource name.
func (f *NetworkRule) IsRedirectURL() (ok bool) {
	return f.IsOptionEnabled(OptionRedirectURL)
}

// IsBlocking returns true if a match of the rule, when not excepted, blocks
// the request.  $redirect-rule rules only redirect requests blocked by other
// rules, and exception rules never block.
func (f *NetworkRule) IsBlocking() (ok bool) {
	return !f.Whitelist && !f.IsOptionEnabled(OptionRedirectRule)
}

// Redirect returns the redirect target of the rule and its priority.  target
// is empty if the rule has no redirect or, for exception rules, if the rule
// excepts all redirects.
func (f *NetworkRule) Redirect() (target string, priority int32) {
	return f.redirect, f.redirectPriority
}

// HostnamePattern returns the hostname and true if the rule is a plain
// hostname-anchored rule like "||example.org^" with no modifiers that restrict
// where it applies.  $important and $tag are allowed, as they are taken into
// account by the caller.
func (f *NetworkRule) HostnamePattern() (hostname string, ok bool) {
	if f.Whitelist ||
		f.enabledOptions&^OptionImportant != 0 ||
		f.disabledOptions != 0 ||
		f.permittedRequestTypes != 0 ||
		f.restrictedRequestTypes != 0 ||
		len(f.permittedDomains) != 0 ||
		len(f.restrictedDomains) != 0 ||
		len(f.denyAllowDomains) != 0 {
		return "", false
	}

	p := f.pattern
	if !strings.HasPrefix(p, MaskStartURL) || !strings.HasSuffix(p, MaskSeparator) {
		return "", false
	}

	hostname = p[len(MaskStartURL) : len(p)-len(MaskSeparator)]
	if !filterutil.IsDomainName(hostname) || strings.ToLower(hostname) != hostname {
		return "", false
	}

	return hostname, true
}

// IsHigherPriority checks if the rule has higher priority that the specified
// rule:
//
//	$important > whitelist > $redirect > specific > more modifiers
func (f *NetworkRule) IsHigherPriority(r *NetworkRule) (ok bool) {
	important, rImportant := f.IsImportant(), r.IsImportant()
	if important != rImportant {
		return important
	}

	if f.Whitelist != r.Whitelist {
		return f.Whitelist
	}

	redirect, rRedirect := f.IsRedirect(), r.IsRedirect()
	if redirect != rRedirect {
		// $redirect rules have "slightly" higher priority than regular basic
		// rules.
		return redirect
	}

	generic, rGeneric := f.IsGeneric(), r.IsGeneric()
	if generic != rGeneric {
		// Specific rules have priority over generic rules.
		return !generic
	}

	// More specific rules, i.e. with more modifiers, have higher priority.
	return f.modifiersCount() > r.modifiersCount()
}

// modifiersCount returns the number of modifiers narrowing the rule.
func (f *NetworkRule) modifiersCount() (n int) {
	n = f.enabledOptions.Count() + f.disabledOptions.Count() +
		f.permittedRequestTypes.Count() + f.restrictedRequestTypes.Count()
	if len(f.permittedDomains) != 0 || len(f.restrictedDomains) != 0 {
		n++
	}

	if len(f.denyAllowDomains) != 0 {
		n++
	}

	if f.Tag != "" {
		n++
	}

	return n
}

// NegatesBadfilter only makes sense when f has the $badfilter modifier.  It
// returns true if f cancels r.
func (f *NetworkRule) NegatesBadfilter(r *NetworkRule) (ok bool) {
	if !f.IsBadfilter() || r.IsBadfilter() {
		return false
	}

	return f.sameDefinition(r, OptionBadfilter)
}

// SameDefinition returns true if f and r are parsed from equivalent rule
// texts.  The rule texts themselves aren't compared, so the check works for
// rules loaded without debug information.
func (f *NetworkRule) SameDefinition(r *NetworkRule) (ok bool) {
	return f.sameDefinition(r, 0)
}

// sameDefinition compares the definitions of f and r ignoring the options in
// ignored.
func (f *NetworkRule) sameDefinition(r *NetworkRule, ignored NetworkRuleOption) (ok bool) {
	switch {
	case
		f.Whitelist != r.Whitelist,
		f.pattern != r.pattern,
		f.Tag != r.Tag,
		f.redirect != r.redirect,
		f.redirectPriority != r.redirectPriority,
		f.permittedRequestTypes != r.permittedRequestTypes,
		f.restrictedRequestTypes != r.restrictedRequestTypes,
		f.enabledOptions&^ignored != r.enabledOptions&^ignored,
		f.disabledOptions != r.disabledOptions,
		!slices.Equal(f.permittedDomains, r.permittedDomains),
		!slices.Equal(f.restrictedDomains, r.restrictedDomains),
		!slices.Equal(f.denyAllowDomains, r.denyAllowDomains):
		return false
	}

	return true
}

// preparePattern compiles the regular expression of the rule lazily.  It
// returns 1 if the regex is ready, 0 if the rule matches any URL, and -1 if
// the pattern is invalid.
func (f *NetworkRule) preparePattern() (res int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case f.regex != nil:
		return 1
	case f.invalid:
		return -1
	default:
		// Go on.
	}

	pattern := patternToRegexp(f.pattern)
	if pattern == RegexAnyCharacter {
		return 0
	}

	if !f.IsOptionEnabled(OptionMatchCase) {
		pattern = "(?i)" + pattern
	}

	var err error
	if f.regex, err = regexp.Compile(pattern); err != nil {
		f.invalid = true

		return -1
	}

	return 1
}

// matchPattern uses the regex pattern to match the request URL.
func (f *NetworkRule) matchPattern(r *Request) (ok bool) {
	switch f.preparePattern() {
	case -1:
		return false
	case 0:
		return true
	default:
		return f.regex.MatchString(r.URL)
	}
}

// matchShortcut simply checks if shortcut is a substring of the URL.
func (f *NetworkRule) matchShortcut(r *Request) (ok bool) {
	return strings.Contains(r.URLLowerCase, f.Shortcut)
}

// matchRequestDomain checks the request hostname against the $denyallow
// modifier.  The rule works only if the hostname does not belong to the
// $denyallow domains.
func (f *NetworkRule) matchRequestDomain(hostname string) (ok bool) {
	if len(f.denyAllowDomains) == 0 {
		return true
	}

	return !isDomainOrSubdomainOfAny(hostname, f.denyAllowDomains)
}

// matchSourceDomain checks if the specified filtering rule is allowed on this
// domain e.g. it checks the domain against what's specified in the $domain
// modifier.
func (f *NetworkRule) matchSourceDomain(domain string) (ok bool) {
	if len(f.restrictedDomains) > 0 && isDomainOrSubdomainOfAny(domain, f.restrictedDomains) {
		// Domain or host is restricted, i.e. $domain=~example.org.
		return false
	}

	if len(f.permittedDomains) > 0 && !isDomainOrSubdomainOfAny(domain, f.permittedDomains) {
		// Domain is not among permitted, i.e. $domain=example.org and we're
		// checking example.com.
		return false
	}

	return true
}

// matchRequestType checks if the specified request type matches the rule
// properties.
func (f *NetworkRule) matchRequestType(requestType RequestType) (ok bool) {
	if f.permittedRequestTypes != 0 && (f.permittedRequestTypes&requestType) != requestType {
		return false
	}

	if f.restrictedRequestTypes != 0 && (f.restrictedRequestTypes&requestType) == requestType {
		return false
	}

	return true
}

// setRequestType permits or forbids the specified request type.
func (f *NetworkRule) setRequestType(requestType RequestType, permitted bool) {
	if permitted {
		f.permittedRequestTypes |= requestType
	} else {
		f.restrictedRequestTypes |= requestType
	}
}

// setOptionEnabled enables or disables the specified option.  It returns an
// error if this option cannot be used with this type of rules.
func (f *NetworkRule) setOptionEnabled(option NetworkRuleOption, enabled bool) (err error) {
	if f.Whitelist && (option&OptionBlacklistOnly) == option {
		return fmt.Errorf("modifier cannot be used in an exception rule: %d", option)
	}

	if !f.Whitelist && (option&OptionWhitelistOnly) == option {
		return fmt.Errorf("modifier cannot be used in a blocking rule: %d", option)
	}

	if enabled {
		f.enabledOptions |= option
	} else {
		f.disabledOptions |= option
	}

	return nil
}

// loadOptions loads all the filtering rule options.
func (f *NetworkRule) loadOptions(options string, includeRedirectURLs bool) (err error) {
	if options == "" {
		return nil
	}

	for _, option := range splitWithEscapeCharacter(options, ',', escapeCharacter, false) {
		name, value, _ := strings.Cut(option, "=")
		if name == "redirect-url" && !includeRedirectURLs {
			return ErrRedirectURLDisabled
		}

		err = f.loadOption(name, value)
		if err != nil {
			return err
		}
	}

	if f.IsRedirect() && f.enabledOptions&OptionRedirectAny&(f.enabledOptions&OptionRedirectAny-1) != 0 {
		return errors.Error("conflicting redirect modifiers")
	}

	if f.IsOptionEnabled(OptionGenerichide) {
		// $generichide only applies to documents.
		f.permittedRequestTypes = TypeDocument
	}

	return nil
}

// requestTypeOptions maps the content type modifiers to request types.
var requestTypeOptions = map[string]RequestType{
	"document":       TypeDocument,
	"doc":            TypeDocument,
	"subdocument":    TypeSubdocument,
	"frame":          TypeSubdocument,
	"script":         TypeScript,
	"stylesheet":     TypeStylesheet,
	"css":            TypeStylesheet,
	"object":         TypeObject,
	"image":          TypeImage,
	"xmlhttprequest": TypeXmlhttprequest,
	"xhr":            TypeXmlhttprequest,
	"media":          TypeMedia,
	"font":           TypeFont,
	"websocket":      TypeWebsocket,
	"ping":           TypePing,
	"other":          TypeOther,
}

// loadOption loads specified option with its value, which may be empty.
//
//nolint:gocyclo
func (f *NetworkRule) loadOption(name, value string) (err error) {
	switch name {
	case "third-party", "~first-party", "3p", "~1p":
		return f.setOptionEnabled(OptionThirdParty, true)
	case "~third-party", "first-party", "~3p", "1p":
		return f.setOptionEnabled(OptionThirdParty, false)
	case "match-case":
		return f.setOptionEnabled(OptionMatchCase, true)
	case "~match-case":
		return f.setOptionEnabled(OptionMatchCase, false)
	case "important":
		return f.setOptionEnabled(OptionImportant, true)
	case "badfilter":
		return f.setOptionEnabled(OptionBadfilter, true)
	case "generichide", "ghide":
		return f.setOptionEnabled(OptionGenerichide, true)
	case "domain", "from":
		f.permittedDomains, f.restrictedDomains, err = loadDomains(value, "|")

		return err
	case "denyallow":
		permitted, restricted, dErr := loadDomains(value, "|")
		if dErr != nil {
			return dErr
		} else if len(restricted) > 0 {
			return fmt.Errorf("invalid $denyallow value: %s", value)
		}

		f.denyAllowDomains = permitted

		return nil
	case "tag":
		return f.loadTag(value)
	case "redirect":
		return f.loadRedirect(OptionRedirect, value)
	case "redirect-rule":
		return f.loadRedirect(OptionRedirectRule, value)
	case "redirect-url":
		return f.loadRedirectURL(value)
	}

	if t, ok := requestTypeOptions[name]; ok {
		f.setRequestType(t, true)

		return nil
	} else if t, ok = requestTypeOptions[strings.TrimPrefix(name, "~")]; ok {
		f.setRequestType(t, false)

		return nil
	}

	return fmt.Errorf("unknown filter modifier: %s=%s", name, value)
}

// loadTag loads the $tag modifier value.
func (f *NetworkRule) loadTag(value string) (err error) {
	if value == "" || strings.ContainsAny(value, "| \t") {
		return fmt.Errorf("invalid $tag value: %q", value)
	}

	f.Tag = value

	return nil
}

// loadRedirect loads the $redirect and $redirect-rule modifiers.  The value
// has the "name[:priority]" form.  Exception rules may omit the value, which
// excepts every redirect.
func (f *NetworkRule) loadRedirect(opt NetworkRuleOption, value string) (err error) {
	name, prio, hasPrio := strings.Cut(value, ":")
	if name == "" && !f.Whitelist {
		return errors.Error("empty redirect resource name")
	}

	if hasPrio {
		var p int64
		p, err = strconv.ParseInt(prio, 10, 32)
		if err != nil {
			return fmt.Errorf("bad redirect priority: %w", err)
		}

		f.redirectPriority = int32(p)
	}

	f.redirect = name
	f.enabledOptions |= opt

	return nil
}

// loadRedirectURL loads the $redirect-url modifier.
func (f *NetworkRule) loadRedirectURL(value string) (err error) {
	if value == "" && !f.Whitelist {
		return errors.Error("empty redirect url")
	} else if value != "" && filterutil.ExtractHostname(value) == "" {
		return fmt.Errorf("bad redirect url %q", value)
	}

	f.redirect = value
	f.enabledOptions |= OptionRedirectURL

	return nil
}

// loadShortcut extracts a shortcut from the pattern.  A shortcut is the
// longest substring of the pattern that does not contain any special
// characters.
func (f *NetworkRule) loadShortcut() {
	var shortcut string
	if f.IsRegexRule() {
		shortcut = findRegexpShortcut(f.pattern)
	} else {
		shortcut = findShortcut(f.pattern)
	}

	// A shortcut needs to be longer than 1 character.
	if len(shortcut) > 1 {
		f.Shortcut = strings.ToLower(shortcut)
	}
}

// findShortcut searches for the longest substring of the pattern that does not
// contain any of the special characters which are:
//
//	*
//	^
//	|
func findShortcut(pattern string) (shortcut string) {
	for pattern != "" {
		i := strings.IndexAny(pattern, "*^|")
		if i == -1 {
			if len(pattern) > len(shortcut) {
				return pattern
			}

			break
		}

		if i > len(shortcut) {
			shortcut = pattern[:i]
		}

		pattern = pattern[i+1:]
	}

	return shortcut
}

// findRegexpShortcut searches for a shortcut inside of a regexp pattern.
// Shortcut in this case is a longest string with no regex special characters.
// Complicated regexps are discarded right away.
func findRegexpShortcut(pattern string) (shortcut string) {
	// Strip the slashes.
	pattern = pattern[1 : len(pattern)-1]

	if strings.Contains(pattern, "?") {
		// Do not mess with complex expressions which use lookahead or the ?
		// special character.
		return ""
	}

	// A placeholder for a special character.
	const specialCharacter = "..."

	// Prepend specialCharacter for the following replace calls to work
	// properly.
	pattern = specialCharacter + pattern

	// Strip all types of brackets.
	pattern = reRegexpBrackets1.ReplaceAllString(pattern, "$1"+specialCharacter)
	pattern = reRegexpBrackets2.ReplaceAllString(pattern, "$1"+specialCharacter)
	pattern = reRegexpBrackets3.ReplaceAllString(pattern, "$1"+specialCharacter)

	// Strip some escaped characters.
	pattern = reRegexpEscapedCharacters.ReplaceAllString(pattern, "$1"+specialCharacter)

	for _, part := range reRegexpSpecialCharacters.Split(pattern, -1) {
		if len(part) > len(shortcut) {
			shortcut = part
		}
	}

	return shortcut
}

// parseRuleText splits the rule text in multiple parts:
//   - pattern is a basic rule pattern which can be easily converted into a
//     regex;
//   - options is a string with all rule options;
//   - whitelist indicates if the rule is an exception, i.e. it should unblock
//     requests instead of blocking them.
func parseRuleText(ruleText string) (pattern, options string, whitelist bool, err error) {
	startIndex := 0
	if strings.HasPrefix(ruleText, maskWhiteList) {
		whitelist = true
		startIndex = len(maskWhiteList)
	}

	if len(ruleText) <= startIndex {
		return "", "", false, fmt.Errorf("the rule is too short: %s", ruleText)
	}

	// Setting pattern to rule text for the case of empty options.
	pattern = ruleText[startIndex:]

	// Avoid parsing options inside of a regex rule.
	if len(pattern) > 1 &&
		strings.HasPrefix(pattern, MaskRegexRule) &&
		strings.HasSuffix(pattern, MaskRegexRule) {
		return pattern, "", whitelist, nil
	}

	foundEscaped := false
	for i := len(ruleText) - 2; i >= startIndex; i-- {
		c := ruleText[i]
		if c != optionsDelimiter {
			continue
		}

		if i > startIndex && ruleText[i-1] == escapeCharacter {
			foundEscaped = true

			continue
		}

		pattern = ruleText[startIndex:i]
		options = ruleText[i+1:]

		if foundEscaped {
			options = reEscapedOptionsDelimiter.ReplaceAllString(
				options,
				string(optionsDelimiter),
			)
		}

		break
	}

	return pattern, options, whitelist, nil
}
