package rules

import (
	"net/netip"
	"strings"

	"github.com/AdguardTeam/adblock/filterutil"
	"github.com/miekg/dns"
)

// HostRule is a structure for simple host-level rules, i.e. /etc/hosts syntax.
// It also supports the "just domain" syntax, in which case the IP is set to
// 0.0.0.0.
//
// See http://man7.org/linux/man-pages/man5/hosts.5.html.
type HostRule struct {
	// IP is the address from the rule.  It is only used to tell hosts files
	// rules from plain domain lists.
	IP netip.Addr

	// RuleText is the original rule text.
	RuleText string

	// Hostnames is the list of hostnames that is configured.
	Hostnames []string
}

// type check
var _ Rule = (*HostRule)(nil)

// localHostnames are the hostnames that hosts files map to local addresses.
// They are never turned into blocking rules.
var localHostnames = map[string]struct{}{
	"0.0.0.0":               {},
	"broadcasthost":         {},
	"ip6-allhosts":          {},
	"ip6-allnodes":          {},
	"ip6-allrouters":        {},
	"ip6-localhost":         {},
	"ip6-localnet":          {},
	"ip6-loopback":          {},
	"ip6-mcastprefix":       {},
	"local":                 {},
	"localhost":             {},
	"localhost.localdomain": {},
}

// splitNextByWhitespace splits the string by whitespace, ' ' or '\t', and
// returns the first element.  The rest is stored back to ps.
func splitNextByWhitespace(ps *string) (r string) {
	s := *ps

	i := 0
	for ; i < len(s) && (s[i] == ' ' || s[i] == '\t'); i++ {
	}

	begin := i
	for ; i < len(s) && s[i] != ' ' && s[i] != '\t'; i++ {
	}

	r = s[begin:i]

	for ; i < len(s) && (s[i] == ' ' || s[i] == '\t'); i++ {
	}

	*ps = s[i:]

	return r
}

// isBlockableHostname returns true if host may be turned into a blocking rule.
// Local names and single-label names, such as top-level domains, may not.
func isBlockableHostname(host string) (ok bool) {
	if _, ok = localHostnames[host]; ok {
		return false
	}

	return strings.Contains(host, ".")
}

// NewHostRule parses the rule and creates a new HostRule instance.  The format
// is:
//
//	IP_address canonical_hostname [aliases...]
func NewHostRule(ruleText string) (h *HostRule, err error) {
	h = &HostRule{
		RuleText: ruleText,
	}

	// Strip the comment.
	line, _, _ := strings.Cut(ruleText, "#")
	line = strings.TrimSpace(line)

	first := splitNextByWhitespace(&line)
	if line == "" {
		if !filterutil.IsDomainName(first) {
			return nil, &RuleSyntaxError{msg: "invalid syntax", ruleText: ruleText}
		}

		host := strings.ToLower(first)
		if !isBlockableHostname(host) {
			return nil, &RuleSyntaxError{msg: "no blockable hostnames", ruleText: ruleText}
		}

		h.Hostnames = append(h.Hostnames, host)
		h.IP = netip.IPv4Unspecified()

		return h, nil
	}

	if !filterutil.IsProbablyIP(first) {
		return nil, &RuleSyntaxError{msg: "cannot parse ip", ruleText: ruleText}
	}

	h.IP, err = netip.ParseAddr(first)
	if err != nil {
		return nil, &RuleSyntaxError{msg: "cannot parse ip", ruleText: ruleText}
	}

	for line != "" {
		host := strings.ToLower(splitNextByWhitespace(&line))
		if _, ok := dns.IsDomainName(host); !ok || !isBlockableHostname(host) {
			continue
		}

		h.Hostnames = append(h.Hostnames, host)
	}

	if len(h.Hostnames) == 0 {
		return nil, &RuleSyntaxError{msg: "no blockable hostnames", ruleText: ruleText}
	}

	return h, nil
}

// Text implements the [Rule] interface for *HostRule.
func (f *HostRule) Text() (s string) {
	return f.RuleText
}

// String returns the original rule text.
func (f *HostRule) String() (s string) {
	return f.RuleText
}

// Match checks if this filtering rule matches the specified hostname.
func (f *HostRule) Match(hostname string) (ok bool) {
	for _, h := range f.Hostnames {
		if h == hostname {
			return true
		}
	}

	return false
}

// NetworkRules converts the host rule into the equivalent network rules, one
// "||hostname^" rule per hostname.  Each network rule keeps the text of the
// host rule.
func (f *HostRule) NetworkRules() (rs []*NetworkRule) {
	rs = make([]*NetworkRule, 0, len(f.Hostnames))
	for _, h := range f.Hostnames {
		r := &NetworkRule{
			RuleText: f.RuleText,
			pattern:  MaskStartURL + h + MaskSeparator,
		}
		r.loadShortcut()

		rs = append(rs, r)
	}

	return rs
}
