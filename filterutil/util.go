// Package filterutil contains helpers for working with hostnames and URLs
// that are shared by the rule parsers and the matching engine.
package filterutil

import (
	"strings"

	"github.com/miekg/dns"
)

// maxDomainNameLen is the maximum length of a textual domain name without the
// trailing dot.
const maxDomainNameLen = 253

// maxLabelLen is the maximum length of a single domain name label.
const maxLabelLen = 63

// ExtractHostname quickly retrieves the hostname from a URL without allocating.
// It returns an empty string if url has no authority part, like "/path" or
// "stun:example.org".  Userinfo, ports and the square brackets of IPv6
// addresses are stripped.
//
// NOTE: ExtractHostname is an optimized, best-effort function; it doesn't
// validate the result.
func ExtractHostname(url string) (hostname string) {
	i := strings.Index(url, "//")
	if i == -1 || strings.ContainsAny(url[:i], "/?#") {
		return ""
	}

	authority := url[i+len("//"):]
	if end := strings.IndexAny(authority, "/?#"); end != -1 {
		authority = authority[:end]
	}

	if at := strings.LastIndexByte(authority, '@'); at != -1 {
		authority = authority[at+1:]
	}

	if strings.HasPrefix(authority, "[") {
		end := strings.IndexByte(authority, ']')
		if end == -1 {
			return ""
		}

		return authority[1:end]
	}

	hostname, _, _ = strings.Cut(authority, ":")

	return hostname
}

// IsDomainName returns true if name is a valid hostname:
//
//   - it is at most 253 characters long;
//   - each label is 1 to 63 characters long, contains only ASCII letters,
//     digits and hyphens, and neither starts nor ends with a hyphen;
//   - the last label is at least 2 characters long and either contains only
//     letters or is a punycode label like "xn--p1ai".
func IsDomainName(name string) (ok bool) {
	if name == "" || len(name) > maxDomainNameLen {
		return false
	}

	for rest := name; ; {
		label, tail, more := strings.Cut(rest, ".")
		if !isValidLabel(label) {
			return false
		} else if !more {
			return isValidTLD(label)
		}

		rest = tail
	}
}

// isValidLabel returns true if label is a valid non-empty domain name label.
func isValidLabel(label string) (ok bool) {
	l := len(label)
	if l == 0 || l > maxLabelLen || label[0] == '-' || label[l-1] == '-' {
		return false
	}

	for i := range l {
		if c := label[i]; !isLetter(c) && !isDigit(c) && c != '-' {
			return false
		}
	}

	return true
}

// isValidTLD returns true if label can be the last label of a hostname.
func isValidTLD(label string) (ok bool) {
	const punycodePrefix = "xn--"

	if len(label) < 2 {
		return false
	}

	if len(label) > len(punycodePrefix) && strings.EqualFold(label[:len(punycodePrefix)], punycodePrefix) {
		// Require at least four characters of the encoded name.
		return len(label) >= len(punycodePrefix)+4
	}

	for i := range len(label) {
		if !isLetter(label[i]) {
			return false
		}
	}

	return true
}

// isLetter returns true if c is an ASCII letter.
func isLetter(c byte) (ok bool) {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// isDigit returns true if c is an ASCII digit.
func isDigit(c byte) (ok bool) {
	return c >= '0' && c <= '9'
}

// Subdomains returns hostname and all its parent domains, starting with the
// hostname itself, for example:
//
//	"www.example.org" -> ["www.example.org", "example.org", "org"]
//
// The returned strings share memory with hostname.
func Subdomains(hostname string) (subdomains []string) {
	idx := dns.Split(hostname)
	if len(idx) == 0 {
		return nil
	}

	subdomains = make([]string, 0, len(idx))
	for _, i := range idx {
		subdomains = append(subdomains, hostname[i:])
	}

	return subdomains
}
