package rules

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// splitWithEscapeCharacter splits string by the specified separator if it is
// not escaped.
func splitWithEscapeCharacter(str string, sep, escapeCharacter byte, preserveAllTokens bool) (parts []string) {
	if str == "" {
		return nil
	}

	sb := &strings.Builder{}
	escaped := false
	for i := range len(str) {
		c := str[i]

		switch {
		case c == escapeCharacter:
			escaped = true
		case c == sep && escaped:
			sb.WriteByte(c)
			escaped = false
		case c == sep:
			if preserveAllTokens || sb.Len() > 0 {
				parts = append(parts, sb.String())
				sb.Reset()
			}
		default:
			if escaped {
				escaped = false
				sb.WriteByte(escapeCharacter)
			}

			sb.WriteByte(c)
		}
	}

	if preserveAllTokens || sb.Len() > 0 {
		parts = append(parts, sb.String())
	}

	return parts
}

// isDomainOrSubdomainOfAny checks if domain is a domain or a subdomain of any
// of the domains.  Entity patterns like "google.*" match "google" followed by
// any public suffix.
func isDomainOrSubdomainOfAny(domain string, domains []string) (ok bool) {
	for _, d := range domains {
		if isWildcardTLD(d) {
			if matchWildcardTLD(domain, d) {
				return true
			}
		} else if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}

	return false
}

// matchWildcardTLD returns true if domain is the entity pattern or its
// subdomain.
func matchWildcardTLD(domain, pattern string) (ok bool) {
	// "google.*" -> "google.".
	withoutWildcard := pattern[:len(pattern)-1]
	if !strings.HasPrefix(domain, withoutWildcard) &&
		!strings.Contains(domain, "."+withoutWildcard) {
		return false
	}

	tld, icann := publicsuffix.PublicSuffix(domain)

	// Make sure that the domain's TLD is one of the public suffixes.
	return tld != "" && icann && strings.HasSuffix(domain, withoutWildcard+tld) &&
		(domain == withoutWildcard+tld || strings.HasSuffix(domain, "."+withoutWildcard+tld))
}

// EntityKey returns the entity form of hostname, i.e. the hostname with its
// public suffix replaced by the "*" wildcard, for example "www.google.*" for
// "www.google.co.uk".  ok is false if hostname has nothing but a public
// suffix.
func EntityKey(hostname string) (key string, ok bool) {
	suffix, icann := publicsuffix.PublicSuffix(hostname)
	if !icann || len(suffix) >= len(hostname) {
		return "", false
	}

	i := len(hostname) - len(suffix) - 1
	if hostname[i] != '.' {
		return "", false
	}

	return hostname[:i+1] + "*", true
}
