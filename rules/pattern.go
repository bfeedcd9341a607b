package rules

import "strings"

// Special characters of the basic rule patterns.
const (
	// MaskStartURL anchors the pattern to the beginning of the hostname,
	// including any subdomains.
	MaskStartURL = "||"

	// MaskPipe anchors the pattern to the beginning or the end of the URL.
	MaskPipe = "|"

	// MaskSeparator matches any separator character or the end of the URL.
	MaskSeparator = "^"

	// MaskAnyCharacter matches any sequence of characters.
	MaskAnyCharacter = "*"

	// MaskRegexRule starts and ends a regular expression rule.
	MaskRegexRule = "/"
)

// Regular expression counterparts of the pattern masks.
const (
	RegexAnyCharacter = ".*"
	RegexSeparator    = "([^ a-zA-Z0-9.%_-]|$)"
	RegexStartURL     = `^(http|https|ws|wss)://([a-z0-9_.-]+\.)?`
	RegexStartString  = "^"
	RegexEndString    = "$"
)

// regexSpecialCharacters are escaped when converting a basic pattern.
const regexSpecialCharacters = `.+?${}()[]/\|`

// patternToRegexp converts a basic rule pattern to a regular expression
// string.  Regular expression rules are returned without the slashes.
func patternToRegexp(pattern string) (re string) {
	if pattern == MaskStartURL || pattern == MaskPipe || pattern == MaskAnyCharacter || pattern == "" {
		return RegexAnyCharacter
	}

	if len(pattern) >= 2 &&
		strings.HasPrefix(pattern, MaskRegexRule) &&
		strings.HasSuffix(pattern, MaskRegexRule) {
		return pattern[1 : len(pattern)-1]
	}

	sb := &strings.Builder{}
	switch {
	case strings.HasPrefix(pattern, MaskStartURL):
		sb.WriteString(RegexStartURL)
		pattern = pattern[len(MaskStartURL):]
	case strings.HasPrefix(pattern, MaskPipe):
		sb.WriteString(RegexStartString)
		pattern = pattern[len(MaskPipe):]
	}

	endAnchor := strings.HasSuffix(pattern, MaskPipe)
	if endAnchor {
		pattern = pattern[:len(pattern)-len(MaskPipe)]
	}

	for i := range len(pattern) {
		c := pattern[i]
		switch {
		case c == '*':
			sb.WriteString(RegexAnyCharacter)
		case c == '^':
			sb.WriteString(RegexSeparator)
		case strings.IndexByte(regexSpecialCharacters, c) != -1:
			sb.WriteByte('\\')
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}

	if endAnchor {
		sb.WriteString(RegexEndString)
	}

	return sb.String()
}
