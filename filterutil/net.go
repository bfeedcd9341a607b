package filterutil

// isAddrByte returns true if c can be a part of the textual representation of
// an IP address.
func isAddrByte(c byte) (ok bool) {
	switch {
	case
		c == '.', c == ':', c == '[', c == ']',
		isDigit(c),
		c >= 'a' && c <= 'f',
		c >= 'A' && c <= 'F':
		return true
	default:
		return false
	}
}

// IsProbablyIP returns true if s only contains characters that can be a part
// of an IP address.  Use it to avoid unnecessary allocations of a failed
// [netip.ParseAddr] call.
func IsProbablyIP(s string) (ok bool) {
	if len(s) < len("::") {
		return false
	}

	for i := range len(s) {
		if !isAddrByte(s[i]) {
			return false
		}
	}

	return true
}
