package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitWithEscapeCharacter(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		in       string
		want     []string
		preserve bool
	}{{
		name:     "empty",
		in:       "",
		want:     nil,
		preserve: false,
	}, {
		name:     "simple",
		in:       "a,b,c",
		want:     []string{"a", "b", "c"},
		preserve: false,
	}, {
		name:     "escaped",
		in:       `a\,b,c`,
		want:     []string{"a,b", "c"},
		preserve: false,
	}, {
		name:     "escape_other",
		in:       `a\b,c`,
		want:     []string{`a\b`, "c"},
		preserve: false,
	}, {
		name:     "empty_tokens",
		in:       "a,,b,",
		want:     []string{"a", "b"},
		preserve: false,
	}, {
		name:     "empty_tokens_preserved",
		in:       "a,,b,",
		want:     []string{"a", "", "b", ""},
		preserve: true,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := splitWithEscapeCharacter(tc.in, ',', '\\', tc.preserve)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIsDomainOrSubdomainOfAny(t *testing.T) {
	t.Parallel()

	domains := []string{"example.org", "google.*"}

	assert.True(t, isDomainOrSubdomainOfAny("example.org", domains))
	assert.True(t, isDomainOrSubdomainOfAny("sub.example.org", domains))
	assert.True(t, isDomainOrSubdomainOfAny("google.com", domains))
	assert.True(t, isDomainOrSubdomainOfAny("www.google.co.uk", domains))

	assert.False(t, isDomainOrSubdomainOfAny("example.org.uk", domains))
	assert.False(t, isDomainOrSubdomainOfAny("notexample.org", domains))
	assert.False(t, isDomainOrSubdomainOfAny("google.example.org.evil", domains))
	assert.False(t, isDomainOrSubdomainOfAny("mygoogle.com", domains))
}

func TestEntityKey(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		wantOK  assert.BoolAssertionFunc
		name    string
		in      string
		wantKey string
	}{{
		wantOK:  assert.True,
		name:    "simple",
		in:      "google.com",
		wantKey: "google.*",
	}, {
		wantOK:  assert.True,
		name:    "subdomain",
		in:      "www.google.co.uk",
		wantKey: "www.google.*",
	}, {
		wantOK:  assert.False,
		name:    "suffix_only",
		in:      "co.uk",
		wantKey: "",
	}, {
		wantOK:  assert.False,
		name:    "private_suffix",
		in:      "example.github.io",
		wantKey: "",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			key, ok := EntityKey(tc.in)
			tc.wantOK(t, ok)
			assert.Equal(t, tc.wantKey, key)
		})
	}
}
