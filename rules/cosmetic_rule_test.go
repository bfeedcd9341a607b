package rules_test

import (
	"testing"

	"github.com/AdguardTeam/adblock/rules"
	"github.com/AdguardTeam/golibs/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCosmeticRule(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		in            string
		wantContent   string
		wantStyle     string
		wantScriptlet string
		wantArgs      []string
		wantType      rules.CosmeticRuleType
		wantWhitelist bool
		wantGeneric   bool
	}{{
		name:          "generic",
		in:            "##.banner",
		wantContent:   ".banner",
		wantType:      rules.CosmeticElementHiding,
		wantWhitelist: false,
		wantGeneric:   true,
	}, {
		name:          "specific",
		in:            "example.org,~sub.example.org##div[id=ad]",
		wantContent:   "div[id=ad]",
		wantType:      rules.CosmeticElementHiding,
		wantWhitelist: false,
		wantGeneric:   false,
	}, {
		name:          "exception",
		in:            "example.org#@#.banner",
		wantContent:   ".banner",
		wantType:      rules.CosmeticElementHiding,
		wantWhitelist: true,
		wantGeneric:   false,
	}, {
		name:          "css",
		in:            "example.org#$#.ad { color: red }",
		wantContent:   ".ad",
		wantStyle:     "color: red",
		wantType:      rules.CosmeticCSS,
		wantWhitelist: false,
		wantGeneric:   false,
	}, {
		name:          "style",
		in:            "example.org##.ad:style(display: block !important)",
		wantContent:   ".ad",
		wantStyle:     "display: block !important",
		wantType:      rules.CosmeticCSS,
		wantWhitelist: false,
		wantGeneric:   false,
	}, {
		name:          "scriptlet",
		in:            "example.org##+js(set-constant, foo, true)",
		wantContent:   "set-constant, foo, true",
		wantScriptlet: "set-constant",
		wantArgs:      []string{"foo", "true"},
		wantType:      rules.CosmeticScriptlet,
		wantWhitelist: false,
		wantGeneric:   false,
	}, {
		name:          "scriptlet_escaped_comma",
		in:            `example.org##+js(abort-on-property-read, a\,b)`,
		wantContent:   "abort-on-property-read, a,b",
		wantScriptlet: "abort-on-property-read",
		wantArgs:      []string{"a,b"},
		wantType:      rules.CosmeticScriptlet,
		wantWhitelist: false,
		wantGeneric:   false,
	}, {
		name:          "scriptlet_exception_all",
		in:            "example.org#@#+js()",
		wantContent:   "",
		wantScriptlet: "",
		wantType:      rules.CosmeticScriptlet,
		wantWhitelist: true,
		wantGeneric:   false,
	}, {
		name:          "entity",
		in:            "google.*##.ad",
		wantContent:   ".ad",
		wantType:      rules.CosmeticElementHiding,
		wantWhitelist: false,
		wantGeneric:   false,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r, err := rules.NewCosmeticRule(tc.in)
			require.NoError(t, err)
			require.NotNil(t, r)

			assert.Equal(t, tc.in, r.Text())
			assert.Equal(t, tc.wantContent, r.Content)
			assert.Equal(t, tc.wantStyle, r.Style)
			assert.Equal(t, tc.wantScriptlet, r.ScriptletName)
			assert.Equal(t, tc.wantType, r.Type)
			assert.Equal(t, tc.wantWhitelist, r.Whitelist)
			assert.Equal(t, tc.wantGeneric, r.IsGeneric())

			if tc.wantArgs != nil {
				assert.Equal(t, tc.wantArgs, r.ScriptletArgs)
			}
		})
	}
}

func TestNewCosmeticRule_invalid(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		in         string
		wantErrMsg string
	}{{
		name:       "empty",
		in:         "example.org##",
		wantErrMsg: "syntax error: empty rule content, rule: example.org##",
	}, {
		name: "generic_exception",
		in:   "#@#.banner",
		wantErrMsg: "syntax error: generic exceptions are not supported, " +
			"rule: #@#.banner",
	}, {
		name:       "extended_css",
		in:         "example.org#?#.banner:has(> a)",
		wantErrMsg: "this type of rules is unsupported",
	}, {
		name:       "procedural",
		in:         "example.org##.banner:has-text(ads)",
		wantErrMsg: "this type of rules is unsupported",
	}, {
		name:       "html",
		in:         "example.org$$script[data-src=\"banner\"]",
		wantErrMsg: "this type of rules is unsupported",
	}, {
		name:       "bad_css",
		in:         "example.org#$#.ad { background: url(http://x) }",
		wantErrMsg: `syntax error: forbidden style "background: url(http://x)", ` +
			`rule: example.org#$#.ad { background: url(http://x) }`,
	}, {
		name: "css_no_braces",
		in:   "example.org#$#.ad",
		wantErrMsg: "syntax error: css rule must end with }, " +
			"rule: example.org#$#.ad",
	}, {
		name: "empty_scriptlet",
		in:   "example.org##+js()",
		wantErrMsg: "syntax error: empty scriptlet name, " +
			"rule: example.org##+js()",
	}, {
		name: "bad_domain",
		in:   "exa mple.org##.ad",
		wantErrMsg: "syntax error: invalid domain specified: exa mple.org, " +
			"rule: exa mple.org##.ad",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r, err := rules.NewCosmeticRule(tc.in)
			assert.Nil(t, r)
			testutil.AssertErrorMsg(t, tc.wantErrMsg, err)
		})
	}
}

func TestCosmeticRule_Match(t *testing.T) {
	t.Parallel()

	r, err := rules.NewCosmeticRule("example.org,google.*,~sub.example.org##.ad")
	require.NoError(t, err)

	assert.True(t, r.Match("example.org"))
	assert.True(t, r.Match("www.example.org"))
	assert.True(t, r.Match("google.com"))
	assert.True(t, r.Match("www.google.co.uk"))

	assert.False(t, r.Match("sub.example.org"))
	assert.False(t, r.Match("a.sub.example.org"))
	assert.False(t, r.Match("example.com"))

	assert.Equal(t, []string{"example.org", "google.*"}, r.PermittedDomains())
	assert.Equal(t, []string{"sub.example.org"}, r.RestrictedDomains())
}
