package rules

import (
	"testing"

	"github.com/AdguardTeam/golibs/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestNetworkRule is a helper that parses a network rule and requires
// success.
func newTestNetworkRule(tb testing.TB, text string) (r *NetworkRule) {
	tb.Helper()

	r, err := NewNetworkRule(text, &ParseOptions{IncludeRedirectURLs: true})
	require.NoError(tb, err)
	require.NotNil(tb, r)

	return r
}

func TestNetworkRule_ParseRuleText(t *testing.T) {
	testCases := []struct {
		wantWhitelist assert.BoolAssertionFunc
		name          string
		in            string
		wantPattern   string
		wantOptions   string
	}{{
		wantWhitelist: assert.False,
		name:          "url",
		in:            "||example.org^",
		wantPattern:   "||example.org^",
		wantOptions:   "",
	}, {
		wantWhitelist: assert.False,
		name:          "url_with_options",
		in:            "||example.org^$third-party",
		wantPattern:   "||example.org^",
		wantOptions:   "third-party",
	}, {
		wantWhitelist: assert.True,
		name:          "whitelist_url_with_options",
		in:            "@@||example.org^$third-party",
		wantPattern:   "||example.org^",
		wantOptions:   "third-party",
	}, {
		wantWhitelist: assert.False,
		name:          "path_with_options",
		in:            "||example.org/this$is$path$third-party",
		wantPattern:   "||example.org/this$is$path",
		wantOptions:   "third-party",
	}, {
		wantWhitelist: assert.False,
		name:          "regex",
		in:            "/regex/",
		wantPattern:   "/regex/",
		wantOptions:   "",
	}, {
		wantWhitelist: assert.True,
		name:          "whitelist_regex",
		in:            "@@/regex/",
		wantPattern:   "/regex/",
		wantOptions:   "",
	}, {
		wantWhitelist: assert.False,
		name:          "escaped_delimiter",
		in:            "||example.org^$domain=a\\$b.org,script",
		wantPattern:   "||example.org^",
		wantOptions:   "domain=a$b.org,script",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pattern, options, whitelist, err := parseRuleText(tc.in)
			require.NoError(t, err)

			assert.Equal(t, tc.wantPattern, pattern)
			assert.Equal(t, tc.wantOptions, options)
			tc.wantWhitelist(t, whitelist)
		})
	}

	_, _, _, err := parseRuleText("@@")
	testutil.AssertErrorMsg(t, "the rule is too short: @@", err)
}

func TestNetworkRule_ParseModifiers(t *testing.T) {
	testCases := []struct {
		name    string
		in      string
		option  NetworkRuleOption
		enabled bool
	}{{
		name:    "third_party",
		in:      "||example.org^$third-party",
		option:  OptionThirdParty,
		enabled: true,
	}, {
		name:    "3p",
		in:      "||example.org^$3p",
		option:  OptionThirdParty,
		enabled: true,
	}, {
		name:    "first_party",
		in:      "||example.org^$first-party",
		option:  OptionThirdParty,
		enabled: false,
	}, {
		name:    "match_case",
		in:      "||example.org^$match-case",
		option:  OptionMatchCase,
		enabled: true,
	}, {
		name:    "important",
		in:      "||example.org^$important",
		option:  OptionImportant,
		enabled: true,
	}, {
		name:    "badfilter",
		in:      "||example.org^$badfilter",
		option:  OptionBadfilter,
		enabled: true,
	}, {
		name:    "generichide",
		in:      "@@||example.org^$generichide",
		option:  OptionGenerichide,
		enabled: true,
	}, {
		name:    "ghide",
		in:      "@@||example.org^$ghide",
		option:  OptionGenerichide,
		enabled: true,
	}, {
		name:    "redirect",
		in:      "||example.org^$redirect=noopjs",
		option:  OptionRedirect,
		enabled: true,
	}, {
		name:    "redirect_rule",
		in:      "||example.org^$redirect-rule=noopjs",
		option:  OptionRedirectRule,
		enabled: true,
	}, {
		name:    "redirect_url",
		in:      "||example.org^$redirect-url=http://example.com",
		option:  OptionRedirectURL,
		enabled: true,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestNetworkRule(t, tc.in)
			if tc.enabled {
				assert.True(t, r.IsOptionEnabled(tc.option))
			} else {
				assert.True(t, r.IsOptionDisabled(tc.option))
			}
		})
	}
}

func TestNetworkRule_InvalidModifiers(t *testing.T) {
	testCases := []struct {
		name       string
		in         string
		wantErrMsg string
	}{{
		name: "unknown",
		in:   "||example.org^$unknown",
		wantErrMsg: "syntax error: unknown filter modifier: unknown=, " +
			"rule: ||example.org^$unknown",
	}, {
		name: "important_exception",
		in:   "@@||example.org^$important",
		wantErrMsg: "syntax error: modifier cannot be used in an exception rule: 4, " +
			"rule: @@||example.org^$important",
	}, {
		name: "generichide_blocking",
		in:   "||example.org^$generichide",
		wantErrMsg: "syntax error: modifier cannot be used in a blocking rule: 16, " +
			"rule: ||example.org^$generichide",
	}, {
		name:       "empty_tag",
		in:         "||example.org^$tag=",
		wantErrMsg: `syntax error: invalid $tag value: "", rule: ||example.org^$tag=`,
	}, {
		name: "empty_redirect",
		in:   "||example.org^$redirect=",
		wantErrMsg: "syntax error: empty redirect resource name, " +
			"rule: ||example.org^$redirect=",
	}, {
		name: "bad_priority",
		in:   "||example.org^$redirect=noopjs:high",
		wantErrMsg: `syntax error: bad redirect priority: strconv.ParseInt: ` +
			`parsing "high": invalid syntax, rule: ||example.org^$redirect=noopjs:high`,
	}, {
		name: "two_redirects",
		in:   "||example.org^$redirect=noopjs,redirect-rule=noopjs",
		wantErrMsg: "syntax error: conflicting redirect modifiers, " +
			"rule: ||example.org^$redirect=noopjs,redirect-rule=noopjs",
	}, {
		name:       "too_wide",
		in:         "*$third-party",
		wantErrMsg: string(ErrTooWideRule),
	}, {
		name:       "too_wide_short",
		in:         "ad$script",
		wantErrMsg: string(ErrTooWideRule),
	}, {
		name: "bad_domain",
		in:   "||example.org^$domain=",
		wantErrMsg: "syntax error: no domains specified, " +
			"rule: ||example.org^$domain=",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := NewNetworkRule(tc.in, nil)
			assert.Nil(t, r)
			testutil.AssertErrorMsg(t, tc.wantErrMsg, err)
		})
	}
}

func TestNetworkRule_RedirectURLDisabled(t *testing.T) {
	const text = "||foo.com$important,redirect-url=http://xyz.com"

	r, err := NewNetworkRule(text, nil)
	assert.Nil(t, r)
	assert.ErrorIs(t, err, ErrRedirectURLDisabled)

	r = newTestNetworkRule(t, text)
	assert.True(t, r.IsImportant())
	assert.True(t, r.IsRedirectURL())
	assert.True(t, r.IsBlocking())

	target, _ := r.Redirect()
	assert.Equal(t, "http://xyz.com", target)
}

func TestNetworkRule_Redirect(t *testing.T) {
	r := newTestNetworkRule(t, "||example.org^$script,redirect=noopjs:42")
	target, prio := r.Redirect()
	assert.Equal(t, "noopjs", target)
	assert.Equal(t, int32(42), prio)
	assert.True(t, r.IsBlocking())
	assert.False(t, r.IsRedirectURL())

	r = newTestNetworkRule(t, "||example.org^$redirect-rule=noopjs")
	assert.True(t, r.IsRedirect())
	assert.False(t, r.IsBlocking())

	r = newTestNetworkRule(t, "@@||example.org^$redirect")
	target, _ = r.Redirect()
	assert.Empty(t, target)
	assert.True(t, r.IsRedirect())
	assert.False(t, r.IsBlocking())
}

func TestNetworkRule_Tag(t *testing.T) {
	r := newTestNetworkRule(t, "||example.org^$tag=ads")
	assert.Equal(t, "ads", r.Tag)

	r = newTestNetworkRule(t, "||example.org^")
	assert.Empty(t, r.Tag)
}

func TestNetworkRule_FindShortcut(t *testing.T) {
	testCases := []struct {
		name    string
		pattern string
		want    string
	}{{
		name:    "hostname",
		pattern: "||example.org^",
		want:    "example.org",
	}, {
		name:    "wildcards",
		pattern: "|https://*examp",
		want:    "https://",
	}, {
		name:    "longest",
		pattern: "/ad*/banner.png",
		want:    "/banner.png",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, findShortcut(tc.pattern))
		})
	}

	assert.Equal(t, "example", findRegexpShortcut("/example/"))
	assert.Equal(t, "", findRegexpShortcut("/exa?mple/"))
	assert.Equal(t, "banner", findRegexpShortcut(`/\d+banner[0-9]/`))
}

func TestNetworkRule_Match(t *testing.T) {
	testCases := []struct {
		want      assert.BoolAssertionFunc
		name      string
		rule      string
		url       string
		sourceURL string
		reqType   RequestType
	}{{
		want:      assert.True,
		name:      "hostname",
		rule:      "||example.org^",
		url:       "https://example.org/",
		sourceURL: "",
		reqType:   TypeOther,
	}, {
		want:      assert.True,
		name:      "subdomain",
		rule:      "||example.org^",
		url:       "https://sub.example.org/path",
		sourceURL: "",
		reqType:   TypeOther,
	}, {
		want:      assert.False,
		name:      "different_domain",
		rule:      "||example.org^",
		url:       "https://example.org.uk/",
		sourceURL: "",
		reqType:   TypeOther,
	}, {
		want:      assert.True,
		name:      "substring",
		rule:      "-advertisement-",
		url:       "http://example.com/-advertisement-icon.",
		sourceURL: "",
		reqType:   TypeImage,
	}, {
		want:      assert.False,
		name:      "match_case",
		rule:      "/BannerAd$match-case",
		url:       "https://example.org/bannerad",
		sourceURL: "",
		reqType:   TypeOther,
	}, {
		want:      assert.True,
		name:      "case_insensitive",
		rule:      "/BannerAd",
		url:       "https://example.org/bannerad",
		sourceURL: "",
		reqType:   TypeOther,
	}, {
		want:      assert.True,
		name:      "regex",
		rule:      `/banner\d+/`,
		url:       "https://example.org/banner123",
		sourceURL: "",
		reqType:   TypeOther,
	}, {
		want:      assert.True,
		name:      "third_party",
		rule:      "||example.org^$third-party",
		url:       "https://example.org/",
		sourceURL: "https://example.com/",
		reqType:   TypeOther,
	}, {
		want:      assert.False,
		name:      "third_party_first",
		rule:      "||example.org^$third-party",
		url:       "https://sub.example.org/",
		sourceURL: "https://example.org/",
		reqType:   TypeOther,
	}, {
		want:      assert.True,
		name:      "content_type",
		rule:      "||example.org^$script,stylesheet",
		url:       "https://example.org/",
		sourceURL: "",
		reqType:   TypeStylesheet,
	}, {
		want:      assert.False,
		name:      "content_type_mismatch",
		rule:      "||example.org^$script",
		url:       "https://example.org/",
		sourceURL: "",
		reqType:   TypeImage,
	}, {
		want:      assert.False,
		name:      "content_type_negated",
		rule:      "||example.org^$~script",
		url:       "https://example.org/",
		sourceURL: "",
		reqType:   TypeScript,
	}, {
		want:      assert.True,
		name:      "domain",
		rule:      "||example.org^$domain=example.com",
		url:       "https://example.org/",
		sourceURL: "https://sub.example.com/",
		reqType:   TypeOther,
	}, {
		want:      assert.False,
		name:      "domain_restricted",
		rule:      "||example.org^$domain=example.com|~sub.example.com",
		url:       "https://example.org/",
		sourceURL: "https://sub.example.com/",
		reqType:   TypeOther,
	}, {
		want:      assert.True,
		name:      "wildcard_tld",
		rule:      "||example.org^$domain=google.*",
		url:       "https://example.org/",
		sourceURL: "https://www.google.co.uk/",
		reqType:   TypeOther,
	}, {
		want:      assert.False,
		name:      "denyallow",
		rule:      "*$script,domain=example.org,denyallow=cdn.example.net",
		url:       "https://cdn.example.net/lib.js",
		sourceURL: "https://example.org/",
		reqType:   TypeScript,
	}, {
		want:      assert.True,
		name:      "denyallow_other",
		rule:      "*$script,domain=example.org,denyallow=cdn.example.net",
		url:       "https://tracker.example.com/t.js",
		sourceURL: "https://example.org/",
		reqType:   TypeScript,
	}, {
		want:      assert.True,
		name:      "generichide_document",
		rule:      "@@||example.org^$generichide",
		url:       "https://example.org/",
		sourceURL: "https://example.org/",
		reqType:   TypeDocument,
	}, {
		want:      assert.False,
		name:      "generichide_script",
		rule:      "@@||example.org^$generichide",
		url:       "https://example.org/script.js",
		sourceURL: "https://example.org/",
		reqType:   TypeScript,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestNetworkRule(t, tc.rule)
			req := NewRequest(tc.url, tc.sourceURL, tc.reqType)

			tc.want(t, r.Match(req))
		})
	}
}

func TestNetworkRule_Priority(t *testing.T) {
	testCases := []struct {
		want  assert.BoolAssertionFunc
		name  string
		left  string
		right string
	}{{
		want:  assert.True,
		name:  "important_over_whitelist",
		left:  "||example.org$important",
		right: "@@||example.org",
	}, {
		want:  assert.False,
		name:  "same",
		left:  "||example.org$important",
		right: "||example.org$important",
	}, {
		want:  assert.True,
		name:  "whitelist_over_basic",
		left:  "@@||example.org",
		right: "||example.org",
	}, {
		want:  assert.True,
		name:  "redirect_over_basic",
		left:  "||example.org$redirect=noopjs",
		right: "||example.org$script",
	}, {
		want:  assert.True,
		name:  "specific_over_generic",
		left:  "||example.org$domain=example.org",
		right: "||example.org$script,stylesheet",
	}, {
		want:  assert.True,
		name:  "more_modifiers",
		left:  "||example.org$script,stylesheet",
		right: "||example.org$script",
	}, {
		want:  assert.True,
		name:  "denyallow",
		left:  "||example.org$denyallow=com",
		right: "||example.org",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l := newTestNetworkRule(t, tc.left)
			r := newTestNetworkRule(t, tc.right)

			tc.want(t, l.IsHigherPriority(r))
		})
	}
}

func TestNetworkRule_NegatesBadfilter(t *testing.T) {
	testCases := []struct {
		want      assert.BoolAssertionFunc
		name      string
		rule      string
		badfilter string
	}{{
		want:      assert.True,
		name:      "success",
		rule:      "*$image,domain=example.org",
		badfilter: "*$image,domain=example.org,badfilter",
	}, {
		want:      assert.False,
		name:      "no_image",
		rule:      "*$image,domain=example.org",
		badfilter: "*$domain=example.org,badfilter",
	}, {
		want:      assert.True,
		name:      "badfilter_first",
		rule:      "*$image,domain=example.org",
		badfilter: "*$image,badfilter,domain=example.org",
	}, {
		want:      assert.False,
		name:      "several_domains",
		rule:      "*$image,domain=example.org|example.com",
		badfilter: "*$image,domain=example.org,badfilter",
	}, {
		want:      assert.True,
		name:      "whitelist_success",
		rule:      "@@*$image,domain=example.org",
		badfilter: "@@*$image,domain=example.org,badfilter",
	}, {
		want:      assert.False,
		name:      "whitelist_over_badfilter",
		rule:      "@@*$image,domain=example.org",
		badfilter: "*$image,domain=example.org,badfilter",
	}, {
		want:      assert.False,
		name:      "different_tags",
		rule:      "||example.org^$tag=ads",
		badfilter: "||example.org^$tag=other,badfilter",
	}, {
		want:      assert.True,
		name:      "redirect",
		rule:      "||example.org^$redirect=noopjs",
		badfilter: "||example.org^$redirect=noopjs,badfilter",
	}, {
		want:      assert.False,
		name:      "badfilter_itself",
		rule:      "||example.org^$badfilter",
		badfilter: "||example.org^$badfilter",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestNetworkRule(t, tc.rule)
			b := newTestNetworkRule(t, tc.badfilter)

			tc.want(t, b.NegatesBadfilter(r))
		})
	}
}

func TestNetworkRule_SameDefinition(t *testing.T) {
	a := newTestNetworkRule(t, "||example.org^$script,domain=example.com")
	b := newTestNetworkRule(t, "||example.org^$script,domain=example.com")
	c := newTestNetworkRule(t, "||example.org^$image,domain=example.com")

	b.RuleText = ""

	assert.True(t, a.SameDefinition(b))
	assert.False(t, a.SameDefinition(c))
}

func TestNetworkRule_HostnamePattern(t *testing.T) {
	testCases := []struct {
		wantOK   assert.BoolAssertionFunc
		name     string
		rule     string
		wantHost string
	}{{
		wantOK:   assert.True,
		name:     "plain",
		rule:     "||ads.example.org^",
		wantHost: "ads.example.org",
	}, {
		wantOK:   assert.True,
		name:     "important",
		rule:     "||ads.example.org^$important",
		wantHost: "ads.example.org",
	}, {
		wantOK:   assert.True,
		name:     "tag",
		rule:     "||ads.example.org^$tag=ads",
		wantHost: "ads.example.org",
	}, {
		wantOK:   assert.False,
		name:     "path",
		rule:     "||ads.example.org/banner^",
		wantHost: "",
	}, {
		wantOK:   assert.False,
		name:     "options",
		rule:     "||ads.example.org^$script",
		wantHost: "",
	}, {
		wantOK:   assert.False,
		name:     "exception",
		rule:     "@@||ads.example.org^",
		wantHost: "",
	}, {
		wantOK:   assert.False,
		name:     "redirect",
		rule:     "||ads.example.org^$redirect=noopjs",
		wantHost: "",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			host, ok := newTestNetworkRule(t, tc.rule).HostnamePattern()
			tc.wantOK(t, ok)
			assert.Equal(t, tc.wantHost, host)
		})
	}
}
