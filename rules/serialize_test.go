package rules_test

import (
	"testing"

	"github.com/AdguardTeam/adblock/rules"
	"github.com/AdguardTeam/golibs/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestNetworkRule_msgpack(t *testing.T) {
	t.Parallel()

	for _, text := range []string{
		"||example.org^$script,third-party,domain=example.com|~sub.example.com",
		"@@||example.org^$redirect",
		"||example.org^$redirect=noopjs:10,tag=ads",
		"*$image,domain=google.*,denyallow=cdn.example.net",
		"$domain=example.org",
		`/banner\d+/`,
	} {
		t.Run(text, func(t *testing.T) {
			t.Parallel()

			r, err := rules.NewNetworkRule(text, nil)
			require.NoError(t, err)

			b, err := msgpack.Marshal(r)
			require.NoError(t, err)

			got := &rules.NetworkRule{}
			err = msgpack.Unmarshal(b, got)
			require.NoError(t, err)

			assert.True(t, r.SameDefinition(got))
			assert.Equal(t, r.Text(), got.Text())
			assert.Equal(t, r.Shortcut, got.Shortcut)
			assert.Equal(t, r.Tag, got.Tag)
		})
	}
}

func TestCosmeticRule_msgpack(t *testing.T) {
	t.Parallel()

	r, err := rules.NewCosmeticRule("example.org,~sub.example.org##+js(set-constant, foo, true)")
	require.NoError(t, err)

	b, err := msgpack.Marshal(r)
	require.NoError(t, err)

	got := &rules.CosmeticRule{}
	err = msgpack.Unmarshal(b, got)
	require.NoError(t, err)

	assert.Equal(t, r, got)

	bad, err := msgpack.Marshal(map[string]any{"c": ".ad", "y": 42})
	require.NoError(t, err)

	err = msgpack.Unmarshal(bad, &rules.CosmeticRule{})
	testutil.AssertErrorMsg(t, `decoding cosmetic rule "": bad type 42`, err)
}
