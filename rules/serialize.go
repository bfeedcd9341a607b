package rules

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// networkRuleData is the serialized form of a [NetworkRule].
type networkRuleData struct {
	Text                   string   `msgpack:"t,omitempty"`
	Pattern                string   `msgpack:"p,omitempty"`
	Tag                    string   `msgpack:"g,omitempty"`
	Redirect               string   `msgpack:"r,omitempty"`
	PermittedDomains       []string `msgpack:"pd,omitempty"`
	RestrictedDomains      []string `msgpack:"rd,omitempty"`
	DenyAllowDomains       []string `msgpack:"dd,omitempty"`
	EnabledOptions         uint64   `msgpack:"eo,omitempty"`
	DisabledOptions        uint64   `msgpack:"do,omitempty"`
	PermittedRequestTypes  uint32   `msgpack:"pt,omitempty"`
	RestrictedRequestTypes uint32   `msgpack:"rt,omitempty"`
	RedirectPriority       int32    `msgpack:"rp,omitempty"`
	Whitelist              bool     `msgpack:"w,omitempty"`
}

// type check
var (
	_ msgpack.CustomEncoder = (*NetworkRule)(nil)
	_ msgpack.CustomDecoder = (*NetworkRule)(nil)
)

// EncodeMsgpack implements the [msgpack.CustomEncoder] interface for
// *NetworkRule.
func (f *NetworkRule) EncodeMsgpack(enc *msgpack.Encoder) (err error) {
	return enc.Encode(&networkRuleData{
		Text:                   f.RuleText,
		Pattern:                f.pattern,
		Tag:                    f.Tag,
		Redirect:               f.redirect,
		PermittedDomains:       f.permittedDomains,
		RestrictedDomains:      f.restrictedDomains,
		DenyAllowDomains:       f.denyAllowDomains,
		EnabledOptions:         uint64(f.enabledOptions),
		DisabledOptions:        uint64(f.disabledOptions),
		PermittedRequestTypes:  uint32(f.permittedRequestTypes),
		RestrictedRequestTypes: uint32(f.restrictedRequestTypes),
		RedirectPriority:       f.redirectPriority,
		Whitelist:              f.Whitelist,
	})
}

// DecodeMsgpack implements the [msgpack.CustomDecoder] interface for
// *NetworkRule.
func (f *NetworkRule) DecodeMsgpack(dec *msgpack.Decoder) (err error) {
	d := &networkRuleData{}
	err = dec.Decode(d)
	if err != nil {
		return fmt.Errorf("decoding network rule: %w", err)
	}

	f.RuleText = d.Text
	f.pattern = d.Pattern
	f.Tag = d.Tag
	f.redirect = d.Redirect
	f.permittedDomains = d.PermittedDomains
	f.restrictedDomains = d.RestrictedDomains
	f.denyAllowDomains = d.DenyAllowDomains
	f.enabledOptions = NetworkRuleOption(d.EnabledOptions)
	f.disabledOptions = NetworkRuleOption(d.DisabledOptions)
	f.permittedRequestTypes = RequestType(d.PermittedRequestTypes)
	f.restrictedRequestTypes = RequestType(d.RestrictedRequestTypes)
	f.redirectPriority = d.RedirectPriority
	f.Whitelist = d.Whitelist

	f.loadShortcut()

	return nil
}

// cosmeticRuleData is the serialized form of a [CosmeticRule].
type cosmeticRuleData struct {
	Text              string           `msgpack:"t,omitempty"`
	Content           string           `msgpack:"c"`
	Style             string           `msgpack:"s,omitempty"`
	ScriptletName     string           `msgpack:"n,omitempty"`
	ScriptletArgs     []string         `msgpack:"a,omitempty"`
	PermittedDomains  []string         `msgpack:"pd,omitempty"`
	RestrictedDomains []string         `msgpack:"rd,omitempty"`
	Type              CosmeticRuleType `msgpack:"y"`
	Whitelist         bool             `msgpack:"w,omitempty"`
}

// type check
var (
	_ msgpack.CustomEncoder = (*CosmeticRule)(nil)
	_ msgpack.CustomDecoder = (*CosmeticRule)(nil)
)

// EncodeMsgpack implements the [msgpack.CustomEncoder] interface for
// *CosmeticRule.
func (f *CosmeticRule) EncodeMsgpack(enc *msgpack.Encoder) (err error) {
	return enc.Encode(&cosmeticRuleData{
		Text:              f.RuleText,
		Content:           f.Content,
		Style:             f.Style,
		ScriptletName:     f.ScriptletName,
		ScriptletArgs:     f.ScriptletArgs,
		PermittedDomains:  f.permittedDomains,
		RestrictedDomains: f.restrictedDomains,
		Type:              f.Type,
		Whitelist:         f.Whitelist,
	})
}

// DecodeMsgpack implements the [msgpack.CustomDecoder] interface for
// *CosmeticRule.
func (f *CosmeticRule) DecodeMsgpack(dec *msgpack.Decoder) (err error) {
	d := &cosmeticRuleData{}
	err = dec.Decode(d)
	if err != nil {
		return fmt.Errorf("decoding cosmetic rule: %w", err)
	}

	switch d.Type {
	case CosmeticElementHiding, CosmeticCSS, CosmeticScriptlet:
		// Go on.
	default:
		return fmt.Errorf("decoding cosmetic rule %q: bad type %d", d.Text, d.Type)
	}

	*f = CosmeticRule{
		RuleText:          d.Text,
		Content:           d.Content,
		Style:             d.Style,
		ScriptletName:     d.ScriptletName,
		ScriptletArgs:     d.ScriptletArgs,
		permittedDomains:  d.PermittedDomains,
		restrictedDomains: d.RestrictedDomains,
		Type:              d.Type,
		Whitelist:         d.Whitelist,
	}

	return nil
}
