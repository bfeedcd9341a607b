package rules

import (
	"math/bits"
	"strings"

	"github.com/AdguardTeam/adblock/filterutil"
	"golang.org/x/net/publicsuffix"
)

// maxURLLength limits the URL length by 4 KiB.  It appears that there can be
// URLs longer than a megabyte, and it makes no sense to go through the whole
// URL.
const maxURLLength = 4 * 1024

// RequestType is the request types enumeration.
type RequestType uint32

const (
	// TypeDocument (main frame)
	TypeDocument RequestType = 1 << iota
	// TypeSubdocument (iframe) $subdocument
	TypeSubdocument
	// TypeScript (javascript, etc) $script
	TypeScript
	// TypeStylesheet (css) $stylesheet
	TypeStylesheet
	// TypeObject (flash, etc) $object
	TypeObject
	// TypeImage (any image) $image
	TypeImage
	// TypeXmlhttprequest (ajax/fetch) $xmlhttprequest
	TypeXmlhttprequest
	// TypeMedia (video/music) $media
	TypeMedia
	// TypeFont (any custom font) $font
	TypeFont
	// TypeWebsocket (a websocket connection) $websocket
	TypeWebsocket
	// TypePing (navigator.sendBeacon() or ping attribute on links) $ping
	TypePing
	// TypeOther - any other request type
	TypeOther
)

// Count returns the count of the enabled flags.
func (t RequestType) Count() (n int) {
	return bits.OnesCount32(uint32(t))
}

// requestTypeNames maps the request type names used by browsers' webRequest
// APIs to request types.
var requestTypeNames = map[string]RequestType{
	"beacon":            TypePing,
	"csp_report":        TypeOther,
	"document":          TypeDocument,
	"fetch":             TypeXmlhttprequest,
	"font":              TypeFont,
	"image":             TypeImage,
	"imageset":          TypeImage,
	"main_frame":        TypeDocument,
	"media":             TypeMedia,
	"object":            TypeObject,
	"object_subrequest": TypeObject,
	"other":             TypeOther,
	"ping":              TypePing,
	"script":            TypeScript,
	"stylesheet":        TypeStylesheet,
	"sub_frame":         TypeSubdocument,
	"subdocument":       TypeSubdocument,
	"websocket":         TypeWebsocket,
	"xhr":               TypeXmlhttprequest,
	"xmlhttprequest":    TypeXmlhttprequest,
}

// ParseRequestType returns the request type by its name.  Unknown names are
// considered [TypeOther].
func ParseRequestType(name string) (t RequestType) {
	t, ok := requestTypeNames[strings.ToLower(name)]
	if !ok {
		return TypeOther
	}

	return t
}

// Party is the tri-state third-party hint of a request.
type Party uint8

// Party values.
const (
	// PartyUnknown means that the request is third-party if the registrable
	// domains of its hostname and source hostname differ.
	PartyUnknown Party = iota

	// PartyFirst marks a first-party request.
	PartyFirst

	// PartyThird marks a third-party request.
	PartyThird
)

// NewParty returns [PartyThird] if thirdParty is true and [PartyFirst]
// otherwise.
func NewParty(thirdParty bool) (p Party) {
	if thirdParty {
		return PartyThird
	}

	return PartyFirst
}

// Request represents a web filtering request with all its necessary
// properties.
type Request struct {
	// URL is the full request URL.
	URL string

	// URLLowerCase is the full request URL in lower case.
	URLLowerCase string

	// Hostname is the hostname to filter.
	Hostname string

	// Domain is the effective top-level domain of the request with an
	// additional label.
	Domain string

	// SourceURL is the full URL of the source.
	SourceURL string

	// SourceHostname is the hostname of the source.
	SourceHostname string

	// SourceDomain is the effective top-level domain of the source with an
	// additional label.
	SourceDomain string

	// RequestType is the type of the filtering request.
	RequestType RequestType

	// ThirdParty is true if the filtering request should consider $third-party
	// modifier.
	ThirdParty bool
}

// NewRequest creates a new instance of Request and populates its fields.  The
// hostnames are extracted from the URLs.
func NewRequest(url, sourceURL string, requestType RequestType) (r *Request) {
	if len(sourceURL) > maxURLLength {
		sourceURL = sourceURL[:maxURLLength]
	}

	r = NewRequestWithHostnames(
		url,
		filterutil.ExtractHostname(url),
		filterutil.ExtractHostname(sourceURL),
		requestType,
		PartyUnknown,
	)
	r.SourceURL = sourceURL

	return r
}

// NewRequestWithHostnames creates a new instance of Request with the
// hostnames already known to the caller.  If party is [PartyUnknown], the
// third-party flag is derived from the registrable domains.
func NewRequestWithHostnames(
	url string,
	hostname string,
	sourceHostname string,
	requestType RequestType,
	party Party,
) (r *Request) {
	if len(url) > maxURLLength {
		url = url[:maxURLLength]
	}

	r = &Request{
		RequestType: requestType,

		URL:          url,
		URLLowerCase: strings.ToLower(url),
		Hostname:     strings.ToLower(hostname),

		SourceHostname: strings.ToLower(sourceHostname),
	}

	r.Domain = effectiveTLDPlusOne(r.Hostname)
	if r.Domain == "" {
		r.Domain = r.Hostname
	}

	r.SourceDomain = effectiveTLDPlusOne(r.SourceHostname)
	if r.SourceDomain == "" {
		r.SourceDomain = r.SourceHostname
	}

	switch party {
	case PartyFirst:
		r.ThirdParty = false
	case PartyThird:
		r.ThirdParty = true
	default:
		r.ThirdParty = r.SourceDomain != "" && r.SourceDomain != r.Domain
	}

	return r
}

// effectiveTLDPlusOne is a faster version of publicsuffix.EffectiveTLDPlusOne
// that avoids using fmt.Errorf when the domain is less or equal the suffix.
func effectiveTLDPlusOne(hostname string) (domain string) {
	hostnameLen := len(hostname)
	if hostnameLen < 1 {
		return ""
	}

	if hostname[0] == '.' || hostname[hostnameLen-1] == '.' {
		return ""
	}

	suffix, _ := publicsuffix.PublicSuffix(hostname)

	i := hostnameLen - len(suffix) - 1
	if i < 0 || hostname[i] != '.' {
		return ""
	}

	return hostname[1+strings.LastIndex(hostname[:i], "."):]
}
