// Package adblock implements an ad-blocking engine: it compiles filter lists
// into indexes that classify network requests and compute the cosmetic
// directives for pages.
package adblock

import (
	"fmt"
	"log/slog"

	"github.com/AdguardTeam/adblock/filterlist"
	"github.com/AdguardTeam/adblock/filterutil"
	"github.com/AdguardTeam/adblock/resources"
	"github.com/AdguardTeam/adblock/rules"
	"github.com/AdguardTeam/golibs/container"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
)

// Config is the configuration of an [Engine].
type Config struct {
	// Logger is used for the debug logging.  If nil, [slog.Default] is used.
	Logger *slog.Logger

	// Optimize puts the plain hostname rules into a hash table.  Individual
	// rules cannot then be added or looked up.  A nil *Config means true.
	Optimize bool
}

// Engine combines the network blocker, the cosmetic cache, and the resources.
//
// Checks are safe for concurrent use.  Methods changing the tags, the
// resources, or the rules must not be called concurrently with any other
// method.
type Engine struct {
	logger    *slog.Logger
	blocker   *Blocker
	cosmetic  *CosmeticCache
	resources *resources.Table
	debug     bool
}

// newConfig returns c or, if c is nil, the default configuration.
func newConfig(c *Config) (conf *Config) {
	if c == nil {
		return &Config{
			Logger:   slog.Default(),
			Optimize: true,
		}
	}

	conf = &Config{}
	*conf = *c
	if conf.Logger == nil {
		conf.Logger = slog.Default()
	}

	return conf
}

// NewEngine compiles the rules from fs into an engine.  fs is consumed and
// cannot be used afterwards.  c may be nil.
func NewEngine(fs *filterlist.FilterSet, c *Config) (e *Engine, err error) {
	debug := fs.Debug()
	storage, err := fs.Consume()
	if err != nil {
		return nil, fmt.Errorf("compiling engine: %w", err)
	}

	c = newConfig(c)

	return newEngine(c.Logger, storage, resources.NewTable(), c.Optimize, debug), nil
}

// NewEngineFromRules compiles the rules from lines into an engine.  Lines
// that cannot be parsed are skipped.  c may be nil.
func NewEngineFromRules(lines []string, c *Config) (e *Engine) {
	c = newConfig(c)

	fs := filterlist.NewFilterSet(&filterlist.Config{Logger: c.Logger})

	// The set is new, so neither call can fail.
	_ = fs.AddFilters(lines, nil)
	storage, _ := fs.Consume()

	return newEngine(c.Logger, storage, resources.NewTable(), c.Optimize, false)
}

// newEngine builds the indexes over storage.
func newEngine(
	logger *slog.Logger,
	storage *filterlist.RuleStorage,
	res *resources.Table,
	optimize bool,
	debug bool,
) (e *Engine) {
	return &Engine{
		logger:    logger,
		blocker:   newBlocker(logger, storage, res, optimize),
		cosmetic:  newCosmeticCache(logger, storage.CosmeticRules(), res),
		resources: res,
		debug:     debug,
	}
}

// CheckNetworkURLs checks the request to url made from the page at sourceURL.
// requestType is a request type name like "script" or "sub_frame".  If url
// cannot be parsed, the result has the Error field set.
func (e *Engine) CheckNetworkURLs(url, sourceURL, requestType string) (res *BlockerResult) {
	if filterutil.ExtractHostname(url) == "" {
		return &BlockerResult{
			Error: fmt.Sprintf("invalid request url %q", url),
		}
	}

	req := rules.NewRequest(url, sourceURL, rules.ParseRequestType(requestType))

	return e.blocker.check(req, false, false)
}

// CheckNetworkURLsWithHostnames checks the request to url with the hostnames
// already known to the caller.  party tells if the request is third-party;
// [rules.PartyUnknown] means that it's derived from the hostnames.
func (e *Engine) CheckNetworkURLsWithHostnames(
	url string,
	hostname string,
	sourceHostname string,
	requestType string,
	party rules.Party,
) (res *BlockerResult) {
	return e.CheckNetworkURLsWithHostnamesSubset(
		url,
		hostname,
		sourceHostname,
		requestType,
		party,
		false,
		false,
	)
}

// CheckNetworkURLsWithHostnamesSubset is like
// [Engine.CheckNetworkURLsWithHostnames] for engines that are checked one
// after another.  previouslyMatched means that an earlier engine has blocked
// the request, and forceCheckExceptions makes the engine look for exceptions
// even if nothing blocks the request.
func (e *Engine) CheckNetworkURLsWithHostnamesSubset(
	url string,
	hostname string,
	sourceHostname string,
	requestType string,
	party rules.Party,
	previouslyMatched bool,
	forceCheckExceptions bool,
) (res *BlockerResult) {
	req := rules.NewRequestWithHostnames(
		url,
		hostname,
		sourceHostname,
		rules.ParseRequestType(requestType),
		party,
	)

	return e.blocker.check(req, previouslyMatched, forceCheckExceptions)
}

// UseTags replaces the enabled tags with tags.
func (e *Engine) UseTags(tags []string) {
	e.blocker.tags = container.NewMapSet(tags...)
}

// EnableTags enables tags in addition to the already enabled ones.
func (e *Engine) EnableTags(tags []string) {
	for _, t := range tags {
		e.blocker.tags.Add(t)
	}
}

// DisableTags disables tags.
func (e *Engine) DisableTags(tags []string) {
	for _, t := range tags {
		e.blocker.tags.Delete(t)
	}
}

// TagExists returns true if tag is enabled.
func (e *Engine) TagExists(tag string) (ok bool) {
	return e.blocker.tags.Has(tag)
}

// Tags returns the enabled tags sorted.
func (e *Engine) Tags() (tags []string) {
	return sortedValues(e.blocker.tags)
}

// AddResource adds the resource with the given base64-encoded content,
// replacing the resource with the same name.  contentType is either a MIME
// type or [resources.ContentTypeTemplate].
func (e *Engine) AddResource(name, contentType, content string, aliases ...string) (err error) {
	return e.resources.Add(&resources.Resource{
		Name:        name,
		ContentType: contentType,
		Content:     content,
		Aliases:     aliases,
	})
}

// UseResources replaces all the resources with rs.  If any of them is
// invalid, the resources stay unchanged.
func (e *Engine) UseResources(rs []*resources.Resource) (err error) {
	t := resources.NewTable()
	if err = t.AddAll(rs); err != nil {
		return err
	}

	*e.resources = *t

	return nil
}

// Resource returns the resource with the given name or alias.
func (e *Engine) Resource(nameOrAlias string) (r *resources.Resource, err error) {
	return e.resources.Get(nameOrAlias)
}

// singleRuleOptions are the options for parsing the rules passed to
// [Engine.FilterExists] and [Engine.AddFilter].  $redirect-url rules are
// allowed since an engine may have been compiled with them.
var singleRuleOptions = &rules.ParseOptions{
	IncludeRedirectURLs: true,
}

// FilterExists returns true if the engine has a network rule equivalent to
// text.  Optimized engines don't keep track of individual rules, so it always
// returns false for them.
func (e *Engine) FilterExists(text string) (ok bool) {
	if e.blocker.optimize {
		e.logger.Debug("checking filter existence", slogutil.KeyError, ErrOptimizedFilterExistence)

		return false
	}

	r, err := rules.NewNetworkRule(text, singleRuleOptions)
	if err != nil {
		return false
	}

	return e.blocker.filterExists(r)
}

// AddFilter parses text as a network rule and adds it to the engine.  It is
// only supported by engines that are not optimized.
func (e *Engine) AddFilter(text string) (err error) {
	if e.blocker.optimize {
		return ErrOptimizedFilterExistence
	}

	r, err := rules.NewNetworkRule(text, singleRuleOptions)
	if err != nil {
		return fmt.Errorf("parsing rule: %w", err)
	}

	switch {
	case r.IsBadfilter():
		return ErrBadFilterAddUnsupported
	case e.blocker.filterExists(r):
		return fmt.Errorf("%q: %w", text, ErrFilterExists)
	}

	if !e.debug {
		r.RuleText = ""
	}

	e.blocker.add(r)

	return nil
}

// URLCosmeticResources returns the cosmetic directives for the page at url,
// taking the $generichide exceptions into account.
func (e *Engine) URLCosmeticResources(url string) (res *URLSpecificResources) {
	hostname := filterutil.ExtractHostname(url)
	if hostname == "" {
		return e.cosmetic.hostnameResources("", false)
	}

	return e.cosmetic.hostnameResources(hostname, e.blocker.isGenericHidden(url))
}

// HostnameCosmeticResources returns the cosmetic directives for hostname
// without checking the $generichide exceptions.
func (e *Engine) HostnameCosmeticResources(hostname string) (res *URLSpecificResources) {
	return e.cosmetic.hostnameResources(hostname, false)
}

// HiddenClassIDSelectors returns the generic hiding selectors that require
// one of classes or ids, except for the ones in exceptions.  exceptions
// usually come from [URLSpecificResources.Exceptions].
func (e *Engine) HiddenClassIDSelectors(classes, ids, exceptions []string) (sels []string) {
	return e.cosmetic.hiddenClassIDSelectors(classes, ids, exceptions)
}

// String implements the [fmt.Stringer] interface for *Engine.
func (e *Engine) String() (s string) {
	return fmt.Sprintf(
		"Engine(network_rules=%d, cosmetic_rules=%d, resources=%d, tags=%q)",
		len(e.blocker.storage.NetworkRules()),
		len(e.blocker.storage.CosmeticRules()),
		e.resources.Len(),
		e.Tags(),
	)
}
