package adblock

import (
	"log/slog"

	"github.com/AdguardTeam/adblock/filterlist"
	"github.com/AdguardTeam/adblock/internal/lookup"
	"github.com/AdguardTeam/adblock/resources"
	"github.com/AdguardTeam/adblock/rules"
	"github.com/AdguardTeam/golibs/container"
)

// Blocker is the network part of the engine.  It keeps the network rules
// partitioned by their role and indexed for the request lookups.
//
// Blocker is safe for concurrent checks as long as nothing is added to it and
// its tags are not changed.
type Blocker struct {
	logger    *slog.Logger
	storage   *filterlist.RuleStorage
	resources *resources.Table

	// tags are the enabled tags.  Rules with a tag only match while their
	// tag is in the set.
	tags *container.MapSet[string]

	// badfilters maps the shortcuts of $badfilter rules to them.  Rules with
	// the same pattern have the same shortcut.
	badfilters map[string][]*rules.NetworkRule

	// importants are the blocking rules with the $important modifier.
	importants *lookup.Index

	// filters are the other blocking rules.
	filters *lookup.Index

	// exceptions are the exception rules that unblock requests.
	exceptions *lookup.Index

	// redirects are the redirect rules and the exception rules that cancel
	// redirects.
	redirects *lookup.Index

	// genericHide are the $generichide exception rules.
	genericHide *lookup.Index

	optimize bool
}

// newBlocker compiles the network rules from storage into a blocker.  res is
// used to resolve the redirects.
func newBlocker(
	logger *slog.Logger,
	storage *filterlist.RuleStorage,
	res *resources.Table,
	optimize bool,
) (b *Blocker) {
	b = &Blocker{
		logger:      logger,
		storage:     storage,
		resources:   res,
		tags:        container.NewMapSet[string](),
		badfilters:  map[string][]*rules.NetworkRule{},
		importants:  lookup.NewIndex(storage, optimize),
		filters:     lookup.NewIndex(storage, optimize),
		exceptions:  lookup.NewIndex(storage, optimize),
		redirects:   lookup.NewIndex(storage, false),
		genericHide: lookup.NewIndex(storage, false),
		optimize:    optimize,
	}

	all := storage.NetworkRules()
	for _, r := range all {
		if r.IsBadfilter() {
			b.badfilters[r.Shortcut] = append(b.badfilters[r.Shortcut], r)
		}
	}

	for i, r := range all {
		b.index(r, int64(i))
	}

	return b
}

// add appends r to the storage and indexes it.
func (b *Blocker) add(r *rules.NetworkRule) {
	b.index(r, b.storage.AddNetworkRule(r))
}

// index puts the rule with the given storage index into its partitions.
func (b *Blocker) index(r *rules.NetworkRule, idx int64) {
	if r.IsBadfilter() {
		return
	}

	if bf := b.negatingBadfilter(r); bf != nil {
		b.logger.Debug("rule disabled by badfilter", "rule", r.RuleText, "badfilter", bf.RuleText)

		return
	}

	switch {
	case r.Whitelist && r.IsRedirect():
		b.redirects.Add(r, idx)
	case r.Whitelist && r.IsOptionEnabled(rules.OptionGenerichide):
		b.genericHide.Add(r, idx)
	case r.Whitelist:
		b.exceptions.Add(r, idx)
	default:
		if r.IsRedirect() {
			b.redirects.Add(r, idx)
		}

		if !r.IsBlocking() {
			return
		}

		if r.IsImportant() {
			b.importants.Add(r, idx)
		} else {
			b.filters.Add(r, idx)
		}
	}
}

// negatingBadfilter returns the $badfilter rule that disables r, if any.
func (b *Blocker) negatingBadfilter(r *rules.NetworkRule) (bf *rules.NetworkRule) {
	for _, f := range b.badfilters[r.Shortcut] {
		if f.NegatesBadfilter(r) {
			return f
		}
	}

	return nil
}

// isActive returns true if the tag of r is enabled or r has no tag.
func (b *Blocker) isActive(r *rules.NetworkRule) (ok bool) {
	return r.Tag == "" || b.tags.Has(r.Tag)
}

// matchAll returns the active rules from idx that match req in storage order.
func (b *Blocker) matchAll(idx *lookup.Index, req *rules.Request) (res []*rules.NetworkRule) {
	for _, r := range idx.MatchAll(req) {
		if b.isActive(r) {
			res = append(res, r)
		}
	}

	return res
}

// bestMatch returns the active rule from idx with the highest priority that
// matches req.  Of the rules with equal priority, the earliest one wins.
func (b *Blocker) bestMatch(idx *lookup.Index, req *rules.Request) (best *rules.NetworkRule) {
	for _, r := range b.matchAll(idx, req) {
		if best == nil || r.IsHigherPriority(best) {
			best = r
		}
	}

	return best
}

// check classifies req.  previouslyMatched means that a previous blocker has
// already blocked the request, and forceExceptions makes the blocker search
// for exceptions even when nothing blocks the request.
func (b *Blocker) check(req *rules.Request, previouslyMatched, forceExceptions bool) (res *BlockerResult) {
	res = &BlockerResult{}

	filter := b.bestMatch(b.importants, req)
	if filter == nil {
		filter = b.bestMatch(b.filters, req)
	}

	var exception *rules.NetworkRule
	switch {
	case filter != nil && filter.IsImportant():
		// $important blocks cannot be overridden.
	case filter != nil, previouslyMatched, forceExceptions:
		exception = b.bestMatch(b.exceptions, req)
	}

	if filter != nil {
		res.Filter = filter.RuleText
		res.Important = filter.IsImportant()
	}

	if exception != nil {
		res.Exception = exception.RuleText
	}

	blocked := filter != nil || previouslyMatched
	if blocked {
		res.Redirect = b.redirect(req)
	}

	res.Matched = blocked && exception == nil

	return res
}

// redirect returns the redirect for the blocked request req or nil if there
// is none.
func (b *Blocker) redirect(req *rules.Request) (rd Redirect) {
	matched := b.matchAll(b.redirects, req)
	if len(matched) == 0 {
		return nil
	}

	excepted := map[string]struct{}{}
	for _, r := range matched {
		if !r.Whitelist {
			continue
		}

		name, _ := r.Redirect()
		if name == "" {
			return nil
		}

		excepted[name] = struct{}{}
	}

	var best *rules.NetworkRule
	var bestPriority int32
	for _, r := range matched {
		if r.Whitelist {
			continue
		}

		name, priority := r.Redirect()
		if _, ok := excepted[name]; ok {
			continue
		}

		if best == nil || priority > bestPriority {
			best, bestPriority = r, priority
		}
	}

	if best == nil {
		return nil
	}

	target, _ := best.Redirect()
	if best.IsRedirectURL() {
		return &RedirectURL{URL: target}
	}

	dataURL, ok := b.resources.RedirectDataURL(target)
	if !ok {
		b.logger.Debug("redirect resource not found", "resource", target, "rule", best.RuleText)

		return nil
	}

	return &RedirectResource{DataURL: dataURL}
}

// isGenericHidden returns true if an active $generichide exception matches
// the page at pageURL.
func (b *Blocker) isGenericHidden(pageURL string) (ok bool) {
	req := rules.NewRequest(pageURL, pageURL, rules.TypeDocument)

	return b.bestMatch(b.genericHide, req) != nil
}

// filterExists returns true if a rule with the same definition as r is in the
// storage.
func (b *Blocker) filterExists(r *rules.NetworkRule) (ok bool) {
	for _, f := range b.storage.NetworkRules() {
		if f.SameDefinition(r) {
			return true
		}
	}

	return false
}
