package filterlist

import (
	"bufio"
	"io"
	"log/slog"

	"github.com/AdguardTeam/adblock/rules"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
)

// maxLineLen is the maximum length of a filter list line.  Longer lines make
// the scanner fail.
const maxLineLen = 64 * 1024

// RuleScanner implements an interface for reading filtering rules.
type RuleScanner struct {
	logger  *slog.Logger
	scanner *bufio.Scanner
	opts    *rules.ParseOptions

	// currentRule is the last successfully parsed rule.
	currentRule rules.Rule

	// currentLine is the 1-based number of the line of currentRule.
	currentLine int

	// skipped is the number of lines that failed to parse.
	skipped int
}

// NewRuleScanner returns a new RuleScanner reading rules from r.  opts may be
// nil.  Lines that fail to parse are logged with logger at debug level and
// skipped.
func NewRuleScanner(r io.Reader, opts *rules.ParseOptions, logger *slog.Logger) (s *RuleScanner) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineLen)

	return &RuleScanner{
		logger:  logger,
		scanner: sc,
		opts:    opts,
	}
}

// Scan advances the RuleScanner to the next rule, which will then be available
// through the [RuleScanner.Rule] method.  It returns false when the scan stops,
// either by reaching the end of the input or an error.  Use
// [RuleScanner.Err] to tell one from the other.
func (s *RuleScanner) Scan() (ok bool) {
	for s.scanner.Scan() {
		s.currentLine++

		line := s.scanner.Text()
		r, err := rules.NewRule(line, s.opts)
		if err != nil {
			s.skipped++
			s.logger.Debug("skipping rule", "line", s.currentLine, slogutil.KeyError, err)

			continue
		}

		if r != nil {
			s.currentRule = r

			return true
		}
	}

	return false
}

// Rule returns the most recent rule generated by a call to
// [RuleScanner.Scan], and the number of the line it was parsed from.
func (s *RuleScanner) Rule() (r rules.Rule, line int) {
	return s.currentRule, s.currentLine
}

// Skipped returns the number of lines that failed to parse so far.
func (s *RuleScanner) Skipped() (n int) {
	return s.skipped
}

// Err returns the first non-EOF error that was encountered by the scanner.
func (s *RuleScanner) Err() (err error) {
	return s.scanner.Err()
}
