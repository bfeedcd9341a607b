// Command adblock compiles filter lists into a serialized engine and checks
// requests and pages against it.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/AdguardTeam/adblock"
	"github.com/AdguardTeam/adblock/filterlist"
	"github.com/AdguardTeam/adblock/rules"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	goFlags "github.com/jessevdk/go-flags"
)

// Options are the console arguments.
type Options struct {
	// ConfigPath is the path to the YAML configuration file.
	ConfigPath string `short:"c" long:"config" description:"Path to the YAML configuration file."`

	// FilterLists are the paths to the filter lists in the standard format.
	FilterLists []string `short:"f" long:"filter" description:"Path to the filter list. Can be specified multiple times."`

	// HostsLists are the paths to the filter lists in the hosts format.
	HostsLists []string `long:"hosts" description:"Path to the hosts-format list. Can be specified multiple times."`

	// Tags are the tags to enable.
	Tags []string `short:"t" long:"tag" description:"Tag to enable. Can be specified multiple times."`

	// Input is the path to a serialized engine to load instead of compiling
	// lists.
	Input string `short:"i" long:"input" description:"Path to the serialized engine to load instead of compiling lists."`

	// Output is the path to write the serialized engine to.
	Output string `short:"o" long:"output" description:"Path to write the serialized engine to."`

	// URL is the URL of the request to check.
	URL string `short:"u" long:"url" description:"URL of the request to check."`

	// SourceURL is the URL of the page making the request.
	SourceURL string `short:"s" long:"source-url" description:"URL of the page making the request."`

	// RequestType is the type of the request.
	RequestType string `short:"r" long:"request-type" description:"Type of the request." default:"other"`

	// Cosmetic is the URL of the page to print the cosmetic resources for.
	Cosmetic string `long:"cosmetic" description:"URL of the page to print the cosmetic resources for."`

	// Classes are the class names to print the hiding selectors for.
	Classes []string `long:"classes" description:"Class name found on the page. Can be specified multiple times."`

	// IDs are the ids to print the hiding selectors for.
	IDs []string `long:"ids" description:"Element id found on the page. Can be specified multiple times."`

	// IncludeRedirectURLs allows $redirect-url rules in the lists given with
	// flags.
	IncludeRedirectURLs bool `long:"include-redirect-urls" description:"Allow $redirect-url rules." optional:"yes" optional-value:"true"`

	// Debug makes the results contain the texts of the matched rules.
	Debug bool `long:"debug" description:"Keep the rule texts for the results." optional:"yes" optional-value:"true"`

	// NoOptimize disables the hostname table optimization.
	NoOptimize bool `long:"no-optimize" description:"Disable the rule optimizations." optional:"yes" optional-value:"true"`

	// Verbose enables the debug logging.
	Verbose bool `short:"v" long:"verbose" description:"Verbose output (optional)." optional:"yes" optional-value:"true"`

	// JSONLog makes the log output JSON.
	JSONLog bool `long:"json-log" description:"Write the log in JSON." optional:"yes" optional-value:"true"`
}

func main() {
	var options Options
	var parser = goFlags.NewParser(&options, goFlags.Default)

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*goFlags.Error); ok && flagsErr.Type == goFlags.ErrHelp {
			os.Exit(0)
		}

		os.Exit(1)
	}

	logger := newLogger(&options, os.Stderr)

	err = run(&options, logger, os.Stdout)
	if err != nil {
		logger.Error("running", slogutil.KeyError, err)

		os.Exit(1)
	}
}

// newLogger returns the logger writing to w.
func newLogger(options *Options, w io.Writer) (l *slog.Logger) {
	format := slogutil.FormatText
	if options.JSONLog {
		format = slogutil.FormatJSON
	}

	return slogutil.New(&slogutil.Config{
		Output:       w,
		Format:       format,
		AddTimestamp: true,
		Verbose:      options.Verbose,
	})
}

// run builds or loads the engine, saves it if needed, and writes the answers
// to the queries to out.
func run(options *Options, logger *slog.Logger, out io.Writer) (err error) {
	conf, err := readConfig(options.ConfigPath)
	if err != nil {
		return err
	}

	mergeOptions(conf, options)

	e, err := buildEngine(conf, options.Input, logger)
	if err != nil {
		return err
	}

	logger.Info("engine ready", "engine", e.String())

	if options.Output != "" {
		err = e.SerializeToFile(options.Output)
		if err != nil {
			return err
		}

		logger.Info("engine saved", "path", options.Output)
	}

	return query(e, options, out)
}

// mergeOptions adds the lists and the settings given with flags to conf.
func mergeOptions(conf *configuration, options *Options) {
	for _, p := range options.FilterLists {
		conf.Lists = append(conf.Lists, &listConfig{
			Path:                p,
			Format:              rules.FormatStandard.String(),
			IncludeRedirectURLs: options.IncludeRedirectURLs,
		})
	}

	for _, p := range options.HostsLists {
		conf.Lists = append(conf.Lists, &listConfig{
			Path:   p,
			Format: rules.FormatHosts.String(),
		})
	}

	conf.Tags = append(conf.Tags, options.Tags...)
	conf.Debug = conf.Debug || options.Debug
	conf.NoOptimize = conf.NoOptimize || options.NoOptimize
}

// buildEngine loads the engine from the file at input or, if input is empty,
// compiles it from the lists of conf.
func buildEngine(conf *configuration, input string, logger *slog.Logger) (e *adblock.Engine, err error) {
	c := &adblock.Config{
		Logger:   logger,
		Optimize: !conf.NoOptimize,
	}

	if input != "" {
		var b []byte
		b, err = os.ReadFile(input)
		if err != nil {
			return nil, fmt.Errorf("reading engine: %w", err)
		}

		e, err = adblock.DeserializeEngine(b, c)
		if err != nil {
			return nil, err
		}
	} else {
		fs := filterlist.NewFilterSet(&filterlist.Config{
			Logger: logger,
			Debug:  conf.Debug,
		})

		for _, l := range conf.Lists {
			err = addList(fs, l, conf.MaxListSize.Bytes())
			if err != nil {
				return nil, err
			}
		}

		e, err = adblock.NewEngine(fs, c)
		if err != nil {
			return nil, err
		}
	}

	for i, rc := range conf.Resources {
		r, rErr := rc.toResource()
		if rErr != nil {
			return nil, fmt.Errorf("resources: at index %d: %w", i, rErr)
		}

		err = e.AddResource(r.Name, r.ContentType, r.Content, r.Aliases...)
		if err != nil {
			return nil, fmt.Errorf("resources: at index %d: %w", i, err)
		}
	}

	e.EnableTags(conf.Tags)

	return e, nil
}

// addList reads the list file described by l into fs.  Files longer than
// maxSize are an error.
func addList(fs *filterlist.FilterSet, l *listConfig, maxSize uint64) (err error) {
	opts, err := l.parseOptions()
	if err != nil {
		return fmt.Errorf("list %q: %w", l.Path, err)
	}

	f, err := os.Open(l.Path)
	if err != nil {
		return fmt.Errorf("list %q: %w", l.Path, err)
	}
	defer func() { err = errors.WithDeferred(err, f.Close()) }()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("list %q: %w", l.Path, err)
	}

	if size := fi.Size(); size > 0 && uint64(size) > maxSize {
		return fmt.Errorf("list %q: size %d is larger than %d", l.Path, size, maxSize)
	}

	// The size of special files is not known in advance.
	err = fs.AddFromReader(io.LimitReader(f, int64(maxSize)), opts)
	if err != nil {
		return fmt.Errorf("list %q: %w", l.Path, err)
	}

	return nil
}

// networkResult is the JSON form of [adblock.BlockerResult].
type networkResult struct {
	Redirect     string               `json:"redirect,omitempty"`
	RedirectType adblock.RedirectType `json:"redirect_type,omitempty"`
	Exception    string               `json:"exception,omitempty"`
	Filter       string               `json:"filter,omitempty"`
	Error        string               `json:"error,omitempty"`
	Matched      bool                 `json:"matched"`
	Important    bool                 `json:"important"`
}

// newNetworkResult converts res into its JSON form.
func newNetworkResult(res *adblock.BlockerResult) (r *networkResult) {
	r = &networkResult{
		Exception: res.Exception,
		Filter:    res.Filter,
		Error:     res.Error,
		Matched:   res.Matched,
		Important: res.Important,
	}

	if res.Redirect != nil {
		r.Redirect = res.Redirect.Value()
		r.RedirectType = res.Redirect.Type()
	}

	return r
}

// query writes the answers to the queries from options to out as JSON lines.
func query(e *adblock.Engine, options *Options, out io.Writer) (err error) {
	enc := json.NewEncoder(out)

	if options.URL != "" {
		res := e.CheckNetworkURLs(options.URL, options.SourceURL, options.RequestType)
		err = enc.Encode(newNetworkResult(res))
		if err != nil {
			return fmt.Errorf("writing network result: %w", err)
		}
	}

	var exceptions []string
	if options.Cosmetic != "" {
		res := e.URLCosmeticResources(options.Cosmetic)
		exceptions = res.Exceptions

		err = enc.Encode(res)
		if err != nil {
			return fmt.Errorf("writing cosmetic resources: %w", err)
		}
	}

	if len(options.Classes) > 0 || len(options.IDs) > 0 {
		sels := e.HiddenClassIDSelectors(
			trimAll(options.Classes, "."),
			trimAll(options.IDs, "#"),
			exceptions,
		)

		err = enc.Encode(sels)
		if err != nil {
			return fmt.Errorf("writing selectors: %w", err)
		}
	}

	return nil
}

// trimAll returns the values with prefix removed.
func trimAll(vals []string, prefix string) (trimmed []string) {
	trimmed = make([]string, 0, len(vals))
	for _, v := range vals {
		trimmed = append(trimmed, strings.TrimPrefix(v, prefix))
	}

	return trimmed
}
