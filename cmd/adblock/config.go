package main

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"github.com/AdguardTeam/adblock/resources"
	"github.com/AdguardTeam/adblock/rules"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/c2h5oh/datasize"
	"gopkg.in/yaml.v3"
)

// defaultMaxListSize is the default maximum size of a filter list file.
const defaultMaxListSize = 64 * datasize.MB

// configuration is the YAML configuration file.
type configuration struct {
	// Lists are the filter lists to compile.
	Lists []*listConfig `yaml:"lists"`

	// Resources are the resources for redirects and scriptlets.
	Resources []*resourceConfig `yaml:"resources"`

	// Tags are the tags to enable.
	Tags []string `yaml:"tags"`

	// MaxListSize is the maximum size of a filter list file.  Longer files
	// are an error.
	MaxListSize datasize.ByteSize `yaml:"max_list_size"`

	// Debug makes the results contain the texts of the matched rules.
	Debug bool `yaml:"debug"`

	// NoOptimize disables the hostname table optimization.
	NoOptimize bool `yaml:"no_optimize"`
}

// listConfig is a filter list file.
type listConfig struct {
	// Path is the path to the file.
	Path string `yaml:"path"`

	// Format is either "standard" or "hosts".  Empty means "standard".
	Format string `yaml:"format"`

	// IncludeRedirectURLs allows the $redirect-url rules.
	IncludeRedirectURLs bool `yaml:"include_redirect_urls"`
}

// parseOptions returns the parse options for the list.
func (c *listConfig) parseOptions() (opts *rules.ParseOptions, err error) {
	format, err := rules.ParseFormat(c.Format)
	if err != nil {
		return nil, err
	}

	return &rules.ParseOptions{
		Format:              format,
		IncludeRedirectURLs: c.IncludeRedirectURLs,
	}, nil
}

// resourceConfig is a resource.  Exactly one of Content and Path must be set.
type resourceConfig struct {
	// Name is the name of the resource.
	Name string `yaml:"name"`

	// ContentType is a MIME type or "template".
	ContentType string `yaml:"content_type"`

	// Content is the base64-encoded content.
	Content string `yaml:"content"`

	// Path is the path to the file with the raw content.
	Path string `yaml:"path"`

	// Aliases are the alternative names of the resource.
	Aliases []string `yaml:"aliases"`
}

// toResource converts c into a resource, reading the content file if
// necessary.
func (c *resourceConfig) toResource() (r *resources.Resource, err error) {
	content := c.Content
	switch {
	case c.Name == "":
		return nil, errors.Error("no name")
	case c.Path != "" && c.Content != "":
		return nil, fmt.Errorf("resource %q: both content and path are set", c.Name)
	case c.Path != "":
		var b []byte
		b, err = os.ReadFile(c.Path)
		if err != nil {
			return nil, fmt.Errorf("resource %q: %w", c.Name, err)
		}

		content = base64.StdEncoding.EncodeToString(b)
	}

	return &resources.Resource{
		Name:        c.Name,
		ContentType: c.ContentType,
		Content:     content,
		Aliases:     c.Aliases,
	}, nil
}

// readConfig reads the configuration from the YAML file at path.  If path is
// empty, it returns the default configuration.
func readConfig(path string) (conf *configuration, err error) {
	conf = &configuration{
		MaxListSize: defaultMaxListSize,
	}

	if path == "" {
		return conf, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	defer func() { err = errors.WithDeferred(err, f.Close()) }()

	err = yaml.NewDecoder(f).Decode(conf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if conf.MaxListSize == 0 {
		return nil, errors.Error("max_list_size must be positive")
	}

	return conf, nil
}
