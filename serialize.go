package adblock

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/AdguardTeam/adblock/filterlist"
	"github.com/AdguardTeam/adblock/resources"
	"github.com/AdguardTeam/adblock/rules"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// formatMagic starts every serialized engine.
const formatMagic = "ADBLK"

// formatVersion is the version of the serialized engine format.  It must be
// increased on any incompatible change.
const formatVersion byte = 1

// headerLen is the length of the magic and the version.
const headerLen = len(formatMagic) + 1

// engineData is the serialized form of an [Engine].  The indexes are not
// serialized and are rebuilt on load.
type engineData struct {
	Network   []*rules.NetworkRule  `msgpack:"n"`
	Cosmetic  []*rules.CosmeticRule `msgpack:"c"`
	Resources []*resources.Resource `msgpack:"r"`
	Tags      []string              `msgpack:"t"`
	Optimize  bool                  `msgpack:"o"`
	Debug     bool                  `msgpack:"d"`
}

// Serialize returns the binary form of the engine, which can be loaded with
// [DeserializeEngine] or [Engine.Deserialize].
func (e *Engine) Serialize() (b []byte, err error) {
	defer func() { err = errors.Annotate(err, "%w: %w", ErrSerialization) }()

	d := &engineData{
		Network:   e.blocker.storage.NetworkRules(),
		Cosmetic:  e.blocker.storage.CosmeticRules(),
		Resources: e.resources.Resources(),
		Tags:      e.Tags(),
		Optimize:  e.blocker.optimize,
		Debug:     e.debug,
	}

	buf := &bytes.Buffer{}
	buf.WriteString(formatMagic)
	buf.WriteByte(formatVersion)

	gz := gzip.NewWriter(buf)
	err = msgpack.NewEncoder(gz).Encode(d)
	if err != nil {
		return nil, fmt.Errorf("encoding: %w", err)
	}

	err = gz.Close()
	if err != nil {
		return nil, fmt.Errorf("compressing: %w", err)
	}

	return buf.Bytes(), nil
}

// SerializeToFile writes the binary form of the engine to the file at path.
func (e *Engine) SerializeToFile(path string) (err error) {
	b, err := e.Serialize()
	if err != nil {
		return err
	}

	err = os.WriteFile(path, b, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSerialization, err)
	}

	return nil
}

// DeserializeEngine loads an engine from b, which must have been produced by
// [Engine.Serialize].  The optimization setting is taken from b, c.Optimize
// is ignored.  c may be nil.
func DeserializeEngine(b []byte, c *Config) (e *Engine, err error) {
	defer func() { err = errors.Annotate(err, "%w: %w", ErrDeserialization) }()

	c = newConfig(c)

	if len(b) < headerLen || string(b[:len(formatMagic)]) != formatMagic {
		return nil, errors.Error("bad format marker")
	}

	if v := b[len(formatMagic)]; v != formatVersion {
		return nil, fmt.Errorf("unsupported format version %d, want %d", v, formatVersion)
	}

	gz, err := gzip.NewReader(bytes.NewReader(b[headerLen:]))
	if err != nil {
		return nil, fmt.Errorf("decompressing: %w", err)
	}
	defer func() { err = errors.WithDeferred(err, gz.Close()) }()

	d := &engineData{}
	err = msgpack.NewDecoder(gz).Decode(d)
	if err != nil {
		return nil, fmt.Errorf("decoding: %w", err)
	}

	// Make sure that the data are not followed by garbage.
	if _, err = io.Copy(io.Discard, gz); err != nil {
		return nil, fmt.Errorf("decompressing: %w", err)
	}

	if slices.Contains(d.Network, nil) || slices.Contains(d.Cosmetic, nil) {
		return nil, errors.Error("nil rule")
	}

	res := resources.NewTable()
	err = res.AddAll(d.Resources)
	if err != nil {
		return nil, fmt.Errorf("loading resources: %w", err)
	}

	storage := filterlist.NewRuleStorage(d.Network, d.Cosmetic)
	e = newEngine(c.Logger, storage, res, d.Optimize, d.Debug)
	e.UseTags(d.Tags)

	return e, nil
}

// Deserialize replaces the state of the engine with the one loaded from b.  If
// b cannot be loaded, the engine stays unchanged.  The logger of the engine is
// kept.
func (e *Engine) Deserialize(b []byte) (err error) {
	loaded, err := DeserializeEngine(b, &Config{Logger: e.logger})
	if err != nil {
		return err
	}

	*e = *loaded

	return nil
}

// DeserializeFromFile replaces the state of the engine with the one loaded
// from the file at path.
func (e *Engine) DeserializeFromFile(path string) (err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeserialization, err)
	}

	return e.Deserialize(b)
}
