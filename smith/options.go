package smith

import "github.com/goccy/go-yaml"

// Options configures a Smith invocation (spec §6.3's generate(Model,
// SmithId, Options)). It is YAML-shaped rather than a CLI flag set,
// since there is no CLI in scope here (spec §1) — the separation of a
// typed options struct from its loading mechanism mirrors
// magicschema.Config, minus that package's cobra/pflag registration.
type Options struct {
	// Package is the target package name emitted at the top of
	// generated source.
	Package string `yaml:"package"`

	// EmitDecoder controls whether EmitDecoder output is requested at
	// all; some targets only ever need an encoder (e.g. a sender-only
	// device).
	EmitDecoder bool `yaml:"emit_decoder"`

	// EmitEncoder is the encoder analogue of EmitDecoder.
	EmitEncoder bool `yaml:"emit_encoder"`
}

// DefaultOptions returns the options a Smith should fall back to when
// the caller supplies none.
func DefaultOptions() Options {
	return Options{
		Package:     "wire",
		EmitDecoder: true,
		EmitEncoder: true,
	}
}

// LoadOptions parses a YAML document into an Options, defaulting any
// field the document leaves unset.
func LoadOptions(doc []byte) (Options, error) {
	opts := DefaultOptions()

	if len(doc) == 0 {
		return opts, nil
	}

	if err := yaml.Unmarshal(doc, &opts); err != nil {
		return Options{}, err
	}

	return opts, nil
}
