// Package config loads the YAML translation configuration: the
// namespace policy, prefix bindings, enumeration rendering, and fetch
// settings.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ecodata/xsd2owl/owl"
)

// DefaultBaseIRI is used for namespace-less schemas when the
// configuration does not override it.
const DefaultBaseIRI = "http://example.org/ontology#"

// An Error reports a missing or invalid configuration field.
type Error struct {
	Path   string
	Reason string
}

func (e *Error) Error() string {
	if e.Path == "" {
		return "config: " + e.Reason
	}
	return fmt.Sprintf("config %s: %s", e.Path, e.Reason)
}

// A Namespace is the policy entry for one schema namespace.
type Namespace struct {
	// "generate" or "external".
	Mode string `yaml:"mode"`
	// Base IRI for generated terms. Defaults to the namespace URI
	// with a "#" separator appended.
	BaseIRI string `yaml:"baseIRI"`
	// Vocabulary IRI prefix for external terms.
	Vocabulary string `yaml:"vocabulary"`
	// Per-term IRI overrides for external namespaces.
	Terms map[string]string `yaml:"terms"`
}

// A Config is the parsed configuration file.
type Config struct {
	// Base IRI for terms of schemas with no target namespace.
	DefaultBaseIRI string `yaml:"defaultBaseIRI"`
	// "datatype" (default) or "individuals".
	Enumerations string `yaml:"enumerations"`
	// Timeout for fetching remote schemas, e.g. "30s".
	FetchTimeout string `yaml:"fetchTimeout"`
	// Prefix bindings for the Turtle output, prefix to IRI.
	Prefixes map[string]string `yaml:"prefixes"`
	// Policy entries keyed by schema namespace URI.
	Namespaces map[string]Namespace `yaml:"namespaces"`

	fetchTimeout     time.Duration
	generateUnlisted bool
}

// Default returns the configuration used when no file is given: every
// namespace is generated under its own URI, enumerations are
// datatypes, and namespace-less schemas go under DefaultBaseIRI.
func Default() *Config {
	return &Config{
		DefaultBaseIRI:   DefaultBaseIRI,
		Enumerations:     "datatype",
		generateUnlisted: true,
	}
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Reason: err.Error()}
	}
	cfg, err := Parse(data)
	if err != nil {
		if e, ok := err.(*Error); ok {
			e.Path = path
		}
		return nil, err
	}
	return cfg, nil
}

// Parse decodes and validates configuration bytes. Unknown fields are
// rejected so typos surface instead of silently defaulting.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, &Error{Reason: err.Error()}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DefaultBaseIRI == "" {
		c.DefaultBaseIRI = DefaultBaseIRI
	}
	switch c.Enumerations {
	case "":
		c.Enumerations = "datatype"
	case "datatype", "individuals":
	default:
		return &Error{Reason: fmt.Sprintf(
			"enumerations must be %q or %q, not %q", "datatype", "individuals", c.Enumerations)}
	}
	if c.FetchTimeout != "" {
		d, err := time.ParseDuration(c.FetchTimeout)
		if err != nil {
			return &Error{Reason: "fetchTimeout: " + err.Error()}
		}
		if d <= 0 {
			return &Error{Reason: "fetchTimeout must be positive"}
		}
		c.fetchTimeout = d
	}
	for ns, n := range c.Namespaces {
		if ns == "" {
			return &Error{Reason: "namespaces: empty namespace URI; use defaultBaseIRI for namespace-less schemas"}
		}
		switch n.Mode {
		case "generate":
			if n.Vocabulary != "" || len(n.Terms) > 0 {
				return &Error{Reason: fmt.Sprintf(
					"namespace %s: vocabulary and terms apply to external namespaces only", ns)}
			}
		case "external":
			if n.BaseIRI != "" {
				return &Error{Reason: fmt.Sprintf(
					"namespace %s: baseIRI applies to generated namespaces only", ns)}
			}
		default:
			return &Error{Reason: fmt.Sprintf(
				"namespace %s: mode must be %q or %q, not %q", ns, "generate", "external", n.Mode)}
		}
	}
	return nil
}

// Timeout returns the configured fetch timeout, or zero when the
// store's default should apply.
func (c *Config) Timeout() time.Duration { return c.fetchTimeout }

// EnumIndividuals reports whether enumerations should be rendered as
// classes of named individuals.
func (c *Config) EnumIndividuals() bool { return c.Enumerations == "individuals" }

// Policy builds the namespace policy the translator runs under.
func (c *Config) Policy() *owl.Policy {
	entries := make(map[string]owl.Entry, len(c.Namespaces))
	for ns, n := range c.Namespaces {
		mode := owl.External
		if n.Mode == "generate" {
			mode = owl.Generate
		}
		entries[ns] = owl.Entry{
			Mode:       mode,
			BaseIRI:    n.BaseIRI,
			Vocabulary: n.Vocabulary,
			Terms:      n.Terms,
		}
	}
	return &owl.Policy{
		DefaultBaseIRI:   c.DefaultBaseIRI,
		Entries:          entries,
		Prefixes:         c.Prefixes,
		GenerateUnlisted: c.generateUnlisted,
	}
}
