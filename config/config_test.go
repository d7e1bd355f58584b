package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ecodata/xsd2owl/owl"
)

const exampleConfig = `
defaultBaseIRI: http://base.example/ont#
enumerations: individuals
fetchTimeout: 45s
prefixes:
  "": http://a.example/ont#
  ext: http://ext.example/
namespaces:
  urn:example:a:
    mode: generate
    baseIRI: http://a.example/ont#
  urn:example:b:
    mode: external
    vocabulary: http://ext.example/
    terms:
      Special: http://other.example/Very
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(exampleConfig))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultBaseIRI != "http://base.example/ont#" {
		t.Errorf("defaultBaseIRI = %q", cfg.DefaultBaseIRI)
	}
	if !cfg.EnumIndividuals() {
		t.Error("enumerations: individuals not honored")
	}
	if cfg.Timeout() != 45*time.Second {
		t.Errorf("timeout = %v", cfg.Timeout())
	}
	if cfg.Prefixes[""] != "http://a.example/ont#" {
		t.Errorf("prefixes = %v", cfg.Prefixes)
	}
}

func TestPolicy(t *testing.T) {
	cfg, err := Parse([]byte(exampleConfig))
	if err != nil {
		t.Fatal(err)
	}
	p := cfg.Policy()

	if e := p.Classify("urn:example:a"); e.Mode != owl.Generate || e.BaseIRI != "http://a.example/ont#" {
		t.Errorf("urn:example:a = %+v", e)
	}
	if e := p.Classify("urn:example:b"); e.Mode != owl.External || e.Vocabulary != "http://ext.example/" {
		t.Errorf("urn:example:b = %+v", e)
	}
	// Explicit configuration never generates unlisted namespaces.
	if e := p.Classify("urn:unlisted"); e.Mode != owl.External {
		t.Errorf("unlisted = %+v", e)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	p := cfg.Policy()
	if e := p.Classify("urn:anything"); e.Mode != owl.Generate {
		t.Errorf("default config must generate unlisted namespaces, got %+v", e)
	}
	if cfg.EnumIndividuals() {
		t.Error("default enumeration mode should be datatype")
	}
	if p.DefaultBaseIRI != DefaultBaseIRI {
		t.Errorf("DefaultBaseIRI = %q", p.DefaultBaseIRI)
	}
}

func TestDefaultsApplied(t *testing.T) {
	cfg, err := Parse([]byte(`namespaces: {}`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultBaseIRI != DefaultBaseIRI {
		t.Errorf("defaultBaseIRI not defaulted: %q", cfg.DefaultBaseIRI)
	}
	if cfg.Enumerations != "datatype" {
		t.Errorf("enumerations not defaulted: %q", cfg.Enumerations)
	}
	if cfg.Timeout() != 0 {
		t.Errorf("timeout should be unset, got %v", cfg.Timeout())
	}
}

func TestValidation(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"bad yaml", ":\n-"},
		{"unknown field", "defaultBase: oops"},
		{"bad enumerations", "enumerations: classes"},
		{"bad timeout", "fetchTimeout: fast"},
		{"negative timeout", "fetchTimeout: -1s"},
		{"bad mode", "namespaces:\n  urn:x:\n    mode: maybe"},
		{"vocabulary on generate", "namespaces:\n  urn:x:\n    mode: generate\n    vocabulary: http://v/"},
		{"baseIRI on external", "namespaces:\n  urn:x:\n    mode: external\n    baseIRI: http://b/"},
		{"empty namespace", "namespaces:\n  \"\":\n    mode: generate"},
	}
	for _, c := range cases {
		_, err := Parse([]byte(c.doc))
		if err == nil {
			t.Errorf("%s: expected error", c.name)
			continue
		}
		var ce *Error
		if !errors.As(err, &ce) {
			t.Errorf("%s: error is %T, not *config.Error", c.name, err)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "xsd2owl.yaml")
	if err := os.WriteFile(path, []byte(exampleConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err != nil {
		t.Fatal(err)
	}

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	var ce *Error
	if !errors.As(err, &ce) {
		t.Errorf("missing file error is %T, not *config.Error", err)
	}
}
