package xsd

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const tinySchema = `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
  targetNamespace="urn:example:tiny">
  <xs:complexType name="T"/>
</xs:schema>`

func writeSchema(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFetchLocal(t *testing.T) {
	path := writeSchema(t, t.TempDir(), "tiny.xsd", tinySchema)
	store := NewStore()

	doc, err := store.Fetch(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.TargetNS != "urn:example:tiny" {
		t.Errorf("targetNamespace = %q", doc.TargetNS)
	}

	again, err := store.Fetch(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if doc != again {
		t.Error("second fetch of the same location returned a different document")
	}
}

func TestFetchLocalMissing(t *testing.T) {
	store := NewStore()
	_, err := store.Fetch(context.Background(), filepath.Join(t.TempDir(), "missing.xsd"))
	if err == nil {
		t.Fatal("expected error")
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Errorf("error is %T, not *FetchError", err)
	}
}

func TestFetchNotASchema(t *testing.T) {
	path := writeSchema(t, t.TempDir(), "junk.xsd", "<html></html>")
	store := NewStore()
	_, err := store.Fetch(context.Background(), path)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Errorf("error is %T, not *ParseError", err)
	}
}

func TestFetchRemoteWithCache(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(tinySchema))
	}))
	defer srv.Close()

	cache := t.TempDir()
	url := srv.URL + "/schemas/tiny.xsd"

	store := NewStore(CacheDir(cache))
	if _, err := store.Fetch(context.Background(), url); err != nil {
		t.Fatal(err)
	}
	if hits != 1 {
		t.Fatalf("got %d requests, want 1", hits)
	}

	cached := filepath.Join(cache, CacheFileName(url))
	if _, err := os.Stat(cached); err != nil {
		t.Fatalf("cache file not written: %v", err)
	}

	// A fresh store with the same cache dir must not go back to the
	// network.
	offline := NewStore(CacheDir(cache))
	doc, err := offline.Fetch(context.Background(), url)
	if err != nil {
		t.Fatal(err)
	}
	if doc.TargetNS != "urn:example:tiny" {
		t.Errorf("cached document targetNamespace = %q", doc.TargetNS)
	}
	if hits != 1 {
		t.Errorf("cache miss: got %d requests, want 1", hits)
	}

	// The cached file itself works as a future input location.
	local := NewStore()
	if _, err := local.Fetch(context.Background(), cached); err != nil {
		t.Errorf("cached file not usable as input: %v", err)
	}
}

func TestFetchRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	store := NewStore()
	_, err := store.Fetch(context.Background(), srv.URL+"/nope.xsd")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error is %T, not *FetchError", err)
	}
	if !strings.Contains(fe.Error(), "404") {
		t.Errorf("error does not mention the status: %v", fe)
	}
}

func TestNormalizeLocation(t *testing.T) {
	got, err := NormalizeLocation("http://example.com/a.xsd#frag")
	if err != nil || got != "http://example.com/a.xsd" {
		t.Errorf("NormalizeLocation dropped fragment wrong: %q, %v", got, err)
	}

	got, err = NormalizeLocation("some/relative/../path.xsd")
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(got) || strings.Contains(got, "..") {
		t.Errorf("path not normalized: %q", got)
	}
}

func TestCacheFileName(t *testing.T) {
	cases := []struct {
		location, want string
	}{
		{"http://example.com/dir/po.xsd", "po.xsd"},
		{"http://example.com/dir/po.xsd?v=2", "po.xsd"},
		{"http://example.com/", "schema.xsd"},
		{"/local/dir/a b.xsd", "a_b.xsd"},
	}
	for _, c := range cases {
		if got := CacheFileName(c.location); got != c.want {
			t.Errorf("CacheFileName(%q) = %q, want %q", c.location, got, c.want)
		}
	}
}
