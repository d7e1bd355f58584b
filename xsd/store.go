package xsd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Types implementing the Logger interface can receive progress and
// warning messages from the Store and Resolver. The Logger interface
// is implemented by *log.Logger.
type Logger interface {
	Printf(format string, v ...interface{})
}

// A Store fetches and parses schema documents by location, at most
// once per normalized location. Remote documents can be mirrored into
// a local cache directory so later runs work without network access.
type Store struct {
	client   *http.Client
	cacheDir string
	logger   Logger
	loglevel int
	docs     map[string]*Document
}

// A StoreOption configures a Store.
type StoreOption func(*Store)

// CacheDir makes the Store mirror every remote schema it fetches into
// dir, and look there before going to the network.
func CacheDir(dir string) StoreOption {
	return func(s *Store) { s.cacheDir = dir }
}

// FetchTimeout bounds every remote fetch. Expiry surfaces as a
// FetchError.
func FetchTimeout(d time.Duration) StoreOption {
	return func(s *Store) { s.client.Timeout = d }
}

// HTTPClient replaces the Store's HTTP client.
func HTTPClient(c *http.Client) StoreOption {
	return func(s *Store) { s.client = c }
}

// LogOutput directs Store and Resolver diagnostics to l.
func LogOutput(l Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// LogLevel sets diagnostic verbosity; levels above 3 include per-fetch
// debug output.
func LogLevel(level int) StoreOption {
	return func(s *Store) { s.loglevel = level }
}

// NewStore returns an empty Store with a 30 second fetch timeout.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		client: &http.Client{Timeout: 30 * time.Second},
		docs:   make(map[string]*Document),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) logf(format string, v ...interface{}) {
	if s.logger != nil {
		s.logger.Printf(format, v...)
	}
}

func (s *Store) debugf(format string, v ...interface{}) {
	if s.logger != nil && s.loglevel > 3 {
		s.logger.Printf(format, v...)
	}
}

// IsRemote reports whether location is an http or https URL rather
// than a filesystem path.
func IsRemote(location string) bool {
	u, err := url.Parse(location)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

// NormalizeLocation converts a location into the canonical form used
// as the Store's deduplication key: remote URLs lose their fragment,
// filesystem paths become absolute and clean.
func NormalizeLocation(location string) (string, error) {
	if IsRemote(location) {
		u, err := url.Parse(location)
		if err != nil {
			return "", err
		}
		u.Fragment = ""
		return u.String(), nil
	}
	abs, err := filepath.Abs(location)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

// CacheFileName derives the flat cache file name for a location: the
// sanitized base name of its path. Keeping the base name intact lets a
// cached root schema resolve its companions in the same directory, and
// lets later runs name a cached file directly as their input.
func CacheFileName(location string) string {
	base := location
	if IsRemote(location) {
		if u, err := url.Parse(location); err == nil {
			base = u.Path
		}
	}
	base = path.Base(strings.ReplaceAll(base, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "schema.xsd"
	}
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// Fetch retrieves, parses and memoizes the schema document at
// location. Retrieval failures return a *FetchError; documents that
// are not schemas return a *ParseError.
func (s *Store) Fetch(ctx context.Context, location string) (*Document, error) {
	norm, err := NormalizeLocation(location)
	if err != nil {
		return nil, &FetchError{Location: location, Err: err}
	}
	if doc, ok := s.docs[norm]; ok {
		return doc, nil
	}
	data, err := s.fetchBytes(ctx, norm)
	if err != nil {
		return nil, err
	}
	doc, err := ParseDocument(data, norm)
	if err != nil {
		return nil, err
	}
	s.docs[norm] = doc
	return doc, nil
}

func (s *Store) fetchBytes(ctx context.Context, norm string) ([]byte, error) {
	if !IsRemote(norm) {
		data, err := os.ReadFile(norm)
		if err != nil {
			return nil, &FetchError{Location: norm, Err: err}
		}
		s.debugf("read %s (%d bytes)", norm, len(data))
		return data, nil
	}
	if s.cacheDir != "" {
		cached := filepath.Join(s.cacheDir, CacheFileName(norm))
		if data, err := os.ReadFile(cached); err == nil {
			s.debugf("cache hit for %s at %s", norm, cached)
			return data, nil
		}
	}
	data, err := s.download(ctx, norm)
	if err != nil {
		return nil, err
	}
	if s.cacheDir != "" {
		if err := s.writeCache(norm, data); err != nil {
			// The ontology can still be produced; the cache just
			// will not help the next run.
			s.logf("warning: %v", err)
		}
	}
	return data, nil
}

func (s *Store) download(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, &FetchError{Location: location, Err: err}
	}
	// Some schema hosts reject Go's default agent with 403.
	req.Header.Set("User-Agent", "xsd2owl")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &FetchError{Location: location, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{
			Location: location,
			Err:      fmt.Errorf("unexpected status %s", resp.Status),
		}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Location: location, Err: err}
	}
	s.debugf("downloaded %s (%d bytes)", location, len(data))
	return data, nil
}

func (s *Store) writeCache(location string, data []byte) error {
	if err := os.MkdirAll(s.cacheDir, 0o755); err != nil {
		return fmt.Errorf("create cache dir %s: %w", s.cacheDir, err)
	}
	name := filepath.Join(s.cacheDir, CacheFileName(location))
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return fmt.Errorf("cache %s: %w", location, err)
	}
	s.logf("cached %s as %s", location, name)
	return nil
}
