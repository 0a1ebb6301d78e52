package fpl

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	sonic "github.com/bytedance/sonic"
	"github.com/valyala/fasthttp"

	"github.com/prediksibola/predictor-league/internal/platform/logging"
)

// cookieJar holds the FPL session cookies and mirrors them to a JSON file so
// a browser-imported session survives restarts.
type cookieJar struct {
	mu      sync.Mutex
	path    string
	cookies map[string]string
	logger  *logging.Logger
}

// newCookieJar seeds the jar from the configured Cookie header, then overlays
// whatever the previous run persisted. Persisted values win over the static
// header because the provider may have rotated them since.
func newCookieJar(path, header string, logger *logging.Logger) *cookieJar {
	jar := &cookieJar{
		path:    strings.TrimSpace(path),
		cookies: parseCookieHeader(header),
		logger:  logger,
	}
	if jar.path == "" {
		return jar
	}
	persisted, err := loadCookieFile(jar.path)
	if err != nil {
		logger.Warn("load persisted fpl cookies failed", "path", jar.path, "error", err)
		return jar
	}
	for name, value := range persisted {
		jar.cookies[name] = value
	}
	return jar
}

func parseCookieHeader(header string) map[string]string {
	cookies := map[string]string{}
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		cookies[name] = strings.TrimSpace(value)
	}
	return cookies
}

func loadCookieFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var cookies map[string]string
	if err := sonic.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("decode cookie file: %w", err)
	}
	return cookies, nil
}

// Header renders the jar as a Cookie header value. Names are sorted so the
// header is stable across calls.
func (j *cookieJar) Header() string {
	j.mu.Lock()
	defer j.mu.Unlock()

	if len(j.cookies) == 0 {
		return ""
	}
	names := make([]string, 0, len(j.cookies))
	for name := range j.cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+j.cookies[name])
	}
	return strings.Join(pairs, "; ")
}

// UpdateFromResponse folds Set-Cookie headers into the jar and reports
// whether anything changed. A Set-Cookie with an empty value evicts the
// cookie.
func (j *cookieJar) UpdateFromResponse(resp *fasthttp.Response) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	changed := false
	resp.Header.VisitAllCookie(func(_, value []byte) {
		cookie := fasthttp.AcquireCookie()
		defer fasthttp.ReleaseCookie(cookie)
		if err := cookie.ParseBytes(value); err != nil {
			return
		}
		name := string(cookie.Key())
		if name == "" {
			return
		}
		val := string(cookie.Value())
		if val == "" {
			if _, ok := j.cookies[name]; ok {
				delete(j.cookies, name)
				changed = true
			}
			return
		}
		if j.cookies[name] != val {
			j.cookies[name] = val
			changed = true
		}
	})
	return changed
}

// Persist writes the jar through a temp file plus rename so a crash never
// leaves a truncated cookie file. A jar without a path is memory only.
func (j *cookieJar) Persist() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.path == "" {
		return nil
	}
	data, err := sonic.MarshalIndent(j.cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cookies: %w", err)
	}

	dir := filepath.Dir(j.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cookie directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "fpl_cookies_*.json.tmp")
	if err != nil {
		return fmt.Errorf("create temp cookie file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp cookie file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp cookie file: %w", err)
	}
	if err := os.Rename(tmpName, j.path); err != nil {
		return fmt.Errorf("replace cookie file: %w", err)
	}
	return nil
}
