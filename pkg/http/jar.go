package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// FileJar is an http.CookieJar that can write its cookies to a JSON file and read them
// back in a later process. With an empty path it behaves like a plain in-memory jar.
type FileJar struct {
	jar  *cookiejar.Jar
	path string

	mu      sync.Mutex
	entries map[string]map[string]storedCookie
}

type storedCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"http_only,omitempty"`
}

func (s storedCookie) expired(now time.Time) bool {
	return !s.Expires.IsZero() && !s.Expires.After(now)
}

func (s storedCookie) cookie() *http.Cookie {
	return &http.Cookie{
		Name:     s.Name,
		Value:    s.Value,
		Path:     s.Path,
		Domain:   s.Domain,
		Expires:  s.Expires,
		Secure:   s.Secure,
		HttpOnly: s.HttpOnly,
	}
}

// NewFileJar creates a jar and, when path names an existing file, loads its cookies.
func NewFileJar(path string) (*FileJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}

	j := &FileJar{
		jar:     jar,
		path:    path,
		entries: make(map[string]map[string]storedCookie),
	}
	if path == "" {
		return j, nil
	}

	if err := j.load(); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *FileJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.jar.SetCookies(u, cookies)

	if j.path == "" {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	key := originKey(u)
	bucket, ok := j.entries[key]
	if !ok {
		bucket = make(map[string]storedCookie)
		j.entries[key] = bucket
	}

	now := time.Now()
	for _, c := range cookies {
		expires := c.Expires
		if c.MaxAge > 0 {
			expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		sc := storedCookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}
		if c.MaxAge < 0 || sc.expired(now) {
			delete(bucket, c.Name)
			continue
		}
		bucket[c.Name] = sc
	}
}

func (j *FileJar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

// Save writes unexpired cookies to the jar file. It is a no-op for in-memory jars.
func (j *FileJar) Save() error {
	if j.path == "" {
		return nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now()
	out := make(map[string][]storedCookie, len(j.entries))
	for origin, bucket := range j.entries {
		for _, c := range bucket {
			if c.expired(now) {
				continue
			}
			out[origin] = append(out[origin], c)
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cookies: %w", err)
	}
	if dir := filepath.Dir(j.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create cookie dir: %w", err)
		}
	}
	return os.WriteFile(j.path, data, 0o600)
}

func (j *FileJar) load() error {
	data, err := os.ReadFile(j.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read cookie file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var stored map[string][]storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to parse cookie file %s: %w", j.path, err)
	}

	now := time.Now()
	for origin, cookies := range stored {
		u, err := url.Parse(origin)
		if err != nil {
			continue
		}
		bucket := make(map[string]storedCookie, len(cookies))
		restored := make([]*http.Cookie, 0, len(cookies))
		for _, c := range cookies {
			if c.expired(now) {
				continue
			}
			bucket[c.Name] = c
			restored = append(restored, c.cookie())
		}
		j.entries[origin] = bucket
		j.jar.SetCookies(u, restored)
	}
	return nil
}

func originKey(u *url.URL) string {
	return (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}).String()
}
