// Package config reads run settings from the environment, optionally seeded
// from .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/polzovatel/uibdd/internal/browser"
)

const (
	defaultWait         = time.Minute
	defaultSlowMo       = 100 * time.Millisecond
	defaultDownloadPath = "./downloads"
	defaultVideoDir     = "./videos"
	defaultReportPath   = "reports/cucumber_report.json"
	defaultBaseURL      = "https://www.google.com/"
)

// Config is read once at start and never changed afterwards.
type Config struct {
	Browser       browser.Kind
	Wait          time.Duration
	LaunchTimeout time.Duration
	RecordVideo   bool
	Headless      bool
	SlowMo        time.Duration
	DownloadPath  string
	VideoDir      string
	ReportPath    string
	BaseURL       string
}

// LookupFunc has the shape of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Load reads the given .env files (".env" when none are given) and overlays
// the process environment on top. Missing files are skipped.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	fromFiles := map[string]string{}
	for _, f := range files {
		vals, err := godotenv.Read(f)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("read %s: %w", f, err)
		}
		for k, v := range vals {
			if _, seen := fromFiles[k]; !seen {
				fromFiles[k] = v
			}
		}
	}
	return FromLookup(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fromFiles[key]
		return v, ok
	})
}

// FromLookup builds a Config from lookup, applying defaults for unset keys.
func FromLookup(lookup LookupFunc) (Config, error) {
	r := reader{lookup: lookup}
	cfg := Config{
		Browser:      r.kind("BROWSER"),
		Wait:         r.positive("TEST_TIMEOUT", time.Minute, defaultWait),
		RecordVideo:  r.boolean("RECORD_VIDEO", false),
		Headless:     r.boolean("HEADLESS", false),
		SlowMo:       r.duration("SLOW_MO", time.Millisecond, defaultSlowMo),
		DownloadPath: r.str("DOWNLOAD_PATH", defaultDownloadPath),
		VideoDir:     r.str("VIDEO_DIR", defaultVideoDir),
		ReportPath:   r.str("REPORT_PATH", defaultReportPath),
		BaseURL:      r.str("BASE_URL", defaultBaseURL),
	}
	launchKey := "BROWSER_LAUNCH_TIMEOUT"
	if _, ok := r.get(launchKey); !ok {
		launchKey = "BROSWER_LAUNCH_TIMEOUT"
	}
	cfg.LaunchTimeout = r.duration(launchKey, time.Millisecond, 0)
	if len(r.errs) > 0 {
		return Config{}, errors.Join(r.errs...)
	}
	return cfg, nil
}

// LaunchOptions maps the config onto the one browser of the run.
func (c Config) LaunchOptions() browser.LaunchOptions {
	return browser.LaunchOptions{
		Kind:     c.Browser,
		Headless: c.Headless,
		SlowMo:   c.SlowMo,
		Timeout:  c.LaunchTimeout,
	}
}

// ContextOptions maps the config onto a scenario context. Videos of a
// scenario land in their own directory named after scenarioID.
func (c Config) ContextOptions(scenarioID string) browser.ContextOptions {
	opts := browser.ContextOptions{
		NoViewport:        true,
		IgnoreHTTPSErrors: true,
		AcceptDownloads:   true,
		DefaultTimeout:    c.Wait,
	}
	if c.RecordVideo {
		opts.RecordVideoDir = filepath.Join(c.VideoDir, scenarioID)
	}
	return opts
}

type reader struct {
	lookup LookupFunc
	errs   []error
}

func (r *reader) get(key string) (string, bool) {
	v, ok := r.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (r *reader) fail(key, val, want string) {
	r.errs = append(r.errs, fmt.Errorf("config: %s=%q: want %s", key, val, want))
}

func (r *reader) str(key, def string) string {
	if v, ok := r.get(key); ok {
		return v
	}
	return def
}

func (r *reader) kind(key string) browser.Kind {
	v, ok := r.get(key)
	if !ok {
		return browser.Chromium
	}
	switch k := browser.Kind(strings.ToLower(v)); k {
	case browser.Chromium, browser.Firefox, browser.WebKit:
		return k
	}
	r.fail(key, v, "chromium, firefox or webkit")
	return ""
}

func (r *reader) duration(key string, unit, def time.Duration) time.Duration {
	v, ok := r.get(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		r.fail(key, v, "a non-negative integer")
		return 0
	}
	return time.Duration(n) * unit
}

// positive is duration for budgets: zero would read as "no timeout" to the driver.
func (r *reader) positive(key string, unit, def time.Duration) time.Duration {
	v, ok := r.get(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		r.fail(key, v, "a positive integer")
		return 0
	}
	return time.Duration(n) * unit
}

func (r *reader) boolean(key string, def bool) bool {
	v, ok := r.get(key)
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	r.fail(key, v, "a boolean")
	return def
}
