// internal/i18n/i18n.go
//
// Sendero – Message catalogs.
//
// Context
//   Contact-form validators return message keys (nameRequired,
//   emailInvalid, …) rather than sentences, and the submission controller
//   has two fallback texts of its own.  This package turns those keys into
//   user-facing strings per locale.  Catalogs are YAML files embedded in
//   the binary; each one is parsed on first use, and concurrent first
//   requests for the same locale share a single parse.
//
// Workflow
//   •  Normalize maps "es-CR", "ES", or "" onto a supported locale.
//   •  Load returns the parsed Catalog for a locale.
//   •  T looks a key up with fallback: locale → English → the key itself.
//
// Style
//   Full sentences, two spaces after periods, Oxford commas.
//
//------------------------------------------------------------------------------

package i18n

import (
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
)

// DefaultLocale is served when a request names none or an unknown one.
const DefaultLocale = "en"

//go:embed locales/*.yaml
var localeFS embed.FS

// Catalog maps message keys to translated text.
type Catalog map[string]string

type catalogFile struct {
	Locale   string  `yaml:"locale"`
	Messages Catalog `yaml:"messages"`
}

// ErrUnknownLocale is returned by Load for locales with no catalog.
var ErrUnknownLocale = errors.New("i18n: unknown locale")

var (
	mu       sync.RWMutex
	catalogs = map[string]Catalog{}
	group    singleflight.Group
)

// -----------------------------------------------------------------------------
// Loading
// -----------------------------------------------------------------------------

// Supported lists the embedded locales.
func Supported() []string {
	entries, _ := localeFS.ReadDir("locales")
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	return out
}

// Normalize lowercases loc, strips any region, and falls back to
// DefaultLocale when the base language has no catalog.
func Normalize(loc string) string {
	loc = strings.ToLower(strings.TrimSpace(loc))
	if i := strings.IndexAny(loc, "-_"); i > 0 {
		loc = loc[:i]
	}
	for _, s := range Supported() {
		if s == loc {
			return loc
		}
	}
	return DefaultLocale
}

// Load returns the catalog for locale, parsing it on first use.
func Load(locale string) (Catalog, error) {
	mu.RLock()
	c, ok := catalogs[locale]
	mu.RUnlock()
	if ok {
		return c, nil
	}

	v, err, _ := group.Do(locale, func() (any, error) {
		return parse(locale)
	})
	if err != nil {
		return nil, err
	}
	return v.(Catalog), nil
}

func parse(locale string) (Catalog, error) {
	raw, err := localeFS.ReadFile("locales/" + locale + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLocale, locale)
	}
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("i18n: parse %s: %w", locale, err)
	}
	if f.Locale != locale {
		return nil, fmt.Errorf("i18n: %s.yaml declares locale %q", locale, f.Locale)
	}

	mu.Lock()
	catalogs[locale] = f.Messages
	mu.Unlock()
	return f.Messages, nil
}

// -----------------------------------------------------------------------------
// Lookup
// -----------------------------------------------------------------------------

// T translates key for locale.
func T(locale, key string) string {
	if c, err := Load(Normalize(locale)); err == nil {
		if s, ok := c[key]; ok {
			return s
		}
	}
	if c, err := Load(DefaultLocale); err == nil {
		if s, ok := c[key]; ok {
			return s
		}
	}
	return key
}

// Translator binds a locale for repeated lookups.
type Translator struct {
	Locale string
}

// Translate implements submission.Translator.
func (t Translator) Translate(key string) string { return T(t.Locale, key) }
