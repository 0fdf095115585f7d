// internal/config/validator.go
//
// Structural and feature-level checks.
//
// Context
// -------
// `Load()` calls `validateStruct` right after unmarshal; a tag mismatch
// aborts startup.  `Missing()` is the second pass: each enabled feature
// names the environment variables it cannot run without, and the loader
// reports all of them together in a *MissingError instead of stopping at
// the first gap.
//
// Notes
// -----
//   • Names are reported in their env form (SENDERO_SECTION__KEY) because
//     that is what operators set in deployment.
//   • Oxford commas, two spaces after periods.

package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

//
// validator instance (package-level singleton)
//

var v = validator.New()

// validateStruct returns the validation error, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}

//
// feature requirements
//

// MissingError lists every required-but-absent setting.
type MissingError struct {
	Names []string
}

func (e *MissingError) Error() string {
	return "config: missing required settings: " + strings.Join(e.Names, ", ")
}

// EnvName converts a dotted koanf key to its SENDERO_ env form.
func EnvName(key string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "__"))
}

// Missing returns the env names of settings that enabled features need but
// do not have.  The result is nil when nothing is missing.
func (c *Config) Missing() []string {
	var out []string
	need := func(val, key string) {
		if strings.TrimSpace(val) == "" {
			out = append(out, EnvName(key))
		}
	}

	if c.Database.Driver != "memory" {
		need(c.Database.DSN, "database.dsn")
	}

	switch c.Notify.Provider {
	case "resend":
		need(c.Notify.ResendAPIKey, "notify.resend_api_key")
		need(c.Notify.From, "notify.from")
		need(c.Notify.To, "notify.to")
	case "ses":
		need(c.Notify.From, "notify.from")
		need(c.Notify.To, "notify.to")
	}

	if c.Tracker.Enabled {
		need(c.Tracker.APIKey, "tracker.api_key")
		need(c.Tracker.TeamID, "tracker.team_id")
		need(c.Tracker.ProjectID, "tracker.project_id")
		for _, cat := range FeedbackCategories {
			need(c.Tracker.Labels[cat], "tracker.labels."+cat)
		}
	}
	return out
}
