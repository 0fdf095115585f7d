// internal/config/model.go
//
// Typed configuration model for Sendero.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                           – dotenv values,
//   • `conf/global.yaml`                        – primary static file,
//   • `SENDERO_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs, only plain strings.
//
// Two kinds of checks run after unmarshal.  Struct tags (validator/v10)
// catch malformed values.  Missing() catches credentials that a feature
// needs only when it is switched on, and reports every absent name at
// once.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr     string   `koanf:"listen_addr"     validate:"required,hostname_port"`
	ForceHTTPS     bool     `koanf:"force_https"`
	AllowedOrigins []string `koanf:"allowed_origins" validate:"dive,required"`
}

//
// Database section
//

// Database selects the persistence sink.  Driver "memory" keeps rows in
// process and needs no DSN; it exists for local runs and demos.  A missing
// DSN is reported by Missing() with the other absent settings.
type Database struct {
	Driver string `koanf:"driver" validate:"omitempty,oneof=mysql postgres memory"`
	DSN    string `koanf:"dsn"`
}

//
// Notify section
//

// Notify configures the contact-form owner notification.
type Notify struct {
	Provider     string        `koanf:"provider"       validate:"omitempty,oneof=resend ses noop"`
	ResendAPIKey string        `koanf:"resend_api_key"`
	SESRegion    string        `koanf:"ses_region"`
	AWSAccessKey string        `koanf:"aws_access_key"`
	AWSSecretKey string        `koanf:"aws_secret_key"`
	From         string        `koanf:"from"`
	To           string        `koanf:"to"             validate:"omitempty,email"`
	Timeout      time.Duration `koanf:"timeout"`
}

//
// Tracker section
//

// Tracker configures feedback issue creation.  Labels maps a feedback
// category (bug, feature, general) to the tracker's label id.
type Tracker struct {
	Enabled   bool              `koanf:"enabled"`
	Endpoint  string            `koanf:"endpoint"   validate:"omitempty,url"`
	APIKey    string            `koanf:"api_key"`
	TeamID    string            `koanf:"team_id"`
	ProjectID string            `koanf:"project_id"`
	Labels    map[string]string `koanf:"labels"`
}

//
// Blob section
//

// Blob configures screenshot uploads.  An empty bucket disables uploads.
type Blob struct {
	Bucket        string `koanf:"bucket"`
	Region        string `koanf:"region"`
	Prefix        string `koanf:"prefix"`
	PublicBaseURL string `koanf:"public_base_url" validate:"omitempty,url"`
	AWSAccessKey  string `koanf:"aws_access_key"`
	AWSSecretKey  string `koanf:"aws_secret_key"`
}

//
// Redis section
//

// Redis backs the feedback rate limiter.  An empty Addr disables it.
type Redis struct {
	Addr          string        `koanf:"addr"`
	Password      string        `koanf:"password"`
	DB            int           `koanf:"db"             validate:"gte=0"`
	FeedbackLimit int           `koanf:"feedback_limit" validate:"gte=0"`
	Window        time.Duration `koanf:"window"`
}

//
// GeoIP section
//

// GeoIP points at an optional MaxMind GeoLite2 City database.
type GeoIP struct {
	CityDB string `koanf:"city_db"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // SENDERO_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads.  Handlers receive it by injection.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Notify   Notify   `koanf:"notify"`
	Tracker  Tracker  `koanf:"tracker"`
	Blob     Blob     `koanf:"blob"`
	Redis    Redis    `koanf:"redis"`
	GeoIP    GeoIP    `koanf:"geoip"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}

// Feedback categories that need a tracker label.
var FeedbackCategories = []string{"bug", "feature", "general"}

// applyDefaults fills optional values the YAML may omit.
func (c *Config) applyDefaults() {
	if c.HTTP.ListenAddr == "" {
		c.HTTP.ListenAddr = ":8080"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Notify.Provider == "" {
		c.Notify.Provider = "resend"
	}
	if c.Notify.SESRegion == "" {
		c.Notify.SESRegion = "us-east-1"
	}
	if c.Notify.Timeout == 0 {
		c.Notify.Timeout = 10 * time.Second
	}
	if c.Tracker.Endpoint == "" {
		c.Tracker.Endpoint = "https://api.linear.app/graphql"
	}
	if c.Blob.Region == "" {
		c.Blob.Region = "us-east-1"
	}
	if c.Blob.Prefix == "" {
		c.Blob.Prefix = "feedback/"
	}
	if c.Redis.FeedbackLimit == 0 {
		c.Redis.FeedbackLimit = 5
	}
	if c.Redis.Window == 0 {
		c.Redis.Window = time.Minute
	}
}
