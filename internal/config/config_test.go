package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "conf"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "conf", "global.yaml"), []byte(body), 0o644))
	return root
}

type mapSecrets map[string]string

func (m mapSecrets) Lookup(_ context.Context, ref string) (string, error) {
	v, ok := m[ref]
	if !ok {
		return "", errors.New("no such secret")
	}
	return v, nil
}

const minimal = `
http:
  listen_addr: ":9090"
database:
  driver: memory
notify:
  provider: noop
`

func TestLoadDefaults(t *testing.T) {
	root := writeYAML(t, minimal)

	cfg, err := LoadFrom(context.Background(), root, nil)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.ListenAddr)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, 10*time.Second, cfg.Notify.Timeout)
	assert.Equal(t, "https://api.linear.app/graphql", cfg.Tracker.Endpoint)
	assert.Equal(t, root, cfg.Paths.Root)
	assert.Same(t, cfg, Get())
}

func TestLoadEnvOverlay(t *testing.T) {
	root := writeYAML(t, minimal)
	t.Setenv("SENDERO_HTTP__LISTEN_ADDR", ":7070")
	t.Setenv("SENDERO_REDIS__WINDOW", "30s")

	cfg, err := LoadFrom(context.Background(), root, nil)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.HTTP.ListenAddr)
	assert.Equal(t, 30*time.Second, cfg.Redis.Window)
}

func TestLoadCollectsEveryMissingName(t *testing.T) {
	root := writeYAML(t, `
database:
  driver: postgres
notify:
  provider: resend
tracker:
  enabled: true
  labels:
    bug: lbl-bug
`)
	_, err := LoadFrom(context.Background(), root, nil)

	var me *MissingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, []string{
		"SENDERO_DATABASE__DSN",
		"SENDERO_NOTIFY__RESEND_API_KEY",
		"SENDERO_NOTIFY__FROM",
		"SENDERO_NOTIFY__TO",
		"SENDERO_TRACKER__API_KEY",
		"SENDERO_TRACKER__TEAM_ID",
		"SENDERO_TRACKER__PROJECT_ID",
		"SENDERO_TRACKER__LABELS__FEATURE",
		"SENDERO_TRACKER__LABELS__GENERAL",
	}, me.Names)
}

func TestMissingDSNDefaultDriver(t *testing.T) {
	root := writeYAML(t, `
notify:
  provider: noop
`)
	_, err := LoadFrom(context.Background(), root, nil)

	var me *MissingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, []string{"SENDERO_DATABASE__DSN"}, me.Names)
}

func TestMissingNothingWhenComplete(t *testing.T) {
	cfg := &Config{
		Database: Database{Driver: "mysql", DSN: "u:p@tcp(db)/s"},
		Notify:   Notify{Provider: "ses", From: "web@sendero.cr", To: "hola@sendero.cr"},
		Tracker: Tracker{
			Enabled: true, APIKey: "k", TeamID: "t", ProjectID: "p",
			Labels: map[string]string{"bug": "1", "feature": "2", "general": "3"},
		},
	}
	assert.Empty(t, cfg.Missing())
}

func TestLoadResolvesVaultRefs(t *testing.T) {
	root := writeYAML(t, `
database:
  driver: mysql
  dsn: "vault:secret/sendero/db#dsn"
notify:
  provider: noop
`)
	cfg, err := LoadFrom(context.Background(), root, mapSecrets{
		"secret/sendero/db#dsn": "user:pw@tcp(db:3306)/sendero",
	})
	require.NoError(t, err)
	assert.Equal(t, "user:pw@tcp(db:3306)/sendero", cfg.Database.DSN)
}

func TestLoadVaultRefWithoutClient(t *testing.T) {
	root := writeYAML(t, `
database:
  dsn: "vault:secret/sendero/db#dsn"
`)
	_, err := LoadFrom(context.Background(), root, nil)
	assert.ErrorContains(t, err, "database.dsn")
}

func TestLoadRejectsBadDriver(t *testing.T) {
	root := writeYAML(t, `
database:
  driver: oracle
  dsn: x
notify:
  provider: noop
`)
	_, err := LoadFrom(context.Background(), root, nil)
	assert.Error(t, err)
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "SENDERO_TRACKER__LABELS__BUG", EnvName("tracker.labels.bug"))
}
