// internal/vault/vault.go
//
// Vault client wrapper for Sendero.
//
// Context
// -------
//   - Wraps the HashiCorp Vault Go SDK for the one thing the service needs:
//     reading API keys and DSN passwords out of KV-v2 at boot.
//   - Config values written as `vault:<mount/path>#<key>` are handed to
//     Lookup by the config loader, so secrets never sit in YAML or git.
//   - A lifetime watcher keeps a renewable token alive while the process
//     runs; per-key results are cached for a short TTL.
//
// Public workflow
// ---------------
//  1. cli, err := vault.New(ctx, zap.S())           // during boot.
//  2. cfg, err := config.LoadFrom(ctx, root, cli)   // resolves vault: refs.
//
// Environment expectations
// ------------------------
// • VAULT_ADDR   – scheme and host of the Vault server.
// • VAULT_TOKEN  – token (falls back to ~/.vault-token).
package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

// DefaultTTL is how long Lookup caches a value.
const DefaultTTL = 5 * time.Minute

// ErrBadRef reports a reference without "path#key" shape.
var ErrBadRef = errors.New("vault: reference must be <mount/path>#<key>")

// KV is the slice of the SDK used for reads; *vault.KVv2 satisfies it.
type KV interface {
	Get(ctx context.Context, path string) (*vault.KVSecret, error)
}

//
// SECTION 1.  Public façade
//

// Client is safe for concurrent use.  Zero value is invalid.
type Client struct {
	api *vault.Client
	kv  func(mount string) KV
	log *zap.SugaredLogger

	cacheMu sync.RWMutex
	cache   map[string]cached // canonical path#key → value + expiry.
}

type cached struct {
	val string
	exp time.Time
}

// New reads VAULT_* from the environment, builds a client, and starts the
// token lifetime watcher bound to ctx.
func New(ctx context.Context, log *zap.SugaredLogger) (*Client, error) {
	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}

	apiCli, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}

	c := newClient(func(m string) KV { return apiCli.KVv2(m) }, log)
	c.api = apiCli
	go c.watchToken(ctx)
	return c, nil
}

func newClient(kv func(string) KV, log *zap.SugaredLogger) *Client {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Client{kv: kv, log: log, cache: make(map[string]cached)}
}

// Lookup resolves "mount/path#key" with DefaultTTL caching.
func (c *Client) Lookup(ctx context.Context, ref string) (string, error) {
	path, key, ok := strings.Cut(ref, "#")
	if !ok || path == "" || key == "" {
		return "", ErrBadRef
	}
	return c.GetKV(ctx, path, key, DefaultTTL)
}

// GetKV fetches a single key from a KV-v2 secret.  If ttl > 0 the result is
// cached for that duration.
func (c *Client) GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error) {
	if secretPath == "" || key == "" {
		return "", ErrBadRef
	}

	canonical := secretPath + "#" + key

	if ttl > 0 {
		c.cacheMu.RLock()
		if cv, ok := c.cache[canonical]; ok && time.Now().Before(cv.exp) {
			c.cacheMu.RUnlock()
			return cv.val, nil
		}
		c.cacheMu.RUnlock()
	}

	mount, rel := splitMount(secretPath)
	sec, err := c.kv(mount).Get(ctx, rel)
	if err != nil {
		return "", fmt.Errorf("vault get %s: %w", secretPath, err)
	}

	raw, ok := sec.Data[key]
	if !ok {
		return "", fmt.Errorf("key %q not found in secret %q", key, secretPath)
	}
	sval, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("value at %s is not a string", canonical)
	}

	if ttl > 0 {
		c.cacheMu.Lock()
		c.cache[canonical] = cached{val: sval, exp: time.Now().Add(ttl)}
		c.cacheMu.Unlock()
	}
	return sval, nil
}

//
// SECTION 2.  Token lifetime
//

func (c *Client) watchToken(ctx context.Context) {
	sec, err := c.api.Auth().Token().LookupSelfWithContext(ctx)
	if err != nil {
		c.log.Warnw("vault token lookup failed", "err", err)
		return
	}
	if renewable, _ := sec.TokenIsRenewable(); !renewable {
		c.log.Debugw("vault token not renewable")
		return
	}

	w, err := c.api.NewLifetimeWatcher(&vault.LifetimeWatcherInput{Secret: sec})
	if err != nil {
		c.log.Warnw("vault watcher init failed", "err", err)
		return
	}
	go w.Start()
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-w.DoneCh():
			if err != nil {
				c.log.Warnw("vault token renewal stopped", "err", err)
			}
			return
		case ev := <-w.RenewCh():
			if ev != nil && ev.Secret != nil && ev.Secret.Auth != nil {
				c.log.Debugw("vault token renewed", "ttl_s", ev.Secret.Auth.LeaseDuration)
			}
		}
	}
}

//
// SECTION 3.  Helpers
//

func splitMount(p string) (mount, rel string) {
	mount, rel, _ = strings.Cut(p, "/")
	return
}
