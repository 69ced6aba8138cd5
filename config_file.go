package goSession

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GOSESSION_"

// LoadConfig builds a Config from defaults, an optional TOML file, optional
// dotenv files and the process environment, in that order of precedence
// (environment wins). When no dotenv files are named, ./.env is read if it
// exists. Unknown TOML keys are rejected. The result is validated.
func LoadConfig(path string, dotenvFiles ...string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("decode config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			sort.Strings(keys)
			return Config{}, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
		}
	}

	dotenv, err := readDotenv(dotenvFiles)
	if err != nil {
		return Config{}, err
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := applyEnvOverrides(&cfg, lookup); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func readDotenv(files []string) (map[string]string, error) {
	optional := len(files) == 0
	if optional {
		files = []string{".env"}
	}
	out := map[string]string{}
	for _, f := range files {
		vals, err := godotenv.Read(f)
		if err != nil {
			if optional && errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read dotenv %s: %w", f, err)
		}
		for k, v := range vals {
			if _, seen := out[k]; !seen {
				out[k] = v
			}
		}
	}
	return out, nil
}

type envLookup func(string) (string, bool)

func applyEnvOverrides(cfg *Config, lookup envLookup) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = d
		return nil
	}
	boolean := func(name string, dst *bool) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = b
		return nil
	}
	integer := func(name string, dst *int) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
		return nil
	}

	str("API_URL", &cfg.Identity.BaseURL)
	if v, ok := lookup(EnvPrefix + "ID_FIELDS"); ok && v != "" {
		cfg.Identity.IDFields = nil
		for _, f := range strings.Split(v, ",") {
			cfg.Identity.IDFields = append(cfg.Identity.IDFields, strings.TrimSpace(f))
		}
	}
	str("STORE_BACKEND", &cfg.Store.Backend)
	str("STORE_DIR", &cfg.Store.Dir)
	str("STORE_PATH", &cfg.Store.Path)
	str("REDIS_ADDR", &cfg.Store.RedisAddr)
	str("REDIS_PASSWORD", &cfg.Store.RedisPassword)
	str("STORE_PASSPHRASE", &cfg.Store.Passphrase)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)

	for _, err := range []error{
		dur("SESSION_WINDOW", &cfg.Session.Window),
		dur("ENRICH_TIMEOUT", &cfg.Session.EnrichTimeout),
		dur("API_TIMEOUT", &cfg.Identity.Timeout),
		dur("DASHBOARD_CACHE_TTL", &cfg.Dashboard.CacheTTL),
		boolean("ENRICH_ROLE", &cfg.Session.EnrichRole),
		boolean("EXPIRY_FROM_TOKEN", &cfg.Session.ExpiryFromToken),
		boolean("ROLE_FROM_TOKEN_CLAIMS", &cfg.Session.RoleFromTokenClaims),
		boolean("AUDIT_ENABLED", &cfg.Audit.Enabled),
		boolean("METRICS_ENABLED", &cfg.Metrics.Enabled),
		integer("REDIS_DB", &cfg.Store.RedisDB),
		integer("MAX_LOGIN_ATTEMPTS", &cfg.Identity.MaxLoginAttempts),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}
