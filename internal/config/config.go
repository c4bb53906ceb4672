// Package config loads the back-office configuration from an optional YAML
// file, a .env file and the environment, in increasing order of precedence.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/erazemk/auberge/internal/poller"
)

//go:embed schema.json
var schemaJSON []byte

// Config holds all back-office configuration.
type Config struct {
	Addr    string        `yaml:"addr"`
	DB      string        `yaml:"db"`
	LogPath string        `yaml:"log"`
	API     APIConfig     `yaml:"api"`
	Polling PollingConfig `yaml:"polling"`
	Push    PushConfig    `yaml:"push"`
	Login   LoginConfig   `yaml:"login"`
}

// APIConfig points at the remote backend.
type APIConfig struct {
	URL          string        `yaml:"url"`
	HotelID      string        `yaml:"hotel_id"`
	ServiceToken string        `yaml:"service_token"` // enables the chat monitor
	Timeout      time.Duration `yaml:"timeout"`
}

// PollingConfig holds the refresher periods.
type PollingConfig struct {
	Chat          time.Duration `yaml:"chat"`
	Conversations time.Duration `yaml:"conversations"`
	Dashboard     time.Duration `yaml:"dashboard"`
}

// PushConfig holds the VAPID identity. Empty keys are generated and stored
// in the database on first run.
type PushConfig struct {
	PublicKey  string `yaml:"public_key"`
	PrivateKey string `yaml:"private_key"`
	Subscriber string `yaml:"subscriber"`
}

// LoginConfig throttles repeated failed logins per client.
type LoginConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Lockout     time.Duration `yaml:"lockout"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Addr: ":8080",
		DB:   "auberge.sqlite3",
		API: APIConfig{
			Timeout: 15 * time.Second,
		},
		Polling: PollingConfig{
			Chat:          poller.ChatInterval,
			Conversations: poller.ConversationsInterval,
			Dashboard:     poller.DashboardInterval,
		},
		Push: PushConfig{
			Subscriber: "admin@localhost",
		},
		Login: LoginConfig{
			MaxAttempts: 5,
			Lockout:     15 * time.Minute,
		},
	}
}

// Load builds the configuration. path may be empty. envFile is loaded when
// it exists; variables already set in the environment win over it.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode validates a YAML document against the embedded schema, then
// decodes it over the current values.
func (c *Config) decode(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing yaml: %w", err)
	}
	if doc == nil {
		return nil
	}
	if err := validateDocument(doc); err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("decoding yaml: %w", err)
	}
	return nil
}

func validateDocument(doc any) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("config.json", bytes.NewReader(schemaJSON)); err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}
	schema, err := compiler.Compile("config.json")
	if err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}

	// Round trip through JSON so the validator sees plain JSON types.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("normalizing config: %w", err)
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("normalizing config: %w", err)
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Addr, "AUBERGE_ADDR")
	setString(&c.DB, "AUBERGE_DB")
	setString(&c.LogPath, "AUBERGE_LOG")
	setString(&c.API.URL, "AUBERGE_API_URL", "NEXT_PUBLIC_API_URL")
	setString(&c.API.HotelID, "AUBERGE_HOTEL_ID", "NEXT_PUBLIC_HOTEL_ID")
	setString(&c.API.ServiceToken, "AUBERGE_SERVICE_TOKEN")
	setString(&c.Push.PublicKey, "AUBERGE_VAPID_PUBLIC_KEY")
	setString(&c.Push.PrivateKey, "AUBERGE_VAPID_PRIVATE_KEY")
	setString(&c.Push.Subscriber, "AUBERGE_VAPID_SUBSCRIBER")

	durations := []struct {
		dst *time.Duration
		key string
	}{
		{&c.API.Timeout, "AUBERGE_API_TIMEOUT"},
		{&c.Polling.Chat, "AUBERGE_POLL_CHAT"},
		{&c.Polling.Conversations, "AUBERGE_POLL_CONVERSATIONS"},
		{&c.Polling.Dashboard, "AUBERGE_POLL_DASHBOARD"},
	}
	for _, d := range durations {
		v, ok := lookup(d.key)
		if !ok {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	if v, ok := lookup("AUBERGE_LOGIN_MAX_ATTEMPTS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AUBERGE_LOGIN_MAX_ATTEMPTS: %w", err)
		}
		c.Login.MaxAttempts = n
	}
	return nil
}

// setString assigns the first non-empty variable among keys.
func setString(dst *string, keys ...string) {
	for _, key := range keys {
		if v, ok := lookup(key); ok {
			*dst = v
			return
		}
	}
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr cannot be empty")
	}
	if c.DB == "" {
		return errors.New("db cannot be empty")
	}
	if c.API.URL == "" {
		return errors.New("api url is required (AUBERGE_API_URL)")
	}
	u, err := url.Parse(c.API.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api url %q must be an absolute http(s) URL", c.API.URL)
	}
	if c.API.Timeout <= 0 {
		return errors.New("api timeout must be positive")
	}

	intervals := map[string]time.Duration{
		"chat":          c.Polling.Chat,
		"conversations": c.Polling.Conversations,
		"dashboard":     c.Polling.Dashboard,
	}
	for name, d := range intervals {
		if d < poller.MinInterval || d > poller.MaxInterval {
			return fmt.Errorf("polling.%s must be between %s and %s, got %s",
				name, poller.MinInterval, poller.MaxInterval, d)
		}
	}

	if (c.Push.PublicKey == "") != (c.Push.PrivateKey == "") {
		return errors.New("push public and private keys must be set together")
	}
	if c.Login.MaxAttempts < 1 {
		return errors.New("login max_attempts must be at least 1")
	}
	if c.Login.Lockout <= 0 {
		return errors.New("login lockout must be positive")
	}
	return nil
}
