package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/slighter12/go-lib/database/postgres"
)

const (
	defaultPath               = "."
	defaultLeaderboardLimit   = 25
	defaultPuffcoBaseURL      = "https://beta.puffco.app"
	defaultPuffcoAppVersion   = "2.15.0"
	defaultVersionRefreshRate = 5 * time.Minute
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port     int `json:"port" yaml:"port"`
		Timeouts struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	Redis *RedisConfig `json:"redis" yaml:"redis"`

	// Signature holds the shared metrics secret used to authenticate
	// firmware-originated telemetry payloads.
	Signature *SignatureConfig `json:"signature" yaml:"signature"`

	Auth *AuthConfig `json:"auth" yaml:"auth"`

	Discord *DiscordConfig `json:"discord" yaml:"discord"`

	Puffco *PuffcoConfig `json:"puffco" yaml:"puffco"`

	// EventLog configuration for the audit event sink
	EventLog *EventLogConfig `json:"eventLog" yaml:"eventLog"`

	// Avatars configuration for provider avatar storage
	Avatars *AvatarsConfig `json:"avatars" yaml:"avatars"`

	Leaderboard *LeaderboardConfig `json:"leaderboard" yaml:"leaderboard"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// RedisConfig defines the connection settings for the session/cache store.
type RedisConfig struct {
	URI string `json:"uri" yaml:"uri"`
}

// SignatureConfig defines the telemetry signature settings.
type SignatureConfig struct {
	// MetricsKey is the shared symmetric key; must be 32 bytes for AES-256.
	MetricsKey string `json:"metricsKey" yaml:"metricsKey"`
}

// AuthConfig defines local-account authentication settings.
type AuthConfig struct {
	BcryptCost int `json:"bcryptCost" yaml:"bcryptCost"`
}

// DiscordConfig defines the Discord OAuth application settings.
type DiscordConfig struct {
	ClientID        string `json:"clientId" yaml:"clientId"`
	ClientSecret    string `json:"clientSecret" yaml:"clientSecret"`
	ApplicationHost string `json:"applicationHost" yaml:"applicationHost"`
}

// PuffcoConfig defines the upstream Puffco account API settings.
type PuffcoConfig struct {
	BaseURL    string `json:"baseUrl" yaml:"baseUrl"`
	AppVersion string `json:"appVersion" yaml:"appVersion"`

	// VersionRefreshInterval controls how often the reported app version
	// is re-read from the cache.
	VersionRefreshInterval time.Duration `json:"versionRefreshInterval" yaml:"versionRefreshInterval"`
}

// EventLogConfig defines the audit event sink.
type EventLogConfig struct {
	// Provider type: "noop", "local" for local HTTP, or "google" for Google Pub/Sub
	Provider string `json:"provider" yaml:"provider"`

	// Local HTTP endpoint receiving fire-and-forget event posts (for local provider)
	LocalEndpoint string `json:"localEndpoint" yaml:"localEndpoint"`

	// Channel name attached to every local HTTP event post
	Channel string `json:"channel" yaml:"channel"`

	// Google Cloud project ID (for google provider)
	ProjectID string `json:"projectId" yaml:"projectId"`

	// Pub/Sub topic ID (for google provider)
	TopicID string `json:"topicId" yaml:"topicId"`
}

// AvatarsConfig defines provider avatar blob storage.
type AvatarsConfig struct {
	// BucketURL is a gocloud.dev blob URL, e.g. "s3://puff-avatars?endpoint=..."
	BucketURL string `json:"bucketUrl" yaml:"bucketUrl"`
}

// LeaderboardConfig defines device leaderboard behavior.
type LeaderboardConfig struct {
	DefaultLimit int `json:"defaultLimit" yaml:"defaultLimit"`

	// MinAverageFirmware is the minimum firmware (letter version) a device
	// must run for its average metrics to count in rankings.
	MinAverageFirmware string `json:"minAverageFirmware" yaml:"minAverageFirmware"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			abs := filepath.Join(pwd, path)
			searchPaths = append(searchPaths, abs)
		}
	}

	// Try to find and load the config file
	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	// Load YAML config file
	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Convert ENV_VAR_NAME to path and align each segment with existing YAML keys.
			// Example: SIGNATURE_METRICSKEY -> signature.metricsKey
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	// Unmarshal into the config struct (case-insensitive to match env vars)
	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				// Case-insensitive matching for env var overrides
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	if cfg.Leaderboard == nil {
		cfg.Leaderboard = &LeaderboardConfig{}
	}
	if cfg.Leaderboard.DefaultLimit <= 0 {
		cfg.Leaderboard.DefaultLimit = defaultLeaderboardLimit
	}

	if cfg.Puffco == nil {
		cfg.Puffco = &PuffcoConfig{}
	}
	if strings.TrimSpace(cfg.Puffco.BaseURL) == "" {
		cfg.Puffco.BaseURL = defaultPuffcoBaseURL
	}
	if strings.TrimSpace(cfg.Puffco.AppVersion) == "" {
		cfg.Puffco.AppVersion = defaultPuffcoAppVersion
	}
	if cfg.Puffco.VersionRefreshInterval <= 0 {
		cfg.Puffco.VersionRefreshInterval = defaultVersionRefreshRate
	}

	// Build replicas from environment variables (POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, etc.)
	if cfg.Postgres != nil {
		cfg.Postgres.Replicas = buildReplicasFromEnv()
	}

	return cfg, nil
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}

// buildReplicasFromEnv builds the replicas slice from environment variables.
// Environment variable format: POSTGRES_REPLICAS_{index}_{field}
func buildReplicasFromEnv() []postgres.ConnectionConfig {
	var replicas []postgres.ConnectionConfig

	for i := 0; ; i++ {
		prefix := "POSTGRES_REPLICAS_" + strconv.Itoa(i) + "_"

		host := os.Getenv(prefix + "HOST")
		port := os.Getenv(prefix + "PORT")
		if host == "" || port == "" {
			// No more replicas or incomplete configuration.
			break
		}

		replica := postgres.ConnectionConfig{
			Host:     host,
			Port:     port,
			UserName: os.Getenv(prefix + "USERNAME"),
			Password: os.Getenv(prefix + "PASSWORD"),
		}

		replicas = append(replicas, replica)
	}

	return replicas
}
