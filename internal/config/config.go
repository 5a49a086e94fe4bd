package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	envLiteLLMMasterKey  = "LITELLM_MASTER_KEY"
	envPostgresPassword  = "POSTGRES_PASSWORD"
	envMySQLRootPassword = "MYSQL_ROOT_PASSWORD"

	envNetwork         = "FLEET_NETWORK"
	envRegistryFile    = "FLEET_REGISTRY_FILE"
	envBackupDir       = "FLEET_BACKUP_DIR"
	envHealthTimeout   = "FLEET_HEALTH_TIMEOUT"
	envGracePeriod     = "FLEET_GRACE_PERIOD"
	envPollInterval    = "FLEET_POLL_INTERVAL"
	envDockerHost      = "FLEET_DOCKER_HOST"
	envSlackWebhookURL = "FLEET_SLACK_WEBHOOK_URL"
	envStateFile       = "FLEET_STATE_FILE"
	envHealthPort      = "FLEET_HEALTH_PORT"
	envMetricsPort     = "FLEET_METRICS_PORT"
)

const (
	defaultNetwork       = "llm-net"
	defaultBackupDir     = "backups"
	defaultHealthTimeout = 10 * time.Second
	defaultGracePeriod   = 90 * time.Second
	defaultPollInterval  = 30 * time.Second
	defaultStateFile     = "fleet-state.json"
)

// Config describes runtime configuration loaded from the environment.
type Config struct {
	Network         string
	RegistryFile    string
	BackupDir       string
	HealthTimeout   time.Duration
	GracePeriod     time.Duration
	PollInterval    time.Duration
	DockerHost      string
	SlackWebhookURL string
	StateFile       string
	HealthPort      int
	MetricsPort     int

	LiteLLMMasterKey  string
	PostgresPassword  string
	MySQLRootPassword string
}

// Load reads configuration from environment variables and a local .env file if
// present. Existing environment variables take precedence over values in .env.
// Required deployment secrets are NOT checked here; call ValidateSecrets before
// operations that touch managed services.
func Load() (Config, error) {
	if err := loadDotEnvIfPresent(".env"); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Network:       defaultNetwork,
		BackupDir:     defaultBackupDir,
		HealthTimeout: defaultHealthTimeout,
		GracePeriod:   defaultGracePeriod,
		PollInterval:  defaultPollInterval,
		StateFile:     defaultStateFile,
	}

	if value, ok := lookupTrimmed(envNetwork); ok {
		cfg.Network = value
	}
	if value, ok := lookupTrimmed(envRegistryFile); ok {
		cfg.RegistryFile = value
	}
	if value, ok := lookupTrimmed(envBackupDir); ok {
		cfg.BackupDir = value
	}
	if value, ok := lookupTrimmed(envStateFile); ok {
		cfg.StateFile = value
	}
	if value, ok := lookupTrimmed(envSlackWebhookURL); ok {
		cfg.SlackWebhookURL = value
	}

	var err error
	if cfg.HealthTimeout, err = durationEnv(envHealthTimeout, cfg.HealthTimeout); err != nil {
		return Config{}, err
	}
	if cfg.GracePeriod, err = durationEnv(envGracePeriod, cfg.GracePeriod); err != nil {
		return Config{}, err
	}
	if cfg.PollInterval, err = durationEnv(envPollInterval, cfg.PollInterval); err != nil {
		return Config{}, err
	}
	if cfg.HealthPort, err = portEnv(envHealthPort); err != nil {
		return Config{}, err
	}
	if cfg.MetricsPort, err = portEnv(envMetricsPort); err != nil {
		return Config{}, err
	}

	if value, ok := lookupTrimmed(envDockerHost); ok {
		if err := validateURL(value, envDockerHost); err != nil {
			return Config{}, err
		}
		cfg.DockerHost = value
	}

	if cfg.Network == "" {
		return Config{}, fmt.Errorf("%s must not be empty", envNetwork)
	}

	cfg.LiteLLMMasterKey, _ = lookupTrimmed(envLiteLLMMasterKey)
	cfg.PostgresPassword, _ = lookupTrimmed(envPostgresPassword)
	cfg.MySQLRootPassword, _ = lookupTrimmed(envMySQLRootPassword)

	return cfg, nil
}

// ValidateSecrets checks that every deployment secret is present. It is called
// before deploy and backup operations so misconfiguration fails before any
// side effect on the network or a managed service.
func (c Config) ValidateSecrets() error {
	var missing []string
	if c.LiteLLMMasterKey == "" {
		missing = append(missing, envLiteLLMMasterKey)
	}
	if c.PostgresPassword == "" {
		missing = append(missing, envPostgresPassword)
	}
	if c.MySQLRootPassword == "" {
		missing = append(missing, envMySQLRootPassword)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := lookupTrimmed(key)
	if !ok {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than zero", key)
	}
	return parsed, nil
}

func portEnv(key string) (int, error) {
	value, ok := lookupTrimmed(key)
	if !ok {
		return 0, nil
	}
	port, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if port < 0 || port > 65535 {
		return 0, fmt.Errorf("%s must be a valid port number", key)
	}
	return port, nil
}

func lookupTrimmed(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func loadDotEnvIfPresent(path string) error {
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist) {
		return nil
	}

	return err
}

func validateURL(value, name string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid %s: must include scheme and host", name)
	}
	return nil
}
