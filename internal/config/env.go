package config

import (
	"fmt"

	pkgconfig "github.com/goran-ethernal/DonationIndexor/pkg/config"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of every environment override, e.g. DONATION_RPC_ENDPOINT.
const EnvPrefix = "DONATION"

// EnvOverrides holds the settings that may be supplied through the environment.
// Secrets and endpoints usually live here rather than in a checked-in config file.
type EnvOverrides struct {
	RPCEndpoint     string  `envconfig:"RPC_ENDPOINT"`
	ContractAddress string  `envconfig:"CONTRACT_ADDRESS"`
	StartBlock      *uint64 `envconfig:"START_BLOCK"`
	DBDriver        string  `envconfig:"DB_DRIVER"`
	DBPath          string  `envconfig:"DB_PATH"`
	DBDSN           string  `envconfig:"DB_DSN"`
	AuthSecret      string  `envconfig:"AUTH_SECRET"`
	LogLevel        string  `envconfig:"LOG_LEVEL"`
}

// ApplyEnvOverrides reads DONATION_* variables and overwrites the matching file settings.
func ApplyEnvOverrides(cfg *pkgconfig.Config) error {
	var env EnvOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("failed to read environment overrides: %w", err)
	}

	if env.RPCEndpoint != "" {
		cfg.Chain.RPCEndpoint = env.RPCEndpoint
	}
	if env.ContractAddress != "" {
		cfg.Chain.ContractAddress = env.ContractAddress
	}
	if env.StartBlock != nil {
		cfg.Indexer.StartBlock = *env.StartBlock
	}
	if env.DBDriver != "" {
		cfg.DB.Driver = env.DBDriver
	}
	if env.DBPath != "" {
		cfg.DB.Path = env.DBPath
	}
	if env.DBDSN != "" {
		cfg.DB.DSN = env.DBDSN
	}
	if env.AuthSecret != "" {
		if cfg.API == nil {
			cfg.API = &pkgconfig.APIConfig{}
		}
		if cfg.API.Auth == nil {
			cfg.API.Auth = &pkgconfig.AuthConfig{}
		}
		cfg.API.Auth.Secret = env.AuthSecret
	}
	if env.LogLevel != "" {
		if cfg.Logging == nil {
			cfg.Logging = &pkgconfig.LoggingConfig{}
		}
		cfg.Logging.DefaultLevel = env.LogLevel
	}

	return nil
}
