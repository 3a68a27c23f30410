package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	// Deployment
	ChainID       uint64
	RPCURL        string
	Factory       string
	Router        string
	WrappedNative string
	InitCodeHash  string

	// Pool discovery
	IndexerEndpoints []string
	Allowlist        []string
	MinLiquidityUSD  float64
	CacheTTL         time.Duration
	FetchTimeout     time.Duration
	MaxRetries       int
	RetryBackoff     time.Duration

	// Quoting and execution
	SlippageBps uint64
	Deadline    time.Duration

	// Persistence: the JSONL snapshot file is always on; the Postgres
	// store is enabled when a DSN is set.
	SnapshotPath string
	PostgresDSN  string

	// Server
	ListenAddr string

	// PrivateKey comes from the environment only; never put it in a
	// config file.
	PrivateKey string

	LogLevel string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SWAPSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("chain-id", uint64(1))
	v.SetDefault("min-liquidity-usd", float64(0))
	v.SetDefault("cache-ttl", 5*time.Minute)
	v.SetDefault("fetch-timeout", 10*time.Second)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("slippage-bps", uint64(50))
	v.SetDefault("deadline", 20*time.Minute)
	v.SetDefault("snapshot", "./data/snapshots.jsonl")
	v.SetDefault("listen", ":8080")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		ChainID:          v.GetUint64("chain-id"),
		RPCURL:           v.GetString("rpc"),
		Factory:          v.GetString("factory"),
		Router:           v.GetString("router"),
		WrappedNative:    v.GetString("wrapped-native"),
		InitCodeHash:     v.GetString("init-code-hash"),
		IndexerEndpoints: getStringSlice(v, "indexer"),
		Allowlist:        getStringSlice(v, "allowlist"),
		MinLiquidityUSD:  v.GetFloat64("min-liquidity-usd"),
		CacheTTL:         v.GetDuration("cache-ttl"),
		FetchTimeout:     v.GetDuration("fetch-timeout"),
		MaxRetries:       v.GetInt("max-retries"),
		RetryBackoff:     v.GetDuration("retry-backoff"),
		SlippageBps:      v.GetUint64("slippage-bps"),
		Deadline:         v.GetDuration("deadline"),
		SnapshotPath:     v.GetString("snapshot"),
		PostgresDSN:      v.GetString("postgres-dsn"),
		ListenAddr:       v.GetString("listen"),
		PrivateKey:       v.GetString("private-key"),
		LogLevel:         v.GetString("log-level"),
	}

	return cfg, nil
}

// Validate checks the fields every command needs before touching the
// network.
func (c Config) Validate() error {
	if c.Factory == "" {
		return fmt.Errorf("factory address is required")
	}
	if c.InitCodeHash == "" {
		return fmt.Errorf("init-code-hash is required")
	}
	return nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
