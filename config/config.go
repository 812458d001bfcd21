package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/evault-labs/swap-router/internal/swap"
)

type Config struct {
	Server struct {
		Host string `mapstructure:"host" json:"host,omitempty"`
		Port int64  `mapstructure:"port" json:"port,omitempty"`
	} `mapstructure:"server" json:"server"`

	Redis struct {
		Host     string `mapstructure:"host" json:"host,omitempty"`
		Port     string `mapstructure:"port" json:"port,omitempty"`
		User     string `mapstructure:"user" json:"user,omitempty"`
		Password string `mapstructure:"password" json:"password,omitempty"`
		DB       int    `mapstructure:"db" json:"db,omitempty"`
	} `mapstructure:"redis" json:"redis,omitempty"`

	Datadog struct {
		Host string `mapstructure:"host" json:"host,omitempty"`
		Port string `mapstructure:"port" json:"port,omitempty"`
	} `mapstructure:"datadog" json:"datadog"`

	TokenList struct {
		URL             string        `mapstructure:"url" json:"url,omitempty"`
		RefreshInterval time.Duration `mapstructure:"refresh_interval" json:"refresh_interval,omitempty"`
	} `mapstructure:"token_list" json:"token_list,omitempty"`

	Venues struct {
		GlueX struct {
			URL    string `mapstructure:"url" json:"url,omitempty"`
			APIKey string `mapstructure:"api_key" json:"api_key,omitempty"`
		} `mapstructure:"gluex" json:"gluex,omitempty"`
		LiFi struct {
			URL    string `mapstructure:"url" json:"url,omitempty"`
			APIKey string `mapstructure:"api_key" json:"api_key,omitempty"`
		} `mapstructure:"lifi" json:"lifi,omitempty"`
		Uniswap struct {
			RPCURL  string `mapstructure:"rpc_url" json:"rpc_url,omitempty"`
			Router  string `mapstructure:"router" json:"router,omitempty"`
			ChainID uint64 `mapstructure:"chain_id" json:"chain_id,omitempty"`
		} `mapstructure:"uniswap" json:"uniswap,omitempty"`
	} `mapstructure:"venues" json:"venues,omitempty"`

	Quotes struct {
		Timeout       time.Duration `mapstructure:"timeout" json:"timeout,omitempty"`
		SearchTimeout time.Duration `mapstructure:"search_timeout" json:"search_timeout,omitempty"`
	} `mapstructure:"quotes" json:"quotes,omitempty"`

	ChainIDs []uint64 `mapstructure:"chain_ids" json:"chain_ids,omitempty"`

	// Routing overrides the built-in per-chain strategy tables when set.
	Routing map[uint64][]swap.RoutingItem `mapstructure:"routing" json:"routing,omitempty"`
}

func GetConfigure() (*Config, error) {
	configName := os.Getenv("SR_CONFIG_NAME")
	if configName == "" {
		configName = "config"
	}

	return ReadConfig(configName)
}

func ReadConfig(configName string) (*Config, error) {
	viper.SetConfigName(configName)
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	viper.SetDefault("Server.Host", "0.0.0.0")
	viper.SetDefault("Server.Port", 8080)
	viper.SetDefault("Quotes.Timeout", "30s")
	viper.SetDefault("Quotes.SearchTimeout", "60s")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("fail to reading config file, %w", err)
	}
	var cfg Config
	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	return &cfg, nil
}

// RoutingTable returns the effective per-chain routing, the config override
// when present or the built-in defaults otherwise.
func (c *Config) RoutingTable() map[uint64][]swap.RoutingItem {
	if len(c.Routing) > 0 {
		return c.Routing
	}
	return DefaultRouting()
}
