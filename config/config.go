package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Config struct {
	Env          string `env:"ENVIRONMENT" envDefault:"development"`
	ServerPort   int    `env:"PORT" envDefault:"8080"`
	DatabasePath string `env:"PRICEWATCH_DB" envDefault:"pricewatch.sqlite"`

	// Comma-separated scrape targets -- platform|url-template|xpath,...
	PlatformTargets string `env:"PLATFORM_TARGETS"`

	FetchTimeoutSecs    int `env:"FETCH_TIMEOUT_SECS" envDefault:"20"`
	RefreshIntervalSecs int `env:"REFRESH_INTERVAL_SECS" envDefault:"3600"`
	TrendWindowDays     int `env:"TREND_WINDOW_DAYS" envDefault:"30"`
	TrendMaxPoints      int `env:"TREND_MAX_POINTS" envDefault:"30"`
	DealsLimit          int `env:"DEALS_LIMIT" envDefault:"5"`

	log     *zap.Logger
	targets []Target
}

// Target points a platform at a live page: the url template receives the
// escaped product name and the xpath selects the price node.
type Target struct {
	Platform    string
	URLTemplate string
	XPath       string
}

func NewConfig(lc fx.Lifecycle, log *zap.Logger) *Config {
	_ = godotenv.Load()

	cfg := &Config{log: log}
	env.Parse(cfg)

	targets, err := cfg.parseTargets()
	if err != nil {
		if cfg.Env == "development" {
			cfg.log.Sugar().Infof("%s (continuing with built-in platforms only)", err)
			targets = nil
		} else {
			cfg.log.Sugar().Panic(err)
		}
	}
	cfg.targets = targets

	return cfg
}

func (cfg *Config) Targets() []Target {
	return cfg.targets
}

func (cfg *Config) FetchTimeout() time.Duration {
	return time.Duration(cfg.FetchTimeoutSecs) * time.Second
}

func (cfg *Config) RefreshInterval() time.Duration {
	return time.Duration(cfg.RefreshIntervalSecs) * time.Second
}

func (cfg *Config) parseTargets() ([]Target, error) {
	if cfg.PlatformTargets == "" {
		return nil, nil
	}

	entries := strings.Split(cfg.PlatformTargets, ",")
	result := make([]Target, 0, len(entries))
	for _, entry := range entries {
		parts := strings.Split(entry, "|")
		if len(parts) != 3 {
			return nil, fmt.Errorf("failed to parse '%s', each target should be platform|url-template|xpath -- Shop|https://shop.example/search?q=%%s|//span[@class='price']", entry)
		}
		result = append(result, Target{
			Platform:    strings.Trim(parts[0], " "),
			URLTemplate: strings.Trim(parts[1], " "),
			XPath:       strings.Trim(parts[2], " "),
		})
	}
	return result, nil
}
