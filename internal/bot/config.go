package bot

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"leaguebot/internal/common"
)

type Config struct {
	Token        string
	Prefix       string
	AdminRole    string
	Database     string
	MainCycle    time.Duration
	Housekeeping time.Duration
	Restrictions []common.Restriction
}

// yaml representation of the configuration, with durations as strings
type rawConfig struct {
	Token        string `yaml:"token"`
	Prefix       string `yaml:"prefix"`
	AdminRole    string `yaml:"admin_role"`
	Database     string `yaml:"database"`
	MainCycle    string `yaml:"main_cycle"`
	Housekeeping string `yaml:"housekeeping"`
	Restrictions []struct {
		Requests int    `yaml:"requests"`
		Duration string `yaml:"duration"`
	} `yaml:"restrictions"`
}

func LoadConfig(filename string) (Config, error) {

	raw := rawConfig{}
	bs, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("could not read config file %s: %w", filename, err)
	}
	if err := yaml.Unmarshal(bs, &raw); err != nil {
		return Config{}, fmt.Errorf("could not parse config file %s: %w", filename, err)
	}
	if raw.Token == "" {
		return Config{}, fmt.Errorf("config file %s does not provide a token", filename)
	}

	cfg := Config{
		Token:     raw.Token,
		Prefix:    raw.Prefix,
		AdminRole: raw.AdminRole,
		Database:  raw.Database,
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "!"
	}
	if cfg.AdminRole == "" {
		cfg.AdminRole = "Admin"
	}
	if cfg.Database == "" {
		cfg.Database = "leaguebot.db"
	}
	if cfg.MainCycle, err = duration(raw.MainCycle, 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Housekeeping, err = duration(raw.Housekeeping, time.Hour); err != nil {
		return Config{}, err
	}
	for _, restriction := range raw.Restrictions {
		if restriction.Requests < 1 {
			return Config{}, fmt.Errorf("config file %s has a restriction allowing fewer than one request", filename)
		}
		d, err := duration(restriction.Duration, 0)
		if err != nil {
			return Config{}, err
		}
		cfg.Restrictions = append(cfg.Restrictions, common.Restriction{Requests: restriction.Requests, Duration: d})
	}
	return cfg, nil
}

func duration(value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("could not parse duration %q: %w", value, err)
	}
	return d, nil
}
