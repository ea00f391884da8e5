package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

type Garmin struct {
	Email    string `yaml:"email"    json:"email"`
	Password string `yaml:"password" json:"password"`
	Timezone string `yaml:"timezone" json:"timezone"`
}

type Config struct {
	Garmin   Garmin `yaml:"garmin"   json:"garmin"`
	Tokens   string `yaml:"tokens"   json:"tokens"`
	Database string `yaml:"database" json:"database"`
	Port     int    `yaml:"port"     json:"port"`
}

// Get reads ~/.garminconnect.yaml. Missing paths get defaults under the home
// directory so that `configure` works on a clean machine.
func Get() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error in UserHomeDir: %w", err)
	}
	vip := viper.GetViper()
	vip.AddConfigPath(home)
	vip.SetConfigName(".garminconnect")
	if err = vip.ReadInConfig(); err != nil {
		// a clean machine has no config file yet; defaults below cover it
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error in ReadInConfig: %w", err)
		}
	}
	cfg := &Config{
		Garmin: Garmin{
			Email:    vip.GetString("garmin.email"),
			Password: vip.GetString("garmin.password"),
			Timezone: vip.GetString("garmin.timezone"),
		},
		Tokens:   vip.GetString("tokens"),
		Database: vip.GetString("database"),
		Port:     vip.GetInt("port"),
	}
	if cfg.Garmin.Timezone == "" {
		cfg.Garmin.Timezone = "Europe/Helsinki"
	}
	if cfg.Tokens == "" {
		cfg.Tokens = filepath.Join(home, ".garmin_tokens.json")
	}
	if cfg.Database == "" {
		cfg.Database = filepath.Join(home, ".garminconnect.sql")
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}
	return cfg, nil
}

func (cfg *Config) Write() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	fname := filepath.Join(home, ".garminconnect.yaml")
	text, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return fname, os.WriteFile(fname, text, 0600)
}
