package db

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type yamlConfig struct {
	Database struct {
		Type     string `yaml:"type"`
		Postgres struct {
			Host     string `yaml:"host"`
			Port     string `yaml:"port"`
			User     string `yaml:"user"`
			Password string `yaml:"password"`
			DBName   string `yaml:"dbname"`
			SSLMode  string `yaml:"sslmode"`
		} `yaml:"postgresql"`
		MySQL struct {
			Host     string `yaml:"host"`
			Port     string `yaml:"port"`
			User     string `yaml:"user"`
			Password string `yaml:"password"`
			DBName   string `yaml:"dbname"`
		} `yaml:"mysql"`
		SQLite struct {
			Path string `yaml:"path"`
		} `yaml:"sqlite"`
	} `yaml:"database"`
}

// LoadYamlConfig reads an optional YAML file describing the database block.
// It takes precedence over the key=value config when present.
func LoadYamlConfig(path string) (*Config, error) {
	raw := &yamlConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read yaml config: %w", err)
	}
	if err := yaml.Unmarshal(data, raw); err != nil {
		return nil, fmt.Errorf("cannot decode yaml config: %w", err)
	}

	cfg := &Config{
		Engine: raw.Database.Type,
		Path:   raw.Database.SQLite.Path,
	}
	switch raw.Database.Type {
	case "postgres", "postgresql":
		cfg.Engine = "postgres"
		cfg.Host = raw.Database.Postgres.Host
		cfg.Port = raw.Database.Postgres.Port
		cfg.User = raw.Database.Postgres.User
		cfg.Pass = raw.Database.Postgres.Password
		cfg.Name = raw.Database.Postgres.DBName
		cfg.SSLMode = raw.Database.Postgres.SSLMode
	case "mysql":
		cfg.Host = raw.Database.MySQL.Host
		cfg.Port = raw.Database.MySQL.Port
		cfg.User = raw.Database.MySQL.User
		cfg.Pass = raw.Database.MySQL.Password
		cfg.Name = raw.Database.MySQL.DBName
	}

	return cfg, nil
}
