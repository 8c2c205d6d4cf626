package cnf

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds the raw key=value options, shared across packages.
var Config map[string]string

// AppConfig is the typed view of the configuration.
type AppConfig struct {
	HTTPPort    string
	DBEngine    string
	DBPath      string
	DBHost      string
	DBUser      string
	DBPass      string
	DBPort      string
	DBName      string
	DataDir     string
	ExcelDir    string
	GeoJSONPath string
	LogLevel    string
	LogFile     string
	Env         string
	DefaultLang string
	AdminHash   string
	RescanMins  int
}

// LoadConfig reads a key=value file, skipping blank lines and comments.
func LoadConfig(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open config file: %w", err)
	}
	defer file.Close()

	config := make(map[string]string)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.Contains(line, "=") {
			parts := strings.SplitN(line, "=", 2)
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			if value != "" {
				commentIdx := -1
				for _, marker := range []string{" #", "\t#", " ;", "\t;"} {
					if idx := strings.Index(value, marker); idx >= 0 && (commentIdx == -1 || idx < commentIdx) {
						commentIdx = idx
					}
				}
				if commentIdx >= 0 {
					value = strings.TrimSpace(value[:commentIdx])
				}
			}
			config[key] = value
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	Config = config
	return config, nil
}

// ParseConfig converts the raw map into an AppConfig with defaults applied.
func ParseConfig(cfg map[string]string) (AppConfig, error) {
	ac := AppConfig{
		HTTPPort:    strings.TrimSpace(cfg["HTTP_PORT"]),
		DBEngine:    strings.TrimSpace(cfg["DB_ENGINE"]),
		DBPath:      cfg["DB_PATH"],
		DBHost:      cfg["DB_HOST"],
		DBUser:      cfg["DB_USR"],
		DBPass:      cfg["DB_PASS"],
		DBPort:      cfg["DB_PORT"],
		DBName:      cfg["DB_NAME"],
		DataDir:     strings.TrimSpace(cfg["DATA_DIR"]),
		ExcelDir:    strings.TrimSpace(cfg["EXCEL_DIR"]),
		GeoJSONPath: strings.TrimSpace(cfg["GEOJSON_PATH"]),
		LogLevel:    strings.TrimSpace(cfg["LOG_LEVEL"]),
		LogFile:     strings.TrimSpace(cfg["LOG_FILE"]),
		Env:         strings.TrimSpace(cfg["ENVIRONMENT"]),
		DefaultLang: strings.TrimSpace(cfg["DEFAULT_LANG"]),
		AdminHash:   strings.TrimSpace(cfg["ADMIN_PASS_HASH"]),
	}

	if ac.HTTPPort == "" {
		ac.HTTPPort = "8080"
	}
	if ac.DBEngine == "" {
		ac.DBEngine = "sqlite"
	}
	if ac.DBPath == "" {
		ac.DBPath = "./atlas.db"
	}
	if ac.DataDir == "" {
		ac.DataDir = "./data"
	}
	if ac.ExcelDir == "" {
		ac.ExcelDir = filepath.Join(ac.DataDir, "output_nuts3_excels")
	}
	if ac.GeoJSONPath == "" {
		ac.GeoJSONPath = filepath.Join(ac.DataDir, "greek_nuts3.geojson")
	}
	if ac.LogLevel == "" {
		ac.LogLevel = "info"
	}
	if ac.Env == "" {
		ac.Env = os.Getenv("ENVIRONMENT")
		if ac.Env == "" {
			ac.Env = "development"
		}
	}
	if ac.DefaultLang == "" {
		ac.DefaultLang = "en"
	}

	if v, ok := cfg["RESCAN_MINUTES"]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= 0 {
			ac.RescanMins = n
		}
	}

	return ac, nil
}
