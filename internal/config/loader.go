package config

import (
	"fmt"
	"time"

	"github.com/cshaw/projrecon/internal/db"
	"github.com/cshaw/projrecon/internal/recon"

	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	DB       db.Config
	Server   ServerConfig
	Cache    CacheConfig
	Pipeline PipelineConfig
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// CacheConfig holds cache store settings.
type CacheConfig struct {
	TTL            time.Duration
	MigrationsPath string
}

// PipelineConfig holds pipeline tunables, including the project-master
// junk-row filters so deployments can adjust them without code changes.
type PipelineConfig struct {
	NotesDir string
	Filters  recon.ProjectFilterRules
}

// Load reads config.yaml from configPath with env overrides, falling back
// to defaults for anything unset.
func Load(configPath string) (Config, error) {
	cfg := Config{
		DB: db.DefaultConfig(),
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Cache: CacheConfig{
			TTL:            7 * 24 * time.Hour,
			MigrationsPath: "./migrations",
		},
		Pipeline: PipelineConfig{
			NotesDir: "project_notes",
			Filters:  recon.DefaultProjectFilterRules(),
		},
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()          // allow environment overrides
	v.SetEnvPrefix("PROJRECON") // map env vars like PROJRECON_DATABASE.HOST

	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("server.addr")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found? Just log it, use defaults + env
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	if v.IsSet("database.host") {
		cfg.DB.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.DB.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.DB.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.DB.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.DB.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.DB.SSLMode = v.GetString("database.sslmode")
	}

	if v.IsSet("server.addr") {
		cfg.Server.Addr = v.GetString("server.addr")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}

	if v.IsSet("cache.ttl_days") {
		cfg.Cache.TTL = time.Duration(v.GetInt("cache.ttl_days")) * 24 * time.Hour
	}
	if v.IsSet("cache.migrations_path") {
		cfg.Cache.MigrationsPath = v.GetString("cache.migrations_path")
	}

	if v.IsSet("pipeline.notes_dir") {
		cfg.Pipeline.NotesDir = v.GetString("pipeline.notes_dir")
	}
	if v.IsSet("pipeline.excluded_statuses") {
		cfg.Pipeline.Filters.ExcludedStatuses = v.GetStringSlice("pipeline.excluded_statuses")
	}
	if v.IsSet("pipeline.excluded_location_codes") {
		cfg.Pipeline.Filters.ExcludedLocationCodes = v.GetStringSlice("pipeline.excluded_location_codes")
	}
	if v.IsSet("pipeline.drop_numeric_ids") {
		cfg.Pipeline.Filters.DropNumericIDs = v.GetBool("pipeline.drop_numeric_ids")
	}

	return cfg, nil
}
