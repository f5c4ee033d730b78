package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FetchConfig holds feed fetching settings.
type FetchConfig struct {
	Concurrency int           `json:"concurrency" mapstructure:"concurrency"`
	Timeout     time.Duration `json:"timeout" mapstructure:"timeout"`
	DayWindow   int           `json:"dayWindow" mapstructure:"dayWindow"`
}

// CacheConfig holds track cache settings.
type CacheConfig struct {
	RefreshInterval time.Duration `json:"refreshInterval" mapstructure:"refreshInterval"`
}

// StorageConfig holds track archive backend settings.
type StorageConfig struct {
	Type       string `json:"type" mapstructure:"type"`             // memory, sqlite, postgres
	SqlitePath string `json:"sqlitePath" mapstructure:"sqlitePath"` // sqlite only
}

// InfluxConfig holds fetch-cycle stats publishing settings.
type InfluxConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// GraylogConfig holds GELF log forwarding settings.
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// Load reads configuration from a JSON file and sets default values.
// configDir is the directory containing livetrackd.cfg.json.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("fetch.concurrency", 8)
	viper.SetDefault("fetch.timeout", "15s")
	viper.SetDefault("fetch.dayWindow", 1)

	viper.SetDefault("cache.refreshInterval", "5m")

	viper.SetDefault("cluster.factor", 0.1)

	viper.SetDefault("roster.url", "")
	viper.SetDefault("stations.url", "")
	viper.SetDefault("stations.secondaryUrl", "")

	viper.SetDefault("server.listen", ":8090")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.sqlitePath", "./livetrack.db")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "livetrack")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "livetrack-metrics")
	viper.SetDefault("influx.bucket", "fetch_cycles")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "livetrackd")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetConfigName("livetrackd.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetFloat returns a float64 config value.
func GetFloat(key string) float64 {
	return viper.GetFloat64(key)
}

// GetFetchConfig returns the feed fetching configuration.
func GetFetchConfig() FetchConfig {
	return FetchConfig{
		Concurrency: viper.GetInt("fetch.concurrency"),
		Timeout:     viper.GetDuration("fetch.timeout"),
		DayWindow:   viper.GetInt("fetch.dayWindow"),
	}
}

// GetCacheConfig returns the track cache configuration.
func GetCacheConfig() CacheConfig {
	return CacheConfig{
		RefreshInterval: viper.GetDuration("cache.refreshInterval"),
	}
}

// GetStorageConfig returns the track archive configuration.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type:       viper.GetString("storage.type"),
		SqlitePath: viper.GetString("storage.sqlitePath"),
	}
}

// GetInfluxConfig returns the InfluxDB configuration.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Protocol: viper.GetString("influx.protocol"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetOTelConfig returns the OpenTelemetry configuration.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetGraylogConfig returns the GELF forwarding configuration.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}
