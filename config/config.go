// Package config loads the process configuration from file, environment
// and defaults.
package config

import (
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	// Connection is a lib/pq connection string.
	Connection string `mapstructure:"connection"`
	Schema     string `mapstructure:"schema"`
	Srid       int    `mapstructure:"srid"`

	// CacheDir holds the badger entity cache during import.
	CacheDir string `mapstructure:"cachedir"`
	// MappingFile optionally overrides the built-in classification tables.
	MappingFile string `mapstructure:"mapping"`
	// Cutoff bounds the newest validity intervals, RFC 3339 date. Empty
	// means the import time.
	Cutoff string `mapstructure:"cutoff"`

	Redis RedisConfig `mapstructure:"redis"`

	// MapnikURL is the base URL of the mapnik render daemon.
	MapnikURL     string `mapstructure:"mapnik_url"`
	StyleTemplate string `mapstructure:"style_template"`

	HTTPBind    string `mapstructure:"http_bind"`
	MetricsBind string `mapstructure:"metrics_bind"`

	RenderWorkers int           `mapstructure:"render_workers"`
	RenderQueue   int           `mapstructure:"render_queue"`
	RenderTimeout time.Duration `mapstructure:"render_timeout"`
	WaitTimeout   time.Duration `mapstructure:"wait_timeout"`

	// TileTTLZoom is the zoom level above which cached tiles expire.
	TileTTLZoom int           `mapstructure:"tile_ttl_zoom"`
	TileTTL     time.Duration `mapstructure:"tile_ttl"`
	StyleTTL    time.Duration `mapstructure:"style_ttl"`

	PrerenderZoom int `mapstructure:"prerender_zoom"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Load reads the configuration from filename (optional) and the
// environment (CHRONOTILE_* variables).
func Load(filename string) (*Config, error) {
	v := viper.New()
	v.SetDefault("connection", "host=localhost sslmode=disable")
	v.SetDefault("schema", "public")
	v.SetDefault("srid", 3857)
	v.SetDefault("cachedir", "/tmp/chronotile")
	v.SetDefault("mapping", "")
	v.SetDefault("cutoff", "")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("mapnik_url", "http://localhost:8181")
	v.SetDefault("style_template", "style.xml.tmpl")
	v.SetDefault("http_bind", ":8000")
	v.SetDefault("metrics_bind", ":6060")
	v.SetDefault("render_workers", 4)
	v.SetDefault("render_queue", 256)
	v.SetDefault("render_timeout", 2*time.Minute)
	v.SetDefault("wait_timeout", 90*time.Second)
	v.SetDefault("tile_ttl_zoom", 12)
	v.SetDefault("tile_ttl", 30*24*time.Hour)
	v.SetDefault("style_ttl", 24*time.Hour)
	v.SetDefault("prerender_zoom", 10)

	v.SetEnvPrefix("chronotile")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if filename != "" {
		v.SetConfigFile(filename)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config from %s", filename)
		}
	}

	conf := &Config{}
	if err := v.Unmarshal(conf, decodeHooks()); err != nil {
		return nil, errors.Wrap(err, "unmarshalling config")
	}
	return conf, nil
}

// decodeHooks keeps viper's default string conversions and additionally
// accepts YAML-typed dates for string fields like cutoff.
func decodeHooks() viper.DecoderConfigOption {
	return viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		timeToStringHookFunc(),
	))
}

func timeToStringHookFunc() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from == reflect.TypeOf(time.Time{}) && to.Kind() == reflect.String {
			return data.(time.Time).Format("2006-01-02"), nil
		}
		return data, nil
	}
}

// CutoffTime parses the configured cutoff date. A zero time means no
// explicit cutoff.
func (c *Config) CutoffTime() (time.Time, error) {
	if c.Cutoff == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", c.Cutoff)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parsing cutoff %q", c.Cutoff)
	}
	return t, nil
}
