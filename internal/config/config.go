// Package config loads daemon settings from YAML and the environment.
package config

import "time"

// Config is the root daemon configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Activity ActivityConfig `yaml:"activity"`
	Carousel CarouselConfig `yaml:"carousel"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds the TCP and HTTP listener settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"CELERIX_HOST"             env-default:"0.0.0.0"`
	TCPPort         int           `yaml:"tcp_port"         env:"CELERIX_PORT"             env-default:"7001"`
	HTTPPort        int           `yaml:"http_port"        env:"CELERIX_HTTP_PORT"        env-default:"7002"`
	DisableTLS      bool          `yaml:"disable_tls"      env:"CELERIX_DISABLE_TLS"      env-default:"false"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"CELERIX_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// StoreConfig selects where documents live.
type StoreConfig struct {
	DataDir    string `yaml:"data_dir"    env:"CELERIX_DATA_DIR"   env-default:"./data"`
	RemoteAddr string `yaml:"remote_addr" env:"CELERIX_STORE_ADDR"`
}

// Activity log drivers.
const (
	DriverDocument = "document"
	DriverSQLite   = "sqlite"
)

// ActivityConfig holds the activity log settings.
type ActivityConfig struct {
	Driver     string `yaml:"driver"      env:"ACTIVITY_DRIVER"      env-default:"document"`
	SQLitePath string `yaml:"sqlite_path" env:"ACTIVITY_SQLITE_PATH" env-default:"./data/activity.db"`
	FetchLimit int    `yaml:"fetch_limit" env:"ACTIVITY_FETCH_LIMIT" env-default:"100"`
	PageSize   int    `yaml:"page_size"   env:"ACTIVITY_PAGE_SIZE"   env-default:"20"`
}

// CarouselConfig holds carousel timing.
type CarouselConfig struct {
	LockDuration         time.Duration `yaml:"lock_duration"         env:"CAROUSEL_LOCK_DURATION"         env-default:"600ms"`
	HeroInterval         time.Duration `yaml:"hero_interval"         env:"CAROUSEL_HERO_INTERVAL"         env-default:"5s"`
	TestimonialsInterval time.Duration `yaml:"testimonials_interval" env:"CAROUSEL_TESTIMONIALS_INTERVAL" env-default:"4s"`
	PortfolioInterval    time.Duration `yaml:"portfolio_interval"    env:"CAROUSEL_PORTFOLIO_INTERVAL"    env-default:"4500ms"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
