package config

import (
	"fmt"
	"strings"
	"time"
)

// maxFetchLimit bounds how many activity records are read per view.
const maxFetchLimit = 100

// Validate checks the loaded configuration. Load calls it automatically.
func (c *Config) Validate() error {
	if err := validPort(c.Server.TCPPort); err != nil {
		return fmt.Errorf("server.tcp_port: %w", err)
	}
	if err := validPort(c.Server.HTTPPort); err != nil {
		return fmt.Errorf("server.http_port: %w", err)
	}
	if c.Server.TCPPort == c.Server.HTTPPort {
		return fmt.Errorf("server.tcp_port and server.http_port must differ (both %d)", c.Server.TCPPort)
	}
	if err := c.Activity.validate(); err != nil {
		return fmt.Errorf("activity: %w", err)
	}
	if err := c.Carousel.validate(); err != nil {
		return fmt.Errorf("carousel: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format)
	}
	return nil
}

func validPort(p int) error {
	if p < 1 || p > 65535 {
		return fmt.Errorf("must be in 1..65535 (got %d)", p)
	}
	return nil
}

func (a *ActivityConfig) validate() error {
	switch a.Driver {
	case DriverDocument:
	case DriverSQLite:
		if a.SQLitePath == "" {
			return fmt.Errorf("sqlite_path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("driver must be %q or %q (got %q)", DriverDocument, DriverSQLite, a.Driver)
	}
	if a.FetchLimit < 1 || a.FetchLimit > maxFetchLimit {
		return fmt.Errorf("fetch_limit must be in 1..%d (got %d)", maxFetchLimit, a.FetchLimit)
	}
	if a.PageSize < 1 {
		return fmt.Errorf("page_size must be > 0 (got %d)", a.PageSize)
	}
	return nil
}

func (c *CarouselConfig) validate() error {
	if c.LockDuration < 0 {
		return fmt.Errorf("lock_duration must be >= 0 (got %v)", c.LockDuration)
	}
	intervals := []struct {
		name string
		d    time.Duration
	}{
		{"hero_interval", c.HeroInterval},
		{"testimonials_interval", c.TestimonialsInterval},
		{"portfolio_interval", c.PortfolioInterval},
	}
	for _, iv := range intervals {
		if iv.d <= 0 {
			return fmt.Errorf("%s must be > 0 (got %v)", iv.name, iv.d)
		}
	}
	return nil
}
