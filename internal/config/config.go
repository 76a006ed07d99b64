// Package config holds the configuration of the cli and turns it into the options
// of every component.
package config

import (
	"fmt"
	"time"

	"ronin-scraper/internal/batch"
	"ronin-scraper/internal/browser"
	"ronin-scraper/internal/browser/chrome"
	"ronin-scraper/internal/browser/static"
	"ronin-scraper/internal/components/telemetry"
	"ronin-scraper/internal/ronin"
	"ronin-scraper/lib/configutil"
	"ronin-scraper/lib/restyutil"
)

const (
	DriverChrome = "chrome"
	DriverStatic = "static"
)

type BrowserConfig struct {
	// Driver is either "chrome" or "static".
	Driver         string `json:"driver"`
	Headless       bool   `json:"headless"`
	UserAgent      string `json:"user_agent"`
	ExecPath       string `json:"exec_path"`
	PollIntervalMs int    `json:"poll_interval_ms"`
	// DumpDir receives every page fetched by the static driver when set.
	DumpDir string `json:"dump_dir"`
}

type BatchConfig struct {
	First            int    `json:"first"`
	Last             int    `json:"last"`
	InputPattern     string `json:"input_pattern"`
	TransfersPattern string `json:"transfers_pattern"`
	DatesFile        string `json:"dates_file"`
}

type Config struct {
	BaseUrl            string        `json:"base_url"`
	Contract           string        `json:"contract"`
	PageSize           int           `json:"page_size"`
	WaitTimeoutSeconds int           `json:"wait_timeout_seconds"`
	SettleDelayMs      int           `json:"settle_delay_ms"`
	Browser            BrowserConfig `json:"browser"`
	Batches            BatchConfig   `json:"batches"`
	// DbPath enables the sqlite mirror when set.
	DbPath   string `json:"db_path"`
	LogLevel string `json:"log_level"`
	LogJson  bool   `json:"log_json"`
}

func Defaults() Config {
	site := ronin.DefaultSite()
	paths := batch.DefaultPaths()
	return Config{
		BaseUrl:            site.BaseURL,
		Contract:           site.Contract,
		PageSize:           site.PageSize,
		WaitTimeoutSeconds: int(ronin.DefaultWaitTimeout / time.Second),
		Browser: BrowserConfig{
			Driver:         DriverChrome,
			PollIntervalMs: 1000,
		},
		Batches: BatchConfig{
			First:            1,
			Last:             2,
			InputPattern:     paths.InputPattern,
			TransfersPattern: paths.TransfersPattern,
			DatesFile:        paths.DatesFile,
		},
		LogLevel: "info",
	}
}

// Load reads the config file (and its .local override) over the defaults, a missing
// file leaves the defaults untouched.
func Load(path string) (Config, error) {
	cfg, err := configutil.ReadConfigWithDefaults(path, Defaults())
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Browser.Driver != DriverChrome && c.Browser.Driver != DriverStatic {
		return fmt.Errorf("unknown browser driver '%s'", c.Browser.Driver)
	}
	if c.Batches.First > c.Batches.Last {
		return fmt.Errorf("first batch %d comes after last batch %d", c.Batches.First, c.Batches.Last)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", c.PageSize)
	}
	return nil
}

func (c Config) Site() ronin.Site {
	return ronin.Site{
		BaseURL:  c.BaseUrl,
		Contract: c.Contract,
		PageSize: c.PageSize,
	}
}

func (c Config) waitTimeout() time.Duration {
	return time.Duration(c.WaitTimeoutSeconds) * time.Second
}

func (c Config) settleDelay() time.Duration {
	return time.Duration(c.SettleDelayMs) * time.Millisecond
}

func (c Config) TransferOptions() ronin.TransferOptions {
	return ronin.TransferOptions{
		Site:        c.Site(),
		Locators:    ronin.DefaultListingLocators(),
		WaitTimeout: c.waitTimeout(),
		SettleDelay: c.settleDelay(),
	}
}

func (c Config) DateOptions() ronin.DateOptions {
	return ronin.DateOptions{
		Site:        c.Site(),
		Locators:    ronin.DefaultDetailLocators(),
		WaitTimeout: c.waitTimeout(),
		SettleDelay: c.settleDelay(),
	}
}

func (c Config) Paths() batch.Paths {
	return batch.Paths{
		InputPattern:     c.Batches.InputPattern,
		TransfersPattern: c.Batches.TransfersPattern,
		DatesFile:        c.Batches.DatesFile,
	}
}

// Opener returns the browser configured by the driver field.
func (c Config) Opener(tel telemetry.API) (browser.Opener, error) {
	switch c.Browser.Driver {
	case DriverStatic:
		opts := static.Options{
			UserAgent:    c.Browser.UserAgent,
			PollInterval: time.Duration(c.Browser.PollIntervalMs) * time.Millisecond,
		}
		if c.Browser.DumpDir != "" {
			dump, err := restyutil.NewFilesystemOutput(c.Browser.DumpDir)
			if err != nil {
				return nil, err
			}
			opts.Dump = dump
		}
		return static.NewOpener(opts, tel), nil
	default:
		return chrome.NewLauncher(chrome.Options{
			Headless:  c.Browser.Headless,
			UserAgent: c.Browser.UserAgent,
			ExecPath:  c.Browser.ExecPath,
		}, tel), nil
	}
}

// Runner wires both collectors over a single opener, every stage opens its own session.
func (c Config) Runner(tel telemetry.API) (*batch.Runner, error) {
	opener, err := c.Opener(tel)
	if err != nil {
		return nil, err
	}
	transfers := ronin.NewTransferCollector(opener, c.TransferOptions(), telemetry.NewScopedAPI("ronin", tel))
	dates := ronin.NewDateCollector(opener, c.DateOptions(), telemetry.NewScopedAPI("ronin", tel))
	return batch.NewRunner(transfers, dates, tel), nil
}
