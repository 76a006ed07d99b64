package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"ronin-scraper/cmd/ronin-cli/globals"
	"ronin-scraper/cmd/ronin-cli/utils"
	"ronin-scraper/internal/batch"
	"ronin-scraper/internal/components/telemetry"
	"ronin-scraper/internal/config"
	"ronin-scraper/internal/db"
	libtelemetry "ronin-scraper/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath *string
	logLevel   *string
	logJson    *bool
	dbPath     *string
	driver     *string
	headless   *bool
)

// otel providers are only installed when a telemetry.json5 is found
var otelShutdown func(context.Context) error

func init() {
	flags := rootCmd.PersistentFlags()
	configPath = flags.String("config", "config.json5", "The config file, a sibling .local file overrides it.")
	logLevel = flags.String("log-level", "", "One of debug, info, warn or error.")
	logJson = flags.Bool("log-json", false, "Log as json instead of text.")
	dbPath = flags.String("db", "", "Mirror every written record to this sqlite database.")
	driver = flags.String("driver", "", "The browser driver, chrome or static.")
	headless = flags.Bool("headless", false, "Run chrome without a window.")
}

var rootCmd = &cobra.Command{
	Use:   "ronin-cli",
	Short: "ronin-cli scrapes token transfers and their dates off the ronin explorer.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(*configPath)
		if err != nil {
			utils.Fatal("failed to read config", err)
		}

		flags := cmd.Flags()
		if flags.Changed("log-level") {
			cfg.LogLevel = *logLevel
		}
		if flags.Changed("log-json") {
			cfg.LogJson = *logJson
		}
		if flags.Changed("db") {
			cfg.DbPath = *dbPath
		}
		if flags.Changed("driver") {
			cfg.Browser.Driver = *driver
		}
		if flags.Changed("headless") {
			cfg.Browser.Headless = *headless
		}
		err = cfg.Validate()
		if err != nil {
			utils.Fatal("invalid config", err)
		}

		telemetry.InitSlog(telemetry.ParseLevel(cfg.LogLevel), cfg.LogJson)

		tel, found, err := libtelemetry.SetupFromEnv(cmd.Context(), "ronin-cli")
		if err != nil {
			slog.Warn("failed to setup telemetry", "err", err.Error())
		}
		if found && err == nil {
			otelShutdown = tel.Shutdown
			libtelemetry.InstrumentPerfStats(cmd.Context())
		}

		cmd.SetContext(globals.Set(cmd.Context(), &globals.Value{
			Config: cfg,
			Tel:    telemetry.SlogAPI{},
		}))
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if otelShutdown == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()
		err := otelShutdown(ctx)
		if err != nil {
			slog.Warn("failed to flush telemetry", "err", err.Error())
		}
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRunner builds the runner of the config, the returned func closes the mirror
// database if one was opened.
func newRunner(value *globals.Value) (*batch.Runner, func()) {
	runner, err := value.Config.Runner(value.Tel)
	if err != nil {
		utils.Fatal("failed to create browser", err)
	}
	if value.Config.DbPath == "" {
		return runner, func() {}
	}

	database, err := db.OpenDB(value.Config.DbPath)
	if err != nil {
		utils.Fatal("failed to open db", err)
	}
	runner.Mirror = db.NewMirror(database)
	return runner, func() { database.Close() }
}
