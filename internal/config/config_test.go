package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"ronin-scraper/internal/browser/chrome"
	"ronin-scraper/internal/browser/static"
	"ronin-scraper/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.json5"))
	require.NoError(t, err)
	require.Equal(t, Defaults(), cfg)
	require.Equal(t, "https://app.roninchain.com", cfg.Site().BaseURL)
	require.Equal(t, 30*time.Second, cfg.TransferOptions().WaitTimeout)
	require.Equal(t, time.Duration(0), cfg.DateOptions().SettleDelay)
	require.Equal(t, "ronin_transfers2.csv", cfg.Paths().Transfers(2))
}

func TestLoadMergesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{
		// comments are fine
		page_size: 50,
		settle_delay_ms: 250,
		browser: { driver: "static" },
		batches: { last: 4 },
	}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{
		db_path: "out.db",
		batches: { first: 3 },
	}`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 50, cfg.PageSize)
	require.Equal(t, 250*time.Millisecond, cfg.TransferOptions().SettleDelay)
	require.Equal(t, DriverStatic, cfg.Browser.Driver)
	require.Equal(t, 3, cfg.Batches.First)
	require.Equal(t, 4, cfg.Batches.Last)
	require.Equal(t, "out.db", cfg.DbPath)
	// untouched fields keep their defaults
	require.Equal(t, Defaults().Contract, cfg.Contract)
	require.Equal(t, "tx_dates.csv", cfg.Batches.DatesFile)
	require.Equal(t, 1000, cfg.Browser.PollIntervalMs)
}

func TestLoadZeroOverridesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{
		batches: { first: 0 },
		browser: { poll_interval_ms: 0 },
	}`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 0, cfg.Batches.First)
	require.Equal(t, 2, cfg.Batches.Last)
	require.Equal(t, 0, cfg.Browser.PollIntervalMs)
}

func TestOpenerKeepsFilesInDumpDir(t *testing.T) {
	dir := t.TempDir()
	dates := filepath.Join(dir, "tx_dates.csv")
	ids := filepath.Join(dir, "axie_ids_1.csv")
	require.NoError(t, os.WriteFile(dates, []byte("0xa,01 Apr 2023,1\n"), 0644))
	require.NoError(t, os.WriteFile(ids, []byte("Axie ID\n1\n"), 0644))

	cfg := Defaults()
	cfg.Browser.Driver = DriverStatic
	cfg.Browser.DumpDir = dir
	_, err := cfg.Opener(telemetry.NewRecorder())
	require.NoError(t, err)

	require.FileExists(t, dates)
	require.FileExists(t, ids)
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	cfg.Browser.Driver = "firefox"
	require.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.Batches.First = 3
	require.Error(t, cfg.Validate())
}

func TestOpener(t *testing.T) {
	cfg := Defaults()
	opener, err := cfg.Opener(telemetry.NewRecorder())
	require.NoError(t, err)
	_, ok := opener.(chrome.Launcher)
	require.True(t, ok)

	cfg.Browser.Driver = DriverStatic
	cfg.Browser.DumpDir = filepath.Join(t.TempDir(), "dump")
	opener, err = cfg.Opener(telemetry.NewRecorder())
	require.NoError(t, err)
	_, ok = opener.(static.Opener)
	require.True(t, ok)
	require.DirExists(t, cfg.Browser.DumpDir)

	runner, err := cfg.Runner(telemetry.NewRecorder())
	require.NoError(t, err)
	require.NotNil(t, runner)
}
