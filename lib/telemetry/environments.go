package telemetry

import (
	"context"
	"os"

	"ronin-scraper/lib/configutil"
)

// SetupFromEnv searches up the filesystem from the cwd to find a file called
// telemetry.json5, once found it will then use it as a config to setup telemetry.
// found is false when there is no such file, which is not an error.
func SetupFromEnv(ctx context.Context, serviceName string) (tel Telemetry, found bool, err error) {
	config, err := configutil.ReadRecursively[Config]("telemetry.json5")
	if os.IsNotExist(err) {
		return Telemetry{}, false, nil
	}
	if err != nil {
		return Telemetry{}, true, err
	}
	tel, err = Setup(ctx, serviceName, config)
	return tel, true, err
}
