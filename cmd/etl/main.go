// Command seaice-etl converts daily sea-ice concentration binaries into
// NSIDC-0803 NetCDF granules, one per (date, hemisphere).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/seaice-etl/internal/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newRootCmd(observability.NewMetrics).ExecuteContext(ctx)
	stop()

	if err != nil {
		if !errors.Is(err, errJobsFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
