package cache

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Setting RAMSIM_DEBUG_CACHE turns on per-access diagnostics. This prints
// a LOT of output on real workloads.
var debugEnabled = os.Getenv("RAMSIM_DEBUG_CACHE") != ""

func debugf(format string, args ...any) {
	if !debugEnabled {
		return
	}

	fmt.Fprintln(os.Stderr, color.CyanString("[debug] "+format, args...))
}
