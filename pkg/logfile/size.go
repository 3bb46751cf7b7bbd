package logfile

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

var (
	siUnits  = []string{"kB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}
	iecUnits = []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB", "ZiB", "YiB"}
)

// HumanSize formats a byte count. si selects powers of 1000 (kB, MB, ...)
// instead of powers of 1024 (KiB, MiB, ...); dp is the number of decimals.
func HumanSize(bytes int64, si bool, dp int) string {
	thresh := 1024.0
	units := iecUnits
	if si {
		thresh = 1000.0
		units = siUnits
	}

	v := float64(bytes)
	if math.Abs(v) < thresh {
		return fmt.Sprintf("%d B", bytes)
	}

	r := math.Pow(10, float64(dp))
	u := -1
	for {
		v /= thresh
		u++
		if math.Round(math.Abs(v)*r)/r < thresh || u >= len(units)-1 {
			break
		}
	}

	return strconv.FormatFloat(v, 'f', dp, 64) + " " + units[u]
}

// ParseSize parses sizes such as "1048576", "512KiB", "64MiB" or "1.5GB".
// Bare SI suffixes (k, kB, MB) are powers of 1000, IEC suffixes (KiB, MiB)
// powers of 1024.
func ParseSize(s string) (int64, error) {
	n, err := humanize.ParseBytes(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("invalid size %q: too large", s)
	}
	return int64(n), nil
}
