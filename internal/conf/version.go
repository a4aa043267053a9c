package conf

const (
	APP_NAME = "hypervel"
	APP_DESC = "VIN decoding API gateway"
)

// Overridden at build time via -ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	Author    = "unknown"
	Repo      = "github.com/AbdelzaherMuhammed/hypervel"
)
