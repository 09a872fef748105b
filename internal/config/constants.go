package config

import "time"

// Collaboration timing. Both are local, client-side timers; the server never
// enforces them.
const (
	// PresenceGracePeriod is how long a participant may be missing from a
	// presence snapshot before the registry treats it as departed. Absorbs
	// transient resubscribe flicker from the transport.
	PresenceGracePeriod = 3000 * time.Millisecond

	// SelectionPingTTL is how long a color-selection ping stays visible.
	SelectionPingTTL = 2000 * time.Millisecond
)

// PaletteSize is the fixed number of color slots in a shared palette:
// primary, secondary, accent, four light-theme roles, four dark-theme roles.
const PaletteSize = 11

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const CleanupJobInterval = 1 * time.Minute

// Rate limiting. The window is sized for the generation endpoint, the only
// per-request model spend; everything else is cheap by comparison.
const (
	DefaultRateLimitPerMin = 120
	RateLimitWindow        = 60 * time.Second
)

// MaxRequestBodySize caps API request bodies. The largest legitimate payload
// is a palette save: eleven hex colors plus keywords and a description, a few
// KB at most.
const MaxRequestBodySize = 64 << 10
