package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/tacnavial/tacnavial/internal/api/models"
)

// RateLimitConfig is one per-IP request budget.
type RateLimitConfig struct {
	// Surface names the budget in the 429 problem.
	Surface      string
	RequestLimit int
	WindowLength time.Duration
}

// RateLimits holds the budget for each API surface.
type RateLimits struct {
	Public RateLimitConfig
	Map    RateLimitConfig
	Admin  RateLimitConfig
}

// Default budgets. Map calls hit paid providers, admin calls mutate shared
// state; both get less room than public reads and writes.
var (
	PublicRateLimit = RateLimitConfig{Surface: SurfacePublic, RequestLimit: 100, WindowLength: time.Minute}
	MapRateLimit    = RateLimitConfig{Surface: SurfaceMap, RequestLimit: 30, WindowLength: time.Minute}
	AdminRateLimit  = RateLimitConfig{Surface: SurfaceAdmin, RequestLimit: 30, WindowLength: time.Minute}
)

// NewRateLimits derives the surface budgets from the configured public limit
// per minute: zero keeps the defaults, a positive value replaces the public
// budget, a negative value disables limiting everywhere.
func NewRateLimits(publicPerMinute int) RateLimits {
	limits := RateLimits{Public: PublicRateLimit, Map: MapRateLimit, Admin: AdminRateLimit}
	switch {
	case publicPerMinute > 0:
		limits.Public.RequestLimit = publicPerMinute
	case publicPerMinute < 0:
		limits.Public.RequestLimit = 0
		limits.Map.RequestLimit = 0
		limits.Admin.RequestLimit = 0
	}
	return limits
}

// RateLimitByIP limits requests per client IP as resolved by chi's RealIP.
// A non-positive limit disables limiting.
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.RequestLimit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	// httprate does not expose the reset time, so the full window is the estimate.
	retryAfter := strconv.Itoa(int(cfg.WindowLength.Seconds()))
	detail := fmt.Sprintf("Rate limit of %d %s requests per %s exceeded. Please try again later.",
		cfg.RequestLimit, cfg.Surface, cfg.WindowLength)

	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", retryAfter)
			models.NewTooManyRequests(GetRequestID(r.Context()), detail).
				WithInstance(r.URL.Path).
				Write(w)
		}),
	)
}
