package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/bookid-server/internal/config"
	"github.com/listenupapp/bookid-server/internal/logger"
	"github.com/listenupapp/bookid-server/internal/ratelimit"
)

// ReportLimiterHandle wraps the per-reporter limiter and its cleanup goroutine.
type ReportLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *ReportLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideReportLimiter provides the duplicate report rate limiter.
func ProvideReportLimiter(i do.Injector) (*ReportLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	limiter := ratelimit.PerMinute(cfg.Reports.RatePerMinute, cfg.Reports.Burst)

	log.Info("Report rate limiter started",
		"per_minute", cfg.Reports.RatePerMinute,
		"burst", cfg.Reports.Burst,
	)

	return &ReportLimiterHandle{KeyedRateLimiter: limiter}, nil
}
