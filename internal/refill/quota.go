package refill

import (
	"context"
	"fmt"

	"github.com/gacops/gacrefill/internal/api"
)

// defaultDailyLimit is assumed when the preflight response omits the
// limit. Matches the server's documented default.
const defaultDailyLimit = 3

// checkQuota queries the pre-submission gate. A transport failure here is
// fatal to the run: without the captcha/quota answer it is not safe to
// submit.
func (w *Workflow) checkQuota(ctx context.Context) (*api.Preflight, StepResult) {
	var pre *api.Preflight
	err := w.session.Do(ctx, func(ctx context.Context) error {
		var err error
		pre, err = w.client.Preflight(ctx)
		return err
	})
	if err != nil {
		return nil, transportFailure("failed to check recaptcha status", err)
	}

	w.log.Info("recaptcha check result",
		"requires_recaptcha", pre.RequiresRecaptcha,
		"tickets_today", pre.TicketCountToday,
		"daily_limit", pre.DailyLimit)

	if pre.RequiresRecaptcha {
		return pre, ineligible("recaptcha is required, manual intervention needed")
	}

	limit := pre.DailyLimit
	if limit == 0 {
		limit = defaultDailyLimit
	}
	if pre.TicketCountToday >= limit {
		return pre, ineligible(fmt.Sprintf("daily ticket limit reached (%d/%d)",
			pre.TicketCountToday, limit))
	}

	return pre, stepOK()
}
