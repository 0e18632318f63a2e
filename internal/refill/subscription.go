package refill

import (
	"context"
	"fmt"

	"github.com/gacops/gacrefill/internal/api"
)

// checkSubscription verifies that the account holds an active,
// refill-supporting, unexpired subscription. Business refusals come back
// as OutcomeIneligible; only transport problems are errors.
func (w *Workflow) checkSubscription(ctx context.Context) (*api.Subscription, StepResult) {
	var list *api.SubscriptionList
	err := w.session.Do(ctx, func(ctx context.Context) error {
		var err error
		list, err = w.client.ActiveSubscriptions(ctx)
		return err
	})
	if err != nil {
		return nil, transportFailure("failed to check subscription status", err)
	}

	if len(list.Subscriptions) == 0 {
		w.log.Warn("no active subscriptions found")
		return nil, ineligible("no active subscriptions found")
	}

	// The first entry is the most recent subscription.
	sub := list.Subscriptions[0]
	w.log.Info("active subscription found",
		"tier", sub.Plan.Tier,
		"description", sub.Plan.Description,
		"start_date", sub.StartDate,
		"end_date", sub.EndDate,
		"supports_refill", sub.Plan.SupportsRefill)

	if !sub.Plan.SupportsRefill {
		return &sub, ineligible("current subscription does not support credit refill")
	}

	if sub.EndDate != "" {
		end, err := api.ParseTimestamp(sub.EndDate)
		if err != nil {
			return &sub, transportFailure(
				fmt.Sprintf("unparsable subscription end date %q", sub.EndDate), err)
		}
		if w.now().After(end) {
			return &sub, ineligible(fmt.Sprintf("subscription expired on %s", sub.EndDate))
		}
	}

	return &sub, stepOK()
}
