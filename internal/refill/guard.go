package refill

import (
	"context"

	"github.com/gacops/gacrefill/internal/api"
)

// ticketPageSize is how many recent tickets the guard fetches; only the
// newest one actually matters.
const ticketPageSize = 20

// DuplicateCheck is the tri-state answer of the duplicate guard.
type DuplicateCheck struct {
	// Already is true when a ticket was submitted on the current UTC day,
	// or when that could not be determined (see Inconclusive).
	Already bool
	// When is the creation timestamp of the latest ticket, "" if there is
	// none or it could not be read.
	When string
	// Inconclusive is true when the ticket list could not be fetched.
	// The guard then reports Already=true so the run aborts rather than
	// risk a duplicate submission.
	Inconclusive bool
}

// alreadySubmittedToday compares the newest ticket's creation date with
// the current UTC date.
//
// Two failure policies live here on purpose and must not be unified: a
// transport failure fails closed (assume already submitted, abort) because
// a duplicate ticket is worse than a skipped day, while an unparsable
// timestamp fails open (assume not submitted, warn) because the fetch
// itself proved the server reachable.
func (w *Workflow) alreadySubmittedToday(ctx context.Context) DuplicateCheck {
	var list *api.TicketList
	err := w.session.Do(ctx, func(ctx context.Context) error {
		var err error
		list, err = w.client.Tickets(ctx, 1, ticketPageSize)
		return err
	})
	if err != nil {
		w.log.Error("failed to fetch tickets", "error", err)
		w.log.Warn("cannot verify today's submission status, aborting to avoid a duplicate")
		return DuplicateCheck{Already: true, Inconclusive: true}
	}

	if len(list.Tickets) == 0 {
		w.log.Info("no previous tickets found")
		return DuplicateCheck{}
	}

	latest := list.Tickets[0]
	w.log.Info("latest ticket",
		"id", latest.ID,
		"title", latest.Title,
		"created_at", latest.CreatedAt,
		"status", latest.Status)

	if latest.CreatedAt == "" {
		w.log.Warn("latest ticket has no createdAt field, proceeding with caution")
		return DuplicateCheck{}
	}

	created, err := api.ParseTimestamp(latest.CreatedAt)
	if err != nil {
		w.log.Warn("failed to parse latest ticket date, proceeding with caution",
			"created_at", latest.CreatedAt, "error", err)
		return DuplicateCheck{}
	}

	ty, tm, td := created.UTC().Date()
	ny, nm, nd := w.now().UTC().Date()
	if ty == ny && tm == nm && td == nd {
		return DuplicateCheck{Already: true, When: latest.CreatedAt}
	}
	return DuplicateCheck{When: latest.CreatedAt}
}
