package refill

import (
	"context"
	"fmt"

	"github.com/gacops/gacrefill/internal/api"
)

// submit posts the refill request ticket from the configured template.
func (w *Workflow) submit(ctx context.Context) (*api.Ticket, StepResult) {
	req := api.CreateTicketRequest{
		CategoryID:  w.cfg.Ticket.CategoryID,
		Title:       w.cfg.Ticket.Title,
		Description: w.cfg.Ticket.Description,
		Language:    w.cfg.Ticket.Language,
	}

	var ticket *api.Ticket
	err := w.session.Do(ctx, func(ctx context.Context) error {
		var err error
		ticket, err = w.client.CreateTicket(ctx, req)
		return err
	})
	if err != nil {
		return nil, transportFailure("failed to create ticket", err)
	}

	w.log.Info("ticket created",
		"id", ticket.ID,
		"title", ticket.Title,
		"status", ticket.Status,
		"created_at", ticket.CreatedAt)
	if msg := ticket.LatestMessage(); msg != "" {
		w.log.Info("server response", "message", msg)
	}

	return ticket, stepOK()
}

// verify performs the single post-submission read. CLOSED means the
// refill went through; any other status is ambiguous and left to the
// operator.
func (w *Workflow) verify(ctx context.Context, id int) (*api.Ticket, StepResult) {
	var ticket *api.Ticket
	err := w.session.Do(ctx, func(ctx context.Context) error {
		var err error
		ticket, err = w.client.Ticket(ctx, id)
		return err
	})
	if err != nil {
		return nil, transportFailure("failed to verify ticket", err)
	}

	w.log.Info("ticket verification",
		"id", ticket.ID,
		"status", ticket.Status,
		"updated_at", ticket.UpdatedAt)

	if ticket.Status != api.StatusClosed {
		return ticket, ambiguous(fmt.Sprintf("ticket created but status is %s", ticket.Status))
	}
	return ticket, stepOK()
}
