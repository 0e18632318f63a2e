// Package refill implements the credit-refill workflow: a strictly
// sequential chain of precondition checks ending in one ticket submission
// and one verification read. Each step returns a tagged StepResult; the
// orchestrator short-circuits on the first non-OK tag.
package refill

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gacops/gacrefill/internal/api"
	"github.com/gacops/gacrefill/internal/config"
	"github.com/gacops/gacrefill/internal/notify"
)

// politenessDelay separates dependent calls. A fixed pause, not a retry
// backoff.
const politenessDelay = time.Second

// Notifier sends operator emails. Implementations must never block the
// workflow on delivery failures.
type Notifier interface {
	Notify(kind notify.Kind, subject, body string)
}

// Options toggles the optional workflow behaviors.
type Options struct {
	// CheckBalance reads the credit balance before submission and again
	// after a confirmed refill.
	CheckBalance bool
	// SkipSubscriptionCheck bypasses the eligibility check (testing aid).
	SkipSubscriptionCheck bool
}

// Workflow sequences one refill run.
type Workflow struct {
	client   *api.Client
	session  *Session
	cfg      *config.Config
	notifier Notifier
	log      *slog.Logger
	opts     Options

	// Injected in tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// New builds a Workflow. cfg is the immutable configuration snapshot.
func New(client *api.Client, session *Session, cfg *config.Config, notifier Notifier, log *slog.Logger, opts Options) *Workflow {
	return &Workflow{
		client:   client,
		session:  session,
		cfg:      cfg,
		notifier: notifier,
		log:      log,
		opts:     opts,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// Report is the terminal outcome of a run. Success maps to exit code 0.
type Report struct {
	Success bool
	Reason  string
}

// Run executes the full workflow and returns its terminal outcome. All
// failure paths are also surfaced by email, subject to the notifier's
// gating; only a failure to obtain a token stays log-only.
func (w *Workflow) Run(ctx context.Context) Report {
	w.log.Info("credit reset run started", "time", w.now().Format(time.DateTime))

	if err := w.session.EnsureToken(ctx); err != nil {
		w.log.Error("failed to obtain authentication token", "error", err)
		return Report{Reason: fmt.Sprintf("authentication failed: %v", err)}
	}

	if w.opts.SkipSubscriptionCheck {
		w.log.Info("skipping subscription check")
	} else {
		w.log.Info("checking active subscription")
		if _, res := w.checkSubscription(ctx); !res.OK() {
			w.logStep(res)
			w.notifier.Notify(notify.KindError, "Subscription check failed",
				"No valid active subscription was found, or the check could not be completed.\n"+
					"Reason: "+res.Reason+"\n"+
					"Check your subscription status at "+w.siteURL()+"/subscriptions")
			return Report{Reason: res.Reason}
		}
		w.log.Info("active subscription verified")
	}

	w.log.Info("checking if already submitted today")
	dup := w.alreadySubmittedToday(ctx)
	if dup.Inconclusive {
		w.notifier.Notify(notify.KindError, "Cannot verify today's submission status",
			"The ticket list could not be fetched, so it is unknown whether a refill was already "+
				"requested today.\nExecution was aborted to avoid a duplicate submission.\n"+
				"Check the network connection and try again.")
		return Report{Reason: "cannot verify today's submission status"}
	}
	if dup.Already {
		w.log.Info("already submitted today, nothing to do", "last_submission", dup.When)
		w.notifier.Notify(notify.KindInfo, "Already refilled today - no action needed",
			"A refill ticket was already submitted today.\n\nLast submission: "+dup.When+
				"\n\nWait until tomorrow to refill again.")
		return Report{Success: true, Reason: "already submitted today at " + dup.When}
	}
	w.log.Info("no submission found today, proceeding")

	if w.opts.CheckBalance {
		w.logBalance(ctx, "balance before refill")
	}

	w.log.Info("checking recaptcha requirement")
	if _, res := w.checkQuota(ctx); !res.OK() {
		w.logStep(res)
		w.notifier.Notify(notify.KindError, "Submission blocked", res.Reason)
		return Report{Reason: res.Reason}
	}

	w.log.Info("creating credit refill request ticket")
	w.sleep(politenessDelay)
	ticket, res := w.submit(ctx)
	if !res.OK() {
		w.logStep(res)
		w.notifier.Notify(notify.KindError, "Ticket submission failed", res.Reason)
		return Report{Reason: res.Reason}
	}

	w.log.Info("verifying ticket status")
	w.sleep(politenessDelay)
	verified, res := w.verify(ctx, ticket.ID)
	switch res.Outcome {
	case OutcomeOK:
		// fall through below
	case OutcomeAmbiguous:
		w.logStep(res)
		w.notifier.Notify(notify.KindError, "Refill status needs manual check",
			fmt.Sprintf("The ticket was created but its status is %s.\nTicket ID: %d\n"+
				"Check manually whether the credits were refilled.", verified.Status, ticket.ID))
		return Report{Reason: res.Reason}
	default:
		w.logStep(res)
		w.notifier.Notify(notify.KindError, "Ticket verification failed", res.Reason)
		return Report{Reason: res.Reason}
	}

	w.log.Info("credits have been reset successfully")

	balanceInfo := ""
	if w.opts.CheckBalance {
		w.sleep(politenessDelay)
		if b := w.logBalance(ctx, "balance after refill"); b != "" {
			balanceInfo = "\nCurrent balance: " + b
		}
	}

	w.notifier.Notify(notify.KindSuccess, "Credits refilled successfully",
		fmt.Sprintf("The credits were refilled.\n\nTicket ID: %d\nServer response: %s\nCompleted: %s%s",
			ticket.ID, verified.LatestMessage(), w.now().Format(time.DateTime), balanceInfo))

	return Report{Success: true, Reason: "credits refilled, ticket " + fmt.Sprint(ticket.ID) + " closed"}
}

// DryRun performs only the read-only preflight (and optionally the
// balance read) without submitting anything.
func (w *Workflow) DryRun(ctx context.Context) Report {
	w.log.Info("running in dry-run mode")

	if err := w.session.EnsureToken(ctx); err != nil {
		w.log.Error("failed to obtain authentication token", "error", err)
		return Report{Reason: fmt.Sprintf("authentication failed: %v", err)}
	}

	if _, res := w.checkQuota(ctx); !res.OK() {
		w.logStep(res)
	}
	if w.opts.CheckBalance {
		w.logBalance(ctx, "current balance")
	}
	return Report{Success: true, Reason: "dry run complete, nothing submitted"}
}

// BalanceInfo fetches the balance for informational output ("" when the
// read fails). Used by the email test mode.
func (w *Workflow) BalanceInfo(ctx context.Context) string {
	if err := w.session.EnsureToken(ctx); err != nil {
		w.log.Warn("cannot fetch balance without a token", "error", err)
		return ""
	}
	return w.logBalance(ctx, "current balance")
}

// logBalance reads and logs the credit balance. Failures are logged and
// ignored; the balance is informational only.
func (w *Workflow) logBalance(ctx context.Context, label string) string {
	var bal *api.Balance
	err := w.session.Do(ctx, func(ctx context.Context) error {
		var err error
		bal, err = w.client.Balance(ctx)
		return err
	})
	if err != nil {
		w.log.Error("failed to get credit balance", "error", err)
		return ""
	}
	w.log.Info(label, "balance", bal.Balance.String())
	return bal.Balance.String()
}

func (w *Workflow) logStep(res StepResult) {
	switch res.Outcome {
	case OutcomeTransport:
		w.log.Error(res.Reason, "error", res.Err)
	default:
		w.log.Warn(res.Reason)
	}
}

func (w *Workflow) siteURL() string {
	return w.client.SiteURL()
}
