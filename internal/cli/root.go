package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gacops/gacrefill/internal/api"
	"github.com/gacops/gacrefill/internal/config"
	"github.com/gacops/gacrefill/internal/notify"
	"github.com/gacops/gacrefill/internal/output"
	"github.com/gacops/gacrefill/internal/refill"
)

var (
	cfgFile               string
	tokenFlag             string
	checkBalance          bool
	dryRun                bool
	skipSubscriptionCheck bool
	testEmail             bool
	logLevel              string
	logFormat             string
)

var rootCmd = &cobra.Command{
	Use:   "gacrefill",
	Short: "Automated credit refill for gaccode.com",
	Long: `gacrefill automates the daily credit-refill request against gaccode.com.

One invocation performs one run: verify the subscription, make sure no
refill ticket was submitted today, pass the captcha/quota preflight,
submit the request ticket, and verify its status. The outcome is
reported by email when alerts are configured.

Intended to be invoked once per day by cron or a task scheduler.

Examples:
  gacrefill
  gacrefill --config my_config.json
  gacrefill --check-balance
  gacrefill --token YOUR_TOKEN_HERE`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

// Execute runs the CLI. A non-nil error maps to exit code 1 in main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().StringVarP(&cfgFile, "config", "c", "config.json",
		"Path to configuration file")
	rootCmd.Flags().StringVarP(&tokenFlag, "token", "t", "",
		"Authentication token (overrides config file and environment)")
	rootCmd.Flags().BoolVarP(&checkBalance, "check-balance", "b", false,
		"Check credit balance before and after the refill")
	rootCmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false,
		"Only run the recaptcha/quota preflight, submit nothing")
	rootCmd.Flags().BoolVar(&skipSubscriptionCheck, "skip-subscription-check", false,
		"Skip the subscription check (for testing)")
	rootCmd.Flags().BoolVar(&testEmail, "test-email", false,
		"Send a test notification email and exit")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info",
		"Log level: debug, info, warn, error")
	rootCmd.Flags().StringVar(&logFormat, "log-format", "text",
		"Log format: text, json")
}

func runRoot(cmd *cobra.Command, args []string) error {
	// A .env next to the binary may carry GACCODE_AUTH_TOKEN etc.
	_ = godotenv.Load()

	logger := setupLogger(logLevel, logFormat)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	overrides, err := config.LoadOverrides()
	if err != nil {
		logger.Error("failed to read environment overrides", "error", err)
		return err
	}
	cfg.Apply(overrides)
	if tokenFlag != "" {
		cfg.AuthToken = tokenFlag
	}

	creds := config.NewCredentialStore(cfg, cfgFile)
	client := api.NewClient(cfg.BaseURL, cfg.Ticket.Language, creds.Token())
	mailer := notify.NewMailer(cfg.EmailAlerts, cfg.Ticket.Language, cfgFile, logger)
	session := refill.NewSession(client, creds, cfg.Email, cfg.Password, mailer, logger)
	workflow := refill.New(client, session, cfg, mailer, logger, refill.Options{
		CheckBalance:          checkBalance,
		SkipSubscriptionCheck: skipSubscriptionCheck,
	})

	ctx := context.Background()

	if testEmail {
		runTestEmail(ctx, workflow, mailer)
		return nil
	}

	var report refill.Report
	if dryRun {
		report = workflow.DryRun(ctx)
	} else {
		report = workflow.Run(ctx)
	}

	fmt.Println(output.Summary(report.Success, report.Reason))
	if !report.Success {
		return errors.New(report.Reason)
	}
	return nil
}

// runTestEmail sends an info-kind email to verify the SMTP configuration.
func runTestEmail(ctx context.Context, workflow *refill.Workflow, mailer *notify.Mailer) {
	fmt.Println(output.TitleStyle.Render("Email notification test"))

	balanceInfo := ""
	if balance := workflow.BalanceInfo(ctx); balance != "" {
		balanceInfo = "\nCurrent balance: " + balance
	}

	body := fmt.Sprintf(`This is a test email verifying the notification setup.

If you received it, the SMTP configuration works.%s

Config file: %s
Test time: %s

Adjust the email_alerts section of the config as needed.`,
		balanceInfo, cfgFile, time.Now().Format(time.DateTime))

	mailer.Notify(notify.KindInfo, "Email notification test", body)
	fmt.Println(output.PrintInfo("Test complete, check your inbox."))
}
