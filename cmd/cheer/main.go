package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"office_cheer_bot/internal/app"
	"office_cheer_bot/internal/domain/alert"
	"office_cheer_bot/internal/domain/delivery"
	"office_cheer_bot/internal/domain/greeting"
	"office_cheer_bot/internal/domain/mail"
	"office_cheer_bot/internal/domain/occasion"
	"office_cheer_bot/internal/domain/staff"
	"office_cheer_bot/internal/infra/alerting"
	"office_cheer_bot/internal/infra/bedrock"
	"office_cheer_bot/internal/infra/config"
	idb "office_cheer_bot/internal/infra/database"
	"office_cheer_bot/internal/infra/email"
	"office_cheer_bot/internal/infra/imagestore"
	"office_cheer_bot/internal/infra/logger"
	"office_cheer_bot/internal/infra/scheduler"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/spf13/cobra"
	"gopkg.in/telebot.v3"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// appRuntime holds everything the commands share: config, the open database,
// and the repositories built on it.
type appRuntime struct {
	cfg       *config.AppConfig
	db        *sql.DB
	staffRepo staff.Repository
	ledger    delivery.Ledger
	sqlLedger *idb.SQLDeliveryLedger
}

func initRuntime() (*appRuntime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("could not load application configuration: %w", err)
	}
	logger.Init(cfg)

	dialect := idb.Dialect(cfg.DatabaseDriver)
	db, err := idb.Open(dialect, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	if err := idb.Migrate(db, dialect); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not migrate database: %w", err)
	}

	ledger := idb.NewSQLDeliveryLedger(db, dialect)
	return &appRuntime{
		cfg:       cfg,
		db:        db,
		staffRepo: idb.NewSQLStaffRepository(db, dialect),
		ledger:    ledger,
		sqlLedger: ledger,
	}, nil
}

func (rt *appRuntime) Close() {
	if rt.db != nil {
		rt.db.Close()
	}
}

func (rt *appRuntime) pipelineOptions() app.Options {
	return app.Options{
		WindowDays:         rt.cfg.WindowDays,
		MaxAttempts:        rt.cfg.MaxAttempts,
		WorkerCount:        rt.cfg.WorkerCount,
		CallTimeout:        rt.cfg.CallTimeout,
		ImageRequired:      rt.cfg.ImageRequired,
		PeerEmails:         rt.cfg.PeerEmails,
		SubjectBirthday:    rt.cfg.SubjectBirthday,
		SubjectAnniversary: rt.cfg.SubjectAnniversary,
		Milestones:         occasion.NewMilestonePolicy(rt.cfg.MilestoneYears),
	}
}

// buildCheerService wires the pipeline with real providers, or with the
// template generator and a logging transport in development mode.
func buildCheerService(ctx context.Context, rt *appRuntime) (app.CheerService, error) {
	log := logger.Component("pipeline")

	alerts, err := buildAlertSink(rt.cfg)
	if err != nil {
		return nil, err
	}

	var content greeting.ContentGenerator
	var image greeting.ImageGenerator
	var transport mail.Transport

	if rt.cfg.IsDevelopment() {
		content = greeting.NewTemplateGenerator()
		transport = email.NewSESTransport(nil, rt.cfg.EmailSender, rt.cfg.EmailReplyTo, true, logger.Component("email"))
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(rt.cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("could not load AWS configuration: %w", err)
		}
		brClient := bedrockruntime.NewFromConfig(awsCfg)
		store := imagestore.NewS3Store(s3.NewFromConfig(awsCfg), rt.cfg.ImageBucket, rt.cfg.AWSRegion)
		content = bedrock.NewContentGenerator(brClient, rt.cfg.TextModelID, logger.Component("bedrock"))
		image = bedrock.NewImageGenerator(brClient, store, rt.cfg.ImageModelID, logger.Component("bedrock"))
		transport = email.NewSESTransport(sesv2.NewFromConfig(awsCfg), rt.cfg.EmailSender, rt.cfg.EmailReplyTo, false, logger.Component("email"))
	}

	return app.NewCheerService(rt.staffRepo, rt.ledger, content, image, transport, alerts, log, nil, rt.pipelineOptions()), nil
}

func buildAlertSink(cfg *config.AppConfig) (alert.Sink, error) {
	if cfg.OpsTelegramToken == "" {
		return alerting.NewLogSink(logger.Component("alerts")), nil
	}
	bot, err := telebot.NewBot(telebot.Settings{Token: cfg.OpsTelegramToken})
	if err != nil {
		return nil, fmt.Errorf("could not create ops Telegram bot: %w", err)
	}
	return alerting.NewTelegramSink(bot, cfg.OpsTelegramChatID), nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cheer",
		Short:         "Office Cheer - birthday and work-anniversary greetings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newRunCmd(), newUpcomingCmd(), newFailedCmd(), newStaffCmd(), newTestCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run continuously, checking for occasions on the configured schedule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := initRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			svc, err := buildCheerService(cmd.Context(), rt)
			if err != nil {
				return err
			}

			sched := scheduler.NewCheckScheduler(svc, logger.Component("scheduler"), rt.cfg.CronSpec)
			if err := sched.Start(); err != nil {
				return err
			}

			if rt.cfg.CheckOnStartup {
				logger.Log.Info("Running initial check on startup")
				if err := sched.TriggerNow(); err != nil {
					logger.Log.WithError(err).Error("Startup cycle failed")
				}
			}

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			logger.Log.Info("Shutting down...")
			sched.Stop()
			logger.Log.Info("Shut down gracefully")
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one detection and delivery cycle now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := initRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			svc, err := buildCheerService(ctx, rt)
			if err != nil {
				return err
			}
			return svc.RunCycle(ctx)
		},
	}
}

func newUpcomingCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List upcoming occasions without delivering anything",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := initRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			// Detection only: no providers are needed, and the ledger is not consulted.
			svc := app.NewCheerService(rt.staffRepo, rt.ledger, greeting.NewTemplateGenerator(), nil,
				email.NewSESTransport(nil, rt.cfg.EmailSender, rt.cfg.EmailReplyTo, true, logger.Component("email")),
				alerting.NewLogSink(logger.Component("alerts")), logger.Component("pipeline"), nil, rt.pipelineOptions())

			occasions, byID, err := svc.Upcoming(cmd.Context(), days)
			if err != nil {
				return err
			}
			if len(occasions) == 0 {
				fmt.Println("No upcoming occasions.")
				return nil
			}

			fmt.Printf("%-20s %-12s %-14s %-6s %s\n", "Name", "Kind", "Date", "Years", "Milestone")
			for _, occ := range occasions {
				name := fmt.Sprintf("#%d", occ.StaffID)
				if rec, ok := byID[occ.StaffID]; ok {
					name = rec.DisplayName()
				}
				milestone := ""
				if occ.Milestone {
					milestone = "yes"
				}
				fmt.Printf("%-20s %-12s %-14s %-6d %s\n",
					name, occ.Kind, occasion.FormatDisplayDate(occ.TargetDate), occ.ElapsedYears, milestone)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", -1, "lookahead window in days (default: configured window)")
	return cmd
}

func newFailedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "failed",
		Short: "List occasions that exhausted their retries and need manual attention",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := initRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			records, err := rt.sqlLedger.ListTerminallyFailed(cmd.Context(), rt.cfg.MaxAttempts)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("No terminally failed occasions.")
				return nil
			}

			fmt.Printf("%-8s %-12s %-6s %-8s %s\n", "Staff", "Kind", "Year", "Retries", "Last attempt")
			for _, rec := range records {
				fmt.Printf("%-8d %-12s %-6d %-8d %s\n",
					rec.Key.StaffID, rec.Key.Kind, rec.Key.Year, rec.RetryCount,
					rec.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func newStaffCmd() *cobra.Command {
	staffCmd := &cobra.Command{
		Use:   "staff",
		Short: "Manage the staff roster",
	}
	staffCmd.AddCommand(newStaffAddCmd(), newStaffListCmd(), newStaffUpdateCmd(), newStaffDeactivateCmd(), newStaffSeedCmd())
	return staffCmd
}

func newStaffAddCmd() *cobra.Command {
	var name, emailAddr, birthday, startDate, alias, interests string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a staff member",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := initRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			birth, err := time.Parse("2006-01-02", birthday)
			if err != nil {
				return fmt.Errorf("invalid --birthday (use YYYY-MM-DD): %w", err)
			}
			start, err := time.Parse("2006-01-02", startDate)
			if err != nil {
				return fmt.Errorf("invalid --start-date (use YYYY-MM-DD): %w", err)
			}

			params := app.AddParams{
				Name:      name,
				Email:     emailAddr,
				BirthDate: birth,
				StartDate: start,
				Alias:     alias,
			}
			if interests != "" {
				params.Interests = splitCSV(interests)
			}

			rec, err := app.NewStaffService(rt.staffRepo).Add(cmd.Context(), params)
			if err != nil {
				return err
			}
			fmt.Printf("Staff member added with ID %d\n", rec.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "full name (required)")
	cmd.Flags().StringVar(&emailAddr, "email", "", "email address (required)")
	cmd.Flags().StringVar(&birthday, "birthday", "", "birthday, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&startDate, "start-date", "", "employment start date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&alias, "alias", "", "nickname or preferred name")
	cmd.Flags().StringVar(&interests, "interests", "", "comma-separated interests")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("birthday")
	cmd.MarkFlagRequired("start-date")
	return cmd
}

func newStaffListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all staff members",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := initRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			records, err := app.NewStaffService(rt.staffRepo).List(cmd.Context())
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("No staff members found.")
				return nil
			}

			fmt.Printf("%-4s %-20s %-28s %-12s %-12s %s\n", "ID", "Name", "Email", "Birthday", "Start", "Active")
			for _, rec := range records {
				active := "yes"
				if !rec.IsActive {
					active = "no"
				}
				fmt.Printf("%-4d %-20s %-28s %-12s %-12s %s\n",
					rec.ID, rec.Name, rec.Email,
					rec.BirthDate.Format("2006-01-02"), rec.StartDate.Format("2006-01-02"), active)
			}
			return nil
		},
	}
}

func newStaffUpdateCmd() *cobra.Command {
	var name, alias, birthday, startDate, interests string
	var clearAlias, clearInterests bool
	cmd := &cobra.Command{
		Use:   "update <email>",
		Short: "Update a staff member's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := initRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			params := app.UpdateParams{
				Name:           name,
				Alias:          alias,
				ClearAlias:     clearAlias,
				ClearInterests: clearInterests,
			}
			if birthday != "" {
				params.BirthDate, err = time.Parse("2006-01-02", birthday)
				if err != nil {
					return fmt.Errorf("invalid --birthday (use YYYY-MM-DD): %w", err)
				}
			}
			if startDate != "" {
				params.StartDate, err = time.Parse("2006-01-02", startDate)
				if err != nil {
					return fmt.Errorf("invalid --start-date (use YYYY-MM-DD): %w", err)
				}
			}
			if interests != "" {
				params.Interests = splitCSV(interests)
			}

			rec, err := app.NewStaffService(rt.staffRepo).Update(cmd.Context(), args[0], params)
			if err != nil {
				return err
			}
			fmt.Printf("Staff member %s (ID %d) updated\n", rec.Name, rec.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&alias, "alias", "", "nickname or preferred name")
	cmd.Flags().StringVar(&birthday, "birthday", "", "birthday, YYYY-MM-DD")
	cmd.Flags().StringVar(&startDate, "start-date", "", "employment start date, YYYY-MM-DD")
	cmd.Flags().StringVar(&interests, "interests", "", "comma-separated interests")
	cmd.Flags().BoolVar(&clearAlias, "clear-alias", false, "remove the stored alias")
	cmd.Flags().BoolVar(&clearInterests, "clear-interests", false, "remove the stored interests")
	return cmd
}

func newStaffDeactivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <email>",
		Short: "Exclude a staff member from future scans",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := initRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			rec, err := app.NewStaffService(rt.staffRepo).Deactivate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Staff member %s (ID %d) deactivated\n", rec.Name, rec.ID)
			return nil
		},
	}
}

func newStaffSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert a sample roster for local development",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := initRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			created, err := app.NewStaffService(rt.staffRepo).Seed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Seeded %d staff members\n", created)
			return nil
		},
	}
}

func newTestCmd() *cobra.Command {
	test := &cobra.Command{
		Use:   "test",
		Short: "Exercise providers without touching the roster or ledger",
	}
	test.AddCommand(newTestGreetingCmd())
	return test
}

func newTestGreetingCmd() *cobra.Command {
	var name, kind, interests string
	var years int
	cmd := &cobra.Command{
		Use:   "greeting",
		Short: "Generate a sample greeting and print it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger.Init(cfg)

			req := greeting.Request{
				DisplayName:  name,
				Kind:         occasion.KindBirthday,
				ElapsedYears: years,
				Milestone:    occasion.NewMilestonePolicy(cfg.MilestoneYears).IsMilestone(years),
			}
			switch strings.ToLower(kind) {
			case "birthday":
			case "anniversary":
				req.Kind = occasion.KindAnniversary
			default:
				return fmt.Errorf("invalid --kind %q: must be birthday or anniversary", kind)
			}
			if interests != "" {
				req.Interests = splitCSV(interests)
			}

			var gen greeting.ContentGenerator = greeting.NewTemplateGenerator()
			if !cfg.IsDevelopment() {
				awsCfg, err := awsconfig.LoadDefaultConfig(cmd.Context(), awsconfig.WithRegion(cfg.AWSRegion))
				if err != nil {
					return fmt.Errorf("could not load AWS configuration: %w", err)
				}
				gen = bedrock.NewContentGenerator(bedrockruntime.NewFromConfig(awsCfg), cfg.TextModelID, logger.Component("bedrock"))
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.CallTimeout)
			defer cancel()
			text, err := gen.Generate(ctx, req)
			if err != nil {
				logger.Log.WithError(err).Warn("Provider failed; falling back to template text")
				if text, err = greeting.NewTemplateGenerator().Generate(cmd.Context(), req); err != nil {
					return err
				}
			}
			fmt.Println(text.Body)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Jane Doe", "recipient display name")
	cmd.Flags().StringVar(&kind, "kind", "birthday", "occasion kind: birthday or anniversary")
	cmd.Flags().IntVar(&years, "years", 1, "elapsed years (age or tenure)")
	cmd.Flags().StringVar(&interests, "interests", "", "comma-separated interests")
	return cmd
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
