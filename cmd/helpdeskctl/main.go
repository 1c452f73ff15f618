package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/helpdesk-ml/helpdesk/internal/app"
	"github.com/helpdesk-ml/helpdesk/internal/classifier"
	"github.com/helpdesk-ml/helpdesk/internal/config"
	"github.com/helpdesk-ml/helpdesk/internal/observability"
	"github.com/helpdesk-ml/helpdesk/internal/repository"
	"github.com/helpdesk-ml/helpdesk/internal/service"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:          "helpdeskctl",
	Short:        "Helpdesk maintenance tool",
	Version:      version,
	SilenceUsage: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations for the configured driver",
	RunE:  runMigrate,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Provision admins, users and technicians from a YAML file",
	RunE:  runSeed,
}

var classifyCmd = &cobra.Command{
	Use:   "classify <text>",
	Short: "Run the configured model against a ticket text",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Compare stored technician workload with open assignments",
	RunE:  runReconcile,
}

var (
	seedFileFlag string
	fixFlag      bool
)

func init() {
	seedCmd.Flags().StringVar(&seedFileFlag, "file", "seed.yaml", "Seed file path")
	reconcileCmd.Flags().BoolVar(&fixFlag, "fix", false, "Overwrite drifted workload counters")

	rootCmd.AddCommand(migrateCmd, seedCmd, classifyCmd, reconcileCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func setup(ctx context.Context, migrate bool) (*config.Config, *zap.Logger, repository.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, nil, err
	}
	dbCfg := cfg.Database
	dbCfg.RunMigrations = dbCfg.RunMigrations || migrate
	store, err := app.OpenStore(ctx, dbCfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, store, nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	_, _, store, err := setup(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer store.Close()
	fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
	return nil
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	f, err := os.Open(seedFileFlag)
	if err != nil {
		return err
	}
	defer f.Close()
	seed, err := app.ParseSeed(f)
	if err != nil {
		return err
	}

	cfg, _, store, err := setup(ctx, false)
	if err != nil {
		return err
	}
	defer store.Close()

	report, err := app.Seed(ctx, service.NewAccountService(store, cfg.Auth.BcryptCost, nil), seed)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %d accounts, %d already present\n", report.Created, report.Skipped)
	return nil
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return err
	}
	gate := classifier.NewGate(app.LoadPredictor(cfg.Classifier, logger), logger)
	if !gate.Available() {
		return classifier.ErrUnavailable
	}

	result := gate.Classify(cmd.Context(), strings.Join(args, " "), "")
	out := cmd.OutOrStdout()
	if result.Failure != nil {
		fmt.Fprintf(out, "classification failed: %v\n", result.Failure)
		return nil
	}
	category := "-"
	if result.Category != nil {
		category = *result.Category
	}
	fmt.Fprintf(out, "category:   %s\nconfidence: %.2f\npriority:   %s\nmanual:     %t\n",
		category, result.Confidence, result.Priority, result.NeedsManualReview)
	return nil
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	_, logger, store, err := setup(ctx, false)
	if err != nil {
		return err
	}
	defer store.Close()

	audit := service.NewAuditService(store, logger, nil)
	drifts, err := service.NewTechnicianService(store, audit, logger).ReconcileWorkload(ctx, fixFlag)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(drifts) == 0 {
		fmt.Fprintln(out, "workload counters are consistent")
		return nil
	}
	for _, d := range drifts {
		fmt.Fprintf(out, "%-6d %-24s stored=%d actual=%d\n", d.TechnicianID, d.Name, d.Stored, d.Actual)
	}
	if fixFlag {
		fmt.Fprintf(out, "fixed %d technicians\n", len(drifts))
	}
	return nil
}
