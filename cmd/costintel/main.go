// Package main provides the costintel CLI, grounded on the teacher's
// cmd/aggregator/main.go: the same zap logger + signal-cancelled context +
// mode dispatch shape, rebuilt as github.com/spf13/cobra subcommands over
// the comparison, selection, recommendation, aggregation, chargeback,
// anomaly, and budget engines (SPEC_FULL.md §6).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lvonguyen/costintel/internal/aggregator"
	"github.com/lvonguyen/costintel/internal/anomaly"
	"github.com/lvonguyen/costintel/internal/budget"
	"github.com/lvonguyen/costintel/internal/chargeback"
	"github.com/lvonguyen/costintel/internal/comparison"
	"github.com/lvonguyen/costintel/internal/config"
	"github.com/lvonguyen/costintel/internal/currency"
	"github.com/lvonguyen/costintel/internal/inventory"
	"github.com/lvonguyen/costintel/internal/model"
	"github.com/lvonguyen/costintel/internal/money"
	"github.com/lvonguyen/costintel/internal/normalizer"
	"github.com/lvonguyen/costintel/internal/providers"
	"github.com/lvonguyen/costintel/internal/providers/aws"
	"github.com/lvonguyen/costintel/internal/providers/azure"
	"github.com/lvonguyen/costintel/internal/providers/gcp"
	"github.com/lvonguyen/costintel/internal/providers/simulated"
	"github.com/lvonguyen/costintel/internal/recommendation"
	"github.com/lvonguyen/costintel/internal/reporter"
	"github.com/lvonguyen/costintel/internal/selection"
)

var (
	configPath string
	verbose    bool
)

func main() {
	root := &cobra.Command{
		Use:   "costintel",
		Short: "Multi-cloud cost intelligence CLI",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "path to config file")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose logging")

	root.AddCommand(
		newAggregateCommand(),
		newCompareCommand(),
		newSelectCommand(),
		newRecommendCommand(),
		newAnomalyCommand(),
		newChargebackCommand(),
		newBudgetCommand(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// signalContext mirrors the teacher's main()'s SIGINT/SIGTERM-cancelled
// context setup.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()
	return ctx, cancel
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// buildFactory wires a live adapter per enabled provider in cfg. An enabled
// provider whose live adapter fails to initialize gets the simulated adapter
// instead; a provider left disabled gets no adapter. When simulation_mode is
// set, or no provider is enabled, all three providers get the simulated
// adapter, so every command runs end to end without live credentials (mirrors
// config.EngineConfig.SimulationMode and the teacher's env-flag gating in
// runAggregate, generalized into providers.AdapterFactory).
func buildFactory(ctx context.Context, cfg *config.Config, logger *zap.Logger) providers.AdapterFactory {
	adapters := make(map[model.Provider]providers.Adapter)

	if cfg.Engine.SimulationMode {
		adapters[model.AWS] = simulated.New(model.AWS)
		adapters[model.Azure] = simulated.New(model.Azure)
		adapters[model.GCP] = simulated.New(model.GCP)
		return providers.NewStaticFactory(providers.ModeSimulated, adapters)
	}

	if cfg.AWS.Enabled {
		a, err := aws.New(ctx, aws.Config{
			Region:      cfg.AWS.Region,
			RoleARN:     cfg.AWS.RoleARN,
			Granularity: cfg.AWS.Granularity,
			GroupBy:     cfg.AWS.GroupBy,
		})
		if err != nil {
			logger.Warn("failed to initialize AWS adapter, falling back to simulated", zap.Error(err))
			adapters[model.AWS] = simulated.New(model.AWS)
		} else {
			adapters[model.AWS] = a
		}
	}
	if cfg.Azure.Enabled {
		a, err := azure.New(ctx, azure.Config{
			TenantID:        cfg.Azure.TenantID,
			SubscriptionIDs: cfg.Azure.SubscriptionIDs,
			UseMSI:          cfg.Azure.UseMSI,
			Granularity:     cfg.Azure.Granularity,
		})
		if err != nil {
			logger.Warn("failed to initialize Azure adapter, falling back to simulated", zap.Error(err))
			adapters[model.Azure] = simulated.New(model.Azure)
		} else {
			adapters[model.Azure] = a
		}
	}
	if cfg.GCP.Enabled {
		g, err := gcp.New(ctx, gcp.Config{
			ProjectID:      cfg.GCP.ProjectID,
			BillingAccount: cfg.GCP.BillingAccount,
			Dataset:        cfg.GCP.Dataset,
			WIFConfigPath:  cfg.GCP.WIFConfigPath,
		})
		if err != nil {
			logger.Warn("failed to initialize GCP adapter, falling back to simulated", zap.Error(err))
			adapters[model.GCP] = simulated.New(model.GCP)
		} else {
			adapters[model.GCP] = g
		}
	}

	if len(adapters) == 0 {
		adapters[model.AWS] = simulated.New(model.AWS)
		adapters[model.Azure] = simulated.New(model.Azure)
		adapters[model.GCP] = simulated.New(model.GCP)
		return providers.NewStaticFactory(providers.ModeSimulated, adapters)
	}

	return providers.NewStaticFactory(providers.ModeLive, adapters)
}

// buildEngines wires the comparison, selection, and recommendation engines
// over a shared capability registry, mirroring how the teacher's main.go
// wired one aggregator.Engine per command from shared adapter config.
func buildEngines(factory providers.AdapterFactory, cfg *config.Config) (*comparison.Engine, *selection.Engine, *recommendation.Engine) {
	cmp := comparison.New(factory, comparison.Config{ComparisonTimeout: cfg.Engine.ComparisonTimeout})
	caps := providers.NewCapabilityRegistry(factory)
	sel := selection.New(cmp, caps, selection.Config{
		SelectionTimeout:         cfg.Engine.SelectionTimeout,
		CacheTTL:                 cfg.Engine.CacheTTL,
		MaxConcurrentEvaluations: cfg.Engine.MaxConcurrentEvaluations,
	})
	store := inventory.NewStore()
	rec := recommendation.New(sel, cmp, caps, store, recommendation.Config{})
	return cmp, sel, rec
}

func providerTypeFor(p model.Provider) string {
	return map[model.Provider]string{
		model.AWS:   "Amazon Elastic Compute Cloud",
		model.Azure: "Microsoft.Compute",
		model.GCP:   "Compute Engine",
	}[p]
}

func recordsFor(records []model.RawCostRecord, p model.Provider) []model.RawCostRecord {
	providerType := providerTypeFor(p)
	var out []model.RawCostRecord
	for _, r := range records {
		if r.ProviderType == providerType {
			out = append(out, r)
		}
	}
	return out
}

func newAggregateCommand() *cobra.Command {
	var days int
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Collect, normalize, and aggregate costs across every configured provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			entries, err := collectAndNormalize(ctx, cfg, logger, days)
			if err != nil {
				return err
			}

			entryPtrs := make([]*model.NormalizedCostEntry, len(entries))
			for i := range entries {
				entryPtrs[i] = &entries[i]
			}

			agg := aggregator.New()
			result := agg.Aggregate(entryPtrs, []string{"resource.provider", "resource.type"}, cfg.Engine.DefaultCurrency)

			end := time.Now()
			start := end.AddDate(0, 0, -days)

			rep := reporter.New(cfg.Reporter)
			data := reporter.ReportData{
				Period:      fmt.Sprintf("%s to %s", start.Format("2006-01-02"), end.Format("2006-01-02")),
				Aggregation: result,
				Entries:     entries,
				GeneratedAt: time.Now(),
			}

			var path string
			switch outputFormat {
			case "csv":
				path, err = rep.GenerateCSV(data)
			case "json":
				path, err = rep.GenerateJSON(data)
			default:
				path, err = rep.GenerateHTML(data)
			}
			if err != nil {
				return err
			}

			logger.Info("aggregation report generated", zap.String("path", path), zap.String("total", result.TotalCost.String()))
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "number of trailing days to aggregate")
	cmd.Flags().StringVar(&outputFormat, "format", "html", "report format: html, csv, json")
	return cmd
}

func newCompareCommand() *cobra.Command {
	var region string
	var vcpus float64
	var memoryGB float64

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare VM options across providers for a given shape",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			factory := buildFactory(ctx, cfg, logger)
			cmp := comparison.New(factory, comparison.Config{ComparisonTimeout: cfg.Engine.ComparisonTimeout})

			req := model.VmRequirements{
				Name:     "cli-request",
				Region:   model.Region(region),
				VCPUs:    vcpus,
				MemoryGB: memoryGB,
				OS:       "linux",
			}

			result, err := cmp.CompareVM(ctx, req, model.ComparisonFilter{RequirementsName: req.Name})
			if err != nil {
				return err
			}

			for i, est := range result.Comparison.Estimates {
				fmt.Printf("%d. %s %s  %s\n", i+1, est.Provider, est.OptionName, est.MonthlyCost.String())
			}
			fmt.Printf("recommended: %s %s  %s\n", result.Comparison.RecommendedOption.Provider,
				result.Comparison.RecommendedOption.OptionName, result.Comparison.RecommendedOption.MonthlyCost.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&region, "region", "us-east-1", "target region")
	cmd.Flags().Float64Var(&vcpus, "vcpus", 2, "required vCPUs")
	cmd.Flags().Float64Var(&memoryGB, "memory-gb", 8, "required memory in GB")
	return cmd
}

func newSelectCommand() *cobra.Command {
	var regionsFlag []string
	var vcpus float64
	var memoryGB float64

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Select the best-scoring provider/region for a VM shape across cost, performance, and compliance",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			factory := buildFactory(ctx, cfg, logger)
			_, sel, _ := buildEngines(factory, cfg)

			req := model.VmRequirements{Name: "cli-request", VCPUs: vcpus, MemoryGB: memoryGB, OS: "linux"}
			regions := make([]model.Region, 0, len(regionsFlag))
			for _, r := range regionsFlag {
				regions = append(regions, model.Region(r))
			}

			result, err := sel.SelectVM(ctx, req, regions, model.SelectionPolicy{MaxAlternatives: 3})
			if err != nil {
				return err
			}

			fmt.Printf("selected: %s %s  %s (score %.3f)\n",
				result.Selected.Estimate.Provider, result.Selected.Estimate.OptionName,
				result.Selected.Estimate.MonthlyCost.String(), result.Selected.TotalScore)
			for i, alt := range result.Alternatives {
				fmt.Printf("alternative %d: %s %s  %s (score %.3f)\n", i+1,
					alt.Estimate.Provider, alt.Estimate.OptionName, alt.Estimate.MonthlyCost.String(), alt.TotalScore)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&regionsFlag, "regions", []string{"us-east-1", "eastus", "us-central1"}, "candidate regions")
	cmd.Flags().Float64Var(&vcpus, "vcpus", 2, "required vCPUs")
	cmd.Flags().Float64Var(&memoryGB, "memory-gb", 8, "required memory in GB")
	return cmd
}

func newRecommendCommand() *cobra.Command {
	var kind string
	var resourceType string
	var region string
	var max int

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Generate cost, performance, or migration recommendations",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			factory := buildFactory(ctx, cfg, logger)
			_, _, rec := buildEngines(factory, cfg)

			var recs []model.Recommendation
			switch kind {
			case "performance":
				recs, err = rec.PerformanceOptimizationRecommendations(ctx, model.ResourceType(resourceType), model.Region(region), max)
			case "migration":
				recs, err = rec.MigrationRecommendations(ctx, model.Region(region), max)
			default:
				recs, err = rec.CostOptimizationRecommendations(ctx, model.ResourceType(resourceType), model.Region(region), max)
			}
			if err != nil {
				return err
			}

			for i, r := range recs {
				fmt.Printf("%d. [%s] %s -> save %s: %s\n", i+1, r.Kind, r.Resource.Name, r.EstimatedSavings.String(), r.Rationale)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "cost", "cost, performance, or migration")
	cmd.Flags().StringVar(&resourceType, "resource-type", string(model.ResourceCompute), "resource type to scan")
	cmd.Flags().StringVar(&region, "region", "us-east-1", "target region")
	cmd.Flags().IntVar(&max, "max", 5, "maximum recommendations to return")
	return cmd
}

func newAnomalyCommand() *cobra.Command {
	var sensitivity string
	var baselineDays int

	cmd := &cobra.Command{
		Use:   "anomaly",
		Short: "Detect cost anomalies over recent normalized entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			entries, err := collectAndNormalize(ctx, cfg, logger, baselineDays+7)
			if err != nil {
				return err
			}

			detector := anomaly.NewDetector(anomaly.DetectorConfig{
				Sensitivity:  anomaly.Sensitivity(sensitivity),
				BaselineDays: baselineDays,
				MinSpend:     cfg.Anomaly.MinimumCostThreshold,
			})

			anomalies := detector.Detect(entries)
			if len(anomalies) == 0 {
				logger.Info("no anomalies detected")
				return nil
			}
			for _, a := range anomalies {
				fmt.Printf("[%s] %s/%s: $%.2f vs expected $%.2f (%s)\n",
					a.Severity, a.Provider, a.ResourceType, a.ActualCost, a.ExpectedCost, a.Reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sensitivity, "sensitivity", "medium", "low, medium, or high")
	cmd.Flags().IntVar(&baselineDays, "baseline-days", 30, "days of history for baseline")
	return cmd
}

func newChargebackCommand() *cobra.Command {
	var month string
	var untaggedPool string

	cmd := &cobra.Command{
		Use:   "chargeback",
		Short: "Allocate costs to cost centers and write a chargeback report",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			if month == "" {
				month = time.Now().Format("2006-01")
			}

			entries, err := collectAndNormalize(ctx, cfg, logger, 31)
			if err != nil {
				return err
			}

			allocator := chargeback.NewAllocator(chargeback.AllocatorConfig{
				UntaggedPool: untaggedPool,
				Currency:     cfg.Engine.DefaultCurrency,
			})
			allocations := allocator.Allocate(entries)
			report := chargeback.GenerateReport(allocations, month, cfg.Engine.DefaultCurrency)

			if err := os.MkdirAll(cfg.Reporter.OutputDir, 0755); err != nil {
				return err
			}
			path := fmt.Sprintf("%s/chargeback-%s.csv", cfg.Reporter.OutputDir, month)
			if err := report.SaveCSV(path); err != nil {
				return err
			}

			logger.Info("chargeback report generated", zap.String("path", path))
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "billing month, YYYY-MM (defaults to current month)")
	cmd.Flags().StringVar(&untaggedPool, "untagged-pool", "shared-untagged", "cost center for untagged spend")
	return cmd
}

func newBudgetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Evaluate configured budgets against recent spend and report forecast",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			entries, err := collectAndNormalize(ctx, cfg, logger, 31)
			if err != nil {
				return err
			}

			mgr := budget.New(budget.Config{})
			now := time.Now()

			for _, bc := range cfg.Budgets {
				limit, err := money.New(fmt.Sprintf("%.6f", bc.MonthlyLimit), cfg.Engine.DefaultCurrency)
				if err != nil {
					logger.Warn("invalid budget amount", zap.String("budget", bc.Name), zap.Error(err))
					continue
				}

				thresholds := make([]model.Threshold, 0, len(bc.AlertAt))
				for _, pct := range bc.AlertAt {
					amount, _ := money.New(fmt.Sprintf("%.6f", bc.MonthlyLimit*float64(pct)/100.0), cfg.Engine.DefaultCurrency)
					thresholds = append(thresholds, model.Threshold{Percentage: float64(pct), Amount: amount})
				}

				b, err := mgr.CreateBudget(model.Budget{
					Name:       bc.Name,
					Amount:     limit,
					Period:     model.BudgetMonthly,
					Start:      time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
					End:        time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, time.UTC),
					Thresholds: thresholds,
				})
				if err != nil {
					logger.Warn("failed to create budget", zap.String("budget", bc.Name), zap.Error(err))
					continue
				}

				alerts, err := mgr.EvaluateBudget(b.ID, entries)
				if err != nil {
					logger.Warn("failed to evaluate budget", zap.String("budget", bc.Name), zap.Error(err))
					continue
				}
				for _, a := range alerts {
					if a.Status == model.AlertActive {
						fmt.Printf("ALERT %s crossed %.0f%% (%s spent of %s)\n", bc.Name, a.Threshold.Percentage, a.ObservedSpend.String(), limit.String())
					}
				}

				forecast, err := mgr.Forecast(b.ID, entries)
				if err != nil {
					logger.Info("forecast unavailable", zap.String("budget", bc.Name), zap.Error(err))
					continue
				}
				fmt.Printf("%s forecast: %s (confidence %.2f over %d data points)\n",
					bc.Name, forecast.ProjectedSpend.String(), forecast.ConfidenceLevel, forecast.DataPoints)
			}

			return nil
		},
	}
	return cmd
}

func collectAndNormalize(ctx context.Context, cfg *config.Config, logger *zap.Logger, days int) ([]model.NormalizedCostEntry, error) {
	factory := buildFactory(ctx, cfg, logger)
	collector := aggregator.NewCollector(factory)

	end := time.Now()
	start := end.AddDate(0, 0, -days)
	partial := collector.Collect(ctx, start, end)
	for _, f := range partial.Failures {
		logger.Warn("provider collection failed", zap.String("provider", string(f.Provider)), zap.Error(f.Err))
	}

	conv, err := currency.New(currency.Config{BaseCurrency: cfg.Engine.DefaultCurrency})
	if err != nil {
		return nil, err
	}
	norm := normalizer.New(conv)

	var entries []model.NormalizedCostEntry
	for _, p := range providers.Providers(factory) {
		normalized, errs, err := norm.Normalize(ctx, p, recordsFor(partial.Successes, p), normalizer.Options{
			ContinueOnError: true,
			TargetCurrency:  cfg.Engine.DefaultCurrency,
		})
		if err != nil {
			logger.Warn("normalization failed", zap.String("provider", string(p)), zap.Error(err))
			continue
		}
		for _, e := range errs {
			logger.Warn("record normalization failed", zap.Error(e))
		}
		entries = append(entries, normalized...)
	}
	return entries, nil
}
