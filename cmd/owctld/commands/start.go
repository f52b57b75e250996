package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/plume-design/opensync-sub020/internal/config"
	"github.com/plume-design/opensync-sub020/internal/logger"
	"github.com/plume-design/opensync-sub020/internal/telemetry"
	"github.com/plume-design/opensync-sub020/pkg/aggregator"
	"github.com/plume-design/opensync-sub020/pkg/dpi"
	"github.com/plume-design/opensync-sub020/pkg/flow"
	"github.com/plume-design/opensync-sub020/pkg/metrics"
	"github.com/plume-design/opensync-sub020/pkg/steer"

	// Import prometheus metrics so its init() registers the concrete
	// constructors against pkg/metrics.
	_ "github.com/plume-design/opensync-sub020/pkg/metrics/prometheus"
)

var foreground bool

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the owctld daemon",
	Long: `Start the owctld daemon with the specified configuration.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/owctld/config.yaml.`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVarP(&foreground, "foreground", "f", true, "run in foreground")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		logger.Info("metrics enabled", "port", cfg.Metrics.Port)
	} else {
		logger.Info("metrics disabled")
	}

	ctZone := flow.CTZoneMerged
	if !cfg.Aggregator.CTZoneMerge {
		ctZone = 0
	}

	reportType := aggregator.ReportRelative
	if cfg.Aggregator.ReportType == "absolute" {
		reportType = aggregator.ReportAbsolute
	}

	agg := aggregator.New(aggregator.Config{
		AccTTL:     cfg.Aggregator.AccTTL,
		NumWindows: cfg.Aggregator.NumWindows,
		MaxReports: cfg.Aggregator.MaxReports,
		ReportType: reportType,
		CTZone:     ctZone,
		NodeID:     cfg.Aggregator.NodeID,
		LocationID: cfg.Aggregator.LocationID,
	})

	aggMetrics := metrics.NewAggregatorMetrics()

	// dpiRegistry and steerStack are this daemon's DPI client registry and
	// steering policy stack. Wiring a live hostapd/conntrack/wpa_supplicant
	// event source into them is an external collaborator's job (see
	// get_config/neigh_lookup in the config layer) — owctld only owns
	// their lifecycle here so plugins and policies have somewhere to
	// register against once that collaborator is attached.
	dpiRegistry := dpi.NewRegistry()
	steerScratch := steer.NewCandidateList()
	steerStack := steer.NewStack(steerScratch)

	logger.Info("owctld starting",
		"node_id", cfg.Aggregator.NodeID,
		"acc_ttl", cfg.Aggregator.AccTTL,
		"report_type", cfg.Aggregator.ReportType,
		"dpi_plugins", dpiRegistry.PluginCount(),
		"steer_policies", len(steerStack.Policies()))

	windowTicker := time.NewTicker(cfg.Aggregator.AccTTL)
	defer windowTicker.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info("owctld is running. Press Ctrl+C to stop.")

	for {
		select {
		case <-sigChan:
			logger.Info("shutdown signal received, initiating graceful shutdown")
			cancel()
			return drainAggregator(ctx, agg, cfg)

		case now := <-windowTicker.C:
			closeStart := time.Now()
			w := agg.CloseActiveWindow(now)
			if aggMetrics != nil {
				aggMetrics.RecordWindowClose(len(w.Stats), w.DroppedStats, time.Since(closeStart))
				aggMetrics.RecordActiveFlows(agg.ActiveFlows())
				aggMetrics.RecordHeldFlows(agg.HeldFlows())
			}
			logger.Info("window closed", "stats", len(w.Stats), "active_flows", agg.ActiveFlows())
		}
	}
}

// drainAggregator closes any still-open window and logs final counters
// before the daemon exits.
func drainAggregator(ctx context.Context, agg *aggregator.Aggregator, cfg *config.Config) error {
	w := agg.CloseActiveWindow(time.Now())
	logger.Info("final window closed on shutdown", "stats", len(w.Stats))
	logger.Info("owctld stopped gracefully")
	return nil
}
