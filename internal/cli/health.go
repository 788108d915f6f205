package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ghassane04/EcoLabel-MS/internal/health"
)

var healthWatch bool

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check which EcoLabel services are online",
	Long: `Health probes GET /health on every configured service concurrently.
A service that does not answer 2xx within the probe timeout is offline.

With --watch the check repeats every health.interval until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
	healthCmd.Flags().BoolVarP(&healthWatch, "watch", "w", false, "keep checking on an interval")
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	services := health.ServicesFromConfig(cfg.Services)
	checker := health.NewChecker(health.NewHTTPProber(cfg.HTTP), cfg.Health.ProbeTimeout, logger)

	if !healthWatch {
		statuses := checker.CheckAll(cmd.Context(), services)
		printStatuses(services, statuses)
		if offline := countOffline(statuses); offline > 0 {
			return fmt.Errorf("%d of %d services offline", offline, len(statuses))
		}
		return nil
	}

	monitor := health.NewMonitor(checker, services, cfg.Health.Interval)
	unsubscribe := monitor.Subscribe(func(statuses map[string]health.Status) {
		printStatuses(services, statuses)
		fmt.Println()
	})
	defer unsubscribe()

	fmt.Fprintf(os.Stderr, "Watching %d services every %s (Ctrl-C to stop)\n\n", len(services), cfg.Health.Interval)
	if err := monitor.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func printStatuses(services []health.Service, statuses map[string]health.Status) {
	ordered := append([]health.Service(nil), services...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return statuses[ordered[i].ID] == health.Online && statuses[ordered[j].ID] != health.Online
	})

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SERVICE\tSTATUS\tENDPOINT")
	for _, svc := range ordered {
		mark := "✗"
		if statuses[svc.ID] == health.Online {
			mark = "✓"
		}
		fmt.Fprintf(tw, "%s\t%s %s\t%s\n", svc.Name, mark, statuses[svc.ID], svc.URL)
	}
	_ = tw.Flush()
}

func countOffline(statuses map[string]health.Status) int {
	n := 0
	for _, s := range statuses {
		if s != health.Online {
			n++
		}
	}
	return n
}
