package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ghassane04/EcoLabel-MS/internal/model"
	"github.com/ghassane04/EcoLabel-MS/internal/pipeline"
	"github.com/ghassane04/EcoLabel-MS/internal/service"
)

var (
	runGTIN    string
	runOutJSON string
	runTimeout time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run <file>...",
	Short: "Run the full pipeline on a product sheet",
	Long: `Run uploads one product sheet (several files are sent together as one
upload), then chains entity extraction, impact calculation and scoring,
auto-filling each stage's input from the previous stage's output.

Example:
  ecolabel run sauce-tomate.png --gtin 3760000000001
  ecolabel run fiche.html --json result.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runGTIN, "gtin", "", "product barcode sent with the upload")
	runCmd.Flags().StringVar(&runOutJSON, "json", "", "write the final pipeline state to this path")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 5*time.Minute, "overall run timeout")
}

// runReport is the JSON rendering of a finished run
type runReport struct {
	Session    string                  `json:"session"`
	Stage      model.Stage             `json:"stage"`
	Document   *model.IngestedDocument `json:"document,omitempty"`
	Extraction *model.ExtractionResult `json:"extraction,omitempty"`
	Impact     *model.ImpactResult     `json:"impact,omitempty"`
	Score      *model.ScoreResult      `json:"score,omitempty"`
	Error      string                  `json:"error,omitempty"`
}

func newRunReport(session string, snap pipeline.Snapshot, err error) runReport {
	r := runReport{
		Session:    session,
		Stage:      snap.Stage,
		Document:   snap.Document,
		Extraction: snap.Extraction,
		Impact:     snap.Impact,
		Score:      snap.Score,
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	files, err := readFiles(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
	defer cancel()

	coord := pipeline.NewCoordinator(service.NewClient(cfg, logger), cfg, logger)
	if cfg.Verbose {
		fmt.Fprintf(os.Stderr, "Session: %s\n", coord.ID())
		unsubscribe := coord.State().Subscribe(func(s pipeline.Snapshot) {
			fmt.Fprintf(os.Stderr, "⚙️  %s\n", s.Stage)
		})
		defer unsubscribe()
	}

	snap, runErr := coord.RunAll(ctx, files, runGTIN)

	if runOutJSON != "" {
		if err := writeJSON(runOutJSON, newRunReport(coord.ID(), snap, runErr)); err != nil {
			return err
		}
	}

	if runErr != nil {
		return fmt.Errorf("run failed: %w", runErr)
	}

	printScore(snap)
	return nil
}

func printScore(snap pipeline.Snapshot) {
	if snap.Impact != nil {
		fmt.Fprintf(os.Stderr, "✓ Impact: %.2f kg CO2e, %.1f L water, %.1f MJ\n",
			snap.Impact.CO2Kg, snap.Impact.WaterL, snap.Impact.EnergyMJ)
	}
	if snap.Score == nil {
		return
	}
	fmt.Printf("%s: %s (%.0f/100, confidence %.0f%%)\n",
		snap.Score.ProductName, snap.Score.Letter, snap.Score.NumericScore, snap.Score.Confidence*100)
	if snap.Score.Explanation != "" {
		fmt.Printf("  %s\n", snap.Score.Explanation)
	}
}

func readFiles(paths []string) ([]service.File, error) {
	files := make([]service.File, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		files = append(files, service.File{Name: filepath.Base(path), Data: data})
	}
	return files, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
