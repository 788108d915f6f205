package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ghassane04/EcoLabel-MS/internal/service"
	"github.com/ghassane04/EcoLabel-MS/internal/worker"
)

var (
	batchList    string
	batchGTIN    string
	batchOutJSON string
)

var batchCmd = &cobra.Command{
	Use:   "batch [file]...",
	Short: "Run one independent pipeline per product file",
	Long: `Batch runs the full pipeline for each file in its own session, several
sessions at a time. A failure in one session does not affect the others.

Example:
  ecolabel batch sheets/*.png --workers 8
  ecolabel batch --list products.txt --json results.json`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&batchList, "list", "", "file listing product files, one per line")
	batchCmd.Flags().StringVar(&batchGTIN, "gtin", "", "barcode sent with every upload")
	batchCmd.Flags().StringVar(&batchOutJSON, "json", "", "write all session states to this path")
	batchCmd.Flags().Int("workers", 0, "parallel sessions (default from config)")
	_ = viper.BindPFlag("workers", batchCmd.Flags().Lookup("workers"))
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	paths := append([]string(nil), args...)
	if batchList != "" {
		listed, err := worker.ReadPathsFromFile(batchList)
		if err != nil {
			return err
		}
		paths = append(paths, listed...)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no product files given")
	}

	fmt.Fprintf(os.Stderr, "Processing %d files with %d workers...\n", len(paths), cfg.Workers)

	processor := worker.NewBatchProcessor(service.NewClient(cfg, logger), cfg, logger)
	results := processor.ProcessFiles(cmd.Context(), paths, batchGTIN)

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tSTAGE\tSCORE\tERROR")
	failed := 0
	reports := make([]runReport, 0, len(results))
	for _, r := range results {
		score := "-"
		if r.Snapshot.Score != nil {
			score = fmt.Sprintf("%s (%.0f)", r.Snapshot.Score.Letter, r.Snapshot.Score.NumericScore)
		}
		errText := ""
		if r.Err != nil {
			failed++
			errText = r.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Path, r.Snapshot.Stage, score, errText)
		reports = append(reports, newRunReport(r.SessionID, r.Snapshot, r.Err))
	}
	_ = tw.Flush()

	if batchOutJSON != "" {
		if err := writeJSON(batchOutJSON, reports); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d sessions failed", failed, len(results))
	}
	fmt.Fprintf(os.Stderr, "✓ All %d sessions completed\n", len(results))
	return nil
}
