package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ghassane04/EcoLabel-MS/internal/extract"
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Show how a free-text summary is turned into a typed payload",
	Long: `Parse runs the local field extractors without contacting any service.

Example:
  ecolabel parse ingredients "Tomates bio (92%), Sucre (5%)"
  ecolabel parse packaging "Verre recyclable 720g"
  ecolabel parse transport "Camion - 250km"`,
}

func newParseCommand(use, short string, parse func(string) any) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <text>",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := json.MarshalIndent(parse(strings.Join(args, " ")), "", "  ")
			if err != nil {
				return fmt.Errorf("marshal result: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.AddCommand(
		newParseCommand("ingredients", "Parse a comma-separated ingredient list", func(s string) any {
			return extract.ParseIngredientList(s)
		}),
		newParseCommand("packaging", "Parse a packaging summary", func(s string) any {
			return extract.ParsePackaging(s)
		}),
		newParseCommand("transport", "Parse a transport summary", func(s string) any {
			return extract.ParseTransport(s)
		}),
	)
}
