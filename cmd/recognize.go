package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/recall/internal/config"
	"github.com/kozaktomas/recall/internal/recognition"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <patient-id> <image-path>",
	Short: "Recognize a face in an image against a patient's enrolled people",
	Long: `Run one captured frame through the recognition pipeline and print
the outcome. The attempt is recorded in the patient's audit trail just
like a frame submitted over the API.

Examples:
  # Recognize a frame for a patient
  recall recognize patient-1 frame.jpg

  # JSON output
  recall recognize patient-1 frame.jpg --json`,
	Args: cobra.ExactArgs(2),
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().Bool("json", false, "Output as JSON")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	patientID := args[0]
	imagePath := args[1]
	jsonOutput := mustGetBool(cmd, "json")

	frame, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	ctx := context.Background()
	a, err := buildApp(ctx, config.Load())
	if err != nil {
		return err
	}
	defer a.Close()

	outcome, err := a.pipeline.Recognize(ctx, patientID, frame)
	if err != nil {
		return fmt.Errorf("recognition failed: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	}

	printOutcome(outcome)
	return nil
}

func printOutcome(outcome recognition.Outcome) {
	switch outcome.Status {
	case recognition.StatusIdentified:
		fmt.Printf("Identified: %s (score %.3f, band %s)\n",
			outcome.WinnerName, outcome.ConfidenceScore, outcome.ConfidenceBand)
	case recognition.StatusNeedsConfirmation:
		fmt.Printf("Needs confirmation: %s (score %.3f, band %s)\n",
			outcome.WinnerName, outcome.ConfidenceScore, outcome.ConfidenceBand)
	default:
		fmt.Println("Not sure who this is")
	}
	if outcome.UsedTieBreak {
		fmt.Println("Tie-break arbitration was used")
	}
	for _, c := range outcome.Candidates {
		fmt.Printf("  %d. %s  %.3f\n", c.Rank, c.Name, c.Score)
	}
}
