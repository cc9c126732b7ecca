package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Face recognition and spoken announcements for dementia care",
	Long: `Recall identifies visitors from camera frames against a patient's
enrolled circle of family and friends, and announces who is at the door
with pre-synthesized speech. It ships a web API for companion devices
plus CLI commands for enrollment and one-shot recognition.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
