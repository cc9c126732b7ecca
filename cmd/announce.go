package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/recall/internal/announce"
	"github.com/kozaktomas/recall/internal/config"
	"github.com/kozaktomas/recall/internal/database"
)

var announceCmd = &cobra.Command{
	Use:   "announce [person-id]",
	Short: "Pre-generate announcement audio",
	Long: `Synthesize and cache the announcement audio for one person, or for
every person enrolled for a patient. Already cached phrases are skipped
unless --regenerate is set.

Examples:
  # One person
  recall announce 2f1c9a4e

  # Everyone enrolled for a patient
  recall announce --patient patient-1

  # Force fresh synthesis after a voice change
  recall announce 2f1c9a4e --regenerate`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnnounce,
}

func init() {
	rootCmd.AddCommand(announceCmd)

	announceCmd.Flags().String("patient", "", "Pre-generate for every person of this patient")
	announceCmd.Flags().String("text", "", "Override the announcement text (single person only)")
	announceCmd.Flags().Bool("regenerate", false, "Discard the cached audio and synthesize again")
}

func runAnnounce(cmd *cobra.Command, args []string) error {
	patientID := mustGetString(cmd, "patient")
	textOverride := mustGetString(cmd, "text")
	regenerate := mustGetBool(cmd, "regenerate")

	if len(args) == 0 && patientID == "" {
		return errors.New("either a person ID or --patient is required")
	}
	if len(args) == 1 && patientID != "" {
		return errors.New("a person ID and --patient are mutually exclusive")
	}
	if textOverride != "" && patientID != "" {
		return errors.New("--text applies to a single person only")
	}

	ctx := context.Background()
	cfg := config.Load()
	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.announcer == nil {
		return errors.New("no TTS credentials configured, set ELEVENLABS_API_KEY or OPENAI_TOKEN")
	}

	var people []database.Person
	if patientID != "" {
		people, err = a.enrollment.ListPeople(ctx, patientID)
		if err != nil {
			return fmt.Errorf("failed to list people: %w", err)
		}
		if len(people) == 0 {
			return fmt.Errorf("no people enrolled for patient %s", patientID)
		}
	} else {
		person, err := a.enrollment.GetPerson(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to load person: %w", err)
		}
		people = []database.Person{*person}
	}

	var failed int
	for _, person := range people {
		text := textOverride
		if text == "" {
			text = defaultAnnouncementText(&person)
		}
		preset := cfg.VoicePreset(person.VoicePreset)

		ann, err := a.announcer.Ensure(ctx, announce.Request{
			PersonID:   person.ID,
			Text:       text,
			VoiceID:    preset.VoiceID,
			ModelID:    preset.ModelID,
			Regenerate: regenerate,
		})
		if err != nil {
			failed++
			fmt.Printf("%s: synthesis failed: %v\n", person.Name, err)
			continue
		}

		state := "synthesized"
		if ann.Cached {
			state = "already cached"
		}
		fmt.Printf("%s: %s (%s)\n", person.Name, state, ann.URL)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d announcements failed", failed, len(people))
	}
	return nil
}

// defaultAnnouncementText mirrors the phrase the web API speaks for an
// identification.
func defaultAnnouncementText(person *database.Person) string {
	if person.AnnouncementText != "" {
		return person.AnnouncementText
	}
	if person.Relationship != "" {
		return "This is " + person.Name + ", your " + person.Relationship + "."
	}
	return "This is " + person.Name + "."
}
