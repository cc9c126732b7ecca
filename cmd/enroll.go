package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/recall/internal/config"
	"github.com/kozaktomas/recall/internal/database"
	"github.com/kozaktomas/recall/internal/enrollment"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <person-id> <folder-path>",
	Short: "Batch-enroll reference photos for a person",
	Long: `Enroll every photo in a folder as a reference for a person. Photos
with no detectable face and near-duplicates of already enrolled references
are skipped. The person's centroid is recomputed after every accepted photo.

Use --create to enroll a new person in one go:

  recall enroll --create --patient patient-1 --name "Anna" --relationship daughter - ./photos/anna

Or add photos to an existing person:

  recall enroll 2f1c9a4e ./photos/anna`,
	Args: cobra.ExactArgs(2),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().Bool("create", false, "Create the person before enrolling (person-id argument is ignored)")
	enrollCmd.Flags().String("patient", "", "Patient ID for --create")
	enrollCmd.Flags().String("name", "", "Person name for --create")
	enrollCmd.Flags().String("relationship", "", "Relationship to the patient for --create")
}

// imageExtensions are the file types picked up from the enrollment folder.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

func runEnroll(cmd *cobra.Command, args []string) error {
	personID := args[0]
	folder := args[1]

	photos, err := collectPhotos(folder)
	if err != nil {
		return err
	}
	if len(photos) == 0 {
		return fmt.Errorf("no photos found in %s", folder)
	}

	ctx := context.Background()
	a, err := buildApp(ctx, config.Load())
	if err != nil {
		return err
	}
	defer a.Close()

	if mustGetBool(cmd, "create") {
		person := &database.Person{
			PatientID:    mustGetString(cmd, "patient"),
			Name:         mustGetString(cmd, "name"),
			Relationship: mustGetString(cmd, "relationship"),
		}
		if err := a.enrollment.CreatePerson(ctx, person); err != nil {
			return fmt.Errorf("failed to create person: %w", err)
		}
		personID = person.ID
		fmt.Printf("Created person %s (%s)\n", person.Name, person.ID)
	}

	bar := progressbar.NewOptions(len(photos),
		progressbar.OptionSetDescription("Enrolling"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	var enrolled, noFace, duplicates int
	var failures []string
	for _, photo := range photos {
		data, err := os.ReadFile(photo)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", filepath.Base(photo), err))
			_ = bar.Add(1)
			continue
		}

		_, err = a.enrollment.AddReference(ctx, personID, data)
		switch {
		case errors.Is(err, enrollment.ErrNoFaceFound):
			noFace++
		case errors.Is(err, enrollment.ErrDuplicateReference):
			duplicates++
		case err != nil:
			failures = append(failures, fmt.Sprintf("%s: %v", filepath.Base(photo), err))
		default:
			enrolled++
		}
		_ = bar.Add(1)
	}
	fmt.Println()

	fmt.Printf("Enrolled %d of %d photos", enrolled, len(photos))
	if noFace > 0 {
		fmt.Printf(", %d without a detectable face", noFace)
	}
	if duplicates > 0 {
		fmt.Printf(", %d near-duplicates skipped", duplicates)
	}
	fmt.Println()

	if len(failures) > 0 {
		fmt.Printf("Failures (%d):\n", len(failures))
		for _, f := range failures {
			fmt.Printf("  %s\n", f)
		}
	}

	person, err := a.enrollment.GetPerson(ctx, personID)
	if err != nil {
		return fmt.Errorf("failed to reload person: %w", err)
	}
	if len(person.Centroid) > 0 {
		fmt.Printf("%s is now matchable with %d references\n", person.Name, person.ReferenceCount)
	} else {
		fmt.Printf("%s has no usable references yet\n", person.Name)
	}
	return nil
}

func collectPhotos(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to read folder: %w", err)
	}

	var photos []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			photos = append(photos, filepath.Join(folder, entry.Name()))
		}
	}
	return photos, nil
}
