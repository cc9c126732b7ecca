package recognition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const judgePrompt = `You compare a live photo of a person against reference photos of two known people.
The first image is the live photo. It is followed by reference photos labeled "person a" and "person b".

Decide which person appears in the live photo. If you cannot tell confidently, answer "none".
Answer ONLY with JSON in the form {"winner": "a"} or {"winner": "b"} or {"winner": "none"}.`

// GeminiJudge separates tied candidates using a Gemini vision call.
type GeminiJudge struct {
	client *genai.Client
	model  string
}

// NewGeminiJudge creates a Gemini-backed tie-break judge.
func NewGeminiJudge(ctx context.Context, apiKey, model string) (*GeminiJudge, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiJudge{client: client, model: model}, nil
}

func (j *GeminiJudge) Name() string {
	return j.model
}

// judgeVerdict is the strict response shape expected from the model.
type judgeVerdict struct {
	Winner string `json:"winner"`
}

// Pick sends the live frame plus the reference crops of both candidates and
// parses the winner. Any decoding or parsing problem is an error; the caller
// maps errors to an abstention.
func (j *GeminiJudge) Pick(ctx context.Context, frame []byte, a, b TieCandidate) (string, error) {
	parts := []*genai.Part{{Text: judgePrompt}}

	liveJPEG, err := resizeImage(frame, 800)
	if err != nil {
		return "", fmt.Errorf("failed to prepare live frame: %w", err)
	}
	parts = append(parts, &genai.Part{InlineData: &genai.Blob{Data: liveJPEG, MIMEType: "image/jpeg"}})

	labeled := []struct {
		label string
		cand  TieCandidate
	}{{"a", a}, {"b", b}}
	for _, lc := range labeled {
		parts = append(parts, &genai.Part{Text: fmt.Sprintf("Reference photos for person %s:", lc.label)})
		for _, crop := range lc.cand.ReferenceCrops {
			ref, err := resizeImage(crop, 512)
			if err != nil {
				continue // a bad reference crop should not sink the whole comparison
			}
			parts = append(parts, &genai.Part{InlineData: &genai.Blob{Data: ref, MIMEType: "image/jpeg"}})
		}
	}

	contents := []*genai.Content{{Role: "user", Parts: parts}}
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	result, err := j.client.Models.GenerateContent(ctx, j.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}

	content := result.Text()
	if content == "" {
		return "", errors.New("no response from Gemini")
	}

	var verdict judgeVerdict
	if err := json.Unmarshal([]byte(content), &verdict); err != nil {
		return "", fmt.Errorf("failed to parse verdict JSON: %w (response: %s)", err, content)
	}

	return verdict.Winner, nil
}
