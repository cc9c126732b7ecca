// Package announce implements the content-addressed announcement cache: each
// distinct phrase and voice combination is synthesized at most once, stored
// durably, and served from storage ever after.
package announce

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeText canonicalizes a phrase before it is keyed or synthesized:
// Unicode NFC, case folding, and whitespace collapsed to single spaces.
// Two phrasings that differ only in casing or spacing therefore share one
// cache entry.
func NormalizeText(text string) string {
	text = norm.NFC.String(text)
	text = cases.Fold().String(text)
	return strings.Join(strings.Fields(text), " ")
}

// PhraseKey computes the content address for a normalized phrase spoken with
// a particular voice and model: a hex SHA-256 over the normalized text and
// the voice parameters. The text must already be normalized.
func PhraseKey(normalizedText, voiceID, modelID string) string {
	var b strings.Builder
	b.WriteString(normalizedText)
	b.WriteString("|voice=")
	b.WriteString(voiceID)
	b.WriteString("|model=")
	b.WriteString(modelID)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
