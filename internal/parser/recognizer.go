package parser

import (
	"strings"

	"pulseboard/internal/model"
)

// minConfidence below this the sheet is reported as unknown and skipped.
const minConfidence = 0.6

// Recognizer matches sheet headers against the fixed signature catalogue.
type Recognizer struct{}

// NewRecognizer creates a sheet recognizer.
func NewRecognizer() *Recognizer {
	return &Recognizer{}
}

// Recognize classifies one sheet by its name and header row. The best-scoring
// signature wins; anything under the confidence floor is unknown.
func (r *Recognizer) Recognize(sheetName string, headers []string) Recognition {
	normalized := make([]string, 0, len(headers))
	for _, h := range headers {
		if n := NormalizeHeader(h); n != "" {
			normalized = append(normalized, n)
		}
	}

	best := Recognition{SheetName: sheetName, Type: SheetUnknown}
	nameKey := model.NormalizeKey(sheetName)

	for _, sig := range catalogue {
		matched := 0
		for _, field := range sig.Required {
			if matchHeader(normalized, field) {
				matched++
			}
		}
		confidence := float64(matched) / float64(len(sig.Required))
		for _, hint := range sig.NameHints {
			if strings.Contains(nameKey, model.NormalizeKey(hint)) {
				confidence += 0.2
				break
			}
		}
		if confidence > best.Confidence {
			best.Type = sig.Type
			best.Confidence = confidence
		}
	}

	if best.Confidence < minConfidence {
		return Recognition{SheetName: sheetName, Type: SheetUnknown, Confidence: best.Confidence}
	}
	return best
}

// NormalizeHeader canonical form of a column header used for signature
// matching and Row cell lookup.
func NormalizeHeader(h string) string {
	return model.NormalizeKey(h)
}

// matchHeader reports whether any normalized header equals one of the
// pipe-separated alternatives in the pattern.
func matchHeader(normalized []string, pattern string) bool {
	for _, alt := range strings.Split(pattern, "|") {
		want := model.NormalizeKey(alt)
		for _, h := range normalized {
			if h == want {
				return true
			}
		}
	}
	return false
}
