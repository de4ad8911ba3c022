package scraper

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/SatishMiral/chrome-extension-backend/models"
)

// FieldSpec describes how to extract one logical field.
type FieldSpec struct {
	// Name is the logical field name (title, price, rating, link, image).
	Name string

	// Strategies are tried in order until one yields a non-empty value.
	Strategies []Strategy

	// Attr selects an attribute accessor; empty means trimmed text.
	// Attribute values are normalized to absolute URLs against the site origin.
	Attr string

	// Required fields fail the pipeline when absent instead of yielding null.
	Required bool

	// MaxLen keeps only the first MaxLen characters when > 0.
	MaxLen int
}

// Extract evaluates field against doc. Optional fields that no strategy can
// satisfy return models.NotFound() and a nil error; a missing Required field
// returns a REQUIRED_FIELD_MISSING error.
func Extract(doc *Document, field FieldSpec, origin string) (models.Value, error) {
	for _, s := range field.Strategies {
		v, err := applyStrategy(doc, s, field, origin)
		if err != nil {
			slog.Debug("extraction strategy failed",
				"field", field.Name,
				"strategy", s.String(),
				"error", err,
			)
			continue
		}
		if v != "" {
			return models.Found(truncate(v, field.MaxLen)), nil
		}
	}

	if field.Required {
		return models.NotFound(), models.NewScrapeError(
			models.ErrCodeRequiredField,
			fmt.Sprintf("required field %q not found", field.Name),
			models.ErrRequiredFieldMissing,
		)
	}
	return models.NotFound(), nil
}

// applyStrategy returns the accessor value for the first element matched by
// s, or "" when nothing usable matched.
func applyStrategy(doc *Document, s Strategy, field FieldSpec, origin string) (string, error) {
	sel, err := doc.First(s)
	if err != nil {
		return "", err
	}
	if sel == nil {
		return "", nil
	}

	if field.Attr == "" {
		return strings.TrimSpace(sel.Text()), nil
	}

	val, ok := sel.Attr(field.Attr)
	if !ok {
		return "", nil
	}
	val = strings.TrimSpace(val)
	if val == "" {
		return "", nil
	}
	return absoluteURL(val, origin), nil
}

// absoluteURL prefixes relative references with origin. Values that already
// start with "http" pass through unchanged.
func absoluteURL(ref, origin string) string {
	switch {
	case strings.HasPrefix(ref, "http"):
		return ref
	case strings.HasPrefix(ref, "//"):
		return "https:" + ref
	case strings.HasPrefix(ref, "/"):
		return strings.TrimSuffix(origin, "/") + ref
	default:
		return strings.TrimSuffix(origin, "/") + "/" + ref
	}
}

// truncate keeps the first n characters of s. Ratings use n = 3 so that
// "4.3 out of 5 stars" becomes "4.3".
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
