package deck

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidChart    = errors.New("invalid chart")
	ErrMediaConstraint = errors.New("media constraint violated")
)

// Normalize fills nil content slices so downstream code can range without checks.
func Normalize(items []Item) []Item {
	for i := range items {
		if items[i].Content == nil {
			items[i].Content = []string{}
		}
		items[i].ImagePrompt = strings.TrimSpace(items[i].ImagePrompt)
	}
	return items
}

// ValidateItem checks the parts of an item the response schema can't express on its own.
// Label/data length mismatches are tolerated; renderers clamp with Chart.Points.
func ValidateItem(it Item) error {
	if it.Chart == nil {
		return nil
	}
	if !it.Chart.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidChart, it.Chart.Type)
	}
	if len(it.Chart.Datasets) == 0 {
		return fmt.Errorf("%w: no datasets", ErrInvalidChart)
	}
	return nil
}

func Validate(items []Item) error {
	for i, it := range items {
		if err := ValidateItem(it); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

// CheckMedia reports whether it honours req: image means imagePrompt and no chart,
// chart means the inverse, none means neither.
func CheckMedia(it Item, req MediaRequest) error {
	img, chart := it.WantsImage(), it.HasChart()
	var ok bool
	switch req {
	case MediaImage:
		ok = img && !chart
	case MediaChart:
		ok = chart && !img
	default:
		ok = !img && !chart
	}
	if ok {
		return nil
	}
	return fmt.Errorf("%w: requested %s, got imagePrompt=%t chart=%t", ErrMediaConstraint, req, img, chart)
}
