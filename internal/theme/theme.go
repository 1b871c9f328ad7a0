// Package theme derives the console colour theme from the configured
// primary colour.
package theme

import (
	"strings"

	"einvoice/pkg/models"

	"github.com/lucasb-eyer/go-colorful"
)

// Theme is the set of colours the console renders with, as #rrggbb strings.
type Theme struct {
	Primary            string
	InversePrimary     string
	InverseSurface     string
	TextOnPrimary      string
	SecondaryContainer string
}

// Default is used when no primary colour is configured or it cannot be parsed.
var Default = Theme{
	Primary:            "#c0a801",
	InversePrimary:     "#dbc84d",
	InverseSurface:     "#20201e",
	TextOnPrimary:      "#ffffff",
	SecondaryContainer: "#f6efba",
}

// tone returns c at the given HCL lightness (0..1), with its chroma scaled.
func tone(c colorful.Color, lightness, chromaScale float64) string {
	h, chroma, _ := c.Hcl()
	return colorful.Hcl(h, chroma*chromaScale, lightness).Clamped().Hex()
}

// Derive builds a theme from primary. The derived colours keep the primary
// hue at fixed lightness tones: 0.8 for the inverse primary, 0.2 for the
// inverse surface and 0.9 for the secondary container.
func Derive(primary string) Theme {
	primary = strings.TrimSpace(primary)
	if primary == "" {
		return Default
	}
	if !strings.HasPrefix(primary, "#") {
		primary = "#" + primary
	}

	c, err := colorful.Hex(primary)
	if err != nil {
		return Default
	}

	return Theme{
		Primary:            c.Hex(),
		InversePrimary:     tone(c, 0.80, 0.8),
		InverseSurface:     tone(c, 0.20, 0.3),
		TextOnPrimary:      textOn(c),
		SecondaryContainer: tone(c, 0.92, 0.35),
	}
}

// textOn picks white or near-black text, whichever reads better on c.
func textOn(c colorful.Color) string {
	_, _, l := c.Hcl()
	if l > 0.75 {
		return "#1c1b16"
	}
	return "#ffffff"
}

// StatusColor returns the chip colour for a status.
func (t Theme) StatusColor(s models.Status) string {
	switch s {
	case models.StatusSubmitted:
		return "#2e7d32"
	case models.StatusError:
		return "#c62828"
	case models.StatusRedNote:
		return "#ad1457"
	case models.StatusPending:
		return t.Primary
	}
	return t.InverseSurface
}
