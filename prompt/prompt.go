// Package prompt builds the final prompt string sent to the image model.
package prompt

import "strings"

// CoverSuffix is the fixed compositional guidance appended to every prompt.
const CoverSuffix = "album cover layout, space for clean typography, strong composition, high quality"

// StylePrompts maps a style key to its descriptive prompt fragment.
var StylePrompts = map[string]string{
	"modern":    "clean composition, professional layout, space for typography, balanced color grading",
	"artistic":  "expressive brushwork, stylized illustration, bold shapes, creative textures",
	"realistic": "photorealistic details, accurate lighting, natural textures, depth of field",
	"fast":      "simplified detail, strong silhouettes, punchy lighting",
}

// PresetPrompts maps a preset key to its descriptive prompt fragment.
// "none" contributes nothing.
var PresetPrompts = map[string]string{
	"none":       "",
	"Minimal":    "minimal composition, ample negative space, subtle texture, soft shadows",
	"Cyberpunk":  "neon glow, futuristic vibes, high contrast rim light, holographic accents",
	"Vintage":    "retro print texture, muted palette, light film grain, aged paper look",
	"minimal_bw": "high contrast black and white, minimal layout, clean typography space, subtle paper texture",
	"grunge":     "grunge texture, distressed look, rough edges, gritty film grain, dark moody palette",
	"vaporwave":  "pastel neon palette, vaporwave aesthetics, retro-futuristic gradients, lo-fi texture",
	"y2k":        "glossy highlights, chrome effects, bold shapes, early-2000s aesthetics, vibrant colors",
	"swiss":      "swiss graphic design, strong grid, bold typography area, minimal shapes, balanced whitespace",
	"noir":       "moody noir lighting, deep shadows, dramatic contrast, cinematic atmosphere",
	"pastel":     "soft pastel palette, gentle gradients, airy look, delicate texture",
	"graffiti":   "street art graffiti textures, bold spray patterns, urban gritty vibe",
	"baroque":    "ornate baroque motifs, rich textures, dramatic lighting, classical elegance",
	"synthwave":  "80s retro synthwave, magenta/teal neon, horizon grid, chrome highlights",
}

// Compose merges the user text with the style and preset fragments plus the
// fixed cover suffix. Unknown keys contribute nothing, empty fragments are
// dropped, and the result is deterministic for identical inputs. The same
// composed string must be used for the outbound request, for display, and
// for history recording.
func Compose(userText, styleKey, presetKey string) string {
	parts := []string{strings.TrimSpace(userText)}
	if add := StylePrompts[styleKey]; add != "" {
		parts = append(parts, add)
	}
	if add := PresetPrompts[presetKey]; add != "" {
		parts = append(parts, add)
	}
	parts = append(parts, CoverSuffix)

	joined := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			joined = append(joined, p)
		}
	}
	return strings.Join(joined, ", ")
}
