// Package request defines the inbound generation schemas and normalizes
// their parameters into safe, clamped values.
package request

import (
	"math"
	"strings"

	"muzipics/models"
)

// DefaultNegativePrompt discourages the usual generation artifacts when the
// caller does not supply a negative prompt of their own.
const DefaultNegativePrompt = "blurry, lowres, bad anatomy, extra fingers, watermark, jpeg artifacts, text artifacts, deformed, oversaturated"

const (
	minSteps    = 5
	maxSteps    = 75
	minGuidance = 1
	maxGuidance = 15
	minDim      = 256
	maxDim      = 1536

	defaultStepsA    = 40
	defaultGuidanceA = 8.5
	defaultStepsB    = 36
	defaultGuidanceB = 4.0
	defaultDim       = 1024
)

// ValidationError is a caller error: the request is malformed and must not
// reach the upstream provider.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// GenerateRequest is the profile A body: friendly model key and explicit
// pixel dimensions. Style, preset and orientation are optional; when present
// the server composes the prompt and derives model/dimensions from them.
type GenerateRequest struct {
	Prompt         string   `json:"prompt"`
	NegativePrompt string   `json:"negativePrompt"`
	Steps          *float64 `json:"steps"`
	Guidance       *float64 `json:"guidance"`
	Width          *float64 `json:"width"`
	Height         *float64 `json:"height"`
	Model          string   `json:"model"`
	Style          string   `json:"style"`
	Preset         string   `json:"preset"`
	Orientation    string   `json:"orientation"`
}

// AspectRequest is the profile B body: aspect-ratio enum and optional seed.
type AspectRequest struct {
	Prompt         string   `json:"prompt"`
	NegativePrompt string   `json:"negative_prompt"`
	Aspect         string   `json:"aspect"`
	Seed           *int64   `json:"seed"`
	Steps          *float64 `json:"steps"`
	GuidanceScale  *float64 `json:"guidance_scale"`
}

// Normalized is a fully validated and clamped generation request. Immutable
// once built; the same value feeds the upstream call and the history record.
type Normalized struct {
	Prompt         string
	NegativePrompt string
	Steps          int
	Guidance       float64
	Width          int
	Height         int
	ModelKey       string
	Seed           *int64
}

// Normalize validates and clamps a profile A request.
func (r *GenerateRequest) Normalize() (*Normalized, *ValidationError) {
	if strings.TrimSpace(r.Prompt) == "" {
		return nil, &ValidationError{Message: "Invalid prompt"}
	}

	modelKey := r.Model
	if modelKey == "" {
		modelKey = models.DefaultModelKey
	}

	// A zero dimension counts as absent, not as a value to clamp.
	width := clamp(roundTo(dimensionOr(r.Width), 8), minDim, maxDim, defaultDim)
	height := clamp(roundTo(dimensionOr(r.Height), 8), minDim, maxDim, defaultDim)

	// Orientation, when given, wins over explicit width/height; the fixed
	// sizes are already aligned and inside the clamp range.
	if r.Orientation != "" {
		dims := models.DimsForOrientation(r.Orientation)
		width, height = float64(dims.Width), float64(dims.Height)
	}

	return &Normalized{
		Prompt:         strings.TrimSpace(r.Prompt),
		NegativePrompt: negativeOr(r.NegativePrompt),
		Steps:          int(clamp(numberOr(r.Steps, math.NaN()), minSteps, maxSteps, defaultStepsA)),
		Guidance:       clamp(numberOr(r.Guidance, math.NaN()), minGuidance, maxGuidance, defaultGuidanceA),
		Width:          int(width),
		Height:         int(height),
		ModelKey:       modelKey,
	}, nil
}

// Normalize validates and clamps a profile B request. Dimensions come from
// the aspect table, defaults use the simplified-variant values.
func (r *AspectRequest) Normalize() (*Normalized, *ValidationError) {
	if strings.TrimSpace(r.Prompt) == "" {
		return nil, &ValidationError{Message: "Invalid prompt"}
	}

	dims := models.DimsForAspect(r.Aspect)
	return &Normalized{
		Prompt:         strings.TrimSpace(r.Prompt),
		NegativePrompt: negativeOr(r.NegativePrompt),
		Steps:          int(clamp(numberOr(r.Steps, math.NaN()), minSteps, maxSteps, defaultStepsB)),
		Guidance:       clamp(numberOr(r.GuidanceScale, math.NaN()), minGuidance, maxGuidance, defaultGuidanceB),
		Width:          dims.Width,
		Height:         dims.Height,
		ModelKey:       models.DefaultModelKey,
		Seed:           r.Seed,
	}, nil
}

// clamp keeps v within [min, max], falling back to def when v is not a
// finite number.
func clamp(v, min, max, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return math.Min(math.Max(v, min), max)
}

// roundTo rounds v to the nearest multiple of step.
func roundTo(v, step float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return math.Round(v/step) * step
}

// dimensionOr maps a missing or zero dimension to NaN so clamp substitutes
// the default instead of pinning zero at the minimum.
func dimensionOr(p *float64) float64 {
	if p == nil || *p == 0 {
		return math.NaN()
	}
	return *p
}

func numberOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func negativeOr(s string) string {
	if s == "" {
		return DefaultNegativePrompt
	}
	return s
}
