// Package models maps friendly model and layout keys to concrete upstream values.
package models

// DefaultModelKey is the friendly key every unknown key resolves to.
const DefaultModelKey = "sdxl-base"

// FallbackModelID is the upstream identifier used when a requested model is unavailable.
const FallbackModelID = "stabilityai/stable-diffusion-xl-base-1.0"

// UpscaleModelID is the image-to-image model used by the upscale endpoint.
const UpscaleModelID = "stabilityai/stable-diffusion-x4-upscaler"

// ModelMap maps friendly keys to Hugging Face model identifiers.
var ModelMap = map[string]string{
	"sdxl-base":      "stabilityai/stable-diffusion-xl-base-1.0",
	"sdxl-turbo":     "stabilityai/sdxl-turbo",
	"dreamshaper-xl": "Lykon/dreamshaper-xl-v2",
	"realvis-xl":     "SG161222/RealVisXL_V4.0",
}

// Resolve maps a friendly model key to its upstream identifier.
// Unknown keys resolve to the default model.
func Resolve(modelKey string) string {
	if id, ok := ModelMap[modelKey]; ok {
		return id
	}
	return ModelMap[DefaultModelKey]
}

// StyleToModel maps a UI style key to the friendly model key used for it.
func StyleToModel(styleKey string) string {
	switch styleKey {
	case "artistic":
		return "dreamshaper-xl"
	case "realistic":
		return "realvis-xl"
	case "fast":
		return "sdxl-turbo"
	default:
		return DefaultModelKey
	}
}

// Dims is a pixel width/height pair.
type Dims struct {
	Width  int
	Height int
}

// DimsForOrientation maps an orientation key to fixed generation dimensions.
// Unknown orientations default to square.
func DimsForOrientation(orient string) Dims {
	switch orient {
	case "16:9":
		return Dims{Width: 1280, Height: 720}
	case "9:16":
		return Dims{Width: 720, Height: 1280}
	default:
		return Dims{Width: 1024, Height: 1024}
	}
}

// DimsForAspect maps an aspect-ratio key to fixed generation dimensions.
// Unknown aspects default to square.
func DimsForAspect(aspect string) Dims {
	switch aspect {
	case "4:5":
		return Dims{Width: 1024, Height: 1280}
	case "16:9":
		return Dims{Width: 1280, Height: 720}
	default:
		return Dims{Width: 1024, Height: 1024}
	}
}
