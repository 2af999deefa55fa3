package request

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestGenerateRequestNormalize(t *testing.T) {
	t.Run("empty prompt is rejected", func(t *testing.T) {
		_, verr := (&GenerateRequest{Prompt: "   "}).Normalize()
		require.NotNil(t, verr)
		assert.Equal(t, "Invalid prompt", verr.Message)
	})

	t.Run("missing fields fall back to defaults", func(t *testing.T) {
		n, verr := (&GenerateRequest{Prompt: "a cover"}).Normalize()
		require.Nil(t, verr)
		assert.Equal(t, 40, n.Steps)
		assert.Equal(t, 8.5, n.Guidance)
		assert.Equal(t, 1024, n.Width)
		assert.Equal(t, 1024, n.Height)
		assert.Equal(t, "sdxl-base", n.ModelKey)
		assert.Equal(t, DefaultNegativePrompt, n.NegativePrompt)
	})

	t.Run("out of range values are clamped", func(t *testing.T) {
		n, verr := (&GenerateRequest{
			Prompt:   "a cover",
			Steps:    f(500),
			Guidance: f(0.1),
			Width:    f(9999),
			Height:   f(10),
		}).Normalize()
		require.Nil(t, verr)
		assert.Equal(t, 75, n.Steps)
		assert.Equal(t, 1.0, n.Guidance)
		assert.Equal(t, 1536, n.Width)
		assert.Equal(t, 256, n.Height)
	})

	t.Run("dimensions round to the nearest multiple of 8", func(t *testing.T) {
		n, verr := (&GenerateRequest{Prompt: "a cover", Width: f(1023), Height: f(701)}).Normalize()
		require.Nil(t, verr)
		assert.Equal(t, 1024, n.Width)
		assert.Equal(t, 704, n.Height)
		assert.Zero(t, n.Width%8)
		assert.Zero(t, n.Height%8)
	})

	t.Run("zero dimensions count as absent", func(t *testing.T) {
		n, verr := (&GenerateRequest{Prompt: "a cover", Width: f(0), Height: f(0)}).Normalize()
		require.Nil(t, verr)
		assert.Equal(t, 1024, n.Width)
		assert.Equal(t, 1024, n.Height)
	})

	t.Run("non-finite numbers fall back to defaults", func(t *testing.T) {
		n, verr := (&GenerateRequest{Prompt: "a cover", Steps: f(math.NaN()), Guidance: f(math.Inf(1))}).Normalize()
		require.Nil(t, verr)
		assert.Equal(t, 40, n.Steps)
		assert.Equal(t, 8.5, n.Guidance)
	})

	t.Run("normalized output always stays in range", func(t *testing.T) {
		for _, v := range []float64{-1e9, -1, 0, 5, 36.6, 75, 76, 1e9} {
			n, verr := (&GenerateRequest{Prompt: "p", Steps: f(v), Guidance: f(v), Width: f(v), Height: f(v)}).Normalize()
			require.Nil(t, verr)
			assert.GreaterOrEqual(t, n.Steps, 5)
			assert.LessOrEqual(t, n.Steps, 75)
			assert.GreaterOrEqual(t, n.Guidance, 1.0)
			assert.LessOrEqual(t, n.Guidance, 15.0)
			assert.GreaterOrEqual(t, n.Width, 256)
			assert.LessOrEqual(t, n.Width, 1536)
			assert.GreaterOrEqual(t, n.Height, 256)
			assert.LessOrEqual(t, n.Height, 1536)
		}
	})

	t.Run("orientation overrides explicit dimensions", func(t *testing.T) {
		n, verr := (&GenerateRequest{Prompt: "p", Width: f(512), Height: f(512), Orientation: "16:9"}).Normalize()
		require.Nil(t, verr)
		assert.Equal(t, 1280, n.Width)
		assert.Equal(t, 720, n.Height)
	})

	t.Run("explicit negative prompt is kept", func(t *testing.T) {
		n, verr := (&GenerateRequest{Prompt: "p", NegativePrompt: "text"}).Normalize()
		require.Nil(t, verr)
		assert.Equal(t, "text", n.NegativePrompt)
	})
}

func TestAspectRequestNormalize(t *testing.T) {
	t.Run("empty prompt is rejected", func(t *testing.T) {
		_, verr := (&AspectRequest{}).Normalize()
		require.NotNil(t, verr)
	})

	t.Run("simplified variant defaults", func(t *testing.T) {
		n, verr := (&AspectRequest{Prompt: "a cover"}).Normalize()
		require.Nil(t, verr)
		assert.Equal(t, 36, n.Steps)
		assert.Equal(t, 4.0, n.Guidance)
		assert.Equal(t, 1024, n.Width)
		assert.Equal(t, 1024, n.Height)
		assert.Nil(t, n.Seed)
	})

	t.Run("aspect drives dimensions", func(t *testing.T) {
		n, verr := (&AspectRequest{Prompt: "p", Aspect: "4:5"}).Normalize()
		require.Nil(t, verr)
		assert.Equal(t, 1024, n.Width)
		assert.Equal(t, 1280, n.Height)
	})

	t.Run("seed is carried through", func(t *testing.T) {
		seed := int64(1234)
		n, verr := (&AspectRequest{Prompt: "p", Seed: &seed}).Normalize()
		require.Nil(t, verr)
		require.NotNil(t, n.Seed)
		assert.Equal(t, int64(1234), *n.Seed)
	})
}
