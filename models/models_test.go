package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	t.Run("known keys return their documented mapping", func(t *testing.T) {
		assert.Equal(t, "stabilityai/stable-diffusion-xl-base-1.0", Resolve("sdxl-base"))
		assert.Equal(t, "stabilityai/sdxl-turbo", Resolve("sdxl-turbo"))
		assert.Equal(t, "Lykon/dreamshaper-xl-v2", Resolve("dreamshaper-xl"))
		assert.Equal(t, "SG161222/RealVisXL_V4.0", Resolve("realvis-xl"))
	})

	t.Run("unknown keys resolve to the default model", func(t *testing.T) {
		assert.Equal(t, FallbackModelID, Resolve("no-such-model"))
		assert.Equal(t, FallbackModelID, Resolve(""))
	})
}

func TestStyleToModel(t *testing.T) {
	assert.Equal(t, "dreamshaper-xl", StyleToModel("artistic"))
	assert.Equal(t, "realvis-xl", StyleToModel("realistic"))
	assert.Equal(t, "sdxl-turbo", StyleToModel("fast"))
	assert.Equal(t, DefaultModelKey, StyleToModel("modern"))
	assert.Equal(t, DefaultModelKey, StyleToModel("something-else"))
}

func TestDims(t *testing.T) {
	t.Run("orientation lookup", func(t *testing.T) {
		assert.Equal(t, Dims{1280, 720}, DimsForOrientation("16:9"))
		assert.Equal(t, Dims{720, 1280}, DimsForOrientation("9:16"))
		assert.Equal(t, Dims{1024, 1024}, DimsForOrientation("1:1"))
		assert.Equal(t, Dims{1024, 1024}, DimsForOrientation("banana"))
	})

	t.Run("aspect lookup", func(t *testing.T) {
		assert.Equal(t, Dims{1024, 1280}, DimsForAspect("4:5"))
		assert.Equal(t, Dims{1280, 720}, DimsForAspect("16:9"))
		assert.Equal(t, Dims{1024, 1024}, DimsForAspect("1:1"))
		assert.Equal(t, Dims{1024, 1024}, DimsForAspect(""))
	})
}
