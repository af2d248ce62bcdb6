package printing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChromedpRasterizer_Defaults(t *testing.T) {
	r := NewChromedpRasterizer(ChromedpConfig{})
	defer r.Close()

	assert.Equal(t, defaultChromeTimeout, r.config.Timeout)
	assert.Equal(t, 2.0, r.Scale())
	assert.NotNil(t, r.logger)
}

func TestNewChromedpRasterizer_Custom(t *testing.T) {
	r := NewChromedpRasterizer(ChromedpConfig{Timeout: 5 * time.Second, DeviceScale: 3, NoSandbox: true})
	defer r.Close()

	assert.Equal(t, 5*time.Second, r.config.Timeout)
	assert.Equal(t, 3.0, r.Scale())
}

func TestChromedpRasterizer_RejectsBadInput(t *testing.T) {
	r := NewChromedpRasterizer(ChromedpConfig{})
	defer r.Close()

	_, err := r.Rasterize(context.Background(), []byte("   "), 210)
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)

	_, err = r.Rasterize(context.Background(), []byte("<html></html>"), 0)
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeInvalidPaperSize, renderErr.Code)
}

func TestMMConversions(t *testing.T) {
	assert.InDelta(t, 8.2677, mmToInches(210), 0.001)
	assert.Equal(t, int64(794), mmToPixels(210))
	assert.Equal(t, int64(1123), mmToPixels(297))
	assert.Equal(t, int64(96), mmToPixels(25.4))
	assert.InDelta(t, 25.4, pixelsToMM(96), 1e-9)
	assert.InDelta(t, 210.079, pixelsToMM(mmToPixels(210)), 0.001)
}

func TestNewRaster(t *testing.T) {
	raster := testRaster(t, 40, 90)
	assert.Equal(t, 40, raster.Width)
	assert.Equal(t, 90, raster.Height)
	assert.Equal(t, 2.0, raster.Scale)

	_, err := newRaster(nil, 2)
	assert.Error(t, err)

	_, err = newRaster([]byte("GIF89a not really"), 2)
	assert.Error(t, err)
}
