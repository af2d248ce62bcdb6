package printing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/png" // register the PNG decoder for DecodeConfig
	"math"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	defaultChromeTimeout = 60 * time.Second
	defaultDeviceScale   = 2.0
	cssPixelsPerInch     = 96.0
)

// Raster is a full-page bitmap of a rendered document
type Raster struct {
	PNG    []byte
	Width  int // device pixels
	Height int // device pixels
	Scale  float64
	// WidthMM is the physical width the capture covers. The viewport is a
	// whole number of CSS pixels, so it is slightly wider than the page.
	// Zero means unknown; the image is then fitted to the page width.
	WidthMM  float64
	Duration time.Duration
}

// Rasterizer captures an HTML document as one tall image
type Rasterizer interface {
	Rasterize(ctx context.Context, html []byte, pageWidthMM float64) (*Raster, error)
	Close() error
}

// ChromedpConfig contains configuration for the chromedp rasterizer
type ChromedpConfig struct {
	// Timeout bounds a single capture, independent of the caller's context
	Timeout time.Duration
	// RemoteURL is the DevTools websocket of a running Chrome (optional).
	// If empty, chromedp launches its own browser.
	RemoteURL string
	// DeviceScale is the device scale factor used for the capture (default 2)
	DeviceScale float64
	// NoSandbox runs Chrome without sandbox (required for Docker/root)
	NoSandbox bool
	Logger    *zap.Logger
}

// ChromedpRasterizer renders HTML to PNG through the Chrome DevTools Protocol
type ChromedpRasterizer struct {
	config      ChromedpConfig
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromedpRasterizer creates a rasterizer and its browser allocator
func NewChromedpRasterizer(config ChromedpConfig) *ChromedpRasterizer {
	if config.Timeout <= 0 {
		config.Timeout = defaultChromeTimeout
	}
	if config.DeviceScale <= 0 {
		config.DeviceScale = defaultDeviceScale
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &ChromedpRasterizer{config: config, logger: logger}
	r.allocCtx, r.allocCancel = newAllocator(config)
	return r
}

func newAllocator(config ChromedpConfig) (context.Context, context.CancelFunc) {
	if config.RemoteURL != "" {
		return chromedp.NewRemoteAllocator(context.Background(), config.RemoteURL)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true), // Docker's /dev/shm is tiny
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("font-render-hinting", "none"),
		chromedp.Flag("hide-scrollbars", true),
	)
	if config.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	return chromedp.NewExecAllocator(context.Background(), opts...)
}

// Scale returns the device scale factor used for captures
func (r *ChromedpRasterizer) Scale() float64 {
	return r.config.DeviceScale
}

// Rasterize loads the document into a fresh tab sized to the page width and
// captures the whole page. The capture is not cancelled with the caller's
// context; only the configured timeout stops it.
func (r *ChromedpRasterizer) Rasterize(ctx context.Context, html []byte, pageWidthMM float64) (*Raster, error) {
	if len(bytes.TrimSpace(html)) == 0 {
		return nil, NewRenderError(ErrCodeInvalidHTML, "HTML content is empty", nil)
	}
	if pageWidthMM <= 0 {
		return nil, NewRenderError(ErrCodeInvalidPaperSize, fmt.Sprintf("invalid page width %.1fmm", pageWidthMM), nil)
	}

	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.config.Timeout)
	defer cancel()

	tabCtx, tabCancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer tabCancel()

	// tie the tab to the timeout
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	width := mmToPixels(pageWidthMM)
	var png []byte

	err := chromedp.Run(tabCtx,
		chromedp.EmulateViewport(width, mmToPixels(pageWidthMM*1.414), chromedp.EmulateScale(r.config.DeviceScale)),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.FullScreenshot(&png, 100),
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewRenderError(ErrCodeRenderTimeout,
				fmt.Sprintf("rasterization timed out after %v", r.config.Timeout), err)
		}
		r.logger.Error("chromedp rasterization failed", zap.Error(err))
		return nil, NewRenderError(ErrCodeRenderFailed, "chromedp execution failed: "+err.Error(), err)
	}

	raster, err := newRaster(png, r.config.DeviceScale)
	if err != nil {
		return nil, err
	}
	raster.WidthMM = pixelsToMM(width)
	raster.Duration = time.Since(startTime)

	r.logger.Info("document rasterized",
		zap.Int("width", raster.Width),
		zap.Int("height", raster.Height),
		zap.Int("bytes", len(png)),
		zap.Duration("duration", raster.Duration))

	return raster, nil
}

// newRaster reads the bitmap dimensions from the PNG header
func newRaster(png []byte, scale float64) (*Raster, error) {
	if len(png) == 0 {
		return nil, NewRenderError(ErrCodeRenderFailed, "captured image is empty", nil)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(png))
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "captured image is unreadable", err)
	}
	if format != "png" {
		return nil, NewRenderError(ErrCodeRenderFailed, "captured image is "+format+", expected png", nil)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, NewRenderError(ErrCodeEmptyDocument, "captured image has no area", nil)
	}
	return &Raster{PNG: png, Width: cfg.Width, Height: cfg.Height, Scale: scale}, nil
}

// Close releases the browser allocator
func (r *ChromedpRasterizer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

// mmToInches converts millimeters to inches
func mmToInches(mm float64) float64 {
	return mm / 25.4
}

// mmToPixels converts millimeters to whole CSS pixels, rounding up so the
// page never clips
func mmToPixels(mm float64) int64 {
	return int64(math.Ceil(mmToInches(mm) * cssPixelsPerInch))
}

// pixelsToMM converts CSS pixels to millimeters
func pixelsToMM(px int64) float64 {
	return float64(px) / cssPixelsPerInch * 25.4
}

var _ Rasterizer = (*ChromedpRasterizer)(nil)
