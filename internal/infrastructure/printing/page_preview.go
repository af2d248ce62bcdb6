package printing

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
)

const (
	DefaultPreviewDPI = 72.0
	MaxPreviewDPI     = 300.0
)

// PagePreview is a PNG rendering of one page of a stored PDF
type PagePreview struct {
	PNG    []byte
	Page   int // 1-based
	Pages  int
	Width  int
	Height int
}

// RenderPagePreview rasterizes one page (1-based) of a PDF with MuPDF
func RenderPagePreview(pdfData []byte, pageNumber int, dpi float64) (*PagePreview, error) {
	if len(pdfData) == 0 {
		return nil, NewRenderError(ErrCodeEmptyDocument, "PDF is empty", nil)
	}
	if dpi <= 0 {
		dpi = DefaultPreviewDPI
	}
	dpi = min(dpi, MaxPreviewDPI)

	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to open PDF", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	if pageNumber < 1 || pageNumber > pages {
		return nil, NewRenderError(ErrCodeNotFound,
			fmt.Sprintf("page %d out of range (document has %d)", pageNumber, pages), nil)
	}

	img, err := doc.ImageDPI(pageNumber-1, dpi)
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, fmt.Sprintf("failed to render page %d", pageNumber), err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to encode page preview", err)
	}

	bounds := img.Bounds()
	return &PagePreview{
		PNG:    buf.Bytes(),
		Page:   pageNumber,
		Pages:  pages,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
