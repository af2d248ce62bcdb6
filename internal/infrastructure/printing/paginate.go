package printing

import (
	"fmt"
	"math"
)

// paginationEpsilon absorbs float noise so an image exactly N pages tall
// does not spill an empty extra page.
const paginationEpsilon = 1e-6

// PageSlice is one page window onto the tall sheet image
type PageSlice struct {
	Index int
	// OffsetMM is the vertical position of the image's top edge on this
	// page: zero on the first page, then -(Index * page height).
	OffsetMM float64
}

// Pagination is the slicing plan for a rasterized sheet
type Pagination struct {
	PageWidthMM    float64
	PageHeightMM   float64
	ImageWidthMM   float64 // width the image is placed at
	ScaledHeightMM float64 // image height at that width
	Pages          []PageSlice
}

// PageCount returns the number of pages
func (p Pagination) PageCount() int {
	return len(p.Pages)
}

// PageCountFor returns ceil(scaledHeight / pageHeight) for a positive image
func PageCountFor(scaledHeight, pageHeight float64) int {
	if scaledHeight <= 0 || pageHeight <= 0 {
		return 0
	}
	return int(math.Ceil(scaledHeight/pageHeight - paginationEpsilon))
}

// Paginate plans how an image of imgW x imgH pixels is cut into
// page-height bands. The image is placed at imageWidthMM, the physical
// width it was captured at, so one CSS millimeter stays one millimeter on
// paper and sheet boundaries land on page boundaries. A non-positive
// imageWidthMM fits the image to the page width instead.
func Paginate(imgW, imgH int, imageWidthMM, pageWidthMM, pageHeightMM float64) (Pagination, error) {
	if imgW <= 0 || imgH <= 0 {
		return Pagination{}, NewRenderError(ErrCodeEmptyDocument,
			fmt.Sprintf("rasterized image has no area (%dx%d)", imgW, imgH), nil)
	}
	if pageWidthMM <= 0 || pageHeightMM <= 0 {
		return Pagination{}, NewRenderError(ErrCodeInvalidPaperSize,
			fmt.Sprintf("invalid page size %.1fx%.1fmm", pageWidthMM, pageHeightMM), nil)
	}

	if imageWidthMM <= 0 {
		imageWidthMM = pageWidthMM
	}
	scaled := float64(imgH) * imageWidthMM / float64(imgW)
	count := PageCountFor(scaled, pageHeightMM)

	pages := make([]PageSlice, count)
	for i := range pages {
		pages[i] = PageSlice{Index: i, OffsetMM: -float64(i) * pageHeightMM}
	}

	return Pagination{
		PageWidthMM:    pageWidthMM,
		PageHeightMM:   pageHeightMM,
		ImageWidthMM:   imageWidthMM,
		ScaledHeightMM: scaled,
		Pages:          pages,
	}, nil
}
