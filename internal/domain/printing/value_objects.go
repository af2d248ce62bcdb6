package printing

import (
	"math"

	"github.com/datapadi/web/internal/domain/shared"
)

// Margins represents the page margins in millimeters
type Margins struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// NewMargins creates a new Margins value object
func NewMargins(top, right, bottom, left int) (Margins, error) {
	if top < 0 || right < 0 || bottom < 0 || left < 0 {
		return Margins{}, shared.NewDomainError("INVALID_MARGINS", "Margins cannot be negative")
	}
	if top > 50 || right > 50 || bottom > 50 || left > 50 {
		return Margins{}, shared.NewDomainError("INVALID_MARGINS", "Margins cannot exceed 50mm")
	}
	return Margins{Top: top, Right: right, Bottom: bottom, Left: left}, nil
}

// IsZero returns true if all margins are zero
func (m Margins) IsZero() bool {
	return m.Top == 0 && m.Right == 0 && m.Bottom == 0 && m.Left == 0
}

// Card height presets in millimeters
const (
	CardHeightStandard = 48.0
	CardHeightCompact  = 24.0
)

// Column bounds for the voucher grid
const (
	MinColumns = 3
	MaxColumns = 4
)

// SheetLayout describes the physical voucher grid: paper, columns and card size.
// Sheets are laid out page by page so a card never straddles a page boundary.
type SheetLayout struct {
	Paper        PaperSize `json:"paper"`
	Columns      int       `json:"columns"`
	CardHeightMM float64   `json:"card_height_mm"`
	Margins      Margins   `json:"margins"`
}

// NewSheetLayout validates and creates a layout
func NewSheetLayout(paper PaperSize, columns int, cardHeightMM float64, margins Margins) (SheetLayout, error) {
	if !paper.IsValid() {
		return SheetLayout{}, shared.NewDomainError("INVALID_PAPER_SIZE", "Unsupported paper size: "+paper.String())
	}
	if columns < MinColumns || columns > MaxColumns {
		return SheetLayout{}, shared.NewDomainError("INVALID_COLUMNS", "Voucher grid must have 3 or 4 columns")
	}
	l := SheetLayout{Paper: paper, Columns: columns, CardHeightMM: cardHeightMM, Margins: margins}
	if cardHeightMM <= 0 || l.RowsPerPage() < 1 {
		return SheetLayout{}, shared.NewDomainError("INVALID_CARD_HEIGHT", "Card height must fit on one page")
	}
	return l, nil
}

// DefaultSheetLayout returns the standard A4 four-column layout
func DefaultSheetLayout() SheetLayout {
	return SheetLayout{Paper: PaperSizeA4, Columns: MaxColumns, CardHeightMM: CardHeightStandard}
}

// PageSizeMM returns the page width and height in millimeters
func (l SheetLayout) PageSizeMM() (width, height float64) {
	return l.Paper.Dimensions()
}

// ContentWidthMM returns the printable width
func (l SheetLayout) ContentWidthMM() float64 {
	w, _ := l.PageSizeMM()
	return w - float64(l.Margins.Left+l.Margins.Right)
}

// ContentHeightMM returns the printable height
func (l SheetLayout) ContentHeightMM() float64 {
	_, h := l.PageSizeMM()
	return h - float64(l.Margins.Top+l.Margins.Bottom)
}

// CardWidthMM returns the width of a single card
func (l SheetLayout) CardWidthMM() float64 {
	if l.Columns <= 0 {
		return 0
	}
	return l.ContentWidthMM() / float64(l.Columns)
}

// RowsPerPage returns how many full card rows fit on one page
func (l SheetLayout) RowsPerPage() int {
	if l.CardHeightMM <= 0 {
		return 0
	}
	// small epsilon so 297/49.5 style exact fits are not lost to float error
	return int(math.Floor(l.ContentHeightMM()/l.CardHeightMM + 1e-9))
}

// CardsPerPage returns the card capacity of one page
func (l SheetLayout) CardsPerPage() int {
	return l.RowsPerPage() * l.Columns
}

// PageCount returns the number of pages needed for n cards
func (l SheetLayout) PageCount(n int) int {
	per := l.CardsPerPage()
	if n <= 0 || per <= 0 {
		return 0
	}
	return (n + per - 1) / per
}
