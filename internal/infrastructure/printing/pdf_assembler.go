package printing

import (
	"bytes"
	"fmt"
	"time"

	"github.com/datapadi/web/internal/domain/printing"
	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
)

const rasterImageName = "sheet"

// AssembledPDF is a finished PDF document
type AssembledPDF struct {
	Data       []byte
	PageCount  int
	Pagination Pagination
}

// PDFAssembler places a rasterized sheet onto PDF pages
type PDFAssembler struct {
	title   string
	creator string
	logger  *zap.Logger
	now     func() time.Time
}

// NewPDFAssembler creates an assembler; title and creator end up in the PDF metadata
func NewPDFAssembler(title, creator string, logger *zap.Logger) *PDFAssembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PDFAssembler{title: title, creator: creator, logger: logger, now: time.Now}
}

// Assemble slices the raster into page-height bands and embeds it once per
// page. Each page places the same image at its captured width and
// y = -(page index * page height), so the page shows its own band.
func (a *PDFAssembler) Assemble(raster *Raster, layout printing.SheetLayout) (*AssembledPDF, error) {
	if raster == nil || len(raster.PNG) == 0 {
		return nil, NewRenderError(ErrCodeEmptyDocument, "nothing was rasterized", nil)
	}
	if !layout.Paper.IsValid() {
		return nil, NewRenderError(ErrCodeInvalidPaperSize, "invalid paper size: "+layout.Paper.String(), nil)
	}

	pageW, pageH := layout.PageSizeMM()
	plan, err := Paginate(raster.Width, raster.Height, raster.WidthMM, pageW, pageH)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: pageW, Ht: pageH},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(a.title, true)
	pdf.SetCreator(a.creator, true)
	pdf.SetCreationDate(a.now())

	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader(rasterImageName, opts, bytes.NewReader(raster.PNG))
	if err := pdf.Error(); err != nil {
		return nil, NewRenderError(ErrCodeAssemblyFailed, "failed to embed rasterized sheet", err)
	}

	for _, p := range plan.Pages {
		pdf.AddPage()
		pdf.ImageOptions(rasterImageName, 0, p.OffsetMM, plan.ImageWidthMM, plan.ScaledHeightMM, false, opts, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, NewRenderError(ErrCodeAssemblyFailed, "failed to write PDF", err)
	}

	data := buf.Bytes()
	if counted := estimatePageCount(data); counted != plan.PageCount() {
		a.logger.Warn("assembled PDF page count differs from plan",
			zap.Int("planned", plan.PageCount()),
			zap.Int("counted", counted))
	}

	return &AssembledPDF{Data: data, PageCount: plan.PageCount(), Pagination: plan}, nil
}

// estimatePageCount counts page objects in a PDF
func estimatePageCount(pdfData []byte) int {
	count := bytes.Count(pdfData, []byte("/Type /Page"))
	// "/Type /Pages" also matches the prefix above
	parentCount := bytes.Count(pdfData, []byte("/Type /Pages"))
	count = count - parentCount
	return max(count, 1)
}

// String describes the plan for logs
func (p Pagination) String() string {
	return fmt.Sprintf("%d page(s) of %.1fx%.1fmm, image %.1fmm tall",
		p.PageCount(), p.PageWidthMM, p.PageHeightMM, p.ScaledHeightMM)
}
