package printing

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strconv"

	"github.com/datapadi/web/internal/domain/printing"
	"github.com/datapadi/web/internal/domain/shared/valueobject"
	"github.com/datapadi/web/internal/domain/voucher"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const sheetTemplate = "templates/sheet.html.tmpl"

// ErrNothingToRender is returned when a document would contain no vouchers.
// No document is produced and no job should be recorded.
var ErrNothingToRender = errors.New("nothing to render")

// Mode selects which flavour of the sheet document is produced
type Mode string

const (
	// ModePrint produces the live document with the print stylesheet and toolbar
	ModePrint Mode = "print"
	// ModeExport produces the export clone handed to the rasterizer
	ModeExport Mode = "export"
)

// LayoutConfig configures the layout renderer
type LayoutConfig struct {
	// Layout is the grid used when a request does not carry its own
	Layout printing.SheetLayout
	// Currency used for denominations and totals
	Currency valueobject.Currency
	// BrandName is printed on every card
	BrandName string
	// TemplateDir optionally overrides the embedded sheet template.
	// A sheet.html.tmpl found there wins over the embedded one.
	TemplateDir string
}

// DocumentRequest is one voucher document to lay out
type DocumentRequest struct {
	Items  []voucher.VoucherItem
	Layout printing.SheetLayout // zero value uses the configured layout
	Title  string
	// AutoPrint opens the print dialog as soon as the document loads (print mode only)
	AutoPrint bool
	// ScriptNonce must match the script-src nonce of the serving response
	ScriptNonce string
}

// Document is a rendered sheet document
type Document struct {
	HTML      []byte
	Mode      Mode
	Layout    printing.SheetLayout
	PageCount int
	Summary   voucher.Summary
}

// LayoutRenderer lays voucher cards out on fixed-size sheets
type LayoutRenderer struct {
	config   LayoutConfig
	tmpl     *template.Template
	titler   cases.Caser
	currency valueobject.Currency
}

// NewLayoutRenderer parses the sheet template and returns a renderer
func NewLayoutRenderer(cfg LayoutConfig) (*LayoutRenderer, error) {
	if cfg.Layout.Columns == 0 {
		cfg.Layout = printing.DefaultSheetLayout()
	}
	if cfg.Currency.IsZero() {
		cfg.Currency = valueobject.NGN
	}
	if cfg.BrandName == "" {
		cfg.BrandName = "DataPadi"
	}

	content, err := loadSheetTemplate(cfg.TemplateDir)
	if err != nil {
		return nil, err
	}

	r := &LayoutRenderer{
		config:   cfg,
		titler:   cases.Title(language.English),
		currency: cfg.Currency,
	}

	tmpl, err := template.New("sheet").Funcs(template.FuncMap{
		"plural": plural,
	}).Parse(content)
	if err != nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "failed to parse sheet template", err)
	}
	r.tmpl = tmpl
	return r, nil
}

func loadSheetTemplate(dir string) (string, error) {
	if dir != "" {
		if content, err := os.ReadFile(filepath.Join(dir, filepath.Base(sheetTemplate))); err == nil {
			return string(content), nil
		}
	}
	content, err := templateFS.ReadFile(sheetTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to read template file %s: %w", sheetTemplate, err)
	}
	return string(content), nil
}

// DefaultLayout returns the configured grid
func (r *LayoutRenderer) DefaultLayout() printing.SheetLayout {
	return r.config.Layout
}

// Currency returns the currency used for amounts
func (r *LayoutRenderer) Currency() valueobject.Currency {
	return r.currency
}

// RenderPrintDocument renders the live document with the print stylesheet
func (r *LayoutRenderer) RenderPrintDocument(req DocumentRequest) (*Document, error) {
	return r.render(req, ModePrint)
}

// RenderExportDocument renders the export clone: same layout, export-safe
// colors, a fixed page width and no scripts.
func (r *LayoutRenderer) RenderExportDocument(req DocumentRequest) (*Document, error) {
	req.AutoPrint = false
	req.ScriptNonce = ""
	return r.render(req, ModeExport)
}

type sheetView struct {
	Title     string
	Brand     string
	Mode      Mode
	Print     bool
	AutoPrint bool
	Nonce     string
	Compact   bool
	CSS       template.CSS
	Summary   summaryView
	Pages     []pageView
}

type summaryView struct {
	Batches    int
	Vouchers   int
	TotalValue string
}

type pageView struct {
	Number int
	Cards  []cardView
}

type cardView struct {
	Blank           bool
	Network         string
	BadgeBackground template.CSS
	BadgeForeground template.CSS
	Amount          string
	Pin             string
	Serial          string
	Dial            string
	Brand           string
}

func (r *LayoutRenderer) render(req DocumentRequest, mode Mode) (*Document, error) {
	if len(req.Items) == 0 {
		return nil, ErrNothingToRender
	}

	layout := req.Layout
	if layout.Columns == 0 {
		layout = r.config.Layout
	}
	if !layout.Paper.IsValid() {
		return nil, NewRenderError(ErrCodeInvalidPaperSize, "invalid paper size: "+layout.Paper.String(), nil)
	}
	if layout.CardsPerPage() < 1 {
		return nil, NewRenderError(ErrCodeInvalidHTML, "card height does not fit on a page", nil)
	}

	styles := sheetStyles(layout, mode)
	if mode == ModeExport {
		styles = ProjectExportSafe(styles)
	}

	summary := voucher.Summarize(req.Items)
	title := req.Title
	if title == "" {
		title = r.titler.String(r.config.BrandName) + " Vouchers"
	}

	view := sheetView{
		Title:     title,
		Brand:     r.config.BrandName,
		Mode:      mode,
		Print:     mode == ModePrint,
		AutoPrint: mode == ModePrint && req.AutoPrint,
		Nonce:     req.ScriptNonce,
		Compact:   layout.CardHeightMM < printing.CardHeightStandard/1.5,
		CSS:       template.CSS(styles.CSS()),
		Summary: summaryView{
			Batches:    summary.Batches,
			Vouchers:   summary.Vouchers,
			TotalValue: r.currency.Format(summary.TotalValue),
		},
		Pages: r.paginateCards(req.Items, layout),
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, view); err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to execute sheet template", err)
	}

	return &Document{
		HTML:      buf.Bytes(),
		Mode:      mode,
		Layout:    layout,
		PageCount: len(view.Pages),
		Summary:   summary,
	}, nil
}

// paginateCards chunks the items into pages of CardsPerPage and pads each
// page's last row with blank cells so every row keeps the grid width.
func (r *LayoutRenderer) paginateCards(items []voucher.VoucherItem, layout printing.SheetLayout) []pageView {
	per := layout.CardsPerPage()
	pages := make([]pageView, 0, layout.PageCount(len(items)))

	for start := 0; start < len(items); start += per {
		end := min(start+per, len(items))
		chunk := items[start:end]

		cells := len(chunk)
		if rem := cells % layout.Columns; rem != 0 {
			cells += layout.Columns - rem
		}

		cards := make([]cardView, cells)
		for i, it := range chunk {
			cards[i] = r.card(it)
		}
		for i := len(chunk); i < cells; i++ {
			cards[i] = cardView{Blank: true}
		}
		pages = append(pages, pageView{Number: len(pages) + 1, Cards: cards})
	}
	return pages
}

func (r *LayoutRenderer) card(it voucher.VoucherItem) cardView {
	badge := it.Network.Badge()
	return cardView{
		Network:         it.Network.String(),
		BadgeBackground: template.CSS(badge.Background),
		BadgeForeground: template.CSS(badge.Foreground),
		Amount:          r.currency.Format(it.Denomination),
		Pin:             it.FormattedPin(),
		Serial:          it.SerialNumber,
		Dial:            it.DialInstruction(),
		Brand:           r.config.BrandName,
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func mm(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "mm"
}

// sheetStyles builds the live stylesheet for a layout. Theme colors are
// written in oklch; the export path projects them before rasterizing.
func sheetStyles(layout printing.SheetLayout, mode Mode) StyleSet {
	pageW, pageH := layout.PageSizeMM()
	m := layout.Margins

	decl := func(pairs ...string) []Declaration {
		out := make([]Declaration, 0, len(pairs)/2)
		for i := 0; i+1 < len(pairs); i += 2 {
			out = append(out, Declaration{Property: pairs[i], Value: pairs[i+1]})
		}
		return out
	}

	styles := StyleSet{
		{Selector: ":root", Declarations: decl(
			"--ink", "oklch(0.21 0.034 264.665)",
			"--muted", "oklch(0.551 0.027 264.364)",
			"--line", "oklch(0.872 0.01 258.338)",
			"--paper", "oklch(1 0 0)",
			"--accent", "oklch(0.546 0.245 262.881)",
		)},
		{Selector: "@page", Declarations: decl(
			"size", layout.Paper.CSSName()+" portrait",
			"margin", "0",
		)},
		{Selector: "*", Declarations: decl(
			"box-sizing", "border-box",
			"margin", "0",
			"padding", "0",
		)},
		{Selector: "html, body", Declarations: decl(
			"-webkit-print-color-adjust", "exact",
			"print-color-adjust", "exact",
		)},
		{Selector: "body", Declarations: decl(
			"font-family", "'Helvetica Neue', Arial, sans-serif",
			"color", "var(--ink)",
			"background", "var(--paper)",
		)},
		{Selector: ".sheet", Declarations: decl(
			"width", mm(pageW),
			"height", mm(pageH),
			"padding", fmt.Sprintf("%s %s %s %s",
				mm(float64(m.Top)), mm(float64(m.Right)), mm(float64(m.Bottom)), mm(float64(m.Left))),
			"background", "var(--paper)",
			"overflow", "hidden",
			"display", "grid",
			"grid-template-columns", fmt.Sprintf("repeat(%d, %s)", layout.Columns, mm(layout.CardWidthMM())),
			"grid-auto-rows", mm(layout.CardHeightMM),
			"align-content", "start",
			"page-break-after", "always",
			"break-after", "page",
		)},
		{Selector: ".sheet:last-child", Declarations: decl(
			"page-break-after", "auto",
			"break-after", "auto",
		)},
		{Selector: ".card", Declarations: decl(
			"border", "1px dashed var(--line)",
			"padding", "2mm 3mm",
			"display", "flex",
			"flex-direction", "column",
			"justify-content", "space-between",
			"overflow", "hidden",
			"page-break-inside", "avoid",
			"break-inside", "avoid",
		)},
		{Selector: ".card.blank", Declarations: decl("border-color", "transparent")},
		{Selector: ".card-head", Declarations: decl(
			"display", "flex",
			"justify-content", "space-between",
			"align-items", "center",
		)},
		{Selector: ".badge", Declarations: decl(
			"font-size", "8pt",
			"font-weight", "700",
			"padding", "0.5mm 2mm",
			"border-radius", "1mm",
		)},
		{Selector: ".amount", Declarations: decl(
			"font-size", "11pt",
			"font-weight", "700",
			"color", "var(--accent)",
		)},
		{Selector: ".pin-label", Declarations: decl(
			"font-size", "6pt",
			"letter-spacing", "0.5pt",
			"color", "var(--muted)",
		)},
		{Selector: ".pin", Declarations: decl(
			"font-family", "'Courier New', monospace",
			"font-size", "12pt",
			"font-weight", "700",
			"letter-spacing", "0.5pt",
		)},
		{Selector: ".serial, .dial, .brand", Declarations: decl(
			"font-size", "7pt",
			"color", "var(--muted)",
		)},
		{Selector: ".compact .pin", Declarations: decl("font-size", "10pt")},
		{Selector: ".compact .pin-label, .compact .dial", Declarations: decl("display", "none")},
	}

	if mode == ModeExport {
		styles = append(styles, StyleRule{Selector: "html, body", Declarations: decl(
			"width", mm(pageW),
			"background", "var(--paper)",
		)})
	}
	return styles
}
