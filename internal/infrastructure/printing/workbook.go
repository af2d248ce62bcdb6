package printing

import (
	"fmt"
	"time"

	"github.com/datapadi/web/internal/domain/shared/valueobject"
	"github.com/datapadi/web/internal/domain/voucher"
	"github.com/xuri/excelize/v2"
)

const (
	VoucherSheet = "Vouchers"
	SummarySheet = "Summary"
)

var voucherColumns = []any{"#", "Network", "Denomination", "PIN", "Serial Number", "Dial", "Batch"}

// WorkbookWriter writes the ordered voucher list as an XLSX workbook
type WorkbookWriter struct {
	currency valueobject.Currency
	now      func() time.Time
}

// NewWorkbookWriter creates a workbook writer
func NewWorkbookWriter(currency valueobject.Currency) *WorkbookWriter {
	if currency.IsZero() {
		currency = valueobject.NGN
	}
	return &WorkbookWriter{currency: currency, now: time.Now}
}

// Write builds the workbook. Rows follow the item order exactly; PINs and
// serials are stored as text so leading zeros survive.
func (w *WorkbookWriter) Write(items []voucher.VoucherItem) ([]byte, error) {
	if len(items) == 0 {
		return nil, ErrNothingToRender
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", VoucherSheet); err != nil {
		return nil, workbookError("rename sheet", err)
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E5E7EB"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, workbookError("create header style", err)
	}
	amount, err := f.NewStyle(&excelize.Style{NumFmt: 3})
	if err != nil {
		return nil, workbookError("create amount style", err)
	}

	if err := f.SetSheetRow(VoucherSheet, "A1", &voucherColumns); err != nil {
		return nil, workbookError("write header", err)
	}
	if err := f.SetCellStyle(VoucherSheet, "A1", "G1", header); err != nil {
		return nil, workbookError("style header", err)
	}

	for i, it := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, workbookError("address row", err)
		}
		row := []any{i + 1, it.Network.String(), it.Denomination, it.FormattedPin(), it.SerialNumber, it.DialInstruction(), it.BatchID}
		if err := f.SetSheetRow(VoucherSheet, cell, &row); err != nil {
			return nil, workbookError(fmt.Sprintf("write row %d", i+1), err)
		}
	}
	last := fmt.Sprintf("C%d", len(items)+1)
	if err := f.SetCellStyle(VoucherSheet, "C2", last, amount); err != nil {
		return nil, workbookError("style amounts", err)
	}

	widths := map[string]float64{"A": 6, "B": 10, "C": 14, "D": 26, "E": 22, "F": 26, "G": 38}
	for col, width := range widths {
		if err := f.SetColWidth(VoucherSheet, col, col, width); err != nil {
			return nil, workbookError("size columns", err)
		}
	}
	if err := f.SetPanes(VoucherSheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return nil, workbookError("freeze header", err)
	}

	if err := w.writeSummary(f, items, header); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, workbookError("serialize workbook", err)
	}
	return buf.Bytes(), nil
}

func (w *WorkbookWriter) writeSummary(f *excelize.File, items []voucher.VoucherItem, header int) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return workbookError("add summary sheet", err)
	}

	s := voucher.Summarize(items)
	rows := [][]any{
		{"Generated", w.now().Format(time.RFC3339)},
		{"Batches", s.Batches},
		{"Vouchers", s.Vouchers},
		{"Total value", w.currency.Format(s.TotalValue)},
		{"Fingerprint", voucher.Fingerprint(items)},
	}
	for i := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SummarySheet, cell, &rows[i]); err != nil {
			return workbookError("write summary", err)
		}
	}
	if err := f.SetCellStyle(SummarySheet, "A1", fmt.Sprintf("A%d", len(rows)), header); err != nil {
		return workbookError("style summary", err)
	}
	return f.SetColWidth(SummarySheet, "A", "B", 24)
}

func workbookError(step string, err error) error {
	return NewRenderError(ErrCodeAssemblyFailed, "failed to "+step, err)
}
