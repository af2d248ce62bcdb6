package printing

import (
	"io"
	"time"

	domain "github.com/datapadi/web/internal/domain/printing"
	"github.com/datapadi/web/internal/domain/voucher"
)

// SelectionRequest names the vouchers to render: either a set of inventory
// batch ids, or a single print order reference for ad-hoc printing.
type SelectionRequest struct {
	BatchIDs []string `json:"batch_ids" binding:"required_without=OrderRef,omitempty,max=50,dive,required"`
	OrderRef string   `json:"order_ref" binding:"omitempty,max=64"`
	Columns  int      `json:"columns" binding:"omitempty,oneof=3 4"`
	Compact  bool     `json:"compact"`

	// ScriptNonce is the CSP nonce of the response the sheet is served in
	ScriptNonce string `json:"-"`
}

// SummaryDTO holds the header totals of a voucher document
type SummaryDTO struct {
	Batches    int    `json:"batches"`
	Vouchers   int    `json:"vouchers"`
	TotalValue int64  `json:"total_value"`
	Formatted  string `json:"total_value_formatted"`
}

// LayoutDTO describes the grid a document was rendered with
type LayoutDTO struct {
	Paper        string  `json:"paper"`
	Columns      int     `json:"columns"`
	CardHeightMM float64 `json:"card_height_mm"`
}

// PreviewResponse is the printable HTML document plus its hand-off job
type PreviewResponse struct {
	HTML      []byte       `json:"-"`
	PageCount int          `json:"page_count"`
	Summary   SummaryDTO   `json:"summary"`
	Job       *JobResponse `json:"job,omitempty"`
}

// JobResponse represents an export job
type JobResponse struct {
	ID           string     `json:"id"`
	Channel      string     `json:"channel"`
	Status       string     `json:"status"`
	BatchIDs     []string   `json:"batch_ids"`
	VoucherCount int        `json:"voucher_count"`
	PageCount    int        `json:"page_count"`
	Fingerprint  string     `json:"fingerprint"`
	Layout       LayoutDTO  `json:"layout"`
	FileName     string     `json:"file_name,omitempty"`
	FileSize     int64      `json:"file_size,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	ReprintOf    string     `json:"reprint_of,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// ListJobsRequest represents a request to list export jobs
type ListJobsRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Channel  string `form:"channel" binding:"omitempty,oneof=PRINT PDF WORKBOOK"`
	Status   string `form:"status" binding:"omitempty,oneof=PENDING RENDERING COMPLETED FAILED"`
}

// ListJobsResponse represents a paginated list of export jobs
type ListJobsResponse struct {
	Items []JobResponse `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Size  int           `json:"size"`
}

// Download is a stored artifact ready to hand to the client. Exactly one of
// RedirectURL and Body is set.
type Download struct {
	FileName    string
	ContentType string
	Size        int64
	RedirectURL string
	ExpiresAt   time.Time
	Body        io.ReadCloser
}

// PagePreviewResponse is one PDF page rendered to PNG
type PagePreviewResponse struct {
	PNG    []byte
	Page   int
	Pages  int
	Width  int
	Height int
}

// ExportStatusResponse tells whether the caller has an export in flight
type ExportStatusResponse struct {
	Exporting bool `json:"exporting"`
}

// GeneratePinsRequest asks the backend to issue a batch of PINs
type GeneratePinsRequest struct {
	Network  string `json:"network" binding:"required,network"`
	Value    int64  `json:"value" binding:"required,pin_value"`
	Quantity int    `json:"quantity" binding:"required,min=1,max=100"`
}

// GeneratePinsResponse carries the backend acknowledgement
type GeneratePinsResponse struct {
	Message string `json:"message"`
}

// PinDTO is one PIN of a batch
type PinDTO struct {
	PinCode      string `json:"pin_code"`
	Formatted    string `json:"formatted"`
	SerialNumber string `json:"serial_number,omitempty"`
	Denomination int64  `json:"denomination"`
	Dial         string `json:"dial"`
}

// BatchResponse is one print batch as listed in the inventory
type BatchResponse struct {
	ID        string    `json:"id"`
	Network   string    `json:"network"`
	Amount    int64     `json:"amount"`
	Quantity  int       `json:"quantity"`
	Status    string    `json:"status"`
	Printable bool      `json:"printable"`
	CreatedAt time.Time `json:"created_at"`
	Pins      []PinDTO  `json:"pins,omitempty"`
}

// InventoryResponse lists the recent print batches
type InventoryResponse struct {
	Batches   []BatchResponse `json:"batches"`
	Printable int             `json:"printable"`
}

func toJobResponse(j *domain.ExportJob) *JobResponse {
	resp := &JobResponse{
		ID:           j.ID.String(),
		Channel:      j.Channel.String(),
		Status:       j.Status.String(),
		BatchIDs:     j.BatchIDs,
		VoucherCount: j.VoucherCount,
		PageCount:    j.PageCount,
		Fingerprint:  j.Fingerprint,
		Layout: LayoutDTO{
			Paper:        j.Layout.Paper.String(),
			Columns:      j.Layout.Columns,
			CardHeightMM: j.Layout.CardHeightMM,
		},
		FileSize:     j.FileSize,
		ErrorMessage: j.ErrorMessage,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
		CompletedAt:  j.CompletedAt,
	}
	if j.HasFile() {
		resp.FileName = j.FileName()
	}
	return resp
}

func toBatchResponse(b voucher.PrintBatch, withPins bool) BatchResponse {
	resp := BatchResponse{
		ID:        b.ID,
		Network:   b.Network.String(),
		Amount:    b.Amount,
		Quantity:  b.Quantity,
		Status:    b.Status.String(),
		Printable: b.IsPrintable(),
		CreatedAt: b.CreatedAt,
	}
	if withPins {
		for _, it := range voucher.FlattenBatch(b) {
			resp.Pins = append(resp.Pins, PinDTO{
				PinCode:      it.PinCode,
				Formatted:    it.FormattedPin(),
				SerialNumber: it.SerialNumber,
				Denomination: it.Denomination,
				Dial:         it.DialInstruction(),
			})
		}
	}
	return resp
}
