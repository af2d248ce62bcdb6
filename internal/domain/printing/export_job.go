package printing

import (
	"fmt"
	"strings"
	"time"

	"github.com/datapadi/web/internal/domain/shared"
)

// ExportJob records one voucher document produced for a user: which batches
// went in, how many cards, the content fingerprint and where the artifact lives.
type ExportJob struct {
	shared.Owned
	Channel      Channel     // Output channel
	Status       JobStatus   // Current job status
	BatchIDs     []string    // Source batches in document order
	VoucherCount int         // Number of cards in the document
	PageCount    int         // Pages produced (0 until rendered)
	Fingerprint  string      // Digest of the ordered pin/serial pairs
	Layout       SheetLayout // Grid used to render the document
	FileKey      string      // Storage key of the artifact
	FileSize     int64       // Artifact size in bytes
	ErrorMessage string      // Error message if job failed
	CompletedAt  *time.Time
}

// NewExportJob creates a pending export job
func NewExportJob(
	ownerID string,
	channel Channel,
	batchIDs []string,
	voucherCount int,
	fingerprint string,
	layout SheetLayout,
) (*ExportJob, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner ID cannot be empty")
	}
	if !channel.IsValid() {
		return nil, shared.NewDomainError("INVALID_CHANNEL", "Invalid output channel: "+channel.String())
	}
	if voucherCount < 1 {
		return nil, shared.NewDomainError("EMPTY_DOCUMENT", "A voucher document needs at least one voucher")
	}
	if fingerprint == "" {
		return nil, shared.NewDomainError("INVALID_FINGERPRINT", "Fingerprint cannot be empty")
	}

	ids := make([]string, len(batchIDs))
	copy(ids, batchIDs)

	return &ExportJob{
		Owned:        shared.NewOwned(ownerID),
		Channel:      channel,
		Status:       JobStatusPending,
		BatchIDs:     ids,
		VoucherCount: voucherCount,
		Fingerprint:  fingerprint,
		Layout:       layout,
	}, nil
}

// StartRendering marks the job as rendering
func (j *ExportJob) StartRendering() error {
	if !j.Status.CanTransitionTo(JobStatusRendering) {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Cannot start rendering from status: "+j.Status.String())
	}

	j.Status = JobStatusRendering
	j.Changed(time.Now())
	return nil
}

// Complete marks a file-producing job as completed with its stored artifact
func (j *ExportJob) Complete(fileKey string, fileSize int64, pageCount int) error {
	if !j.Status.CanTransitionTo(JobStatusCompleted) {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Cannot complete from status: "+j.Status.String())
	}
	if j.Channel.ProducesFile() && fileKey == "" {
		return shared.NewDomainError("INVALID_FILE_KEY", "File key cannot be empty")
	}
	if pageCount < 0 {
		return shared.NewDomainError("INVALID_PAGE_COUNT", "Page count cannot be negative")
	}

	now := time.Now()
	j.Status = JobStatusCompleted
	j.FileKey = fileKey
	j.FileSize = fileSize
	j.PageCount = pageCount
	j.CompletedAt = &now
	j.Changed(now)
	return nil
}

// HandOff completes a print-channel job. The browser print dialog owns the
// document from here on; nothing is known about whether it was printed.
func (j *ExportJob) HandOff(pageCount int) error {
	if j.Channel != ChannelPrint {
		return shared.NewDomainError(shared.CodeInvalidState, "Only print jobs can be handed off")
	}
	return j.Complete("", 0, pageCount)
}

// Fail marks the job as failed with an error message
func (j *ExportJob) Fail(errorMessage string) error {
	if j.Status.IsTerminal() {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Cannot fail a job that is already in terminal status: "+j.Status.String())
	}

	j.Status = JobStatusFailed
	j.ErrorMessage = errorMessage
	j.Changed(time.Now())
	return nil
}

// IsCompleted returns true if the job is completed
func (j *ExportJob) IsCompleted() bool {
	return j.Status == JobStatusCompleted
}

// IsFailed returns true if the job failed
func (j *ExportJob) IsFailed() bool {
	return j.Status == JobStatusFailed
}

// IsTerminal returns true if the job is in a terminal state
func (j *ExportJob) IsTerminal() bool {
	return j.Status.IsTerminal()
}

// HasFile returns true if an artifact was stored
func (j *ExportJob) HasFile() bool {
	return j.FileKey != ""
}

// FileName returns the download file name for the artifact
func (j *ExportJob) FileName() string {
	ext := "pdf"
	if j.Channel == ChannelWorkbook {
		ext = "xlsx"
	}
	return fmt.Sprintf("vouchers-%s-%s.%s", j.CreatedAt.Format("20060102"), j.ID.String()[:8], ext)
}

// ContentType returns the MIME type of the artifact
func (j *ExportJob) ContentType() string {
	switch j.Channel {
	case ChannelWorkbook:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ChannelPDF:
		return "application/pdf"
	default:
		return "text/html; charset=utf-8"
	}
}
