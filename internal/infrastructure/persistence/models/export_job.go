package models

import (
	"time"

	"github.com/datapadi/web/internal/domain/printing"
)

// ExportJobModel is the GORM model for export_jobs table
type ExportJobModel struct {
	OwnedColumns
	Channel      string           `gorm:"type:varchar(20);not null"`
	Status       string           `gorm:"type:varchar(20);not null;default:'PENDING'"`
	BatchIDs     []string         `gorm:"column:batch_ids;type:text;serializer:json"`
	VoucherCount int              `gorm:"column:voucher_count;not null"`
	PageCount    int              `gorm:"column:page_count;not null;default:0"`
	Fingerprint  string           `gorm:"type:varchar(64);not null;index"`
	PaperSize    string           `gorm:"column:paper_size;type:varchar(10);not null;default:'A4'"`
	Columns      int              `gorm:"not null;default:4"`
	CardHeightMM float64          `gorm:"column:card_height_mm;not null"`
	Margins      printing.Margins `gorm:"type:text;serializer:json"`
	FileKey      string           `gorm:"column:file_key;type:text"`
	FileSize     int64            `gorm:"column:file_size;not null;default:0"`
	ErrorMessage string           `gorm:"column:error_message;type:text"`
	CompletedAt  *time.Time       `gorm:"column:completed_at"`
}

// TableName returns the table name for ExportJobModel
func (ExportJobModel) TableName() string {
	return "export_jobs"
}

// ToDomain converts ExportJobModel to domain ExportJob
func (m *ExportJobModel) ToDomain() *printing.ExportJob {
	batchIDs := m.BatchIDs
	if batchIDs == nil {
		batchIDs = []string{}
	}
	return &printing.ExportJob{
		Owned:        m.owned(),
		Channel:      printing.Channel(m.Channel),
		Status:       printing.JobStatus(m.Status),
		BatchIDs:     batchIDs,
		VoucherCount: m.VoucherCount,
		PageCount:    m.PageCount,
		Fingerprint:  m.Fingerprint,
		Layout: printing.SheetLayout{
			Paper:        printing.PaperSize(m.PaperSize),
			Columns:      m.Columns,
			CardHeightMM: m.CardHeightMM,
			Margins:      m.Margins,
		},
		FileKey:      m.FileKey,
		FileSize:     m.FileSize,
		ErrorMessage: m.ErrorMessage,
		CompletedAt:  m.CompletedAt,
	}
}

// ExportJobModelFromDomain creates an ExportJobModel from domain ExportJob
func ExportJobModelFromDomain(j *printing.ExportJob) *ExportJobModel {
	return &ExportJobModel{
		OwnedColumns: ownedColumns(j.Owned),
		Channel:      string(j.Channel),
		Status:       string(j.Status),
		BatchIDs:     j.BatchIDs,
		VoucherCount: j.VoucherCount,
		PageCount:    j.PageCount,
		Fingerprint:  j.Fingerprint,
		PaperSize:    string(j.Layout.Paper),
		Columns:      j.Layout.Columns,
		CardHeightMM: j.Layout.CardHeightMM,
		Margins:      j.Layout.Margins,
		FileKey:      j.FileKey,
		FileSize:     j.FileSize,
		ErrorMessage: j.ErrorMessage,
		CompletedAt:  j.CompletedAt,
	}
}
