package printing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJob(t *testing.T, channel Channel) *ExportJob {
	t.Helper()
	job, err := NewExportJob("user-1", channel, []string{"b1", "b2"}, 12, "abc123", DefaultSheetLayout())
	require.NoError(t, err)
	return job
}

func TestNewExportJob(t *testing.T) {
	tests := []struct {
		name         string
		ownerID      string
		channel      Channel
		voucherCount int
		fingerprint  string
		expectError  bool
		errorMsg     string
	}{
		{"valid pdf job", "user-1", ChannelPDF, 10, "fp", false, ""},
		{"valid print job", "user-1", ChannelPrint, 1, "fp", false, ""},
		{"empty owner", " ", ChannelPDF, 10, "fp", true, "Owner ID cannot be empty"},
		{"invalid channel", "user-1", Channel("FAX"), 10, "fp", true, "Invalid output channel"},
		{"no vouchers", "user-1", ChannelPDF, 0, "fp", true, "at least one voucher"},
		{"no fingerprint", "user-1", ChannelPDF, 3, "", true, "Fingerprint cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := NewExportJob(tt.ownerID, tt.channel, []string{"b1"}, tt.voucherCount, tt.fingerprint, DefaultSheetLayout())
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.Nil(t, job)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, JobStatusPending, job.Status)
			assert.Equal(t, tt.ownerID, job.OwnerID)
			assert.Equal(t, 1, job.Version)
			assert.Nil(t, job.CompletedAt)
		})
	}
}

func TestNewExportJob_CopiesBatchIDs(t *testing.T) {
	ids := []string{"b1", "b2"}
	job, err := NewExportJob("user-1", ChannelPDF, ids, 2, "fp", DefaultSheetLayout())
	require.NoError(t, err)

	ids[0] = "mutated"
	assert.Equal(t, []string{"b1", "b2"}, job.BatchIDs)
}

func TestExportJob_Lifecycle(t *testing.T) {
	job := newTestJob(t, ChannelPDF)

	require.NoError(t, job.StartRendering())
	assert.Equal(t, JobStatusRendering, job.Status)

	err := job.StartRendering()
	assert.Error(t, err)

	require.NoError(t, job.Complete("exports/user-1/x.pdf", 2048, 1))
	assert.True(t, job.IsCompleted())
	assert.True(t, job.IsTerminal())
	assert.True(t, job.HasFile())
	assert.Equal(t, 1, job.PageCount)
	assert.NotNil(t, job.CompletedAt)

	assert.Error(t, job.Fail("late failure"))
}

func TestExportJob_CompleteRequiresFileKey(t *testing.T) {
	job := newTestJob(t, ChannelPDF)
	require.NoError(t, job.StartRendering())

	err := job.Complete("", 0, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "File key cannot be empty")
	assert.Equal(t, JobStatusRendering, job.Status)
}

func TestExportJob_Fail(t *testing.T) {
	job := newTestJob(t, ChannelPDF)
	require.NoError(t, job.StartRendering())

	require.NoError(t, job.Fail("chrome crashed"))
	assert.True(t, job.IsFailed())
	assert.Equal(t, "chrome crashed", job.ErrorMessage)

	assert.Error(t, job.Complete("k", 1, 1))
}

func TestExportJob_HandOff(t *testing.T) {
	job := newTestJob(t, ChannelPrint)

	require.NoError(t, job.HandOff(2))
	assert.True(t, job.IsCompleted())
	assert.False(t, job.HasFile())
	assert.Equal(t, 2, job.PageCount)

	pdf := newTestJob(t, ChannelPDF)
	assert.Error(t, pdf.HandOff(1))
}

func TestExportJob_FileNameAndContentType(t *testing.T) {
	pdf := newTestJob(t, ChannelPDF)
	assert.True(t, strings.HasPrefix(pdf.FileName(), "vouchers-"))
	assert.True(t, strings.HasSuffix(pdf.FileName(), ".pdf"))
	assert.Equal(t, "application/pdf", pdf.ContentType())

	wb := newTestJob(t, ChannelWorkbook)
	assert.True(t, strings.HasSuffix(wb.FileName(), ".xlsx"))
	assert.Contains(t, wb.ContentType(), "spreadsheetml")
}
