package printing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaperSize_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		size     PaperSize
		expected bool
	}{
		{"valid A4", PaperSizeA4, true},
		{"valid A5", PaperSizeA5, true},
		{"valid LETTER", PaperSizeLetter, true},
		{"invalid empty", PaperSize(""), false},
		{"invalid A3", PaperSize("A3"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.size.IsValid())
		})
	}
}

func TestPaperSize_Dimensions(t *testing.T) {
	w, h := PaperSizeA4.Dimensions()
	assert.Equal(t, 210.0, w)
	assert.Equal(t, 297.0, h)

	w, h = PaperSizeLetter.Dimensions()
	assert.InDelta(t, 215.9, w, 0.001)
	assert.InDelta(t, 279.4, h, 0.001)

	assert.Equal(t, "letter", PaperSizeLetter.CSSName())
	assert.Equal(t, "A5", PaperSizeA5.CSSName())
}

func TestChannel(t *testing.T) {
	assert.True(t, ChannelPrint.IsValid())
	assert.True(t, ChannelPDF.IsValid())
	assert.True(t, ChannelWorkbook.IsValid())
	assert.False(t, Channel("FAX").IsValid())

	assert.False(t, ChannelPrint.ProducesFile())
	assert.True(t, ChannelPDF.ProducesFile())
	assert.True(t, ChannelWorkbook.ProducesFile())
}

func TestJobStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name     string
		from     JobStatus
		to       JobStatus
		expected bool
	}{
		{"PENDING to RENDERING", JobStatusPending, JobStatusRendering, true},
		{"PENDING to COMPLETED", JobStatusPending, JobStatusCompleted, true},
		{"PENDING to FAILED", JobStatusPending, JobStatusFailed, true},
		{"RENDERING to COMPLETED", JobStatusRendering, JobStatusCompleted, true},
		{"RENDERING to FAILED", JobStatusRendering, JobStatusFailed, true},
		{"RENDERING to PENDING", JobStatusRendering, JobStatusPending, false},
		{"COMPLETED to FAILED", JobStatusCompleted, JobStatusFailed, false},
		{"FAILED to RENDERING", JobStatusFailed, JobStatusRendering, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestJobStatus_IsTerminal(t *testing.T) {
	assert.False(t, JobStatusPending.IsTerminal())
	assert.False(t, JobStatusRendering.IsTerminal())
	assert.True(t, JobStatusCompleted.IsTerminal())
	assert.True(t, JobStatusFailed.IsTerminal())
}
