package voucher

import (
	"time"
)

// PinRecord is a single issued recharge PIN. Records are created by the
// backend at generation time and are only ever read here.
type PinRecord struct {
	ID           string
	PinCode      string
	SerialNumber string
	Network      Network
	Denomination int64
	BatchNumber  string
	IsSold       bool
	SoldAt       *time.Time
}

// BatchStatus is the generation status of a print batch
type BatchStatus string

const (
	BatchStatusSuccess BatchStatus = "SUCCESS"
	BatchStatusFailed  BatchStatus = "FAILED"
	BatchStatusPending BatchStatus = "PENDING"
)

// ParseBatchStatus maps backend status strings onto BatchStatus.
// Anything unrecognised is treated as pending so it can never be printed.
func ParseBatchStatus(s string) BatchStatus {
	switch BatchStatus(s) {
	case BatchStatusSuccess, BatchStatusFailed, BatchStatusPending:
		return BatchStatus(s)
	case "COMPLETED", "SUCCESSFUL":
		return BatchStatusSuccess
	}
	return BatchStatusPending
}

// String returns the string representation of BatchStatus
func (s BatchStatus) String() string {
	return string(s)
}

// PrintBatch is the output of one PIN generation request
type PrintBatch struct {
	ID        string
	Network   Network
	Amount    int64
	Quantity  int
	CreatedAt time.Time
	Status    BatchStatus
	Pins      []PinRecord
}

// IsPrintable returns true when the batch completed and carries at least one PIN
func (b PrintBatch) IsPrintable() bool {
	return b.Status == BatchStatusSuccess && len(b.Pins) > 0
}

// Clone returns a deep copy of the batch, so callers can hand out snapshots
// without sharing the pin slice.
func (b PrintBatch) Clone() PrintBatch {
	c := b
	if b.Pins != nil {
		c.Pins = make([]PinRecord, len(b.Pins))
		copy(c.Pins, b.Pins)
		for i := range c.Pins {
			if b.Pins[i].SoldAt != nil {
				t := *b.Pins[i].SoldAt
				c.Pins[i].SoldAt = &t
			}
		}
	}
	return c
}

// CloneBatches deep-copies a batch list
func CloneBatches(batches []PrintBatch) []PrintBatch {
	out := make([]PrintBatch, len(batches))
	for i, b := range batches {
		out[i] = b.Clone()
	}
	return out
}

// TotalValue returns the face value of all pins in the batch
func (b PrintBatch) TotalValue() int64 {
	var total int64
	for _, p := range b.Pins {
		total += denominationOf(p, b)
	}
	return total
}

func denominationOf(p PinRecord, b PrintBatch) int64 {
	if b.Amount > 0 {
		return b.Amount
	}
	return p.Denomination
}
