package printing

import (
	"bytes"
	"testing"
	"time"

	"github.com/datapadi/web/internal/domain/shared/valueobject"
	"github.com/datapadi/web/internal/domain/voucher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWorkbookWriter_Write(t *testing.T) {
	w := NewWorkbookWriter(valueobject.NGN)
	w.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }

	items := []voucher.VoucherItem{
		{PinCode: "012345678901", SerialNumber: "000123", Network: voucher.NetworkAirtel, Denomination: 500, BatchID: "b1"},
		{PinCode: "998877665544", SerialNumber: "000124", Network: voucher.NetworkMTN, Denomination: 100, BatchID: "b2"},
	}

	data, err := w.Write(items)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{VoucherSheet, SummarySheet}, f.GetSheetList())

	rows, err := f.GetRows(VoucherSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"#", "Network", "Denomination", "PIN", "Serial Number", "Dial", "Batch"}, rows[0])
	assert.Equal(t, "AIRTEL", rows[1][1])
	assert.Equal(t, "0123 4567 8901", rows[1][3])
	assert.Equal(t, "000123", rows[1][4])
	assert.Equal(t, "*126*012345678901#", rows[1][5])
	assert.Equal(t, "MTN", rows[2][1])
	assert.Equal(t, "b2", rows[2][6])

	total, err := f.GetCellValue(SummarySheet, "B4")
	require.NoError(t, err)
	assert.Equal(t, "₦600", total)

	fingerprint, err := f.GetCellValue(SummarySheet, "B5")
	require.NoError(t, err)
	assert.Equal(t, voucher.Fingerprint(items), fingerprint)

	generated, err := f.GetCellValue(SummarySheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01T10:00:00Z", generated)
}

func TestWorkbookWriter_Empty(t *testing.T) {
	_, err := NewWorkbookWriter(valueobject.Currency{}).Write(nil)
	assert.ErrorIs(t, err, ErrNothingToRender)
}
