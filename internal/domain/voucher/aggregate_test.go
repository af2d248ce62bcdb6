package voucher

import (
	"fmt"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeBatch(faker *gofakeit.Faker, id string, network Network, amount int64, qty int, status BatchStatus) PrintBatch {
	pins := make([]PinRecord, qty)
	for i := range pins {
		pins[i] = PinRecord{
			ID:           fmt.Sprintf("%s-pin-%d", id, i),
			PinCode:      faker.Numerify("################"),
			SerialNumber: faker.Numerify("SN##########"),
			Network:      network,
			Denomination: amount,
			BatchNumber:  id,
		}
	}
	return PrintBatch{
		ID:        id,
		Network:   network,
		Amount:    amount,
		Quantity:  qty,
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Status:    status,
		Pins:      pins,
	}
}

func TestFlatten_PreservesBatchAndPinOrder(t *testing.T) {
	faker := gofakeit.New(7)
	batches := []PrintBatch{
		makeBatch(faker, "b1", NetworkMTN, 100, 5, BatchStatusSuccess),
		makeBatch(faker, "b2", NetworkGlo, 200, 2, BatchStatusSuccess),
		makeBatch(faker, "b3", NetworkAirtel, 500, 3, BatchStatusSuccess),
	}

	sel := NewSelectionSet()
	// selection order differs from fetch order on purpose
	require.True(t, sel.Select(batches[2]))
	require.True(t, sel.Select(batches[0]))

	items := Flatten(sel, batches)
	require.Len(t, items, 8)

	for i := 0; i < 5; i++ {
		assert.Equal(t, batches[0].Pins[i].PinCode, items[i].PinCode)
		assert.Equal(t, batches[0].Pins[i].SerialNumber, items[i].SerialNumber)
		assert.Equal(t, NetworkMTN, items[i].Network)
		assert.Equal(t, int64(100), items[i].Denomination)
		assert.Equal(t, "b1", items[i].BatchID)
	}
	for i := 0; i < 3; i++ {
		assert.Equal(t, batches[2].Pins[i].PinCode, items[5+i].PinCode)
		assert.Equal(t, NetworkAirtel, items[5+i].Network)
		assert.Equal(t, int64(500), items[5+i].Denomination)
	}
}

func TestFlatten_ExcludesIneligibleBatches(t *testing.T) {
	faker := gofakeit.New(11)
	ok := makeBatch(faker, "ok", NetworkMTN, 100, 3, BatchStatusSuccess)
	pending := makeBatch(faker, "pending", NetworkMTN, 100, 4, BatchStatusPending)
	failed := makeBatch(faker, "failed", NetworkGlo, 200, 2, BatchStatusFailed)
	empty := makeBatch(faker, "empty", NetworkAirtel, 500, 0, BatchStatusSuccess)
	batches := []PrintBatch{ok, pending, failed, empty}

	sel, rejected := SelectionFromIDs([]string{"ok", "pending", "failed", "empty", "missing"}, batches)
	assert.Equal(t, []string{"pending", "failed", "empty", "missing"}, rejected)
	assert.Equal(t, []string{"ok"}, sel.IDs())

	items := Flatten(sel, batches)
	require.Len(t, items, 3)
	for _, it := range items {
		assert.Equal(t, "ok", it.BatchID)
	}
}

func TestFlatten_LengthEqualsSumOfPins(t *testing.T) {
	faker := gofakeit.New(99)
	for round := 0; round < 20; round++ {
		var batches []PrintBatch
		sel := NewSelectionSet()
		want := 0
		n := faker.IntRange(1, 6)
		for i := 0; i < n; i++ {
			b := makeBatch(faker, fmt.Sprintf("r%d-b%d", round, i), NetworkGlo, 100, faker.IntRange(1, 10), BatchStatusSuccess)
			batches = append(batches, b)
			if faker.Bool() || i == 0 {
				sel.Select(b)
				want += len(b.Pins)
			}
		}
		assert.Len(t, Flatten(sel, batches), want)
	}
}

func TestFlatten_DoesNotMutateSource(t *testing.T) {
	faker := gofakeit.New(3)
	batches := []PrintBatch{
		makeBatch(faker, "a", NetworkMTN, 100, 4, BatchStatusSuccess),
		makeBatch(faker, "b", Network9Mobile, 200, 2, BatchStatusSuccess),
	}
	snapshot := CloneBatches(batches)

	sel := NewSelectionSet()
	sel.SelectAllPrintable(batches)
	items := Flatten(sel, batches)
	items[0].PinCode = "tampered"

	assert.Equal(t, snapshot, batches)
}

func TestFlatten_EmptySelection(t *testing.T) {
	faker := gofakeit.New(5)
	batches := []PrintBatch{makeBatch(faker, "a", NetworkMTN, 100, 2, BatchStatusSuccess)}

	assert.Nil(t, Flatten(nil, batches))
	assert.Nil(t, Flatten(NewSelectionSet(), batches))
}

func TestFlatten_BatchValuesWinOverPinValues(t *testing.T) {
	b := PrintBatch{
		ID:      "b",
		Network: NetworkGlo,
		Amount:  200,
		Status:  BatchStatusSuccess,
		Pins:    []PinRecord{{PinCode: "1111", SerialNumber: "S1", Network: NetworkMTN, Denomination: 100}},
	}
	items := FlattenBatch(b)
	require.Len(t, items, 1)
	assert.Equal(t, NetworkGlo, items[0].Network)
	assert.Equal(t, int64(200), items[0].Denomination)

	b.Network = ""
	b.Amount = 0
	items = FlattenBatch(b)
	assert.Equal(t, NetworkMTN, items[0].Network)
	assert.Equal(t, int64(100), items[0].Denomination)
}

func TestFlattenBatch_NotPrintable(t *testing.T) {
	assert.Nil(t, FlattenBatch(PrintBatch{ID: "x", Status: BatchStatusPending, Pins: []PinRecord{{PinCode: "1"}}}))
}

func TestSummarize(t *testing.T) {
	faker := gofakeit.New(1)
	batches := []PrintBatch{
		makeBatch(faker, "a", NetworkMTN, 100, 5, BatchStatusSuccess),
		makeBatch(faker, "b", NetworkGlo, 500, 3, BatchStatusSuccess),
	}
	sel := NewSelectionSet()
	sel.SelectAllPrintable(batches)

	s := Summarize(Flatten(sel, batches))
	assert.Equal(t, Summary{Batches: 2, Vouchers: 8, TotalValue: 2000}, s)
}
