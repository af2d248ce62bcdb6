package vtuapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/datapadi/web/internal/domain/shared"
	"github.com/datapadi/web/internal/domain/voucher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inventoryBody = `{"success":true,"data":[
	{"id":"b1","status":"SUCCESS","createdAt":"2024-06-01T09:00:00Z","metadata":{"network":"MTN","faceValue":100,"quantity":2},
	 "printedPins":[{"id":"p1","pinCode":"1234567890123456","serialNumber":"SN1","denomination":100},{"id":"p2","pinCode":"6543210987654321","serialNumber":"SN2","denomination":100}]},
	{"id":"b2","status":"FAILED","createdAt":"2024-06-01T10:00:00Z","metadata":{"network":"glo","faceValue":"200","quantity":5},"printedPins":[]}
]}`

func TestClient_Inventory(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/vtu/pins", r.URL.Path)
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		writeJSON(w, 200, inventoryBody)
	})

	batches, err := c.InventoryBatches(context.Background())
	require.NoError(t, err)
	require.Len(t, batches, 2)

	b1 := batches[0]
	assert.Equal(t, "b1", b1.ID)
	assert.Equal(t, voucher.NetworkMTN, b1.Network)
	assert.Equal(t, int64(100), b1.Amount)
	assert.Equal(t, voucher.BatchStatusSuccess, b1.Status)
	assert.True(t, b1.IsPrintable())
	require.Len(t, b1.Pins, 2)
	assert.Equal(t, voucher.NetworkMTN, b1.Pins[0].Network)
	assert.Equal(t, "SN2", b1.Pins[1].SerialNumber)

	b2 := batches[1]
	assert.Equal(t, voucher.NetworkGlo, b2.Network)
	assert.Equal(t, int64(200), b2.Amount)
	assert.Equal(t, 5, b2.Quantity)
	assert.False(t, b2.IsPrintable())
}

func TestClient_InventoryRejectsObjectPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"data":{"items":[]}}`)
	})
	_, err := c.Inventory(context.Background())
	requireCode(t, err, shared.CodeDecodeFailed)
}

func TestClient_GeneratePins(t *testing.T) {
	var got GeneratePinsRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, 201, `{"message":"10 pins generated"}`)
	})
	ctx := context.Background()

	msg, err := c.GeneratePins(ctx, voucher.NetworkAirtel, 200, 10)
	require.NoError(t, err)
	assert.Equal(t, "10 pins generated", msg)
	assert.Equal(t, GeneratePinsRequest{Network: "AIRTEL", Value: "200", Quantity: 10}, got)

	_, err = c.GeneratePins(ctx, voucher.Network("VODACOM"), 200, 10)
	requireCode(t, err, shared.CodeValidation)
	_, err = c.GeneratePins(ctx, voucher.NetworkMTN, 300, 10)
	requireCode(t, err, shared.CodeValidation)
	_, err = c.GeneratePins(ctx, voucher.NetworkMTN, 100, 0)
	requireCode(t, err, shared.CodeValidation)
	_, err = c.GeneratePins(ctx, voucher.NetworkMTN, 100, 101)
	requireCode(t, err, shared.CodeValidation)
}

func TestClient_PrintOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/vtu/print/ORD-7", r.URL.Path)
		writeJSON(w, 200, `{"data":{"orderId":"ORD-7","date":"2024-06-02T08:00:00Z","amount":1500,"quantity":3,"network":"9MOBILE","denomination":500,
			"pins":[{"id":"x1","pinCode":"111122223333","network":"9MOBILE","denomination":500},{"id":"x2","pinCode":"444455556666","denomination":500},{"id":"x3","pinCode":"777788889999","denomination":500}]}}`)
	})

	order, err := c.PrintOrder(context.Background(), "ORD-7")
	require.NoError(t, err)
	assert.Equal(t, 3, order.Quantity)

	batch := order.ToBatch()
	assert.Equal(t, voucher.Network9Mobile, batch.Network)
	assert.Equal(t, int64(500), batch.Amount)
	assert.True(t, batch.IsPrintable())

	items := voucher.FlattenBatch(batch)
	require.Len(t, items, 3)
	assert.Equal(t, "444455556666", items[1].PinCode)
	assert.Equal(t, voucher.Network9Mobile, items[1].Network)
	assert.Equal(t, "ORD-7", items[2].BatchID)
}

func TestIsPinValue(t *testing.T) {
	assert.True(t, IsPinValue(100))
	assert.True(t, IsPinValue(500))
	assert.False(t, IsPinValue(1000))
}
