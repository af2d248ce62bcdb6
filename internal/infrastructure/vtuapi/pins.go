package vtuapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/datapadi/web/internal/domain/shared"
	"github.com/datapadi/web/internal/domain/voucher"
)

// InventoryLimit is the number of batches listed in the PIN inventory
const InventoryLimit = 50

// PIN generation bounds
const (
	MinPinQuantity = 1
	MaxPinQuantity = 100
)

// PinValues are the face values a PIN can be generated with
var PinValues = []int64{100, 200, 500}

// IsPinValue returns true when v is a supported face value
func IsPinValue(v int64) bool {
	for _, allowed := range PinValues {
		if v == allowed {
			return true
		}
	}
	return false
}

// GeneratePins asks the backend to issue a batch of recharge PINs
func (c *Client) GeneratePins(ctx context.Context, network voucher.Network, value int64, quantity int) (string, error) {
	if !network.IsValid() {
		return "", shared.NewValidationError("unsupported network: " + network.String())
	}
	if !IsPinValue(value) {
		return "", shared.NewValidationError("value must be one of 100, 200 or 500")
	}
	if quantity < MinPinQuantity || quantity > MaxPinQuantity {
		return "", shared.NewValidationError("quantity must be between 1 and 100")
	}

	req := GeneratePinsRequest{
		Network:  network.String(),
		Value:    strconv.FormatInt(value, 10),
		Quantity: quantity,
	}
	env, err := c.call(ctx, Request{Method: http.MethodPost, Path: "/vtu/print", Body: req})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// Inventory fetches the most recent print batches
func (c *Client) Inventory(ctx context.Context) ([]InventoryEntry, error) {
	env, err := c.call(ctx, Request{
		Method:      http.MethodGet,
		Path:        "/vtu/pins",
		QueryParams: map[string]string{"limit": strconv.Itoa(InventoryLimit)},
	})
	if err != nil {
		return nil, err
	}
	entries := []InventoryEntry{}
	if err := decodeInto(env.Data, "inventory", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// InventoryBatches fetches the inventory as print batches, in backend order
func (c *Client) InventoryBatches(ctx context.Context) ([]voucher.PrintBatch, error) {
	entries, err := c.Inventory(ctx)
	if err != nil {
		return nil, err
	}
	batches := make([]voucher.PrintBatch, 0, len(entries))
	for _, e := range entries {
		batches = append(batches, e.ToBatch())
	}
	return batches, nil
}

// PrintOrder fetches one print order with its PINs
func (c *Client) PrintOrder(ctx context.Context, reference string) (*PrintOrder, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, shared.NewValidationError("order reference is required")
	}
	env, err := c.call(ctx, Request{Method: http.MethodGet, Path: "/vtu/print/" + url.PathEscape(reference)})
	if err != nil {
		return nil, err
	}
	var order PrintOrder
	if err := decodeInto(env.Data, "print order", &order); err != nil {
		return nil, err
	}
	if order.OrderID == "" {
		order.OrderID = reference
	}
	return &order, nil
}

// ToBatch converts an inventory entry into a print batch
func (e InventoryEntry) ToBatch() voucher.PrintBatch {
	amount := e.Metadata.FaceValue.IntPart()
	if amount == 0 {
		amount = e.Amount.IntPart()
	}
	quantity := e.Metadata.Quantity
	if quantity == 0 {
		quantity = len(e.PrintedPins)
	}
	network := voucher.ParseNetwork(e.Metadata.Network)
	return voucher.PrintBatch{
		ID:        e.ID,
		Network:   network,
		Amount:    amount,
		Quantity:  quantity,
		CreatedAt: e.CreatedAt,
		Status:    voucher.ParseBatchStatus(e.Status),
		Pins:      toPinRecords(e.PrintedPins, network),
	}
}

// ToBatch converts a print order into a print batch. A returned order
// carries its pins, so it is treated as completed.
func (o PrintOrder) ToBatch() voucher.PrintBatch {
	network := voucher.ParseNetwork(o.Network)
	quantity := o.Quantity
	if quantity == 0 {
		quantity = len(o.Pins)
	}
	return voucher.PrintBatch{
		ID:        o.OrderID,
		Network:   network,
		Amount:    o.Denomination.IntPart(),
		Quantity:  quantity,
		CreatedAt: o.Date,
		Status:    voucher.BatchStatusSuccess,
		Pins:      toPinRecords(o.Pins, network),
	}
}

func toPinRecords(pins []RechargePin, fallback voucher.Network) []voucher.PinRecord {
	records := make([]voucher.PinRecord, 0, len(pins))
	for _, p := range pins {
		network := fallback
		if p.Network != "" {
			network = voucher.ParseNetwork(p.Network)
		}
		records = append(records, voucher.PinRecord{
			ID:           p.ID,
			PinCode:      p.PinCode,
			SerialNumber: p.SerialNumber,
			Network:      network,
			Denomination: p.Denomination.IntPart(),
			BatchNumber:  p.BatchNumber,
			IsSold:       p.IsSold,
			SoldAt:       p.SoldAt,
		})
	}
	return records
}
