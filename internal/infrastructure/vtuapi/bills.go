package vtuapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/datapadi/web/internal/domain/shared"
)

// CablePackages fetches the cable subscription catalogue
func (c *Client) CablePackages(ctx context.Context) (CablePackages, error) {
	env, err := c.call(ctx, Request{Method: http.MethodGet, Path: "/cable/packages"})
	if err != nil {
		return nil, err
	}
	var packages CablePackages
	if err := decodeInto(env.Data, "cable packages", &packages); err != nil {
		return nil, err
	}
	return packages, nil
}

// PackagesFor returns the packages of one provider, matching the key
// case-insensitively.
func (p CablePackages) PackagesFor(provider string) []CablePackage {
	var out []CablePackage
	for key, groups := range p {
		if !strings.EqualFold(key, provider) {
			continue
		}
		for _, g := range groups {
			out = append(out, g.Product...)
		}
	}
	return out
}

// VerifySmartCard resolves the customer name registered to a smartcard
func (c *Client) VerifySmartCard(ctx context.Context, req CableVerifyRequest) (string, error) {
	if req.CableTV == "" || req.SmartCardNo == "" {
		return "", shared.NewValidationError("provider and smartcard number are required")
	}
	env, err := c.call(ctx, Request{
		Method: http.MethodGet,
		Path:   "/cable/verify",
		QueryParams: map[string]string{
			"cableTV":     req.CableTV,
			"smartCardNo": req.SmartCardNo,
		},
	})
	if err != nil {
		return "", err
	}
	var fields map[string]any
	if err := decodeInto(env.Data, "smartcard details", &fields); err != nil {
		return "", err
	}
	return customerName(fields, "Unknown Customer"), nil
}

// PayCable pays for a cable subscription
func (c *Client) PayCable(ctx context.Context, req CablePayRequest) (*PurchaseResult, error) {
	return c.purchase(ctx, "/cable/pay", req)
}

// Discos fetches the electricity distribution companies
func (c *Client) Discos(ctx context.Context) ([]Disco, error) {
	env, err := c.call(ctx, Request{Method: http.MethodGet, Path: "/electricity/disco"})
	if err != nil {
		return nil, err
	}
	discos := []Disco{}
	if err := decodeInto(env.Data, "discos", &discos); err != nil {
		return nil, err
	}
	return discos, nil
}

// VerifyMeter resolves the customer registered to a meter
func (c *Client) VerifyMeter(ctx context.Context, req MeterVerifyRequest) (*MeterInfo, error) {
	if req.DiscoCode == "" || req.MeterNo == "" {
		return nil, shared.NewValidationError("disco and meter number are required")
	}
	env, err := c.call(ctx, Request{
		Method: http.MethodGet,
		Path:   "/electricity/verify",
		QueryParams: map[string]string{
			"discoCode": req.DiscoCode,
			"meterNo":   req.MeterNo,
			"meterType": req.MeterType,
		},
	})
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := decodeInto(env.Data, "meter details", &fields); err != nil {
		return nil, err
	}
	info := &MeterInfo{
		CustomerName: customerName(fields, ""),
		MeterNumber:  stringField(fields, "meter number", "meter_number", "meterNumber"),
	}
	if info.CustomerName == "" {
		return nil, decodeError("customer name missing from meter details")
	}
	if info.MeterNumber == "" {
		info.MeterNumber = req.MeterNo
	}
	return info, nil
}

// PayElectricity buys electricity units. Prepaid meters get a token back.
func (c *Client) PayElectricity(ctx context.Context, req ElectricityPayRequest) (*PurchaseResult, error) {
	body := struct {
		DiscoCode string      `json:"discoCode"`
		MeterNo   string      `json:"meterNo"`
		MeterType string      `json:"meterType"`
		Amount    json.Number `json:"amount"`
		PhoneNo   string      `json:"phoneNo"`
	}{req.DiscoCode, req.MeterNo, req.MeterType, json.Number(req.Amount.String()), req.PhoneNo}
	return c.purchase(ctx, "/electricity/pay", body)
}

// customerName reads the customer name, which the backend reports under
// several spellings depending on the provider.
func customerName(fields map[string]any, fallback string) string {
	if name := stringField(fields, "customer name", "customer_name", "customerName"); name != "" {
		return name
	}
	return fallback
}

func stringField(fields map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := fields[k].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
