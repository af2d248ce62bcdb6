package vtuapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/datapadi/web/internal/domain/shared"
	"github.com/datapadi/web/internal/domain/voucher"
)

// CatalogPlan is a data plan tagged with its normalized network
type CatalogPlan struct {
	Network voucher.Network `json:"network"`
	DataPlan
}

// DataPlans fetches the data plan catalogue keyed by backend network name
func (c *Client) DataPlans(ctx context.Context) (NetworkPlans, error) {
	env, err := c.call(ctx, Request{Method: http.MethodGet, Path: "/vtu/data/plans"})
	if err != nil {
		return nil, err
	}
	var payload struct {
		MobileNetwork NetworkPlans `json:"MOBILE_NETWORK"`
	}
	if err := decodeInto(env.Data, "data plans", &payload); err != nil {
		return nil, err
	}
	if payload.MobileNetwork == nil {
		return nil, decodeError("MOBILE_NETWORK missing from data plans")
	}
	return payload.MobileNetwork, nil
}

// FlattenPlans turns the grouped catalogue into one list, ordered by
// network display order and then by backend order within each network.
func FlattenPlans(plans NetworkPlans) []CatalogPlan {
	keys := make([]string, 0, len(plans))
	for k := range plans {
		keys = append(keys, k)
	}
	rank := func(n voucher.Network) int {
		for i, known := range voucher.AllNetworks() {
			if known == n {
				return i
			}
		}
		return len(voucher.AllNetworks())
	}
	sort.SliceStable(keys, func(i, j int) bool {
		ri, rj := rank(NormalizeNetworkKey(keys[i])), rank(NormalizeNetworkKey(keys[j]))
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})

	var out []CatalogPlan
	for _, k := range keys {
		network := NormalizeNetworkKey(k)
		for _, group := range plans[k] {
			for _, p := range group.Product {
				out = append(out, CatalogPlan{Network: network, DataPlan: p})
			}
		}
	}
	return out
}

// NormalizeNetworkKey maps catalogue keys such as "m_9mobile" onto networks
func NormalizeNetworkKey(key string) voucher.Network {
	k := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(key)), "m_")
	return voucher.ParseNetwork(k)
}

// BuyData purchases a data bundle
func (c *Client) BuyData(ctx context.Context, req BuyDataRequest) (*PurchaseResult, error) {
	return c.purchase(ctx, "/vtu/data", req)
}

// BuyAirtime purchases airtime
func (c *Client) BuyAirtime(ctx context.Context, req BuyAirtimeRequest) (*PurchaseResult, error) {
	body := struct {
		Network     string      `json:"network"`
		Amount      json.Number `json:"amount"`
		PhoneNumber string      `json:"phoneNumber"`
	}{req.Network, json.Number(req.Amount.String()), req.PhoneNumber}
	return c.purchase(ctx, "/vtu/airtime", body)
}

// DataStatus checks a data purchase. The backend re-syncs pending
// transactions with the provider on every call.
func (c *Client) DataStatus(ctx context.Context, reference string) (*TransactionStatus, error) {
	return c.status(ctx, "/vtu/data/", reference)
}

// AirtimeStatus checks an airtime purchase
func (c *Client) AirtimeStatus(ctx context.Context, reference string) (*TransactionStatus, error) {
	return c.status(ctx, "/vtu/airtime/", reference)
}

func (c *Client) purchase(ctx context.Context, path string, body any) (*PurchaseResult, error) {
	env, err := c.call(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
	if err != nil {
		return nil, err
	}
	return &PurchaseResult{
		Message:       env.Message,
		TransactionID: env.TransactionID,
		Token:         env.Token,
		CustomerName:  env.CustomerName,
	}, nil
}

func (c *Client) status(ctx context.Context, prefix, reference string) (*TransactionStatus, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, shared.NewValidationError("transaction reference is required")
	}
	env, err := c.call(ctx, Request{Method: http.MethodGet, Path: prefix + url.PathEscape(reference)})
	if err != nil {
		return nil, err
	}
	st := &TransactionStatus{Reference: reference}
	if err := decodeInto(env.Data, "transaction status", st); err != nil {
		return nil, err
	}
	if st.Reference == "" {
		st.Reference = reference
	}
	st.Raw = env.Data
	return st, nil
}
