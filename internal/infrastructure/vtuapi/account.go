package vtuapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/datapadi/web/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Dashboard fetches the dashboard summary
func (c *Client) Dashboard(ctx context.Context) (*Dashboard, error) {
	env, err := c.call(ctx, Request{Method: http.MethodGet, Path: "/user/dashboard"})
	if err != nil {
		return nil, err
	}
	var d Dashboard
	if err := decodeInto(env.Data, "dashboard", &d); err != nil {
		return nil, err
	}
	if d.RecentTransactions == nil {
		d.RecentTransactions = []Transaction{}
	}
	return &d, nil
}

// Profile fetches the signed-in user's profile
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	env, err := c.call(ctx, Request{Method: http.MethodGet, Path: "/user/profile"})
	if err != nil {
		return nil, err
	}
	var p Profile
	if err := decodeInto(env.Data, "profile", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Transactions fetches a page of transaction history
func (c *Client) Transactions(ctx context.Context, q TransactionQuery) (*TransactionPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	query := map[string]string{
		"page":  strconv.Itoa(q.Page),
		"limit": strconv.Itoa(q.Limit),
		"type":  string(q.Type),
	}

	env, err := c.call(ctx, Request{Method: http.MethodGet, Path: "/user/transactions", QueryParams: query})
	if err != nil {
		return nil, err
	}

	page := &TransactionPage{Items: []Transaction{}}
	if err := decodeInto(env.Data, "transactions", &page.Items); err != nil {
		return nil, err
	}
	if len(env.Pagination) > 0 {
		if err := json.Unmarshal(env.Pagination, &page.Pagination); err != nil {
			return nil, decodeError("pagination: " + err.Error())
		}
	} else {
		page.Pagination = Pagination{Page: q.Page, Limit: q.Limit, Total: int64(len(page.Items)), TotalPages: 1}
	}
	return page, nil
}

// MinFundingAmount is the smallest wallet top-up accepted
var MinFundingAmount = decimal.NewFromInt(100)

// InitFunding starts a wallet top-up and returns the hosted payment link
func (c *Client) InitFunding(ctx context.Context, amount decimal.Decimal) (*FundingResult, error) {
	if amount.LessThan(MinFundingAmount) {
		return nil, shared.NewValidationError("minimum funding amount is " + MinFundingAmount.String())
	}
	body := map[string]json.Number{"amount": json.Number(amount.String())}
	env, err := c.call(ctx, Request{Method: http.MethodPost, Path: "/payment/fund/init", Body: body})
	if err != nil {
		return nil, err
	}
	if env.PaymentLink == "" {
		return nil, decodeError("paymentLink missing from response")
	}
	return &FundingResult{PaymentLink: env.PaymentLink, Message: env.Message}, nil
}

// SubmitKYC submits a BVN for identity verification
func (c *Client) SubmitKYC(ctx context.Context, bvn string) (string, error) {
	if len(bvn) != 11 || !isDigits(bvn) {
		return "", shared.NewValidationError("BVN must be exactly 11 digits")
	}
	env, err := c.call(ctx, Request{Method: http.MethodPost, Path: "/payment/kyc/create", Body: map[string]string{"bvn": bvn}})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
