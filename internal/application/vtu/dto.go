package vtu

import (
	"github.com/datapadi/web/internal/infrastructure/vtuapi"
	"github.com/shopspring/decimal"
)

// BuyDataRequest purchases a data bundle directly
type BuyDataRequest struct {
	Network string `json:"network" binding:"required,network"`
	PlanID  string `json:"plan_id" binding:"required"`
	Phone   string `json:"phone" binding:"required,ng_phone"`
}

// BuyAirtimeRequest purchases airtime directly
type BuyAirtimeRequest struct {
	Network string          `json:"network" binding:"required,network"`
	Amount  decimal.Decimal `json:"amount"`
	Phone   string          `json:"phone" binding:"required,ng_phone"`
}

// VerifySmartCardRequest checks a cable smartcard
type VerifySmartCardRequest struct {
	Provider  string `form:"provider" binding:"required"`
	SmartCard string `form:"smart_card" binding:"required"`
}

// PayCableRequest pays for a cable bouquet
type PayCableRequest struct {
	Provider    string `json:"provider" binding:"required"`
	PackageCode string `json:"package_code" binding:"required"`
	SmartCard   string `json:"smart_card" binding:"required"`
	Phone       string `json:"phone" binding:"required,ng_phone"`
}

// VerifyMeterRequest checks an electricity meter
type VerifyMeterRequest struct {
	Disco       string `form:"disco" binding:"required"`
	MeterNumber string `form:"meter_number" binding:"required"`
	MeterType   string `form:"meter_type" binding:"required"`
}

// PayElectricityRequest buys electricity units
type PayElectricityRequest struct {
	Disco       string          `json:"disco" binding:"required"`
	MeterNumber string          `json:"meter_number" binding:"required"`
	MeterType   string          `json:"meter_type" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Phone       string          `json:"phone" binding:"required,ng_phone"`
}

// PlanDTO is a purchasable data bundle
type PlanDTO struct {
	Network   string          `json:"network"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Formatted string          `json:"formatted"`
}

// PackageDTO is a cable bouquet
type PackageDTO struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

// DiscoDTO is an electricity distribution company
type DiscoDTO struct {
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	MinAmount decimal.Decimal `json:"min_amount"`
	MaxAmount decimal.Decimal `json:"max_amount,omitempty"`
}

// CustomerResponse names the owner of a smartcard or meter
type CustomerResponse struct {
	CustomerName string `json:"customer_name"`
	Number       string `json:"number"`
}

// PurchaseResponse acknowledges a purchase
type PurchaseResponse struct {
	Message       string `json:"message"`
	TransactionID string `json:"transaction_id,omitempty"`
	Token         string `json:"token,omitempty"`
	CustomerName  string `json:"customer_name,omitempty"`
}

// StatusResponse is the live status of a purchase
type StatusResponse struct {
	Reference string          `json:"reference"`
	Status    string          `json:"status"`
	Amount    decimal.Decimal `json:"amount"`
	Formatted string          `json:"formatted"`
}

func toPurchaseResponse(r *vtuapi.PurchaseResult, fallback string) *PurchaseResponse {
	msg := r.Message
	if msg == "" {
		msg = fallback
	}
	return &PurchaseResponse{
		Message:       msg,
		TransactionID: r.TransactionID,
		Token:         r.Token,
		CustomerName:  r.CustomerName,
	}
}
