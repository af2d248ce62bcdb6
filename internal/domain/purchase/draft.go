package purchase

import (
	"github.com/datapadi/web/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// MeterType distinguishes prepaid from postpaid electricity meters.
// The values are the codes the backend expects.
type MeterType string

const (
	MeterTypePrepaid  MeterType = "01"
	MeterTypePostpaid MeterType = "02"
)

// IsValid checks if the MeterType is a valid value
func (m MeterType) IsValid() bool {
	return m == MeterTypePrepaid || m == MeterTypePostpaid
}

// ParseMeterType accepts either the backend code or PREPAID/POSTPAID
func ParseMeterType(s string) (MeterType, bool) {
	switch s {
	case "01", "PREPAID", "prepaid":
		return MeterTypePrepaid, true
	case "02", "POSTPAID", "postpaid":
		return MeterTypePostpaid, true
	}
	return "", false
}

// Provider is the first-step choice: a mobile network, a disco or a cable provider
type Provider struct {
	Code   string                  `json:"code"`
	Name   string                  `json:"name"`
	Limits valueobject.AmountRange `json:"limits"`
}

// Draft holds the fields collected by a flow
type Draft struct {
	Provider     Provider        `json:"provider"`
	ProductCode  string          `json:"product_code,omitempty"` // data plan id or cable package code
	ProductName  string          `json:"product_name,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Phone        string          `json:"phone,omitempty"`
	MeterNumber  string          `json:"meter_number,omitempty"`
	MeterType    MeterType       `json:"meter_type,omitempty"`
	SmartCard    string          `json:"smart_card,omitempty"`
	CustomerName string          `json:"customer_name,omitempty"`
	Verified     bool            `json:"verified"`
}

// DetailsPatch carries optional field updates for the details step.
// Nil fields are left unchanged.
type DetailsPatch struct {
	ProductCode *string
	ProductName *string
	Amount      *decimal.Decimal
	Phone       *string
	MeterNumber *string
	MeterType   *MeterType
	SmartCard   *string
}

// apply copies the set fields into the draft and reports whether anything changed
func (p DetailsPatch) apply(d *Draft) bool {
	changed := false
	setString := func(dst *string, src *string) {
		if src != nil && *dst != *src {
			*dst = *src
			changed = true
		}
	}
	setString(&d.ProductCode, p.ProductCode)
	setString(&d.ProductName, p.ProductName)
	setString(&d.Phone, p.Phone)
	setString(&d.MeterNumber, p.MeterNumber)
	setString(&d.SmartCard, p.SmartCard)
	if p.Amount != nil && !d.Amount.Equal(*p.Amount) {
		d.Amount = *p.Amount
		changed = true
	}
	if p.MeterType != nil && d.MeterType != *p.MeterType {
		d.MeterType = *p.MeterType
		changed = true
	}
	return changed
}

// clearVerification drops the provider verification result
func (d *Draft) clearVerification() {
	d.Verified = false
	d.CustomerName = ""
}

// Receipt is the outcome of a successful payment call
type Receipt struct {
	Reference    string          `json:"reference"`
	Message      string          `json:"message,omitempty"`
	Token        string          `json:"token,omitempty"` // prepaid electricity token
	CustomerName string          `json:"customer_name,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
}
