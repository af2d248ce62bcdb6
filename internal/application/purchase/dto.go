package purchase

import (
	"time"

	"github.com/datapadi/web/internal/domain/purchase"
	"github.com/shopspring/decimal"
)

// CreateFlowRequest starts a purchase flow
type CreateFlowRequest struct {
	Kind string `json:"kind" binding:"required,oneof=DATA AIRTIME ELECTRICITY CABLE data airtime electricity cable"`
}

// SelectProviderRequest records the provider choice (network, disco or cable provider)
type SelectProviderRequest struct {
	Provider string `json:"provider" binding:"required,max=64"`
}

// DetailsRequest patches the details step; omitted fields stay as they are
type DetailsRequest struct {
	Provider    *string          `json:"provider,omitempty" binding:"omitempty,max=64"`
	ProductCode *string          `json:"product_code,omitempty" binding:"omitempty,max=64"`
	ProductName *string          `json:"product_name,omitempty" binding:"omitempty,max=128"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Phone       *string          `json:"phone,omitempty" binding:"omitempty,ng_phone"`
	MeterNumber *string          `json:"meter_number,omitempty" binding:"omitempty,max=32"`
	MeterType   *string          `json:"meter_type,omitempty" binding:"omitempty,oneof=01 02 PREPAID POSTPAID prepaid postpaid"`
	SmartCard   *string          `json:"smart_card,omitempty" binding:"omitempty,max=15"`
}

// ProviderResponse is one selectable provider
type ProviderResponse struct {
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	MinAmount decimal.Decimal `json:"min_amount"`
	MaxAmount decimal.Decimal `json:"max_amount"`
}

// DraftResponse mirrors the fields collected so far
type DraftResponse struct {
	Provider     string          `json:"provider,omitempty"`
	ProviderName string          `json:"provider_name,omitempty"`
	ProductCode  string          `json:"product_code,omitempty"`
	ProductName  string          `json:"product_name,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Phone        string          `json:"phone,omitempty"`
	MeterNumber  string          `json:"meter_number,omitempty"`
	MeterType    string          `json:"meter_type,omitempty"`
	SmartCard    string          `json:"smart_card,omitempty"`
	CustomerName string          `json:"customer_name,omitempty"`
	Verified     bool            `json:"verified"`
}

// ReceiptResponse is the outcome of a successful payment
type ReceiptResponse struct {
	Reference    string          `json:"reference"`
	Message      string          `json:"message,omitempty"`
	Token        string          `json:"token,omitempty"`
	CustomerName string          `json:"customer_name,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
}

// FlowResponse represents a purchase flow session
type FlowResponse struct {
	ID        string           `json:"id"`
	Kind      string           `json:"kind"`
	State     string           `json:"state"`
	Steps     []string         `json:"steps"`
	Actions   []string         `json:"actions"`
	Draft     DraftResponse    `json:"draft"`
	Error     string           `json:"error,omitempty"`
	Receipt   *ReceiptResponse `json:"receipt,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func toFlowResponse(s *purchase.Session, actions []purchase.Trigger) *FlowResponse {
	steps := s.Kind.Steps()
	resp := &FlowResponse{
		ID:    s.ID.String(),
		Kind:  s.Kind.String(),
		State: s.State.String(),
		Steps: make([]string, len(steps)),
		Draft: DraftResponse{
			Provider:     s.Draft.Provider.Code,
			ProviderName: s.Draft.Provider.Name,
			ProductCode:  s.Draft.ProductCode,
			ProductName:  s.Draft.ProductName,
			Amount:       s.Draft.Amount,
			Phone:        s.Draft.Phone,
			MeterNumber:  s.Draft.MeterNumber,
			MeterType:    string(s.Draft.MeterType),
			SmartCard:    s.Draft.SmartCard,
			CustomerName: s.Draft.CustomerName,
			Verified:     s.Draft.Verified,
		},
		Error:     s.Error,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	for i, st := range steps {
		resp.Steps[i] = st.String()
	}
	resp.Actions = make([]string, len(actions))
	for i, a := range actions {
		resp.Actions[i] = a.String()
	}
	if r := s.Receipt; r != nil {
		resp.Receipt = &ReceiptResponse{
			Reference:    r.Reference,
			Message:      r.Message,
			Token:        r.Token,
			CustomerName: r.CustomerName,
			Amount:       r.Amount,
		}
	}
	return resp
}

func toProviderResponse(p purchase.Provider) ProviderResponse {
	return ProviderResponse{Code: p.Code, Name: p.Name, MinAmount: p.Limits.Min, MaxAmount: p.Limits.Max}
}
