package account

import (
	"encoding/json"
	"time"

	"github.com/datapadi/web/internal/domain/shared/valueobject"
	"github.com/datapadi/web/internal/infrastructure/vtuapi"
	"github.com/shopspring/decimal"
)

// TransactionsRequest filters the transaction history
type TransactionsRequest struct {
	Page  int    `form:"page" binding:"omitempty,min=1"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Type  string `form:"type"`
}

// FundRequest starts a wallet top-up
type FundRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// KYCRequest submits a BVN for verification
type KYCRequest struct {
	BVN string `json:"bvn" binding:"required,len=11,numeric"`
}

// MoneyDTO is an amount with its display form
type MoneyDTO struct {
	Amount    decimal.Decimal `json:"amount"`
	Formatted string          `json:"formatted"`
}

// TransactionDTO is one wallet transaction
type TransactionDTO struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Amount    MoneyDTO        `json:"amount"`
	Status    string          `json:"status"`
	Reference string          `json:"reference,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// DashboardResponse is the landing page summary
type DashboardResponse struct {
	FullName           string           `json:"full_name"`
	Tier               string           `json:"tier"`
	WalletBalance      MoneyDTO         `json:"wallet_balance"`
	LifetimeSpent      MoneyDTO         `json:"lifetime_spent"`
	TodaySpent         MoneyDTO         `json:"today_spent"`
	RecentTransactions []TransactionDTO `json:"recent_transactions"`
}

// VirtualAccountDTO is the dedicated funding account
type VirtualAccountDTO struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

// ProfileResponse is the signed-in user's profile
type ProfileResponse struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Email          string             `json:"email"`
	AvatarURL      string             `json:"avatar_url,omitempty"`
	Tier           string             `json:"tier"`
	KYCStatus      string             `json:"kyc_status"`
	KYCVerified    bool               `json:"kyc_verified"`
	WalletBalance  MoneyDTO           `json:"wallet_balance"`
	TodaySpent     MoneyDTO           `json:"today_spent"`
	VirtualAccount *VirtualAccountDTO `json:"virtual_account,omitempty"`
}

// TransactionsResponse is one page of history
type TransactionsResponse struct {
	Items      []TransactionDTO `json:"items"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	Total      int64            `json:"total"`
	TotalPages int              `json:"total_pages"`
}

// FundResponse carries the hosted payment page
type FundResponse struct {
	PaymentLink string `json:"payment_link"`
	Message     string `json:"message,omitempty"`
}

func money(c valueobject.Currency, amount decimal.Decimal) MoneyDTO {
	return MoneyDTO{Amount: amount, Formatted: c.FormatDecimal(amount)}
}

func toTransactionDTOs(c valueobject.Currency, txs []vtuapi.Transaction) []TransactionDTO {
	out := make([]TransactionDTO, 0, len(txs))
	for _, tx := range txs {
		out = append(out, TransactionDTO{
			ID:        tx.ID,
			Type:      string(tx.Type),
			Amount:    money(c, tx.Amount),
			Status:    tx.Status,
			Reference: tx.Reference,
			CreatedAt: tx.CreatedAt,
			Metadata:  tx.Metadata,
		})
	}
	return out
}
