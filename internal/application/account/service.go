package account

import (
	"context"
	"strings"

	"github.com/datapadi/web/internal/domain/shared"
	"github.com/datapadi/web/internal/domain/shared/valueobject"
	"github.com/datapadi/web/internal/infrastructure/vtuapi"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Backend is the account surface of the backend client
type Backend interface {
	Dashboard(ctx context.Context) (*vtuapi.Dashboard, error)
	Profile(ctx context.Context) (*vtuapi.Profile, error)
	Transactions(ctx context.Context, q vtuapi.TransactionQuery) (*vtuapi.TransactionPage, error)
	InitFunding(ctx context.Context, amount decimal.Decimal) (*vtuapi.FundingResult, error)
	SubmitKYC(ctx context.Context, bvn string) (string, error)
}

// Service exposes the signed-in user's wallet and profile
type Service struct {
	backend  Backend
	currency valueobject.Currency
	logger   *zap.Logger
}

// NewService creates a new account service
func NewService(backend Backend, currency valueobject.Currency, logger *zap.Logger) *Service {
	if currency.IsZero() {
		currency = valueobject.NGN
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{backend: backend, currency: currency, logger: logger}
}

// Dashboard returns the landing page summary
func (s *Service) Dashboard(ctx context.Context) (*DashboardResponse, error) {
	d, err := s.backend.Dashboard(ctx)
	if err != nil {
		return nil, err
	}
	return &DashboardResponse{
		FullName:           d.User.FullName,
		Tier:               string(d.User.Tier),
		WalletBalance:      money(s.currency, d.User.WalletBalance),
		LifetimeSpent:      money(s.currency, d.User.LifetimeSpent),
		TodaySpent:         money(s.currency, d.TodaySpent),
		RecentTransactions: toTransactionDTOs(s.currency, d.RecentTransactions),
	}, nil
}

// Profile returns the signed-in user's profile
func (s *Service) Profile(ctx context.Context) (*ProfileResponse, error) {
	p, err := s.backend.Profile(ctx)
	if err != nil {
		return nil, err
	}
	resp := &ProfileResponse{
		ID:            p.ID,
		Name:          p.Name,
		Email:         p.Email,
		AvatarURL:     p.AvatarURL,
		Tier:          string(p.Tier),
		KYCStatus:     string(p.KYCStatus),
		KYCVerified:   p.KYCStatus == vtuapi.KYCVerified,
		WalletBalance: money(s.currency, p.WalletBalance),
		TodaySpent:    money(s.currency, p.TodaySpent),
	}
	if va := p.VirtualAccount; va != nil {
		resp.VirtualAccount = &VirtualAccountDTO{
			BankName:      va.BankName,
			AccountNumber: va.AccountNumber,
			AccountName:   va.AccountName,
		}
	}
	return resp, nil
}

// Transactions returns a page of history, optionally filtered by type
func (s *Service) Transactions(ctx context.Context, req TransactionsRequest) (*TransactionsResponse, error) {
	txType, ok := vtuapi.ParseTransactionType(strings.TrimSpace(req.Type))
	if !ok {
		return nil, shared.NewValidationError("unknown transaction type: " + req.Type)
	}
	page, err := s.backend.Transactions(ctx, vtuapi.TransactionQuery{Page: req.Page, Limit: req.Limit, Type: txType})
	if err != nil {
		return nil, err
	}
	return &TransactionsResponse{
		Items:      toTransactionDTOs(s.currency, page.Items),
		Page:       page.Pagination.Page,
		Limit:      page.Pagination.Limit,
		Total:      page.Pagination.Total,
		TotalPages: page.Pagination.TotalPages,
	}, nil
}

// Fund starts a wallet top-up
func (s *Service) Fund(ctx context.Context, req FundRequest) (*FundResponse, error) {
	if req.Amount.LessThan(vtuapi.MinFundingAmount) {
		return nil, shared.NewValidationError("minimum funding amount is " + s.currency.FormatDecimal(vtuapi.MinFundingAmount))
	}
	res, err := s.backend.InitFunding(ctx, req.Amount)
	if err != nil {
		return nil, err
	}
	s.logger.Info("wallet funding initiated", zap.String("amount", req.Amount.String()))
	return &FundResponse{PaymentLink: res.PaymentLink, Message: res.Message}, nil
}

// SubmitKYC submits a BVN for verification
func (s *Service) SubmitKYC(ctx context.Context, req KYCRequest) (string, error) {
	bvn := strings.TrimSpace(req.BVN)
	if len(bvn) != 11 || strings.Trim(bvn, "0123456789") != "" {
		return "", shared.NewValidationError("BVN must be exactly 11 digits")
	}
	msg, err := s.backend.SubmitKYC(ctx, bvn)
	if err != nil {
		return "", err
	}
	if msg == "" {
		msg = "KYC submitted"
	}
	return msg, nil
}
