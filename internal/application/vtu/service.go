package vtu

import (
	"context"
	"strings"

	"github.com/datapadi/web/internal/domain/purchase"
	"github.com/datapadi/web/internal/domain/shared"
	"github.com/datapadi/web/internal/domain/shared/valueobject"
	"github.com/datapadi/web/internal/domain/voucher"
	"github.com/datapadi/web/internal/infrastructure/vtuapi"
	"go.uber.org/zap"
)

// Backend is the purchase surface of the backend client
type Backend interface {
	DataPlans(ctx context.Context) (vtuapi.NetworkPlans, error)
	BuyData(ctx context.Context, req vtuapi.BuyDataRequest) (*vtuapi.PurchaseResult, error)
	BuyAirtime(ctx context.Context, req vtuapi.BuyAirtimeRequest) (*vtuapi.PurchaseResult, error)
	DataStatus(ctx context.Context, reference string) (*vtuapi.TransactionStatus, error)
	AirtimeStatus(ctx context.Context, reference string) (*vtuapi.TransactionStatus, error)
	CablePackages(ctx context.Context) (vtuapi.CablePackages, error)
	VerifySmartCard(ctx context.Context, req vtuapi.CableVerifyRequest) (string, error)
	PayCable(ctx context.Context, req vtuapi.CablePayRequest) (*vtuapi.PurchaseResult, error)
	Discos(ctx context.Context) ([]vtuapi.Disco, error)
	VerifyMeter(ctx context.Context, req vtuapi.MeterVerifyRequest) (*vtuapi.MeterInfo, error)
	PayElectricity(ctx context.Context, req vtuapi.ElectricityPayRequest) (*vtuapi.PurchaseResult, error)
}

// Service handles one-shot data, airtime and bill purchases
type Service struct {
	backend  Backend
	currency valueobject.Currency
	logger   *zap.Logger
}

// NewService creates a new VTU service
func NewService(backend Backend, currency valueobject.Currency, logger *zap.Logger) *Service {
	if currency.IsZero() {
		currency = valueobject.NGN
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{backend: backend, currency: currency, logger: logger}
}

func parseNetwork(s string) (voucher.Network, error) {
	n := vtuapi.NormalizeNetworkKey(s)
	if !n.IsValid() {
		return "", shared.NewValidationError("unsupported network: " + s)
	}
	return n, nil
}

// DataPlans returns the catalogue, optionally narrowed to one network
func (s *Service) DataPlans(ctx context.Context, network string) ([]PlanDTO, error) {
	var only voucher.Network
	if network != "" {
		n, err := parseNetwork(network)
		if err != nil {
			return nil, err
		}
		only = n
	}

	plans, err := s.backend.DataPlans(ctx)
	if err != nil {
		return nil, err
	}
	out := []PlanDTO{}
	for _, p := range vtuapi.FlattenPlans(plans) {
		if only != "" && p.Network != only {
			continue
		}
		out = append(out, PlanDTO{
			Network:   p.Network.String(),
			Code:      p.ProductCode,
			Name:      p.ProductName,
			Price:     p.SellingPrice,
			Formatted: s.currency.FormatDecimal(p.SellingPrice),
		})
	}
	return out, nil
}

// BuyData purchases a data bundle
func (s *Service) BuyData(ctx context.Context, req BuyDataRequest) (*PurchaseResponse, error) {
	network, err := parseNetwork(req.Network)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.PlanID) == "" {
		return nil, shared.NewValidationError("data plan is required")
	}
	if err := purchase.ValidatePhone(req.Phone); err != nil {
		return nil, err
	}

	res, err := s.backend.BuyData(ctx, vtuapi.BuyDataRequest{
		Network:     network.String(),
		PlanID:      strings.TrimSpace(req.PlanID),
		PhoneNumber: purchase.NormalizePhone(req.Phone),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("data purchased", zap.String("network", network.String()), zap.String("transaction_id", res.TransactionID))
	return toPurchaseResponse(res, "Data purchase successful"), nil
}

// BuyAirtime purchases airtime
func (s *Service) BuyAirtime(ctx context.Context, req BuyAirtimeRequest) (*PurchaseResponse, error) {
	network, err := parseNetwork(req.Network)
	if err != nil {
		return nil, err
	}
	if err := purchase.ValidateAmount(req.Amount, purchase.AirtimeLimits, s.currency); err != nil {
		return nil, err
	}
	if err := purchase.ValidatePhone(req.Phone); err != nil {
		return nil, err
	}

	res, err := s.backend.BuyAirtime(ctx, vtuapi.BuyAirtimeRequest{
		Network:     network.String(),
		Amount:      req.Amount,
		PhoneNumber: purchase.NormalizePhone(req.Phone),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("airtime purchased", zap.String("network", network.String()), zap.String("transaction_id", res.TransactionID))
	return toPurchaseResponse(res, "Airtime purchase successful"), nil
}

// DataStatus checks a data purchase by reference
func (s *Service) DataStatus(ctx context.Context, reference string) (*StatusResponse, error) {
	return s.status(ctx, reference, s.backend.DataStatus)
}

// AirtimeStatus checks an airtime purchase by reference
func (s *Service) AirtimeStatus(ctx context.Context, reference string) (*StatusResponse, error) {
	return s.status(ctx, reference, s.backend.AirtimeStatus)
}

func (s *Service) status(
	ctx context.Context,
	reference string,
	lookup func(context.Context, string) (*vtuapi.TransactionStatus, error),
) (*StatusResponse, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, shared.NewValidationError("transaction reference is required")
	}
	st, err := lookup(ctx, reference)
	if err != nil {
		return nil, err
	}
	return &StatusResponse{
		Reference: st.Reference,
		Status:    st.Status,
		Amount:    st.Amount,
		Formatted: s.currency.FormatDecimal(st.Amount),
	}, nil
}

func cableProvider(code string) (string, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if !purchase.IsCableProvider(code) {
		return "", shared.NewValidationError("unsupported cable provider: " + code)
	}
	return code, nil
}

// CablePackages returns the bouquets of one provider
func (s *Service) CablePackages(ctx context.Context, provider string) ([]PackageDTO, error) {
	code, err := cableProvider(provider)
	if err != nil {
		return nil, err
	}
	catalogue, err := s.backend.CablePackages(ctx)
	if err != nil {
		return nil, err
	}
	out := []PackageDTO{}
	for _, p := range catalogue.PackagesFor(code) {
		out = append(out, PackageDTO{Code: p.PackageID, Name: p.PackageName, Amount: p.PackageAmount})
	}
	return out, nil
}

// VerifySmartCard resolves the customer on a smartcard
func (s *Service) VerifySmartCard(ctx context.Context, req VerifySmartCardRequest) (*CustomerResponse, error) {
	code, err := cableProvider(req.Provider)
	if err != nil {
		return nil, err
	}
	if err := purchase.ValidateSmartCard(req.SmartCard); err != nil {
		return nil, err
	}
	card := strings.TrimSpace(req.SmartCard)
	name, err := s.backend.VerifySmartCard(ctx, vtuapi.CableVerifyRequest{CableTV: code, SmartCardNo: card})
	if err != nil {
		return nil, err
	}
	return &CustomerResponse{CustomerName: name, Number: card}, nil
}

// PayCable pays for a cable bouquet
func (s *Service) PayCable(ctx context.Context, req PayCableRequest) (*PurchaseResponse, error) {
	code, err := cableProvider(req.Provider)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.PackageCode) == "" {
		return nil, shared.NewValidationError("package is required")
	}
	if err := purchase.ValidateSmartCard(req.SmartCard); err != nil {
		return nil, err
	}
	if err := purchase.ValidatePhone(req.Phone); err != nil {
		return nil, err
	}

	res, err := s.backend.PayCable(ctx, vtuapi.CablePayRequest{
		CableTV:     code,
		PackageCode: strings.TrimSpace(req.PackageCode),
		SmartCardNo: strings.TrimSpace(req.SmartCard),
		PhoneNo:     purchase.NormalizePhone(req.Phone),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("cable subscription paid", zap.String("provider", code), zap.String("transaction_id", res.TransactionID))
	return toPurchaseResponse(res, "Subscription successful"), nil
}

// Discos lists the electricity distribution companies
func (s *Service) Discos(ctx context.Context) ([]DiscoDTO, error) {
	discos, err := s.backend.Discos(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]DiscoDTO, 0, len(discos))
	for _, d := range discos {
		out = append(out, DiscoDTO{Code: d.ID, Name: d.Name, MinAmount: d.MinAmount, MaxAmount: d.MaxAmount})
	}
	return out, nil
}

// VerifyMeter resolves the customer on a meter
func (s *Service) VerifyMeter(ctx context.Context, req VerifyMeterRequest) (*CustomerResponse, error) {
	meterType, _ := purchase.ParseMeterType(req.MeterType)
	if err := purchase.ValidateMeter(req.MeterNumber, meterType); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Disco) == "" {
		return nil, shared.NewValidationError("disco is required")
	}
	info, err := s.backend.VerifyMeter(ctx, vtuapi.MeterVerifyRequest{
		DiscoCode: strings.TrimSpace(req.Disco),
		MeterNo:   strings.TrimSpace(req.MeterNumber),
		MeterType: string(meterType),
	})
	if err != nil {
		return nil, err
	}
	return &CustomerResponse{CustomerName: info.CustomerName, Number: info.MeterNumber}, nil
}

// PayElectricity buys electricity units. The amount must satisfy both the
// global window and the disco's own limits.
func (s *Service) PayElectricity(ctx context.Context, req PayElectricityRequest) (*PurchaseResponse, error) {
	meterType, _ := purchase.ParseMeterType(req.MeterType)
	if err := purchase.ValidateMeter(req.MeterNumber, meterType); err != nil {
		return nil, err
	}
	if err := purchase.ValidatePhone(req.Phone); err != nil {
		return nil, err
	}

	disco, err := s.findDisco(ctx, req.Disco)
	if err != nil {
		return nil, err
	}
	limits := purchase.ElectricityLimits.Intersect(valueobject.AmountRange{Min: disco.MinAmount, Max: disco.MaxAmount})
	if err := purchase.ValidateAmount(req.Amount, limits, s.currency); err != nil {
		return nil, err
	}

	res, err := s.backend.PayElectricity(ctx, vtuapi.ElectricityPayRequest{
		DiscoCode: disco.ID,
		MeterNo:   strings.TrimSpace(req.MeterNumber),
		MeterType: string(meterType),
		Amount:    req.Amount,
		PhoneNo:   purchase.NormalizePhone(req.Phone),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("electricity paid", zap.String("disco", disco.ID), zap.String("transaction_id", res.TransactionID))
	return toPurchaseResponse(res, "Electricity purchase successful"), nil
}

func (s *Service) findDisco(ctx context.Context, code string) (*vtuapi.Disco, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewValidationError("disco is required")
	}
	discos, err := s.backend.Discos(ctx)
	if err != nil {
		return nil, err
	}
	for i := range discos {
		if strings.EqualFold(discos[i].ID, code) {
			return &discos[i], nil
		}
	}
	return nil, shared.NewValidationError("unsupported disco: " + code)
}
