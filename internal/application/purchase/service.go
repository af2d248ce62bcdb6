package purchase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/datapadi/web/internal/domain/purchase"
	"github.com/datapadi/web/internal/domain/shared"
	"github.com/datapadi/web/internal/domain/shared/valueobject"
	"github.com/datapadi/web/internal/domain/voucher"
	"github.com/datapadi/web/internal/infrastructure/logger"
	"github.com/datapadi/web/internal/infrastructure/telemetry"
	"github.com/datapadi/web/internal/infrastructure/vtuapi"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Backend is the part of the backend client the purchase flows call
type Backend interface {
	Discos(ctx context.Context) ([]vtuapi.Disco, error)
	VerifyMeter(ctx context.Context, req vtuapi.MeterVerifyRequest) (*vtuapi.MeterInfo, error)
	VerifySmartCard(ctx context.Context, req vtuapi.CableVerifyRequest) (string, error)
	BuyData(ctx context.Context, req vtuapi.BuyDataRequest) (*vtuapi.PurchaseResult, error)
	BuyAirtime(ctx context.Context, req vtuapi.BuyAirtimeRequest) (*vtuapi.PurchaseResult, error)
	PayCable(ctx context.Context, req vtuapi.CablePayRequest) (*vtuapi.PurchaseResult, error)
	PayElectricity(ctx context.Context, req vtuapi.ElectricityPayRequest) (*vtuapi.PurchaseResult, error)
}

// DefaultPaymentGuardTTL bounds how long a crashed payment keeps its flow locked
const DefaultPaymentGuardTTL = 2 * time.Minute

// FlowService drives purchase flow sessions through their steps
type FlowService struct {
	engine   *purchase.Engine
	sessions purchase.SessionStore
	guard    purchase.PaymentGuard
	guardTTL time.Duration
	backend  Backend
	metrics  *telemetry.ServiceMetrics
	logger   *zap.Logger
}

// FlowOption configures a FlowService
type FlowOption func(*FlowService)

// WithPaymentGuardTTL sets how long a payment may hold its flow. It must
// outlast the backend call.
func WithPaymentGuardTTL(ttl time.Duration) FlowOption {
	return func(s *FlowService) {
		if ttl > 0 {
			s.guardTTL = ttl
		}
	}
}

// NewFlowService creates a new flow service
func NewFlowService(
	sessions purchase.SessionStore,
	guard purchase.PaymentGuard,
	backend Backend,
	currency valueobject.Currency,
	metrics *telemetry.ServiceMetrics,
	logger *zap.Logger,
	opts ...FlowOption,
) *FlowService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if currency.IsZero() {
		currency = valueobject.NGN
	}
	s := &FlowService{
		engine:   purchase.NewEngine(currency),
		sessions: sessions,
		guard:    guard,
		guardTTL: DefaultPaymentGuardTTL,
		backend:  backend,
		metrics:  metrics,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FlowService) respond(session *purchase.Session) *FlowResponse {
	var actions []purchase.Trigger
	if m, err := s.engine.Machine(session.Kind); err == nil {
		actions = m.PermittedTriggers(session.State)
	}
	return toFlowResponse(session, actions)
}

// Create starts a new flow at the provider step
func (s *FlowService) Create(ctx context.Context, ownerID string, req CreateFlowRequest) (*FlowResponse, error) {
	kind, err := purchase.ParseKind(req.Kind)
	if err != nil {
		return nil, err
	}
	session, err := purchase.NewSession(ownerID, kind)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save flow session: %w", err)
	}
	return s.respond(session), nil
}

// Get returns one of the owner's flows
func (s *FlowService) Get(ctx context.Context, ownerID string, id uuid.UUID) (*FlowResponse, error) {
	session, err := s.sessions.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return s.respond(session), nil
}

// Delete abandons a flow
func (s *FlowService) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	return s.sessions.Delete(ctx, ownerID, id)
}

// Providers lists the selectable providers of a flow kind
func (s *FlowService) Providers(ctx context.Context, kind string) ([]ProviderResponse, error) {
	k, err := purchase.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	providers, err := s.providers(ctx, k)
	if err != nil {
		return nil, err
	}
	out := make([]ProviderResponse, len(providers))
	for i, p := range providers {
		out[i] = toProviderResponse(p)
	}
	return out, nil
}

func (s *FlowService) providers(ctx context.Context, kind purchase.Kind) ([]purchase.Provider, error) {
	switch kind {
	case purchase.KindCable:
		return purchase.CableProviders, nil
	case purchase.KindElectricity:
		discos, err := s.backend.Discos(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]purchase.Provider, 0, len(discos))
		for _, d := range discos {
			out = append(out, purchase.Provider{
				Code:   d.ID,
				Name:   d.Name,
				Limits: valueobject.AmountRange{Min: d.MinAmount, Max: d.MaxAmount},
			})
		}
		return out, nil
	default:
		networks := voucher.AllNetworks()
		out := make([]purchase.Provider, len(networks))
		for i, n := range networks {
			out[i] = purchase.Provider{Code: n.String(), Name: n.String()}
		}
		return out, nil
	}
}

// resolveProvider finds the provider a code refers to for the kind
func (s *FlowService) resolveProvider(ctx context.Context, kind purchase.Kind, code string) (purchase.Provider, error) {
	code = strings.TrimSpace(code)
	if kind == purchase.KindData || kind == purchase.KindAirtime {
		code = voucher.ParseNetwork(code).String()
	}
	providers, err := s.providers(ctx, kind)
	if err != nil {
		return purchase.Provider{}, err
	}
	for _, p := range providers {
		if strings.EqualFold(p.Code, code) {
			return p, nil
		}
	}
	return purchase.Provider{}, shared.NewValidationError("unsupported provider: " + code)
}

// SelectProvider records the provider choice on the first step
func (s *FlowService) SelectProvider(ctx context.Context, ownerID string, id uuid.UUID, req SelectProviderRequest) (*FlowResponse, error) {
	session, err := s.sessions.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	provider, err := s.resolveProvider(ctx, session.Kind, req.Provider)
	if err != nil {
		return nil, err
	}
	if err := session.SelectProvider(provider); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save flow session: %w", err)
	}
	return s.respond(session), nil
}

// UpdateDetails patches the details step
func (s *FlowService) UpdateDetails(ctx context.Context, ownerID string, id uuid.UUID, req DetailsRequest) (*FlowResponse, error) {
	session, err := s.sessions.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if session.State != purchase.StateEnterDetails {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "details can only be edited on the details step")
	}

	if req.Provider != nil && !strings.EqualFold(*req.Provider, session.Draft.Provider.Code) {
		provider, err := s.resolveProvider(ctx, session.Kind, *req.Provider)
		if err != nil {
			return nil, err
		}
		if err := session.SelectProvider(provider); err != nil {
			return nil, err
		}
	}

	patch := purchase.DetailsPatch{
		ProductCode: req.ProductCode,
		ProductName: req.ProductName,
		Amount:      req.Amount,
		Phone:       req.Phone,
		MeterNumber: req.MeterNumber,
		SmartCard:   req.SmartCard,
	}
	if req.MeterType != nil {
		mt, ok := purchase.ParseMeterType(*req.MeterType)
		if !ok {
			return nil, shared.NewValidationError("meter type must be prepaid (01) or postpaid (02)")
		}
		patch.MeterType = &mt
	}
	if err := session.UpdateDetails(patch); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save flow session: %w", err)
	}
	return s.respond(session), nil
}

// Next moves the flow forward. On the validate step the customer is first
// verified with the provider; a failed verification keeps the step.
func (s *FlowService) Next(ctx context.Context, ownerID string, id uuid.UUID) (*FlowResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "flow", "Next")
	defer span.End()

	session, err := s.sessions.Get(ctx, ownerID, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String(telemetry.SpanAttrFlowKind, session.Kind.String()),
		attribute.String(telemetry.SpanAttrFlowState, session.State.String()),
	)

	if session.State == purchase.StateValidate && !session.Draft.Verified {
		if err := s.verify(ctx, session); err != nil {
			session.RecordFailure(failureMessage(err, "verification failed"))
			s.save(ctx, session)
			s.metrics.RecordFlowTransition(ctx, session.Kind.String(), session.State.String(), purchase.TriggerNext.String(), false)
			telemetry.RecordError(span, err)
			return s.respond(session), err
		}
	}

	resp, err := s.fire(ctx, session, purchase.TriggerNext)
	if err != nil {
		telemetry.RecordError(span, err)
		return resp, err
	}
	telemetry.SetOK(span)
	return resp, nil
}

// Back moves the flow one step back
func (s *FlowService) Back(ctx context.Context, ownerID string, id uuid.UUID) (*FlowResponse, error) {
	session, err := s.sessions.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return s.fire(ctx, session, purchase.TriggerBack)
}

// Pay calls the backend purchase for a confirmed flow. The call is made
// exactly once; a failure keeps the flow on the confirm step. Concurrent
// pays of one flow are refused while the first is in flight.
func (s *FlowService) Pay(ctx context.Context, ownerID string, id uuid.UUID) (*FlowResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "flow", "Pay")
	defer span.End()

	session, err := s.sessions.Get(ctx, ownerID, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String(telemetry.SpanAttrFlowKind, session.Kind.String()))

	if err := s.payable(ctx, session); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	token, ok, err := s.guard.Acquire(ctx, id.String(), s.guardTTL)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to acquire payment guard: %w", err)
	}
	if !ok {
		err := shared.NewDomainError(shared.CodeInvalidState, "a payment for this flow is already in progress")
		s.metrics.RecordFlowTransition(ctx, session.Kind.String(), session.State.String(), purchase.TriggerPay.String(), false)
		telemetry.RecordError(span, err)
		return nil, err
	}
	// The payment must finish and be recorded even if the caller goes away.
	ctx = logger.Detach(ctx)
	defer func() {
		if err := s.guard.Release(ctx, id.String(), token); err != nil {
			s.logger.Error("failed to release payment guard",
				zap.String("flow_id", id.String()),
				zap.Error(err))
		}
	}()

	// Re-read under the guard: an earlier holder may have completed the flow.
	session, err = s.sessions.Get(ctx, ownerID, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.payable(ctx, session); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	receipt, err := s.pay(ctx, session)
	if err != nil {
		s.logger.Warn("purchase failed",
			zap.String("flow_id", session.ID.String()),
			zap.String("kind", session.Kind.String()),
			zap.Error(err))
		session.RecordFailure(failureMessage(err, "payment failed"))
		s.save(ctx, session)
		s.metrics.RecordFlowTransition(ctx, session.Kind.String(), session.State.String(), purchase.TriggerPay.String(), false)
		telemetry.RecordError(span, err)
		return s.respond(session), err
	}

	if err := session.RecordReceipt(*receipt); err != nil {
		return nil, err
	}
	resp, err := s.fire(ctx, session, purchase.TriggerPay)
	if err != nil {
		telemetry.RecordError(span, err)
		return resp, err
	}

	s.logger.Info("purchase completed",
		zap.String("flow_id", session.ID.String()),
		zap.String("kind", session.Kind.String()),
		zap.String("reference", receipt.Reference))
	telemetry.SetOK(span)
	return resp, nil
}

func (s *FlowService) payable(ctx context.Context, session *purchase.Session) error {
	if session.State == purchase.StateConfirm {
		return nil
	}
	s.metrics.RecordFlowTransition(ctx, session.Kind.String(), session.State.String(), purchase.TriggerPay.String(), false)
	return shared.NewDomainError(shared.CodeInvalidState, "payment is only allowed on the confirm step")
}

// fire applies a trigger and persists the session whatever the outcome,
// so guard errors are visible on the next read
func (s *FlowService) fire(ctx context.Context, session *purchase.Session, trigger purchase.Trigger) (*FlowResponse, error) {
	from := session.State
	err := s.engine.Fire(ctx, session, trigger)
	s.metrics.RecordFlowTransition(ctx, session.Kind.String(), from.String(), trigger.String(), err == nil)

	if errors.Is(err, shared.ErrInvalidState) {
		return nil, err
	}
	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		return nil, fmt.Errorf("failed to save flow session: %w", saveErr)
	}
	return s.respond(session), err
}

func (s *FlowService) save(ctx context.Context, session *purchase.Session) {
	if err := s.sessions.Save(ctx, session); err != nil {
		s.logger.Error("failed to save flow session",
			zap.String("flow_id", session.ID.String()),
			zap.Error(err))
	}
}

func (s *FlowService) verify(ctx context.Context, session *purchase.Session) error {
	d := session.Draft
	var name string
	switch session.Kind {
	case purchase.KindElectricity:
		info, err := s.backend.VerifyMeter(ctx, vtuapi.MeterVerifyRequest{
			DiscoCode: d.Provider.Code,
			MeterNo:   d.MeterNumber,
			MeterType: string(d.MeterType),
		})
		if err != nil {
			return err
		}
		name = info.CustomerName
	case purchase.KindCable:
		n, err := s.backend.VerifySmartCard(ctx, vtuapi.CableVerifyRequest{
			CableTV:     d.Provider.Code,
			SmartCardNo: d.SmartCard,
		})
		if err != nil {
			return err
		}
		name = n
	default:
		return nil
	}
	return session.MarkVerified(name)
}

func (s *FlowService) pay(ctx context.Context, session *purchase.Session) (*purchase.Receipt, error) {
	d := session.Draft
	var (
		result *vtuapi.PurchaseResult
		err    error
	)
	switch session.Kind {
	case purchase.KindData:
		result, err = s.backend.BuyData(ctx, vtuapi.BuyDataRequest{
			Network:     d.Provider.Code,
			PlanID:      d.ProductCode,
			PhoneNumber: d.Phone,
		})
	case purchase.KindAirtime:
		result, err = s.backend.BuyAirtime(ctx, vtuapi.BuyAirtimeRequest{
			Network:     d.Provider.Code,
			Amount:      d.Amount,
			PhoneNumber: d.Phone,
		})
	case purchase.KindCable:
		result, err = s.backend.PayCable(ctx, vtuapi.CablePayRequest{
			CableTV:     d.Provider.Code,
			PackageCode: d.ProductCode,
			SmartCardNo: d.SmartCard,
			PhoneNo:     d.Phone,
		})
	case purchase.KindElectricity:
		result, err = s.backend.PayElectricity(ctx, vtuapi.ElectricityPayRequest{
			DiscoCode: d.Provider.Code,
			MeterNo:   d.MeterNumber,
			MeterType: string(d.MeterType),
			Amount:    d.Amount,
			PhoneNo:   d.Phone,
		})
	default:
		return nil, purchase.ErrUnknownKind
	}
	if err != nil {
		return nil, err
	}

	customer := result.CustomerName
	if customer == "" {
		customer = d.CustomerName
	}
	return &purchase.Receipt{
		Reference:    result.TransactionID,
		Message:      result.Message,
		Token:        result.Token,
		CustomerName: customer,
		Amount:       d.Amount,
	}, nil
}

// failureMessage shows backend messages as they are and hides transport detail
func failureMessage(err error, fallback string) string {
	var de *shared.DomainError
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return fallback
}
