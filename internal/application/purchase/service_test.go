package purchase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/datapadi/web/internal/domain/purchase"
	"github.com/datapadi/web/internal/domain/shared"
	"github.com/datapadi/web/internal/domain/shared/valueobject"
	"github.com/datapadi/web/internal/infrastructure/cache"
	"github.com/datapadi/web/internal/infrastructure/vtuapi"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const owner = "user-42"

// MockBackend is a mock implementation of Backend
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Discos(ctx context.Context) ([]vtuapi.Disco, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]vtuapi.Disco), args.Error(1)
}

func (m *MockBackend) VerifyMeter(ctx context.Context, req vtuapi.MeterVerifyRequest) (*vtuapi.MeterInfo, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vtuapi.MeterInfo), args.Error(1)
}

func (m *MockBackend) VerifySmartCard(ctx context.Context, req vtuapi.CableVerifyRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) BuyData(ctx context.Context, req vtuapi.BuyDataRequest) (*vtuapi.PurchaseResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vtuapi.PurchaseResult), args.Error(1)
}

func (m *MockBackend) BuyAirtime(ctx context.Context, req vtuapi.BuyAirtimeRequest) (*vtuapi.PurchaseResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vtuapi.PurchaseResult), args.Error(1)
}

func (m *MockBackend) PayCable(ctx context.Context, req vtuapi.CablePayRequest) (*vtuapi.PurchaseResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vtuapi.PurchaseResult), args.Error(1)
}

func (m *MockBackend) PayElectricity(ctx context.Context, req vtuapi.ElectricityPayRequest) (*vtuapi.PurchaseResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vtuapi.PurchaseResult), args.Error(1)
}

func newFlowService(t *testing.T) (*FlowService, *MockBackend) {
	t.Helper()
	store := cache.NewInMemorySessionStore(time.Minute)
	guard := cache.NewInMemoryPaymentGuard()
	t.Cleanup(func() {
		_ = store.Close()
		_ = guard.Close()
	})
	backend := new(MockBackend)
	return NewFlowService(store, guard, backend, valueobject.NGN, nil, nil), backend
}

func strPtr(s string) *string { return &s }

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func startFlow(t *testing.T, svc *FlowService, kind string) uuid.UUID {
	t.Helper()
	resp, err := svc.Create(context.Background(), owner, CreateFlowRequest{Kind: kind})
	require.NoError(t, err)
	assert.Equal(t, "SELECT_PROVIDER", resp.State)
	return uuid.MustParse(resp.ID)
}

func TestFlowService_AirtimeHappyPath(t *testing.T) {
	svc, backend := newFlowService(t)
	ctx := context.Background()
	id := startFlow(t, svc, "airtime")

	_, err := svc.SelectProvider(ctx, owner, id, SelectProviderRequest{Provider: "mtn"})
	require.NoError(t, err)

	resp, err := svc.Next(ctx, owner, id)
	require.NoError(t, err)
	assert.Equal(t, "ENTER_DETAILS", resp.State)

	resp, err = svc.UpdateDetails(ctx, owner, id, DetailsRequest{Amount: decPtr(500), Phone: strPtr("0803 123 4567")})
	require.NoError(t, err)
	assert.Equal(t, "08031234567", resp.Draft.Phone)

	resp, err = svc.Next(ctx, owner, id)
	require.NoError(t, err)
	assert.Equal(t, "CONFIRM", resp.State)
	assert.Equal(t, []string{"BACK", "PAY"}, resp.Actions)

	backend.On("BuyAirtime", mock.Anything, mock.MatchedBy(func(r vtuapi.BuyAirtimeRequest) bool {
		return r.Network == "MTN" && r.Amount.Equal(decimal.NewFromInt(500)) && r.PhoneNumber == "08031234567"
	})).Return(&vtuapi.PurchaseResult{Message: "Airtime sent", TransactionID: "TX-1"}, nil).Once()

	resp, err = svc.Pay(ctx, owner, id)
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", resp.State)
	require.NotNil(t, resp.Receipt)
	assert.Equal(t, "TX-1", resp.Receipt.Reference)
	assert.Empty(t, resp.Actions)

	// a finished flow cannot be paid twice
	_, err = svc.Pay(ctx, owner, id)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	backend.AssertNumberOfCalls(t, "BuyAirtime", 1)
}

func confirmAirtime(t *testing.T, svc *FlowService) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	id := startFlow(t, svc, "airtime")
	_, err := svc.SelectProvider(ctx, owner, id, SelectProviderRequest{Provider: "mtn"})
	require.NoError(t, err)
	_, err = svc.Next(ctx, owner, id)
	require.NoError(t, err)
	_, err = svc.UpdateDetails(ctx, owner, id, DetailsRequest{Amount: decPtr(500), Phone: strPtr("08031234567")})
	require.NoError(t, err)
	resp, err := svc.Next(ctx, owner, id)
	require.NoError(t, err)
	require.Equal(t, "CONFIRM", resp.State)
	return id
}

func TestFlowService_ConcurrentPayChargesOnce(t *testing.T) {
	svc, backend := newFlowService(t)
	id := confirmAirtime(t, svc)

	backend.On("BuyAirtime", mock.Anything, mock.Anything).
		After(100*time.Millisecond).
		Return(&vtuapi.PurchaseResult{Message: "Airtime sent", TransactionID: "TX-1"}, nil)

	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.Pay(context.Background(), owner, id)
		}(i)
	}
	close(start)
	wg.Wait()

	var ok, refused int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, shared.ErrInvalidState):
			refused++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, refused)
	backend.AssertNumberOfCalls(t, "BuyAirtime", 1)

	resp, err := svc.Get(context.Background(), owner, id)
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", resp.State)
}

func TestFlowService_PayRetriesAfterFailure(t *testing.T) {
	svc, backend := newFlowService(t)
	ctx := context.Background()
	id := confirmAirtime(t, svc)

	backend.On("BuyAirtime", mock.Anything, mock.Anything).
		Return(nil, shared.NewDomainError(shared.CodeUpstreamFailed, "timeout")).Once()
	backend.On("BuyAirtime", mock.Anything, mock.Anything).
		Return(&vtuapi.PurchaseResult{TransactionID: "TX-2"}, nil).Once()

	_, err := svc.Pay(ctx, owner, id)
	require.Error(t, err)

	// the guard is released after a failed attempt
	resp, err := svc.Pay(ctx, owner, id)
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", resp.State)
	backend.AssertNumberOfCalls(t, "BuyAirtime", 2)
}

func TestFlowService_GuardFailureKeepsStep(t *testing.T) {
	svc, _ := newFlowService(t)
	ctx := context.Background()
	id := startFlow(t, svc, "AIRTIME")

	_, err := svc.Next(ctx, owner, id)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.SelectProvider(ctx, owner, id, SelectProviderRequest{Provider: "GLO"})
	require.NoError(t, err)
	_, err = svc.Next(ctx, owner, id)
	require.NoError(t, err)

	_, err = svc.UpdateDetails(ctx, owner, id, DetailsRequest{Amount: decPtr(20), Phone: strPtr("08031234567")})
	require.NoError(t, err)

	resp, err := svc.Next(ctx, owner, id)
	assert.ErrorIs(t, err, shared.ErrValidation)
	require.NotNil(t, resp)
	assert.Equal(t, "ENTER_DETAILS", resp.State)

	stored, err := svc.Get(ctx, owner, id)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.Error)
}

func TestFlowService_ElectricityVerification(t *testing.T) {
	svc, backend := newFlowService(t)
	ctx := context.Background()

	backend.On("Discos", mock.Anything).Return([]vtuapi.Disco{
		{ID: "ikeja-electric", Name: "Ikeja Electric", MinAmount: decimal.NewFromInt(500), MaxAmount: decimal.NewFromInt(100000)},
	}, nil)

	id := startFlow(t, svc, "ELECTRICITY")
	_, err := svc.SelectProvider(ctx, owner, id, SelectProviderRequest{Provider: "ikeja-electric"})
	require.NoError(t, err)
	_, err = svc.Next(ctx, owner, id)
	require.NoError(t, err)

	// below the disco minimum although inside the global window
	_, err = svc.UpdateDetails(ctx, owner, id, DetailsRequest{
		Amount: decPtr(200), Phone: strPtr("08031234567"),
		MeterNumber: strPtr("45012345678"), MeterType: strPtr("prepaid"),
	})
	require.NoError(t, err)
	_, err = svc.Next(ctx, owner, id)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.UpdateDetails(ctx, owner, id, DetailsRequest{Amount: decPtr(2000)})
	require.NoError(t, err)
	resp, err := svc.Next(ctx, owner, id)
	require.NoError(t, err)
	assert.Equal(t, "VALIDATE", resp.State)

	meterReq := vtuapi.MeterVerifyRequest{DiscoCode: "ikeja-electric", MeterNo: "45012345678", MeterType: "01"}
	backend.On("VerifyMeter", mock.Anything, meterReq).
		Return(nil, shared.NewDomainError(shared.CodeUpstreamFailed, "Meter not found")).Once()

	resp, err = svc.Next(ctx, owner, id)
	require.Error(t, err)
	assert.Equal(t, "VALIDATE", resp.State)
	assert.Equal(t, "Meter not found", resp.Error)

	backend.On("VerifyMeter", mock.Anything, meterReq).
		Return(&vtuapi.MeterInfo{CustomerName: "ADA OBI"}, nil).Once()

	resp, err = svc.Next(ctx, owner, id)
	require.NoError(t, err)
	assert.Equal(t, "CONFIRM", resp.State)
	assert.Equal(t, "ADA OBI", resp.Draft.CustomerName)
	assert.Empty(t, resp.Error)

	backend.On("PayElectricity", mock.Anything, mock.MatchedBy(func(r vtuapi.ElectricityPayRequest) bool {
		return r.DiscoCode == "ikeja-electric" && r.MeterNo == "45012345678" && r.MeterType == "01" &&
			r.Amount.Equal(decimal.NewFromInt(2000)) && r.PhoneNo == "08031234567"
	})).Return(&vtuapi.PurchaseResult{TransactionID: "TX-9", Token: "1234-5678-9012"}, nil)

	resp, err = svc.Pay(ctx, owner, id)
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", resp.State)
	assert.Equal(t, "1234-5678-9012", resp.Receipt.Token)
	assert.Equal(t, "ADA OBI", resp.Receipt.CustomerName)
}

func TestFlowService_PaymentFailureStaysOnConfirm(t *testing.T) {
	svc, backend := newFlowService(t)
	ctx := context.Background()
	id := startFlow(t, svc, "DATA")

	_, err := svc.SelectProvider(ctx, owner, id, SelectProviderRequest{Provider: "AIRTEL"})
	require.NoError(t, err)
	_, err = svc.Next(ctx, owner, id)
	require.NoError(t, err)
	_, err = svc.UpdateDetails(ctx, owner, id, DetailsRequest{
		ProductCode: strPtr("AIR-1GB"), ProductName: strPtr("1GB 30 days"), Phone: strPtr("07011112222"),
	})
	require.NoError(t, err)
	_, err = svc.Next(ctx, owner, id)
	require.NoError(t, err)

	backend.On("BuyData", mock.Anything, mock.Anything).
		Return(nil, shared.NewDomainError(shared.CodeUpstreamFailed, "Insufficient wallet balance"))

	resp, err := svc.Pay(ctx, owner, id)
	assert.ErrorIs(t, err, shared.ErrUpstreamFailed)
	assert.Equal(t, "CONFIRM", resp.State)
	assert.Equal(t, "Insufficient wallet balance", resp.Error)
	assert.Nil(t, resp.Receipt)
	backend.AssertNumberOfCalls(t, "BuyData", 1)

	// going back keeps the draft
	resp, err = svc.Back(ctx, owner, id)
	require.NoError(t, err)
	assert.Equal(t, "ENTER_DETAILS", resp.State)
	assert.Equal(t, "AIR-1GB", resp.Draft.ProductCode)
}

func TestFlowService_CableProviderChangeDropsPackage(t *testing.T) {
	svc, backend := newFlowService(t)
	ctx := context.Background()
	id := startFlow(t, svc, "CABLE")

	_, err := svc.SelectProvider(ctx, owner, id, SelectProviderRequest{Provider: "netflix"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.SelectProvider(ctx, owner, id, SelectProviderRequest{Provider: "dstv"})
	require.NoError(t, err)
	_, err = svc.Next(ctx, owner, id)
	require.NoError(t, err)
	_, err = svc.UpdateDetails(ctx, owner, id, DetailsRequest{
		ProductCode: strPtr("dstv-padi"), SmartCard: strPtr("7023456789"), Phone: strPtr("08031234567"),
	})
	require.NoError(t, err)

	resp, err := svc.UpdateDetails(ctx, owner, id, DetailsRequest{Provider: strPtr("gotv")})
	require.NoError(t, err)
	assert.Equal(t, "gotv", resp.Draft.Provider)
	assert.Empty(t, resp.Draft.ProductCode)

	_, err = svc.Next(ctx, owner, id)
	assert.ErrorIs(t, err, shared.ErrValidation)
	backend.AssertNotCalled(t, "VerifySmartCard", mock.Anything, mock.Anything)
}

func TestFlowService_Providers(t *testing.T) {
	svc, backend := newFlowService(t)
	ctx := context.Background()

	networks, err := svc.Providers(ctx, "data")
	require.NoError(t, err)
	require.Len(t, networks, 4)
	assert.Equal(t, "MTN", networks[0].Code)

	cable, err := svc.Providers(ctx, "cable")
	require.NoError(t, err)
	assert.Len(t, cable, len(purchase.CableProviders))

	backend.On("Discos", mock.Anything).Return(nil, errors.New("backend down"))
	_, err = svc.Providers(ctx, "electricity")
	assert.Error(t, err)

	_, err = svc.Providers(ctx, "insurance")
	assert.ErrorIs(t, err, purchase.ErrUnknownKind)
}

func TestFlowService_OwnershipAndDelete(t *testing.T) {
	svc, _ := newFlowService(t)
	ctx := context.Background()
	id := startFlow(t, svc, "DATA")

	_, err := svc.Get(ctx, "someone-else", id)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, owner, id))
	_, err = svc.Get(ctx, owner, id)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestFlowService_DetailsOnlyOnDetailsStep(t *testing.T) {
	svc, _ := newFlowService(t)
	id := startFlow(t, svc, "AIRTIME")

	_, err := svc.UpdateDetails(context.Background(), owner, id, DetailsRequest{Phone: strPtr("08031234567")})
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}
