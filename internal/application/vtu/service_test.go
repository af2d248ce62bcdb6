package vtu

import (
	"context"
	"testing"

	"github.com/datapadi/web/internal/domain/shared"
	"github.com/datapadi/web/internal/domain/shared/valueobject"
	"github.com/datapadi/web/internal/infrastructure/vtuapi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) DataPlans(ctx context.Context) (vtuapi.NetworkPlans, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(vtuapi.NetworkPlans), args.Error(1)
}

func (m *MockBackend) purchase(args mock.Arguments) (*vtuapi.PurchaseResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vtuapi.PurchaseResult), args.Error(1)
}

func (m *MockBackend) BuyData(ctx context.Context, req vtuapi.BuyDataRequest) (*vtuapi.PurchaseResult, error) {
	return m.purchase(m.Called(ctx, req))
}

func (m *MockBackend) BuyAirtime(ctx context.Context, req vtuapi.BuyAirtimeRequest) (*vtuapi.PurchaseResult, error) {
	return m.purchase(m.Called(ctx, req))
}

func (m *MockBackend) status(args mock.Arguments) (*vtuapi.TransactionStatus, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vtuapi.TransactionStatus), args.Error(1)
}

func (m *MockBackend) DataStatus(ctx context.Context, reference string) (*vtuapi.TransactionStatus, error) {
	return m.status(m.Called(ctx, reference))
}

func (m *MockBackend) AirtimeStatus(ctx context.Context, reference string) (*vtuapi.TransactionStatus, error) {
	return m.status(m.Called(ctx, reference))
}

func (m *MockBackend) CablePackages(ctx context.Context) (vtuapi.CablePackages, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(vtuapi.CablePackages), args.Error(1)
}

func (m *MockBackend) VerifySmartCard(ctx context.Context, req vtuapi.CableVerifyRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) PayCable(ctx context.Context, req vtuapi.CablePayRequest) (*vtuapi.PurchaseResult, error) {
	return m.purchase(m.Called(ctx, req))
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

func (m *MockBackend) PayElectricity(ctx context.Context, req vtuapi.ElectricityPayRequest) (*vtuapi.PurchaseResult, error) {
	return m.purchase(m.Called(ctx, req))
}

func newTestService() (*Service, *MockBackend) {
	backend := new(MockBackend)
	return NewService(backend, valueobject.NGN, nil), backend
}

func TestService_DataPlans(t *testing.T) {
	svc, backend := newTestService()
	backend.On("DataPlans", mock.Anything).Return(vtuapi.NetworkPlans{
		"Glo": {{ID: "g", Product: []vtuapi.DataPlan{{ProductCode: "G1", ProductName: "1GB", SellingPrice: decimal.NewFromInt(300)}}}},
		"MTN": {{ID: "m", Product: []vtuapi.DataPlan{
			{ProductCode: "M1", ProductName: "500MB", SellingPrice: decimal.NewFromInt(150)},
			{ProductCode: "M2", ProductName: "2GB", SellingPrice: decimal.NewFromInt(600)},
		}}},
	}, nil)

	all, err := svc.DataPlans(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "MTN", all[0].Network)
	assert.Equal(t, "M1", all[0].Code)
	assert.Equal(t, "GLO", all[2].Network)

	glo, err := svc.DataPlans(context.Background(), "glo")
	require.NoError(t, err)
	require.Len(t, glo, 1)
	assert.Equal(t, "G1", glo[0].Code)

	_, err = svc.DataPlans(context.Background(), "vodafone")
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestService_BuyData(t *testing.T) {
	svc, backend := newTestService()
	backend.On("BuyData", mock.Anything, vtuapi.BuyDataRequest{Network: "MTN", PlanID: "M2", PhoneNumber: "08031234567"}).
		Return(&vtuapi.PurchaseResult{TransactionID: "tx-1"}, nil)

	resp, err := svc.BuyData(context.Background(), BuyDataRequest{Network: "mtn", PlanID: " M2 ", Phone: "0803 123 4567"})
	require.NoError(t, err)
	assert.Equal(t, "Data purchase successful", resp.Message)
	assert.Equal(t, "tx-1", resp.TransactionID)
	backend.AssertExpectations(t)
}

func TestService_BuyAirtime(t *testing.T) {
	ctx := context.Background()

	t.Run("amount outside window", func(t *testing.T) {
		svc, backend := newTestService()
		_, err := svc.BuyAirtime(ctx, BuyAirtimeRequest{Network: "AIRTEL", Amount: decimal.NewFromInt(20), Phone: "08031234567"})
		assert.ErrorIs(t, err, shared.ErrValidation)
		backend.AssertNotCalled(t, "BuyAirtime", mock.Anything, mock.Anything)
	})

	t.Run("bad phone", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.BuyAirtime(ctx, BuyAirtimeRequest{Network: "AIRTEL", Amount: decimal.NewFromInt(200), Phone: "0803"})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("purchased", func(t *testing.T) {
		svc, backend := newTestService()
		backend.On("BuyAirtime", mock.Anything, mock.MatchedBy(func(r vtuapi.BuyAirtimeRequest) bool {
			return r.Network == "9MOBILE" && r.Amount.Equal(decimal.NewFromInt(200)) && r.PhoneNumber == "+2348031234567"
		})).Return(&vtuapi.PurchaseResult{Message: "Airtime sent"}, nil)

		resp, err := svc.BuyAirtime(ctx, BuyAirtimeRequest{Network: "m_9mobile", Amount: decimal.NewFromInt(200), Phone: "+234 803-123-4567"})
		require.NoError(t, err)
		assert.Equal(t, "Airtime sent", resp.Message)
	})
}

func TestService_Status(t *testing.T) {
	svc, backend := newTestService()
	backend.On("DataStatus", mock.Anything, "REF-1").
		Return(&vtuapi.TransactionStatus{Reference: "REF-1", Status: "SUCCESS", Amount: decimal.NewFromInt(600)}, nil)
	backend.On("AirtimeStatus", mock.Anything, "REF-2").
		Return(nil, shared.NewDomainError(shared.CodeNotFound, "Transaction not found"))

	st, err := svc.DataStatus(context.Background(), " REF-1 ")
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", st.Status)

	_, err = svc.AirtimeStatus(context.Background(), "REF-2")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.DataStatus(context.Background(), "  ")
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestService_Cable(t *testing.T) {
	ctx := context.Background()
	svc, backend := newTestService()
	backend.On("CablePackages", mock.Anything).Return(vtuapi.CablePackages{
		"DStv": {{ID: "dstv", Product: []vtuapi.CablePackage{{PackageID: "dstv-padi", PackageName: "Padi", PackageAmount: "2950"}}}},
		"GOtv": {{ID: "gotv", Product: []vtuapi.CablePackage{{PackageID: "gotv-max", PackageName: "Max", PackageAmount: "7200"}}}},
	}, nil)
	backend.On("VerifySmartCard", mock.Anything, vtuapi.CableVerifyRequest{CableTV: "dstv", SmartCardNo: "7012345678"}).
		Return("ADA OBI", nil)
	backend.On("PayCable", mock.Anything, vtuapi.CablePayRequest{
		CableTV: "dstv", PackageCode: "dstv-padi", SmartCardNo: "7012345678", PhoneNo: "08031234567",
	}).Return(&vtuapi.PurchaseResult{TransactionID: "tx-7"}, nil)

	pkgs, err := svc.CablePackages(ctx, "DSTV")
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "dstv-padi", pkgs[0].Code)

	_, err = svc.CablePackages(ctx, "netflix")
	assert.ErrorIs(t, err, shared.ErrValidation)

	customer, err := svc.VerifySmartCard(ctx, VerifySmartCardRequest{Provider: "dstv", SmartCard: "7012345678"})
	require.NoError(t, err)
	assert.Equal(t, "ADA OBI", customer.CustomerName)

	_, err = svc.VerifySmartCard(ctx, VerifySmartCardRequest{Provider: "dstv", SmartCard: "123"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	resp, err := svc.PayCable(ctx, PayCableRequest{Provider: "dstv", PackageCode: "dstv-padi", SmartCard: "7012345678", Phone: "08031234567"})
	require.NoError(t, err)
	assert.Equal(t, "Subscription successful", resp.Message)
	backend.AssertExpectations(t)
}

func TestService_Electricity(t *testing.T) {
	ctx := context.Background()
	discos := []vtuapi.Disco{
		{ID: "ikeja-electric", Name: "Ikeja Electric", MinAmount: decimal.NewFromInt(1000), MaxAmount: decimal.NewFromInt(200000)},
	}

	t.Run("verify meter", func(t *testing.T) {
		svc, backend := newTestService()
		backend.On("VerifyMeter", mock.Anything, vtuapi.MeterVerifyRequest{DiscoCode: "ikeja-electric", MeterNo: "45012345678", MeterType: "01"}).
			Return(&vtuapi.MeterInfo{CustomerName: "ADA OBI", MeterNumber: "45012345678"}, nil)

		info, err := svc.VerifyMeter(ctx, VerifyMeterRequest{Disco: "ikeja-electric", MeterNumber: "45012345678", MeterType: "PREPAID"})
		require.NoError(t, err)
		assert.Equal(t, "ADA OBI", info.CustomerName)

		_, err = svc.VerifyMeter(ctx, VerifyMeterRequest{Disco: "ikeja-electric", MeterNumber: "45012345678", MeterType: "SMART"})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("amount below disco minimum", func(t *testing.T) {
		svc, backend := newTestService()
		backend.On("Discos", mock.Anything).Return(discos, nil)

		_, err := svc.PayElectricity(ctx, PayElectricityRequest{
			Disco: "ikeja-electric", MeterNumber: "45012345678", MeterType: "01", Amount: decimal.NewFromInt(500), Phone: "08031234567",
		})
		assert.ErrorIs(t, err, shared.ErrValidation)
		backend.AssertNotCalled(t, "PayElectricity", mock.Anything, mock.Anything)
	})

	t.Run("unknown disco", func(t *testing.T) {
		svc, backend := newTestService()
		backend.On("Discos", mock.Anything).Return(discos, nil)

		_, err := svc.PayElectricity(ctx, PayElectricityRequest{
			Disco: "abuja", MeterNumber: "45012345678", MeterType: "01", Amount: decimal.NewFromInt(5000), Phone: "08031234567",
		})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("prepaid returns token", func(t *testing.T) {
		svc, backend := newTestService()
		backend.On("Discos", mock.Anything).Return(discos, nil)
		backend.On("PayElectricity", mock.Anything, mock.MatchedBy(func(r vtuapi.ElectricityPayRequest) bool {
			return r.DiscoCode == "ikeja-electric" && r.MeterType == "01" && r.Amount.Equal(decimal.NewFromInt(5000))
		})).Return(&vtuapi.PurchaseResult{Token: "1234-5678-9012-3456-7890", TransactionID: "tx-e"}, nil)

		resp, err := svc.PayElectricity(ctx, PayElectricityRequest{
			Disco: "IKEJA-ELECTRIC", MeterNumber: "45012345678", MeterType: "prepaid", Amount: decimal.NewFromInt(5000), Phone: "08031234567",
		})
		require.NoError(t, err)
		assert.Equal(t, "1234-5678-9012-3456-7890", resp.Token)
		assert.Equal(t, "Electricity purchase successful", resp.Message)
	})

	t.Run("list discos", func(t *testing.T) {
		svc, backend := newTestService()
		backend.On("Discos", mock.Anything).Return(discos, nil)
		out, err := svc.Discos(ctx)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "ikeja-electric", out[0].Code)
	})
}
