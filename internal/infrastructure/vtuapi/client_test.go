package vtuapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/datapadi/web/internal/domain/shared"
	"github.com/datapadi/web/internal/domain/voucher"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second, UserAgent: "datapadi-web-test"})
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, code, de.Code)
}

func TestNew(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{BaseURL: "not a url"})
	assert.Error(t, err)

	c, err := New(Config{BaseURL: "https://api.example.com/"})
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/api/v1/user/profile", c.buildURL("/user/profile", nil))
}

func TestClient_SendsBearerTokenAndHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "datapadi-web-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "/api/v1/user/profile", r.URL.Path)
		writeJSON(w, 200, `{"success":true,"data":{"id":"u1","name":"Ada","email":"ada@example.com","walletBalance":1500.5,"todaySpent":"200","tier":"RESELLER","kycStatus":"VERIFIED","virtualAccount":{"bankName":"Wema","accountNumber":"0123456789","accountName":"DataPadi/Ada"}}}`)
	})

	ctx := WithToken(context.Background(), "tok-123")
	p, err := c.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.Name)
	assert.Equal(t, TierReseller, p.Tier)
	assert.Equal(t, KYCVerified, p.KYCStatus)
	assert.True(t, decimal.RequireFromString("1500.5").Equal(p.WalletBalance))
	assert.True(t, decimal.NewFromInt(200).Equal(p.TodaySpent))
	require.NotNil(t, p.VirtualAccount)
	assert.Equal(t, "0123456789", p.VirtualAccount.AccountNumber)
}

func TestClient_NoTokenNoAuthorizationHeader(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, 201, `{"message":"Registration successful"}`)
	})

	msg, err := c.Register(context.Background(), RegisterRequest{UserName: "ada", Email: "a@b.co", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "Registration successful", msg)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   string
		msg    string
	}{
		{"unauthorized", 401, `{"message":"Token expired"}`, shared.CodeUnauthorized, "Token expired"},
		{"not found", 404, `{"message":"Order not found"}`, shared.CodeNotFound, "Order not found"},
		{"backend message surfaces", 400, `{"success":false,"message":"Insufficient wallet balance"}`, shared.CodeUpstreamFailed, "Insufficient wallet balance"},
		{"non JSON error body", 502, `<html>bad gateway</html>`, shared.CodeUpstreamFailed, "Backend request failed with status 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			_, err := c.Dashboard(context.Background())
			requireCode(t, err, tt.code)
			assert.Equal(t, tt.msg, err.Error())
		})
	}
}

func TestClient_DecodeFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not an object", `[1,2,3]`},
		{"missing data", `{"success":true}`},
		{"wrong shape", `{"success":true,"data":"oops"}`},
		{"malformed", `{"success":true,"data":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, 200, tt.body)
			})
			_, err := c.Dashboard(context.Background())
			requireCode(t, err, shared.CodeDecodeFailed)
		})
	}
}

func TestClient_TransportFailureIsDataUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: url, Timeout: time.Second})
	require.NoError(t, err)

	_, err = c.Profile(context.Background())
	requireCode(t, err, shared.CodeDataUnavailable)
}

type recordingObserver struct {
	routes   []string
	statuses []int
}

func (o *recordingObserver) RecordUpstream(_ context.Context, method, path string, status int, _ time.Duration) {
	o.routes = append(o.routes, method+" "+path)
	o.statuses = append(o.statuses, status)
}

func TestClient_ObserverSeesEveryRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 404, `{"message":"order not found"}`)
	}))
	t.Cleanup(srv.Close)

	obs := &recordingObserver{}
	c, err := New(Config{BaseURL: srv.URL, Timeout: time.Second, Observer: obs})
	require.NoError(t, err)

	_, err = c.PrintOrder(context.Background(), "ORD-123")
	requireCode(t, err, shared.CodeNotFound)

	assert.Equal(t, []string{"GET /vtu/print"}, obs.routes)
	assert.Equal(t, []int{404}, obs.statuses)
}

func TestRouteOf(t *testing.T) {
	assert.Equal(t, "/vtu/print", routeOf("/vtu/print/ORD-1"))
	assert.Equal(t, "/user/profile", routeOf("/user/profile"))
	assert.Equal(t, "/auth", routeOf("/auth"))
}

func TestClient_DoesNotRetry(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, 503, `{"message":"provider down"}`)
	})

	_, err := c.BuyData(context.Background(), BuyDataRequest{Network: "MTN", PlanID: "p1", PhoneNumber: "08031234567"})
	requireCode(t, err, shared.CodeUpstreamFailed)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"data":[]}`)
	})
	c2, err := New(Config{BaseURL: c.baseURL.String(), RateLimit: 0.001, RateBurst: 1})
	require.NoError(t, err)
	c2.WithHTTPClient(c.httpClient)

	_, err = c2.Discos(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c2.Discos(ctx)
	requireCode(t, err, shared.CodeDataUnavailable)
}

func TestClient_Login(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ada@example.com", body.Email)
		writeJSON(w, 200, `{"token":"jwt-token","user":{"id":"u1","userName":"ada","tier":"SMART_USER","isKycVerified":false}}`)
	})

	res, err := c.Login(context.Background(), LoginRequest{Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", res.Token)
	assert.Equal(t, "ada", res.User.UserName)
	assert.Equal(t, TierSmartUser, res.User.Tier)
}

func TestClient_LoginWithoutToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"user":{"id":"u1"}}`)
	})
	_, err := c.Login(context.Background(), LoginRequest{Email: "a", Password: "b"})
	requireCode(t, err, shared.CodeDecodeFailed)
}

func TestClient_Transactions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "RECHARGE_PIN", r.URL.Query().Get("type"))
		writeJSON(w, 200, `{"data":[{"id":"t1","type":"RECHARGE_PIN","amount":5000,"status":"SUCCESS","createdAt":"2024-05-01T10:00:00Z"}],"pagination":{"page":2,"limit":10,"total":11,"totalPages":2}}`)
	})

	txType, ok := ParseTransactionType("PINS")
	require.True(t, ok)
	page, err := c.Transactions(context.Background(), TransactionQuery{Page: 2, Type: txType})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, TxRechargePin, page.Items[0].Type)
	assert.Equal(t, int64(11), page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)
}

func TestClient_TransactionsOmitsEmptyType(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, present := r.URL.Query()["type"]
		assert.False(t, present)
		writeJSON(w, 200, `{"data":[]}`)
	})
	page, err := c.Transactions(context.Background(), TransactionQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.Pagination.Page)
}

func TestParseTransactionType(t *testing.T) {
	typ, ok := ParseTransactionType("ALL")
	assert.True(t, ok)
	assert.Empty(t, typ)

	typ, ok = ParseTransactionType("CABLE_TV")
	assert.True(t, ok)
	assert.Equal(t, TxCableTV, typ)

	_, ok = ParseTransactionType("LOTTERY")
	assert.False(t, ok)
}

func TestClient_DataPlans(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"data":{"MOBILE_NETWORK":{
			"m_9mobile":[{"ID":"4","PRODUCT":[{"PRODUCT_CODE":"9a","PRODUCT_NAME":"1GB","PRODUCT_AMOUNT":"1000","PRODUCT_ID":"91","SELLING_PRICE":1100}]}],
			"Glo":[{"ID":"3","PRODUCT":[{"PRODUCT_CODE":"g1","PRODUCT_NAME":"2GB","PRODUCT_AMOUNT":"1000","PRODUCT_ID":"31","SELLING_PRICE":1100}]}],
			"MTN":[{"ID":"1","PRODUCT":[{"PRODUCT_CODE":"m1","PRODUCT_NAME":"500MB","PRODUCT_AMOUNT":"500","PRODUCT_ID":"11","SELLING_PRICE":550},{"PRODUCT_CODE":"m2","PRODUCT_NAME":"1GB","PRODUCT_AMOUNT":"1000","PRODUCT_ID":"12","SELLING_PRICE":1100}]}]
		}}}`)
	})

	plans, err := c.DataPlans(context.Background())
	require.NoError(t, err)

	flat := FlattenPlans(plans)
	require.Len(t, flat, 4)
	assert.Equal(t, voucher.NetworkMTN, flat[0].Network)
	assert.Equal(t, "m1", flat[0].ProductCode)
	assert.Equal(t, "m2", flat[1].ProductCode)
	assert.Equal(t, voucher.NetworkGlo, flat[2].Network)
	assert.Equal(t, voucher.Network9Mobile, flat[3].Network)
	assert.True(t, decimal.NewFromInt(550).Equal(flat[0].SellingPrice))
}

func TestClient_DataPlansMissingNetworkMap(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"data":{}}`)
	})
	_, err := c.DataPlans(context.Background())
	requireCode(t, err, shared.CodeDecodeFailed)
}

func TestClient_BuyAirtimeSendsNumericAmount(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.Equal(t, float64(500), raw["amount"])
		assert.Equal(t, "AIRTEL", raw["network"])
		writeJSON(w, 200, `{"message":"Airtime sent","transactionId":"TX-9"}`)
	})

	res, err := c.BuyAirtime(context.Background(), BuyAirtimeRequest{
		Network:     "AIRTEL",
		Amount:      decimal.NewFromInt(500),
		PhoneNumber: "08021234567",
	})
	require.NoError(t, err)
	assert.Equal(t, "TX-9", res.TransactionID)
	assert.Equal(t, "Airtime sent", res.Message)
}

func TestClient_DataStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/vtu/data/REF%2F1", r.URL.EscapedPath())
		writeJSON(w, 200, `{"data":{"status":"SUCCESS","amount":"1100"}}`)
	})

	st, err := c.DataStatus(context.Background(), "REF/1")
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", st.Status)
	assert.Equal(t, "REF/1", st.Reference)

	_, err = c.AirtimeStatus(context.Background(), " ")
	requireCode(t, err, shared.CodeValidation)
}

func TestClient_FundingAndKYC(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/payment/fund/init":
			writeJSON(w, 200, `{"paymentLink":"https://pay.example.com/abc"}`)
		case "/api/v1/payment/kyc/create":
			writeJSON(w, 200, `{"message":"KYC submitted"}`)
		}
	})
	ctx := context.Background()

	_, err := c.InitFunding(ctx, decimal.NewFromInt(99))
	requireCode(t, err, shared.CodeValidation)

	res, err := c.InitFunding(ctx, decimal.NewFromInt(1000))
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/abc", res.PaymentLink)

	_, err = c.SubmitKYC(ctx, "1234")
	requireCode(t, err, shared.CodeValidation)

	msg, err := c.SubmitKYC(ctx, "12345678901")
	require.NoError(t, err)
	assert.Equal(t, "KYC submitted", msg)
}
