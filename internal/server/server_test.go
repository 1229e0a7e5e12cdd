package server

import (
	"bytes"
	"context"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/iwvelando/gift-annuity/internal/config"
	"github.com/iwvelando/gift-annuity/internal/estimate"
	"github.com/iwvelando/gift-annuity/pkg/annuity"
	"github.com/iwvelando/gift-annuity/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestHandler(t *testing.T, maxBodySize int64) http.Handler {
	t.Helper()
	est := estimate.New(zap.NewNop(), testutil.ScenarioSet(t), config.CalculatorConfig{})
	return NewHandler(zap.NewNop(), est, maxBodySize, "1.2.3")
}

func perform(handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), "body: %s", rec.Body.String())
}

func TestHandleCalculateSuccess(t *testing.T) {
	handler := newTestHandler(t, 0)

	rec := perform(handler, http.MethodPost, "/api/calculate",
		`{"name":"Alice","donorAge":75,"giftAmount":100000,"frequency":"annual","discountRate":4.24}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var result estimate.Result
	decodeBody(t, rec, &result)

	assert.Equal(t, "Alice", result.Name)
	assert.Equal(t, annuity.Annual, result.Estimate.Request.Frequency)
	assert.Equal(t, annuity.DiscountKey("4.2"), result.Estimate.DiscountKey)
	assert.Equal(t, 6.3, result.Estimate.Rate)
	assert.Equal(t, 9.5, result.Estimate.Factor)
	assert.InDelta(t, 6300.0, result.Estimate.AnnualPayout, 1e-9)
	assert.InDelta(t, 59850.0, result.Estimate.EstimatedDeduction, 1e-6)
	assert.InDelta(t, 40150.0, result.Estimate.CharitableRemainder, 1e-6)
	assert.False(t, result.Estimate.FallbackUsed())
	assert.Empty(t, result.Estimate.Warnings)
	assert.Empty(t, result.Advisories)
	assert.NotContains(t, rec.Body.String(), `"warnings"`)
}

func TestHandleCalculateFactorFallbackWarning(t *testing.T) {
	handler := newTestHandler(t, 0)

	rec := perform(handler, http.MethodPost, "/api/calculate",
		`{"donorAge":75,"jointAge":67,"joint":true,"giftAmount":100000,"frequency":"Annual","discountRate":4.2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result estimate.Result
	decodeBody(t, rec, &result)

	assert.Equal(t, 5.8, result.Estimate.Rate)
	assert.Equal(t, 9.0, result.Estimate.Factor)
	assert.True(t, result.Estimate.Fallbacks.Factor)
	assert.False(t, result.Estimate.Fallbacks.Rate)
	require.Len(t, result.Estimate.Warnings, 1)
	assert.Equal(t, annuity.WarningFactorFallback, result.Estimate.Warnings[0].Code)
	assert.NotEmpty(t, result.Name, "unnamed requests are named after the request ID")
}

func TestHandleCalculateErrors(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{"Malformed JSON", `{"donorAge":`, http.StatusBadRequest},
		{"Wrong type", `{"donorAge":"old","giftAmount":1000}`, http.StatusBadRequest},
		{"Zero amount", `{"donorAge":75,"giftAmount":0,"discountRate":4.2}`, http.StatusUnprocessableEntity},
		{"Negative amount", `{"donorAge":75,"giftAmount":-100,"discountRate":4.2}`, http.StatusUnprocessableEntity},
		{"Joint without joint age", `{"donorAge":75,"joint":true,"giftAmount":1000,"discountRate":4.2}`, http.StatusUnprocessableEntity},
		{"Overflowing amount", `{"donorAge":75,"giftAmount":1.7e308,"discountRate":4.2}`, http.StatusUnprocessableEntity},
	}

	handler := newTestHandler(t, 0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := perform(handler, http.MethodPost, "/api/calculate", tt.body)
			assert.Equal(t, tt.expectedStatus, rec.Code, rec.Body.String())

			var payload map[string]string
			decodeBody(t, rec, &payload)
			assert.NotEmpty(t, payload["error"])
		})
	}
}

func TestWriteJSONEncodeFailure(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	h := &handler{logger: zap.New(core)}

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	h.writeJSON(c, http.StatusOK, struct{ Value float64 }{Value: math.Inf(1)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	var payload map[string]string
	decodeBody(t, rec, &payload)
	assert.Equal(t, "failed to encode response", payload["error"])
	assert.Equal(t, 1, logs.FilterMessage("failed to write JSON response").Len())
}

func TestHandleCalculateBodyTooLarge(t *testing.T) {
	handler := newTestHandler(t, 64)

	body := `{"name":"` + strings.Repeat("x", 128) + `","donorAge":75,"giftAmount":1000,"discountRate":4.2}`
	rec := perform(handler, http.MethodPost, "/api/calculate", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHandleCalculateWrongMethod(t *testing.T) {
	handler := newTestHandler(t, 0)

	rec := perform(handler, http.MethodGet, "/api/calculate", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleSchedule(t *testing.T) {
	handler := newTestHandler(t, 0)

	rec := perform(handler, http.MethodPost, "/api/schedule?years=5",
		`{"name":"Alice","donorAge":75,"giftAmount":100000,"frequency":"quarterly","discountRate":4.2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var response scheduleResponse
	decodeBody(t, rec, &response)

	require.Len(t, response.Schedule, 5)
	first := response.Schedule[0]
	assert.Equal(t, 1, first.Year)
	assert.Equal(t, 4, first.Payments)
	assert.InDelta(t, 1575.0, first.PerPayment, 1e-9)
	assert.InDelta(t, 31500.0, response.Schedule[4].Cumulative, 1e-6)
	assert.Equal(t, annuity.Quarterly, response.Result.Estimate.Request.Frequency)
}

func TestHandleScheduleDefaultsAndErrors(t *testing.T) {
	handler := newTestHandler(t, 0)
	body := `{"donorAge":75,"giftAmount":100000,"discountRate":4.2}`

	rec := perform(handler, http.MethodPost, "/api/schedule", body)
	require.Equal(t, http.StatusOK, rec.Code)
	var response scheduleResponse
	decodeBody(t, rec, &response)
	assert.Len(t, response.Schedule, 20)

	for _, years := range []string{"0", "-1", "abc", "101"} {
		rec := perform(handler, http.MethodPost, "/api/schedule?years="+years, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "years=%s", years)
	}
}

func TestHandleTables(t *testing.T) {
	handler := newTestHandler(t, 0)

	rec := perform(handler, http.MethodGet, "/api/tables?rates", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var response tablesResponse
	decodeBody(t, rec, &response)

	assert.Equal(t, 1, response.SingleLifeRates)
	assert.Equal(t, 1, response.JointLifeRates)
	assert.Equal(t, 2, response.SingleLifeFactors)
	assert.Equal(t, 0, response.JointLifeFactors)
	assert.Equal(t, "0.1", response.DiscountStep)
	assert.Equal(t, []string{"4.2"}, response.DiscountKeys)
	require.Len(t, response.Reports, 1)
	assert.Equal(t, testutil.ScenarioSourceName, response.Reports[0].Source)
	require.Len(t, response.Rates, 1)
	assert.Equal(t, 75, response.Rates[0].Age)
}

func TestHandleTablesEmptyEstimator(t *testing.T) {
	handler := NewHandler(nil, nil, 0, "")

	rec := perform(handler, http.MethodGet, "/api/tables", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var response tablesResponse
	decodeBody(t, rec, &response)
	assert.Zero(t, response.SingleLifeRates)
	assert.Empty(t, response.DiscountKeys)

	rec = perform(handler, http.MethodPost, "/api/calculate", `{"donorAge":75,"giftAmount":1000,"discountRate":4.2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var result estimate.Result
	decodeBody(t, rec, &result)
	assert.True(t, result.Estimate.Fallbacks.Rate)
	assert.True(t, result.Estimate.Fallbacks.Factor)
}

func TestHandleFrequencies(t *testing.T) {
	handler := newTestHandler(t, 0)

	rec := perform(handler, http.MethodGet, "/api/frequencies", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var frequencies []frequencyInfo
	decodeBody(t, rec, &frequencies)

	require.Len(t, frequencies, 4)
	assert.Equal(t, annuity.Annual, frequencies[0].Name)
	assert.Equal(t, 1.0, frequencies[0].Multiplier)
	assert.Equal(t, annuity.Monthly, frequencies[3].Name)
	assert.Equal(t, 0.945, frequencies[3].Multiplier)
	assert.Equal(t, 12, frequencies[3].PaymentsPerYear)
}

func TestHandleVersionAndHealth(t *testing.T) {
	handler := newTestHandler(t, 0)

	rec := perform(handler, http.MethodGet, "/api/version", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var version map[string]string
	decodeBody(t, rec, &version)
	assert.Equal(t, "1.2.3", version["version"])

	rec = perform(NewHandler(nil, nil, 0, "  "), http.MethodGet, "/api/version", "")
	decodeBody(t, rec, &version)
	assert.Equal(t, "dev", version["version"])

	rec = perform(handler, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRequestID(t *testing.T) {
	handler := newTestHandler(t, 0)

	rec := perform(handler, http.MethodGet, "/healthz", "")
	generated := rec.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36, "expected a UUID, got %q", generated)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	est := estimate.New(nil, testutil.ScenarioSet(t), config.CalculatorConfig{})
	handler := NewHandler(zap.New(core), est, 0, "test")

	perform(handler, http.MethodGet, "/api/version", "")

	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "server.accessLog", fields["op"])
	assert.Equal(t, "/api/version", fields["path"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
	assert.NotEmpty(t, fields["requestID"])
}

func TestRunShutsDownOnCancel(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	address := listener.Addr().String()
	require.NoError(t, listener.Close())

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	cfg.Address = address
	cfg.ShutdownTimeout = time.Second

	handler := newTestHandler(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, nil, cfg, handler)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + address + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}
}

func TestCalculateRequestDecoding(t *testing.T) {
	var req calculateRequest
	require.NoError(t, json.NewDecoder(bytes.NewBufferString(
		`{"name":"n","donorAge":70,"jointAge":65,"joint":true,"giftAmount":5,"frequency":"Monthly","discountRate":3.3}`,
	)).Decode(&req))

	assert.Equal(t, "n", req.Name)
	assert.Equal(t, 70, req.DonorAge)
	assert.Equal(t, 65, req.JointAge)
	assert.True(t, req.Joint)
	assert.Equal(t, annuity.Monthly, req.Frequency)
	assert.Equal(t, 3.3, req.DiscountRate)
}
