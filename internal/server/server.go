// Package server exposes the annuity estimator over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/iwvelando/gift-annuity/internal/config"
	"github.com/iwvelando/gift-annuity/internal/estimate"
	"github.com/iwvelando/gift-annuity/pkg/annuity"
	"github.com/iwvelando/gift-annuity/pkg/constants"
	"github.com/iwvelando/gift-annuity/pkg/tables"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "requestID"

const encodeFailureBody = `{"error":"failed to encode response"}` + "\n"

type handler struct {
	logger      *zap.Logger
	estimator   *estimate.Estimator
	maxBodySize int64
	version     string
}

// NewHandler constructs the HTTP handler that serves the estimate API. The
// estimator's tables are shared read-only by every request.
func NewHandler(logger *zap.Logger, estimator *estimate.Estimator, maxBodySize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if estimator == nil {
		estimator = estimate.New(logger, nil, config.CalculatorConfig{})
	}

	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, estimator: estimator, maxBodySize: maxBodySize, version: trimmedVersion}

	r := gin.New()
	r.Use(requestID(), h.accessLog(), gin.Recovery(), h.limitBody())

	r.GET("/healthz", h.handleHealth)

	api := r.Group("/api")
	api.POST("/calculate", h.handleCalculate)
	api.POST("/schedule", h.handleSchedule)
	api.GET("/tables", h.handleTables)
	api.GET("/frequencies", h.handleFrequencies)
	api.GET("/version", h.handleVersion)

	return r
}

// Run serves handler on cfg.Address until ctx is cancelled, then shuts down
// gracefully within cfg.ShutdownTimeout.
func Run(ctx context.Context, logger *zap.Logger, cfg *Config, handler http.Handler) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("listening on %s", cfg.Address),
			zap.String("op", "server.Run"),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down",
		zap.String("op", "server.Run"),
	)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return <-errCh
}

type calculateRequest struct {
	Name string `json:"name"`
	annuity.GiftRequest
}

type scheduleResponse struct {
	Result   estimate.Result           `json:"result"`
	Schedule []annuity.ScheduledPayout `json:"schedule"`
}

type tablesResponse struct {
	SingleLifeRates   int                      `json:"singleLifeRates"`
	JointLifeRates    int                      `json:"jointLifeRates"`
	SingleLifeFactors int                      `json:"singleLifeFactors"`
	JointLifeFactors  int                      `json:"jointLifeFactors"`
	DiscountStep      string                   `json:"discountStep"`
	DiscountKeys      []string                 `json:"discountKeys"`
	Reports           []tables.Report          `json:"reports"`
	Rates             []annuity.SingleLifeRate `json:"rates,omitempty"`
}

type frequencyInfo struct {
	Name            annuity.Frequency `json:"name"`
	Multiplier      float64           `json:"multiplier"`
	PaymentsPerYear int               `json:"paymentsPerYear"`
}

func (h *handler) handleHealth(c *gin.Context) {
	h.writeJSON(c, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleVersion(c *gin.Context) {
	h.writeJSON(c, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleCalculate(c *gin.Context) {
	const op = "server.handleCalculate"

	result, ok := h.calculate(c, op)
	if !ok {
		return
	}
	h.writeJSON(c, http.StatusOK, result)
}

func (h *handler) handleSchedule(c *gin.Context) {
	const op = "server.handleSchedule"

	years := constants.DefaultScheduleYears
	if raw := c.Query("years"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > constants.MaxScheduleYears {
			h.respondError(c, http.StatusBadRequest,
				fmt.Sprintf("years must be a whole number between 1 and %d, got %q", constants.MaxScheduleYears, raw), op)
			return
		}
		years = n
	}

	result, ok := h.calculate(c, op)
	if !ok {
		return
	}
	h.writeJSON(c, http.StatusOK, scheduleResponse{
		Result:   result,
		Schedule: annuity.PayoutSchedule(result.Estimate, years),
	})
}

// calculate decodes a gift from the body and runs it. On failure the error
// response has already been written.
func (h *handler) calculate(c *gin.Context, op string) (estimate.Result, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(c, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds limit of %d bytes", h.maxBodySize), op)
			return estimate.Result{}, false
		}
		h.respondError(c, http.StatusBadRequest, fmt.Sprintf("failed to read request: %v", err), op)
		return estimate.Result{}, false
	}

	var req calculateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.respondError(c, http.StatusBadRequest, fmt.Sprintf("failed to decode gift request: %v", err), op)
		return estimate.Result{}, false
	}
	req.Frequency = annuity.ParseFrequency(string(req.Frequency))

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = c.GetString(requestIDKey)
	}

	result, err := h.estimator.Estimate(name, req.GiftRequest)
	if err != nil {
		if errors.Is(err, annuity.ErrInvalidInput) {
			h.respondError(c, http.StatusUnprocessableEntity, err.Error(), op)
			return estimate.Result{}, false
		}
		h.respondError(c, http.StatusInternalServerError, err.Error(), op)
		return estimate.Result{}, false
	}
	return result, true
}

func (h *handler) handleTables(c *gin.Context) {
	set := h.estimator.Tables()
	singleRates, jointRates := set.Rates.Len()
	singleFactors, jointFactors := set.Factors.Len()

	keys := make([]string, 0)
	for _, key := range set.Factors.Keys() {
		keys = append(keys, key.String())
	}

	reports := set.Reports
	if reports == nil {
		reports = []tables.Report{}
	}

	response := tablesResponse{
		SingleLifeRates:   singleRates,
		JointLifeRates:    jointRates,
		SingleLifeFactors: singleFactors,
		JointLifeFactors:  jointFactors,
		DiscountStep:      set.Factors.Granularity().String(),
		DiscountKeys:      keys,
		Reports:           reports,
	}
	if _, ok := c.GetQuery("rates"); ok {
		response.Rates = set.Rates.SingleRates()
	}

	h.writeJSON(c, http.StatusOK, response)
}

func (h *handler) handleFrequencies(c *gin.Context) {
	frequencies := make([]frequencyInfo, 0, len(annuity.Frequencies))
	for _, f := range annuity.Frequencies {
		frequencies = append(frequencies, frequencyInfo{
			Name:            f,
			Multiplier:      annuity.AdjustmentFor(f),
			PaymentsPerYear: annuity.PaymentsPerYear(f),
		})
	}
	h.writeJSON(c, http.StatusOK, frequencies)
}

// requestID tags every request with an ID, reusing the caller's when present.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (h *handler) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		h.logger.Info("request completed",
			zap.String("op", "server.accessLog"),
			zap.String("requestID", c.GetString(requestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

func (h *handler) limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodySize)
		}
		c.Next()
	}
}

func (h *handler) respondError(c *gin.Context, status int, msg string, op string) {
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("requestID", c.GetString(requestIDKey)),
		zap.Int("status", status),
		zap.String("error", msg),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("estimate request failed", fields...)
	} else {
		h.logger.Warn("estimate request rejected", fields...)
	}

	h.writeJSON(c, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(c *gin.Context, status int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to write JSON response",
			zap.String("op", "server.writeJSON"),
			zap.String("requestID", c.GetString(requestIDKey)),
			zap.Error(err),
		)
		c.Data(http.StatusInternalServerError, "application/json; charset=utf-8", []byte(encodeFailureBody))
		return
	}
	c.Data(status, "application/json; charset=utf-8", append(data, '\n'))
}
