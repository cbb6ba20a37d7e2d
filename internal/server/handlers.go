package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/agbru/fibdrv/internal/bignum"
	"github.com/agbru/fibdrv/internal/device"
	apperrors "github.com/agbru/fibdrv/internal/errors"
	"github.com/agbru/fibdrv/internal/fibonacci"
	"github.com/agbru/fibdrv/internal/fixedwidth"
	"github.com/agbru/fibdrv/internal/logging"
	"github.com/agbru/fibdrv/internal/service"
)

// Defaults for the optional query parameters.
const (
	defaultAlgo   = fibonacci.AlgoFast
	defaultMethod = "doubling-clz"
)

// handleHealth responds to health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

// handleAlgorithms lists the read methods accepted by /fibonacci and the
// fixed-width methods accepted by /timing.
func (s *Server) handleAlgorithms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	methods := make([]string, 0, len(fixedwidth.Methods()))
	for _, m := range fixedwidth.Methods() {
		methods = append(methods, m.String())
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]any{
		"algorithms": s.service.Algorithms(),
		"methods":    methods,
	})
}

// handleFibonacci computes F(n) with the read method named by 'algo'
// (default "fast") and returns it in decimal.
//
// Parameters:
//   - w: The HTTP response writer.
//   - r: The HTTP request.
func (s *Server) handleFibonacci(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	n, algo, err := parseIndexParams(r, "algo", defaultAlgo)
	if err != nil {
		s.writeParamError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeouts.RequestTimeout)
	defer cancel()

	result, err := s.service.Calculate(ctx, algo, n)
	if err != nil {
		s.writeServiceError(w, err, logging.Uint64("n", n), logging.String("algo", algo))
		return
	}

	s.writeJSONResponse(w, http.StatusOK, FibonacciResponse{
		N:         result.N,
		Algorithm: result.Algorithm,
		Result:    result.Decimal,
		Digits:    len(result.Decimal),
		Checksum:  fmt.Sprintf("%016x", result.Checksum),
		Duration:  result.Elapsed.String(),
		Cached:    result.Cached,
	})
}

// handleTiming runs the fixed-width method named by 'method' (default
// "doubling-clz") at index n and returns its elapsed time.
func (s *Server) handleTiming(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	n, method, err := parseIndexParams(r, "method", defaultMethod)
	if err != nil {
		s.writeParamError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeouts.RequestTimeout)
	defer cancel()

	timing, err := s.service.Time(ctx, method, n)
	if err != nil {
		s.writeServiceError(w, err, logging.Uint64("n", n), logging.String("method", method))
		return
	}

	s.writeJSONResponse(w, http.StatusOK, TimingResponse{
		Method:      timing.Method,
		N:           timing.N,
		Nanoseconds: timing.Elapsed.Nanoseconds(),
		Duration:    timing.Elapsed.String(),
	})
}

// parseIndexParams extracts the index 'n' and the name parameter key,
// which defaults to def.
//
// Returns:
//   - n: The parsed index.
//   - name: The method name.
//   - err: A paramError if validation fails, nil otherwise.
func parseIndexParams(r *http.Request, key, def string) (n uint64, name string, err error) {
	q := r.URL.Query()
	nStr := q.Get("n")
	if nStr == "" {
		return 0, "", paramError{Message: "Missing 'n' parameter", StatusCode: http.StatusBadRequest}
	}

	// ParseUint rejects a sign, so negative indices fail here.
	n, parseErr := strconv.ParseUint(nStr, 10, 64)
	if parseErr != nil {
		return 0, "", paramError{
			Message:    "Invalid 'n' parameter: must be a non-negative integer",
			StatusCode: http.StatusBadRequest,
		}
	}

	name = q.Get(key)
	if name == "" {
		name = def
	}
	return n, name, nil
}

func (s *Server) writeParamError(w http.ResponseWriter, err error) {
	var pe paramError
	if errors.As(err, &pe) {
		s.writeErrorResponse(w, pe.StatusCode, pe.Message)
		return
	}
	s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	var unknown *fibonacci.UnknownCalculatorError
	var invalid apperrors.ValidationError
	switch {
	case errors.As(err, &invalid),
		errors.Is(err, service.ErrMaxValueExceeded),
		errors.As(err, &unknown),
		errors.Is(err, device.ErrUnknownMethod),
		errors.Is(err, fixedwidth.ErrIndexTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, bignum.ErrAllocation):
		return http.StatusUnprocessableEntity
	// A wait on a held device that runs out of time is still busy.
	case errors.Is(err, device.ErrBusy):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error, fields ...logging.Field) {
	status := statusFor(err)
	message := err.Error()
	switch {
	case errors.Is(err, service.ErrMaxValueExceeded):
		message = fmt.Sprintf("Value of 'n' exceeds maximum allowed (%d)", s.securityConfig.MaxNValue)
	case status == http.StatusInternalServerError && apperrors.IsContextError(err):
		s.logger.Info("request abandoned", append(fields, logging.Err(err))...)
	case status == http.StatusInternalServerError:
		s.logger.Error("request failed", err, fields...)
	case status == http.StatusServiceUnavailable:
		w.Header().Set("Retry-After", "1")
		s.logger.Warn("device busy", fields...)
	}
	s.writeErrorResponse(w, status, message)
}

// writeJSONResponse writes data as JSON with the given status code.
func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encoding JSON response", err)
	}
}

// writeErrorResponse writes a standardized error response.
//
// Parameters:
//   - w: The HTTP response writer.
//   - statusCode: The HTTP status code to write.
//   - message: The error message to be included in the response body.
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSONResponse(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}
