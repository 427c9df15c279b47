package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/roach88/edi997/internal/ack"
	"github.com/roach88/edi997/internal/reconcile"
	"github.com/roach88/edi997/internal/report"
	"github.com/roach88/edi997/internal/x12"
)

// Response formats.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

const markdownContentType = "text/markdown; charset=utf-8"

// RunIDHeader carries the stored run ID when a store is configured.
const RunIDHeader = "X-Run-ID"

// ErrorResponse is the body of every non-2xx response. Error is an x12 error code
// for parse failures and a short slug otherwise.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ReconcileRequest is the body of POST /v1/reconcile.
type ReconcileRequest struct {
	Content  string          `json:"content" binding:"required"`
	Outbound json.RawMessage `json:"outbound" binding:"required"`
}

// RunsResponse is the body of GET /v1/runs.
type RunsResponse struct {
	Validations     any `json:"validations"`
	Reconciliations any `json:"reconciliations"`
}

// validate handles POST /v1/validate
func (s *Server) validate(c *gin.Context) {
	mode, err := report.ParseJSONMode(c.Query("mode"))
	if err != nil {
		badRequest(c, err)
		return
	}
	format, err := parseFormat(c.Query("format"))
	if err != nil {
		badRequest(c, err)
		return
	}

	data, ok := s.readBody(c)
	if !ok {
		return
	}

	res, err := s.pipeline.ValidateBytes(data)
	if err != nil {
		s.inputFailed(c, err)
		return
	}

	if id := s.recordValidation(c, data, res); id != "" {
		c.Header(RunIDHeader, id)
	}

	if format == FormatMarkdown {
		md := report.NewMarkdown(report.MarkdownOptionsFrom(s.pipeline.Config().Reporting))
		c.Data(http.StatusOK, markdownContentType, []byte(md.Validation(res)))
		return
	}
	view, err := report.ValidationView(res, mode)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// reconcile handles POST /v1/reconcile
func (s *Server) reconcile(c *gin.Context) {
	format, err := parseFormat(c.Query("format"))
	if err != nil {
		badRequest(c, err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.bodyLimit())
	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if tooLarge(c, err, s.pipeline.Config().Parser.MaxFileSizeMB) {
			return
		}
		badRequest(c, err)
		return
	}

	outbound, err := reconcile.LoadOutbound(bytes.NewReader(req.Outbound))
	if err != nil {
		badRequest(c, err)
		return
	}

	content := []byte(req.Content)
	res, err := s.pipeline.ValidateBytes(content)
	if err != nil {
		s.inputFailed(c, err)
		return
	}

	rec, err := s.pipeline.Reconcile(res, outbound)
	if err != nil {
		internalError(c, err)
		return
	}

	validationID := s.recordValidation(c, content, res)
	if id := s.recordReconciliation(c, validationID, rec); id != "" {
		c.Header(RunIDHeader, id)
	}

	if format == FormatMarkdown {
		md := report.NewMarkdown(report.MarkdownOptionsFrom(s.pipeline.Config().Reporting))
		c.Data(http.StatusOK, markdownContentType, []byte(md.Combined(res, rec)))
		return
	}
	c.JSON(http.StatusOK, report.Combined(res, rec))
}

// runs handles GET /v1/runs
func (s *Server) runs(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "run history is not configured",
		})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			badRequest(c, fmt.Errorf("invalid limit %q: must be a positive integer", raw))
			return
		}
		limit = n
	}

	ctx := c.Request.Context()
	validations, err := s.store.ListValidationRuns(ctx, limit)
	if err != nil {
		internalError(c, err)
		return
	}
	reconciliations, err := s.store.ListReconciliationRuns(ctx, limit)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, RunsResponse{Validations: validations, Reconciliations: reconciliations})
}

func (s *Server) bodyLimit() int64 {
	return s.pipeline.Config().MaxFileSizeBytes()
}

// readBody reads the whole request body up to the configured size limit. It
// writes the error response itself and reports false on failure.
func (s *Server) readBody(c *gin.Context) ([]byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.bodyLimit())
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		if !tooLarge(c, err, s.pipeline.Config().Parser.MaxFileSizeMB) {
			badRequest(c, err)
		}
		return nil, false
	}
	return data, true
}

// recordValidation stores res when a store is configured. A storage failure is
// logged and does not fail the request.
func (s *Server) recordValidation(c *gin.Context, content []byte, res *ack.ValidationResult) string {
	if s.store == nil {
		return ""
	}
	run, err := s.store.RecordValidation(c.Request.Context(), "http", content, res)
	if err != nil {
		s.logger.WithError(err).Error("record_validation_failed")
		return ""
	}
	return run.ID
}

func (s *Server) recordReconciliation(c *gin.Context, validationID string, rec *reconcile.Result) string {
	if s.store == nil {
		return ""
	}
	run, err := s.store.RecordReconciliation(c.Request.Context(), validationID, rec)
	if err != nil {
		s.logger.WithError(err).Error("record_reconciliation_failed")
		return ""
	}
	return run.ID
}

// inputFailed maps a pipeline error to 422 for parse failures and 400 otherwise.
func (s *Server) inputFailed(c *gin.Context, err error) {
	code := x12.CodeOf(err)
	if code == "" {
		badRequest(c, err)
		return
	}
	s.logger.WithFields(logrus.Fields{
		"code":  code,
		"error": err.Error(),
	}).Info("validation_rejected")
	c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: string(code), Message: err.Error()})
}

func parseFormat(s string) (string, error) {
	switch s {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatMarkdown:
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("invalid format %q: must be %q or %q", s, FormatJSON, FormatMarkdown)
	}
}

// tooLarge writes a 413 when err came from the body size limit.
func tooLarge(c *gin.Context, err error, maxMB int) bool {
	var maxErr *http.MaxBytesError
	if !errors.As(err, &maxErr) {
		return false
	}
	perr := x12.NewSizeExceededError(maxErr.Limit+1, maxMB)
	c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: string(perr.Code), Message: perr.Error()})
	return true
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: err.Error()})
}

func internalError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: err.Error()})
}
