/*
handlers.go - HTTP API handlers for the disposition engine

PURPOSE:
  Exposes parsing, settlement and reporting over REST. Handles HTTP
  request/response and JSON serialization, and delegates to the
  disposition and settlement packages.

ENDPOINTS:
  Processing (body: raw disposition text, ?format=delimited|csv):
    POST   /api/parse          Parse lines, report skipped ones
    POST   /api/settlements    Parse and price every assignment
    POST   /api/report         Parse, price and aggregate

  Directory:
    GET    /api/employees              List employees
    POST   /api/employees              Register or replace an employee
    GET    /api/employees/{personnelNo} Get one employee

  Rules:
    GET    /api/rules          List rules in evaluation order
    POST   /api/rules          Register a rule from JSON (factory schema)

ERROR HANDLING:
  Errors are returned as JSON {"error": ..., "details": ...}:
  - 400: Unknown format, malformed JSON, invalid rule or employee
  - 404: Unknown personnel number
  - 413: Body larger than MaxBodyBytes
  Unparseable lines and rejected assignments are NOT errors; they are
  listed in the "skipped" and "rejected" arrays of a 200 response.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/warp/disposition-engine/disposition"
	"github.com/warp/disposition-engine/factory"
	"github.com/warp/disposition-engine/settlement"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 4 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine      *settlement.Engine
	Directory   *settlement.MemoryDirectory
	RuleFactory *factory.RuleFactory
}

// NewHandler creates a handler around an engine whose directory is dir.
func NewHandler(engine *settlement.Engine, dir *settlement.MemoryDirectory) *Handler {
	return &Handler{
		Engine:      engine,
		Directory:   dir,
		RuleFactory: factory.NewRuleFactory(),
	}
}

// =============================================================================
// PROCESSING HANDLERS
// =============================================================================

// readDisposition parses the request body in the format named by ?format=.
// On failure it has already written the error response.
func readDisposition(w http.ResponseWriter, r *http.Request) (disposition.Format, disposition.ParseReport, bool) {
	format, err := disposition.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown input format", err)
		return "", disposition.ParseReport{}, false
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large", err)
		} else {
			writeError(w, http.StatusBadRequest, "Failed to read request body", err)
		}
		return "", disposition.ParseReport{}, false
	}
	return format, disposition.Parse(format, string(body)), true
}

// Parse returns the assignments found in the body.
func (h *Handler) Parse(w http.ResponseWriter, r *http.Request) {
	format, report, ok := readDisposition(w, r)
	if !ok {
		return
	}
	resp := NewParseResponse(format, report)
	writeJSON(w, http.StatusOK, resp)
}

// Settle prices every parsed assignment.
func (h *Handler) Settle(w http.ResponseWriter, r *http.Request) {
	_, report, ok := readDisposition(w, r)
	if !ok {
		return
	}
	resp := NewSettlementsResponse(report, h.Engine.EvaluateBatchReport(report.Assignments))
	writeJSON(w, http.StatusOK, resp)
}

// Report prices and aggregates the parsed assignments.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	_, report, ok := readDisposition(w, r)
	if !ok {
		return
	}
	batch := h.Engine.EvaluateBatchReport(report.Assignments)
	dto := NewReportResponse(report, batch, h.Engine.Now())
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// DIRECTORY HANDLERS
// =============================================================================

// ListEmployees returns all employees ordered by personnel number.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees := h.Directory.Employees()
	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns one employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	no := chi.URLParam(r, "personnelNo")
	e, ok := h.Directory.Lookup(no)
	if !ok {
		writeError(w, http.StatusNotFound, "Employee not found", &settlement.LookupError{PersonnelNo: no})
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(e))
}

// CreateEmployee registers an employee. An existing entry with the same
// personnel number is replaced and keeps its ID.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	no := strings.TrimSpace(req.PersonnelNo)
	if no == "" {
		writeError(w, http.StatusBadRequest, "personnel_no is required", nil)
		return
	}
	if req.HourlyRate.IsNegative() {
		writeError(w, http.StatusBadRequest, "hourly_rate must not be negative", nil)
		return
	}

	e, created := h.Directory.Upsert(disposition.Employee{
		PersonnelNo:   no,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Department:    req.Department,
		HourlyRate:    req.HourlyRate,
		Qualification: req.Qualification,
	})
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, toEmployeeDTO(e))
}

// =============================================================================
// RULE HANDLERS
// =============================================================================

// ListRules returns the engine rules in evaluation order.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules := h.Engine.Rules()
	dtos := make([]RuleDTO, len(rules))
	for i, rule := range rules {
		dtos[i] = toRuleDTO(i+1, rule)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateRule builds a rule from its JSON definition and appends it.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req CreateRuleRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	rule, err := h.RuleFactory.FromJSON(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rule", err)
		return
	}
	if err := h.Engine.AddRule(rule); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rule", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRuleDTO(len(h.Engine.Rules()), rule))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
