// Package mockapi is an in-memory e-invoice backend for local development.
// It serves the query, action and app-config endpoints with the same wire
// format and filter semantics as the real service.
package mockapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"einvoice/internal/export"
	"einvoice/internal/filter"
	"einvoice/internal/logger"
	"einvoice/pkg/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BasePath is where the API is mounted.
const BasePath = "/e-invoice/api"

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Server holds the invoice data set behind the mock endpoints.
type Server struct {
	mu       sync.RWMutex
	invoices []models.Invoice
	index    map[string]int

	token     string
	shape     Shape
	appConfig AppConfig
	now       func() time.Time
	log       zerolog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithToken requires "Authorization: Bearer <token>" on every request.
func WithToken(token string) Option {
	return func(s *Server) { s.token = token }
}

// WithShape selects the row layout of query responses.
func WithShape(shape Shape) Option {
	return func(s *Server) { s.shape = shape }
}

// WithAppConfig sets the app-config payload.
func WithAppConfig(cfg AppConfig) Option {
	return func(s *Server) { s.appConfig = cfg }
}

// WithClock replaces time.Now for e-invoice dates.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a server over a copy of invoices.
func New(invoices []models.Invoice, opts ...Option) *Server {
	s := &Server{
		invoices: make([]models.Invoice, len(invoices)),
		index:    make(map[string]int, len(invoices)),
		shape:    ShapeMixed,
		appConfig: AppConfig{
			AppCode:      "einvoice",
			AppName:      "E-Invoice Console",
			PrimaryColor: "#c0a801",
		},
		now: time.Now,
		log: logger.WithComponent("mockapi"),
	}
	copy(s.invoices, invoices)
	for i := range s.invoices {
		s.index[s.invoices[i].ID] = i
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router with every endpoint mounted under BasePath.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route(BasePath, func(r chi.Router) {
		r.Use(s.auth)

		r.Get("/invoice", s.listInvoices)
		r.Post("/invoice/merge", s.mergeInvoices)
		r.Post("/invoice/export", s.exportInvoices)
		r.Post("/invoice/{id}/submit", s.submitInvoice)
		r.Post("/invoice/{id}/red-note", s.redNote)

		r.Get("/app-config", s.getAppConfig)
	})
	return r
}

// Invoice returns a copy of the stored invoice.
func (s *Server) Invoice(id string) (models.Invoice, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return models.Invoice{}, false
	}
	return s.invoices[i], true
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		log := logger.WithRequestID("mockapi", middleware.GetReqID(r.Context()))
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("Request served")
	})
}

func (s *Server) auth(next http.Handler) http.Handler {
	if s.token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.token {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := filterFromQuery(q)
	page, limit := pageFromQuery(q)

	// Sidebar counts ignore the status constraint itself.
	counts := f.Clone()
	delete(counts, filter.FieldStatus)

	s.mu.RLock()
	var hits []models.Invoice
	totals := make(map[string]int, len(models.Statuses))
	for i := range s.invoices {
		inv := &s.invoices[i]
		if matches(inv, counts) {
			totals[string(inv.Status)]++
		}
		if matches(inv, f) {
			hits = append(hits, *inv)
		}
	}
	s.mu.RUnlock()

	resp := queryResponse{Items: []any{}, Total: len(hits), Totals: totals}
	from := (page - 1) * limit
	if from < len(hits) {
		to := min(from+limit, len(hits))
		for i, inv := range hits[from:to] {
			resp.Items = append(resp.Items, s.items(&inv, i)...)
		}
	}

	s.log.Debug().
		Str("filter", f.String()).
		Int("page", page).
		Int("limit", limit).
		Int("total", resp.Total).
		Msg("Invoice query")
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) items(inv *models.Invoice, pos int) []any {
	shape := s.shape
	if shape == ShapeMixed {
		shape = ShapeGrouped
		if pos%2 == 1 {
			shape = ShapeFlat
		}
	}
	if shape == ShapeGrouped {
		return []any{toGrouped(inv)}
	}
	flat := toFlat(inv)
	out := make([]any, 0, len(flat))
	for _, item := range flat {
		out = append(out, item)
	}
	return out
}

var (
	errNotFound         = errors.New("invoice not found")
	errAlreadyIssued    = errors.New("invoice already has an e-invoice")
	errNotIssued        = errors.New("invoice has no e-invoice to reverse")
	errMixedCustomers   = errors.New("merged invoices must share a customer")
	errTooFewToMerge    = errors.New("merge needs at least two invoices")
	errMissingSubmitter = errors.New("submittedBy is required")
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, errNotFound):
		return http.StatusNotFound
	case errors.Is(err, errAlreadyIssued), errors.Is(err, errNotIssued), errors.Is(err, errMixedCustomers):
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

func (s *Server) submitInvoice(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.issueEInvoice([]string{id}, req.SubmittedBy); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	inv, _ := s.Invoice(id)
	writeJSON(w, http.StatusOK, toGrouped(&inv))
}

func (s *Server) mergeInvoices(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.IDs) < 2 {
		writeError(w, statusFor(errTooFewToMerge), errTooFewToMerge.Error())
		return
	}
	if err := s.issueEInvoice(req.IDs, req.SubmittedBy); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"merged": len(req.IDs)})
}

// issueEInvoice gives every invoice in ids one shared e-invoice. Either all of them
// are updated or none.
func (s *Server) issueEInvoice(ids []string, submittedBy string) error {
	if strings.TrimSpace(submittedBy) == "" {
		return errMissingSubmitter
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var customer string
	for n, id := range ids {
		i, ok := s.index[id]
		if !ok {
			return errNotFound
		}
		inv := &s.invoices[i]
		if inv.EInvoiceID != "" || inv.Status == models.StatusSubmitted || inv.Status == models.StatusRedNote {
			return errAlreadyIssued
		}
		if n == 0 {
			customer = inv.CustomerName
		} else if inv.CustomerName != customer {
			return errMixedCustomers
		}
	}

	eInvoiceID := uuid.NewString()
	now := s.now()
	for _, id := range ids {
		inv := &s.invoices[s.index[id]]
		issue(inv, eInvoiceID, now, submittedBy)
		inv.Comment = ""
	}
	s.log.Info().
		Strs("invoice_ids", ids).
		Str("einvoice_id", eInvoiceID).
		Str("submitted_by", submittedBy).
		Msg("E-invoice issued")
	return nil
}

func (s *Server) redNote(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.SubmittedBy) == "" {
		writeError(w, http.StatusBadRequest, errMissingSubmitter.Error())
		return
	}
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	i, ok := s.index[id]
	var err error
	switch {
	case !ok:
		err = errNotFound
	case s.invoices[i].Status != models.StatusSubmitted:
		err = errNotIssued
	default:
		s.invoices[i].Status = models.StatusRedNote
		s.invoices[i].Comment = "red note issued by " + req.SubmittedBy
	}
	s.mu.Unlock()

	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	s.log.Info().Str("invoice_id", id).Str("submitted_by", req.SubmittedBy).Msg("Red note issued")
	inv, _ := s.Invoice(id)
	writeJSON(w, http.StatusOK, toGrouped(&inv))
}

func (s *Server) exportInvoices(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids are required")
		return
	}

	page := models.Page{Invoices: make([]models.Invoice, 0, len(req.IDs))}
	for _, id := range req.IDs {
		inv, ok := s.Invoice(id)
		if !ok {
			writeError(w, http.StatusNotFound, errNotFound.Error()+": "+id)
			return
		}
		page.Invoices = append(page.Invoices, inv)
	}
	page.Total = len(page.Invoices)

	var buf bytes.Buffer
	if err := export.WritePage(&buf, page); err != nil {
		s.log.Error().Err(err).Msg("Failed to build export")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="invoices.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) getAppConfig(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("appcode")
	if code != "" && code != s.appConfig.AppCode {
		writeError(w, http.StatusNotFound, "unknown app code")
		return
	}
	writeJSON(w, http.StatusOK, s.appConfig)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
