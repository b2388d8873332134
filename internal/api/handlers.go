package api

import (
	"encoding/json"
	"mime"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	apperrors "github.com/callcharge-production/internal/errors"
	"github.com/callcharge-production/internal/format"
	"github.com/callcharge-production/internal/models"
	"github.com/callcharge-production/internal/rateconfig"
	"github.com/callcharge-production/internal/rating"
	"github.com/callcharge-production/internal/warehouse"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleListTenants(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"tenants": s.configs.List()})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.configs.Get(mux.Vars(r)["tenant"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	tenant := mux.Vars(r)["tenant"]

	var cfg rateconfig.Configuration
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.writeError(w, apperrors.Wrap(apperrors.TypeInput, "invalid rate configuration", err))
		return
	}
	cfg.Tenant = tenant

	if err := s.configs.Put(r.Context(), &cfg); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &cfg)
}

type ratedRecord struct {
	format.Record
	Rule string `json:"rule"`
}

type recordError struct {
	Index      int    `json:"index"`
	SequenceID string `json:"sequence_id"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

type rateResponse struct {
	RunID  uuid.UUID     `json:"run_id"`
	Tenant string        `json:"tenant"`
	Calls  []ratedRecord `json:"calls"`
	Errors []recordError `json:"errors"`
}

func newRateResponse(tenant string, res *rating.BatchResult) rateResponse {
	out := rateResponse{
		RunID:  res.RunID,
		Tenant: tenant,
		Calls:  make([]ratedRecord, 0, len(res.Calls)),
		Errors: make([]recordError, 0, len(res.Errors)),
	}
	for i := range res.Calls {
		out.Calls = append(out.Calls, ratedRecord{Record: format.Format(&res.Calls[i]), Rule: res.Calls[i].Rule})
	}
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, recordError{
			Index:      e.Index,
			SequenceID: e.SequenceID,
			Error:      string(apperrors.TypeOf(e.Err)),
			Message:    e.Err.Error(),
		})
	}
	return out
}

// rateRows rates rows for tenant. Rows that name no tenant are taken to
// belong to it.
func (s *Server) rateRows(r *http.Request, tenant string, rows []models.CallRow) (*rating.BatchResult, error) {
	cfg, err := s.configs.Get(tenant)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].Tenant == "" {
			rows[i].Tenant = tenant
		}
	}
	return s.rater.RateBatch(r.Context(), rows, cfg)
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	tenant := mux.Vars(r)["tenant"]

	var rows []models.CallRow
	if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
		s.writeError(w, apperrors.Wrap(apperrors.TypeInput, "invalid call rows", err))
		return
	}

	res, err := s.rateRows(r, tenant, rows)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRateResponse(tenant, res))
}

func (s *Server) handleCharges(w http.ResponseWriter, r *http.Request) {
	tenant := mux.Vars(r)["tenant"]
	q := r.URL.Query()

	start, err := warehouse.ParseDate(q.Get("start"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	end, err := warehouse.ParseDate(q.Get("end"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	output := q.Get("format")
	if output != "" && output != "json" && output != "csv" {
		s.writeError(w, apperrors.Input("format must be json or csv"))
		return
	}

	exists, err := s.calls.TenantExists(r.Context(), tenant)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !exists {
		s.writeError(w, apperrors.NotFound("tenant", tenant))
		return
	}

	rows, err := s.calls.Fetch(r.Context(), tenant, start, end)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.rateRows(r, tenant, rows)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if output != "csv" {
		writeJSON(w, http.StatusOK, newRateResponse(tenant, res))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": tenant + "-charges.csv",
	}))
	cw := format.NewCSVWriter(w)
	for i := range res.Calls {
		if err := cw.Write(format.Format(&res.Calls[i])); err != nil {
			s.logger.Warn("csv export aborted", zap.String("tenant", tenant), zap.Error(err))
			return
		}
	}
	if err := cw.Flush(); err != nil {
		s.logger.Warn("csv export aborted", zap.String("tenant", tenant), zap.Error(err))
	}
}
