package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/text/unicode/norm"

	"github.com/Cairn-Labs/listing-steward/pkg/contracts"
	"github.com/Cairn-Labs/listing-steward/pkg/steward"
	"github.com/Cairn-Labs/listing-steward/pkg/store"
)

const maxBodyBytes = 1 << 20

// Server exposes the proposal lifecycle over HTTP.
type Server struct {
	steward *steward.Steward
	audit   *store.AuditLog
	logger  *slog.Logger
}

// NewServer creates the API server. The audit log may be nil; the audit
// endpoints then report empty results.
func NewServer(st *steward.Steward, audit *store.AuditLog, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{steward: st, audit: audit, logger: logger.With("component", "api")}
}

// Routes registers all handlers on a new mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /readiness", s.handleHealth)
	mux.HandleFunc("POST /v1/proposals", s.handlePropose)
	mux.HandleFunc("GET /v1/proposals/{id}", s.handleGetProposal)
	mux.HandleFunc("POST /v1/proposals/{id}/approve", s.handleApprove)
	mux.HandleFunc("POST /v1/proposals/{id}/cancel", s.handleCancel)
	mux.HandleFunc("POST /v1/risk-params", s.handleUpdateParams)
	mux.HandleFunc("POST /v1/subjects/{subject}/freeze", s.handleFreeze)
	mux.HandleFunc("POST /v1/subjects/{subject}/unfreeze", s.handleUnfreeze)
	mux.HandleFunc("GET /v1/audit", s.handleAuditEntries)
	mux.HandleFunc("GET /v1/audit/verify", s.handleAuditVerify)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ProposeRequest is the body of POST /v1/proposals.
type ProposeRequest struct {
	SubjectID string                `json:"subject_id"`
	Params    contracts.RiskParams  `json:"params"`
	Context   contracts.CallContext `json:"context"`
}

func (s *Server) handlePropose(w http.ResponseWriter, r *http.Request) {
	caller, err := CallerFrom(r.Context())
	if err != nil {
		WriteUnauthorized(w, "")
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		WriteBadRequest(w, "Unreadable request body")
		return
	}
	var req ProposeRequest
	if err := decodeValidated(proposeSchema, body, &req); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	record, err := s.steward.Propose(r.Context(), normalizeSubject(req.SubjectID), req.Params, req.Context, caller)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	record, err := s.steward.Proposal(r.Context(), id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	caller, err := CallerFrom(r.Context())
	if err != nil {
		WriteUnauthorized(w, "")
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	receipt, err := s.steward.Approve(r.Context(), id, caller)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	caller, err := CallerFrom(r.Context())
	if err != nil {
		WriteUnauthorized(w, "")
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := s.steward.Cancel(r.Context(), id, caller); err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": string(contracts.StateCancelled)})
}

// UpdateParamsRequest is the body of POST /v1/risk-params.
type UpdateParamsRequest struct {
	Updates []contracts.UpdateEntry `json:"updates"`
}

func (s *Server) handleUpdateParams(w http.ResponseWriter, r *http.Request) {
	caller, err := CallerFrom(r.Context())
	if err != nil {
		WriteUnauthorized(w, "")
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		WriteBadRequest(w, "Unreadable request body")
		return
	}
	var req UpdateParamsRequest
	if err := decodeValidated(updateSchema, body, &req); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	for i := range req.Updates {
		req.Updates[i].SubjectID = normalizeSubject(req.Updates[i].SubjectID)
	}

	if err := s.steward.UpdateRiskParams(r.Context(), req.Updates, caller); err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": len(req.Updates)})
}

func (s *Server) handleFreeze(w http.ResponseWriter, r *http.Request) {
	s.handleSetFrozen(w, r, true)
}

func (s *Server) handleUnfreeze(w http.ResponseWriter, r *http.Request) {
	s.handleSetFrozen(w, r, false)
}

func (s *Server) handleSetFrozen(w http.ResponseWriter, r *http.Request, frozen bool) {
	caller, err := CallerFrom(r.Context())
	if err != nil {
		WriteUnauthorized(w, "")
		return
	}
	subject := normalizeSubject(r.PathValue("subject"))

	if frozen {
		err = s.steward.Freeze(r.Context(), subject, caller)
	} else {
		err = s.steward.Unfreeze(r.Context(), subject, caller)
	}
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"frozen": frozen})
}

func (s *Server) handleAuditEntries(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, s.audit.Entries())
}

func (s *Server) handleAuditVerify(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeJSON(w, http.StatusOK, map[string]any{"valid": true, "entries": 0})
		return
	}
	if err := s.audit.Verify(); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"valid": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":   true,
		"entries": len(s.audit.Entries()),
		"head":    s.audit.ChainHead(),
	})
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return io.ReadAll(r.Body)
}

func parseID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		WriteBadRequest(w, "Proposal id must be a positive integer")
		return 0, false
	}
	return id, true
}

// normalizeSubject puts subject identifiers into NFC so visually
// identical ids hit the same record.
func normalizeSubject(subject string) string {
	return norm.NFC.String(subject)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
