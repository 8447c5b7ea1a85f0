package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	sessionengine "agora/contexts/governance/session-engine"
	sessionerrors "agora/contexts/governance/session-engine/domain/errors"
	sessionhttp "agora/contexts/governance/session-engine/transport/http"
	accessgate "agora/contexts/identity/access-gate"
	gateerrors "agora/contexts/identity/access-gate/domain/errors"
	gatehttp "agora/contexts/identity/access-gate/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	sessions sessionengine.Module
	gate     accessgate.Module
}

func New(
	sessions sessionengine.Module,
	gate accessgate.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		sessions: sessions,
		gate:     gate,
	}
	s.registerRoutes()
	return s
}

// Handler exposes the routed mux for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /swagger/doc.json", s.handleSwaggerDoc)
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// Administrative surface.
	s.mux.HandleFunc("POST /api/governance/v1/sessions", s.handleCreateSession)
	s.mux.HandleFunc("POST /api/governance/v1/sessions/{session_id}/cancel", s.handleCancelSession)
	s.mux.HandleFunc("POST /api/governance/v1/sessions/{session_id}/voters", s.handleRegisterVoter)
	s.mux.HandleFunc("POST /api/governance/v1/sessions/{session_id}/voters/batch", s.handleRegisterVotersBatch)
	s.mux.HandleFunc("POST /api/governance/v1/sessions/{session_id}/proposals/open", s.handleOpenProposals)
	s.mux.HandleFunc("POST /api/governance/v1/sessions/{session_id}/proposals/close", s.handleCloseProposals)
	s.mux.HandleFunc("POST /api/governance/v1/sessions/{session_id}/voting/open", s.handleOpenVoting)
	s.mux.HandleFunc("POST /api/governance/v1/sessions/{session_id}/voting/close", s.handleCloseVoting)
	s.mux.HandleFunc("POST /api/governance/v1/sessions/{session_id}/tally", s.handleTally)

	// Participant surface.
	s.mux.HandleFunc("POST /api/governance/v1/sessions/{session_id}/proposals", s.handleSubmitProposal)
	s.mux.HandleFunc("POST /api/governance/v1/sessions/{session_id}/votes", s.handleCastVote)

	// Read-only surface.
	s.mux.HandleFunc("GET /api/governance/v1/sessions/count", s.handleSessionCount)
	s.mux.HandleFunc("GET /api/governance/v1/sessions/{session_id}", s.handleSessionStats)
	s.mux.HandleFunc("GET /api/governance/v1/sessions/{session_id}/winner", s.handleWinningProposal)
	s.mux.HandleFunc("GET /api/governance/v1/sessions/{session_id}/proposals", s.handleListProposals)
	s.mux.HandleFunc("GET /api/governance/v1/sessions/{session_id}/proposals/{proposal_id}", s.handleGetProposal)
	s.mux.HandleFunc("GET /api/governance/v1/sessions/{session_id}/voters", s.handleListAddresses)
	s.mux.HandleFunc("GET /api/governance/v1/sessions/{session_id}/voters/{address}", s.handleVoterStatus)
	s.mux.HandleFunc("GET /api/governance/v1/sessions/{session_id}/parent", s.handleParentOf)
	s.mux.HandleFunc("GET /api/governance/v1/sessions/{session_id}/child", s.handleChildOf)

	// Operational gate.
	s.mux.HandleFunc("POST /api/gate/v1/pause", s.handlePause)
	s.mux.HandleFunc("POST /api/gate/v1/resume", s.handleResume)
	s.mux.HandleFunc("GET /api/gate/v1/status", s.handleGateStatus)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	resp, err := s.sessions.Handler.CreateSessionHandler(r.Context(), caller)
	if err != nil {
		writeSessionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	sessionID, ok := parseSessionID(w, r)
	if !ok {
		return
	}
	if err := s.sessions.Handler.CancelSessionHandler(r.Context(), caller, sessionID); err != nil {
		writeSessionDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRegisterVoter(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	sessionID, ok := parseSessionID(w, r)
	if !ok {
		return
	}
	var req sessionhttp.RegisterVoterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSessionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.sessions.Handler.RegisterVoterHandler(r.Context(), caller, sessionID, req); err != nil {
		writeSessionDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRegisterVotersBatch(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	sessionID, ok := parseSessionID(w, r)
	if !ok {
		return
	}
	var req sessionhttp.RegisterVotersBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSessionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.sessions.Handler.RegisterVotersBatchHandler(r.Context(), caller, sessionID, req)
	if err != nil {
		writeSessionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOpenProposals(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, s.sessions.Handler.OpenProposalsHandler)
}

func (s *Server) handleCloseProposals(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, s.sessions.Handler.CloseProposalsHandler)
}

func (s *Server) handleOpenVoting(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, s.sessions.Handler.OpenVotingHandler)
}

func (s *Server) handleCloseVoting(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, s.sessions.Handler.CloseVotingHandler)
}

func (s *Server) handleTransition(
	w http.ResponseWriter,
	r *http.Request,
	transition func(ctx context.Context, caller string, sessionID uint64) error,
) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	sessionID, ok := parseSessionID(w, r)
	if !ok {
		return
	}
	if err := transition(r.Context(), caller, sessionID); err != nil {
		writeSessionDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTally(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	sessionID, ok := parseSessionID(w, r)
	if !ok {
		return
	}
	resp, err := s.sessions.Handler.TallyHandler(r.Context(), caller, sessionID)
	if err != nil {
		writeSessionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitProposal(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	sessionID, ok := parseSessionID(w, r)
	if !ok {
		return
	}
	var req sessionhttp.SubmitProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSessionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.sessions.Handler.SubmitProposalHandler(r.Context(), caller, sessionID, req)
	if err != nil {
		writeSessionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	sessionID, ok := parseSessionID(w, r)
	if !ok {
		return
	}
	var req sessionhttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSessionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.sessions.Handler.CastVoteHandler(r.Context(), caller, sessionID, req); err != nil {
		writeSessionDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSessionStats(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseSessionID(w, r)
	if !ok {
		return
	}
	resp, err := s.sessions.Handler.StatsHandler(r.Context(), sessionID)
	if err != nil {
		writeSessionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWinningProposal(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseSessionID(w, r)
	if !ok {
		return
	}
	resp, err := s.sessions.Handler.WinningProposalHandler(r.Context(), sessionID)
	if err != nil {
		writeSessionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListProposals(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseSessionID(w, r)
	if !ok {
		return
	}
	resp, err := s.sessions.Handler.ProposalsHandler(r.Context(), sessionID)
	if err != nil {
		writeSessionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseSessionID(w, r)
	if !ok {
		return
	}
	proposalID, err := strconv.ParseUint(r.PathValue("proposal_id"), 10, 64)
	if err != nil {
		writeSessionError(w, http.StatusBadRequest, "invalid_proposal_id", "proposal_id must be a non-negative integer")
		return
	}
	resp, err := s.sessions.Handler.ProposalByIDHandler(r.Context(), sessionID, proposalID)
	if err != nil {
		writeSessionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListAddresses(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseSessionID(w, r)
	if !ok {
		return
	}
	resp, err := s.sessions.Handler.AddressesHandler(r.Context(), sessionID)
	if err != nil {
		writeSessionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVoterStatus(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseSessionID(w, r)
	if !ok {
		return
	}
	resp, err := s.sessions.Handler.VoterStatusHandler(r.Context(), sessionID, r.PathValue("address"))
	if err != nil {
		writeSessionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleParentOf(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseSessionID(w, r)
	if !ok {
		return
	}
	resp, err := s.sessions.Handler.ParentOfHandler(r.Context(), sessionID)
	if err != nil {
		writeSessionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChildOf(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseSessionID(w, r)
	if !ok {
		return
	}
	resp, err := s.sessions.Handler.ChildOfHandler(r.Context(), sessionID)
	if err != nil {
		writeSessionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSessionCount(w http.ResponseWriter, r *http.Request) {
	resp, err := s.sessions.Handler.SessionCountHandler(r.Context())
	if err != nil {
		writeSessionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	if err := s.gate.Handler.PauseHandler(r.Context(), caller); err != nil {
		writeGateDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	if err := s.gate.Handler.ResumeHandler(r.Context(), caller); err != nil {
		writeGateDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGateStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := s.gate.Handler.StatusHandler(r.Context())
	if err != nil {
		writeGateError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func requireCaller(w http.ResponseWriter, r *http.Request) (string, bool) {
	caller := r.Header.Get("X-User-Id")
	if caller == "" {
		writeSessionError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return caller, true
}

func parseSessionID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	sessionID, err := strconv.ParseUint(r.PathValue("session_id"), 10, 64)
	if err != nil {
		writeSessionError(w, http.StatusBadRequest, "invalid_session_id", "session_id must be a non-negative integer")
		return 0, false
	}
	return sessionID, true
}

func writeSessionDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sessionerrors.ErrSessionNotFound):
		writeSessionError(w, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, sessionerrors.ErrProposalNotFound):
		writeSessionError(w, http.StatusNotFound, "proposal_not_found", err.Error())
	case errors.Is(err, sessionerrors.ErrNoWinner):
		writeSessionError(w, http.StatusNotFound, "no_winner", err.Error())
	case errors.Is(err, sessionerrors.ErrInvalidStateTransition):
		writeSessionError(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, sessionerrors.ErrUnauthorized):
		writeSessionError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, sessionerrors.ErrVoterNotRegistered):
		writeSessionError(w, http.StatusForbidden, "voter_not_registered", err.Error())
	case errors.Is(err, sessionerrors.ErrNotOperational):
		writeSessionError(w, http.StatusServiceUnavailable, "service_paused", err.Error())
	case errors.Is(err, sessionerrors.ErrVoterAlreadyRegistered):
		writeSessionError(w, http.StatusConflict, "already_registered", err.Error())
	case errors.Is(err, sessionerrors.ErrAlreadyVoted):
		writeSessionError(w, http.StatusConflict, "already_voted", err.Error())
	case errors.Is(err, sessionerrors.ErrVoterLimitReached):
		writeSessionError(w, http.StatusConflict, "voter_limit_reached", err.Error())
	case errors.Is(err, sessionerrors.ErrProposalLimitReached):
		writeSessionError(w, http.StatusConflict, "proposal_limit_reached", err.Error())
	case errors.Is(err, sessionerrors.ErrBatchLimitReached):
		writeSessionError(w, http.StatusConflict, "batch_limit_exceeded", err.Error())
	case errors.Is(err, sessionerrors.ErrInvalidAddress):
		writeSessionError(w, http.StatusUnprocessableEntity, "invalid_address", err.Error())
	case errors.Is(err, sessionerrors.ErrInvalidDescription):
		writeSessionError(w, http.StatusUnprocessableEntity, "invalid_description", err.Error())
	case errors.Is(err, sessionerrors.ErrSessionCancelled):
		writeSessionError(w, http.StatusGone, "session_cancelled", err.Error())
	case errors.Is(err, sessionerrors.ErrNoVotersRegistered):
		writeSessionError(w, http.StatusConflict, "no_voters_registered", err.Error())
	case errors.Is(err, sessionerrors.ErrNoProposals):
		writeSessionError(w, http.StatusConflict, "no_proposals", err.Error())
	case errors.Is(err, sessionerrors.ErrNoVotesCast):
		writeSessionError(w, http.StatusConflict, "no_votes_cast", err.Error())
	default:
		writeSessionError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeGateDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gateerrors.ErrUnauthorized):
		writeGateError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, gateerrors.ErrAlreadyPaused),
		errors.Is(err, gateerrors.ErrNotPaused):
		writeGateError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeGateError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeSessionError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, sessionhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeGateError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, gatehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
