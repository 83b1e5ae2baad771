package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/guard"
	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/otel"
	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/requestctx"
)

// Error codes of the inbound contract. The caller always receives either a
// well-formed success payload or one of these four codes.
const (
	codeConfiguration = "CONFIGURATION_ERROR"
	codeRateLimited   = "RATE_LIMITED"
	codeValidation    = "VALIDATION_ERROR"
	codeInternal      = "INTERNAL_ERROR"
)

type chatRequest struct {
	Message  string            `json:"message"`
	History  []json.RawMessage `json:"history"`
	ClientID string            `json:"client_id"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeAPIError(w http.ResponseWriter, status int, code, message, details string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code, Details: details})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cacheState := "cold"
	if fetchedAt, ok := s.cache.LastFetched(); ok {
		cacheState = "fetched " + fetchedAt.UTC().Format(time.RFC3339)
	}
	credentials := "ok"
	if !s.guard.Configured() {
		credentials = "missing"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
		"components": map[string]string{
			"metadata_cache": cacheState,
			"credentials":    credentials,
		},
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := requestctx.CorrelationID(ctx)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, codeValidation, "invalid request body", err.Error())
		return
	}

	clientID := req.ClientID
	if clientID == "" {
		clientID = requestctx.ClientID(ctx)
	}

	message, history, err := s.guard.Admit(clientID, req.Message, req.History)
	if err != nil {
		s.writeRejection(w, clientID, err)
		return
	}

	snap := s.cache.Get(ctx)

	decision, err := s.intents.Route(ctx, message, history, snap)
	if err != nil {
		log.Error().Err(err).
			Str("correlation_id", correlationID).
			Str("client_id", clientID).
			Func(otel.LogTraceFields(ctx)).
			Msg("chat_route_error")
		writeAPIError(w, http.StatusInternalServerError, codeInternal,
			"something went wrong, please try again", "")
		return
	}

	contextBlock := s.assembler.Assemble(ctx, decision, message, snap)

	reply, err := s.invoker.Answer(ctx, message, history, contextBlock)
	if err != nil {
		log.Error().Err(err).
			Str("correlation_id", correlationID).
			Str("client_id", clientID).
			Str("decision", decision.String()).
			Func(otel.LogTraceFields(ctx)).
			Msg("chat_answer_error")
		writeAPIError(w, http.StatusInternalServerError, codeInternal,
			"something went wrong, please try again", "")
		return
	}

	log.Info().
		Str("correlation_id", correlationID).
		Str("client_id", clientID).
		Str("decision", decision.String()).
		Int("history_turns", len(history)).
		Func(otel.LogTraceFields(ctx)).
		Msg("chat_answered")

	writeJSON(w, http.StatusOK, chatResponse{Response: reply})
}

// writeRejection maps Input Guard rejections onto the error contract.
// Internal detail never leaks: validation reasons are client-facing by
// construction, configuration errors report only which settings are absent.
func (s *Server) writeRejection(w http.ResponseWriter, clientID string, err error) {
	var cfgErr *guard.ConfigurationError
	var valErr *guard.ValidationError
	switch {
	case errors.As(err, &cfgErr):
		log.Error().Strs("missing", cfgErr.Missing).Msg("chat_not_configured")
		writeAPIError(w, http.StatusServiceUnavailable, codeConfiguration,
			"service is not configured", cfgErr.Error())
	case errors.Is(err, guard.ErrRateLimited):
		w.Header().Set("Retry-After", "60")
		writeAPIError(w, http.StatusTooManyRequests, codeRateLimited,
			"request quota exceeded, please wait", "")
	case errors.As(err, &valErr):
		writeAPIError(w, http.StatusBadRequest, codeValidation, valErr.Reason, "")
	default:
		log.Error().Err(err).Str("client_id", clientID).Msg("chat_admit_error")
		writeAPIError(w, http.StatusInternalServerError, codeInternal,
			"something went wrong, please try again", "")
	}
}
