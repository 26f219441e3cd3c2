package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aradsms/alive5_connector/internal/alive5_connector/app"
	"github.com/aradsms/alive5_connector/internal/alive5_connector/domain"
	"github.com/aradsms/alive5_connector/internal/alive5_connector/provider"
	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

// BaseURLHeader lets the host override the configured API base URL per request. It is only
// honoured together with an X-A5-APIKEY header.
const BaseURLHeader = "X-A5-BASE-URL"

// StatusClientClosedRequest is reported when the host hung up before the execution finished.
const StatusClientClosedRequest = 499

// OptionsProvider backs the dropdown callbacks and the credential probe.
type OptionsProvider interface {
	ListChannels(ctx context.Context, nodeID string, creds domain.Credentials) ([]domain.Option, error)
	ListAgents(ctx context.Context, nodeID string, creds domain.Credentials, channelID string) []domain.Option
	TestCredentials(ctx context.Context, creds domain.Credentials) error
}

type ConnectorHandler struct {
	options  OptionsProvider
	executor app.Executor
	defaults domain.Credentials
	validate *validator.Validate
	logger   *slog.Logger
}

func NewConnectorHandler(options OptionsProvider, executor app.Executor, defaults domain.Credentials, validate *validator.Validate, logger *slog.Logger) *ConnectorHandler {
	return &ConnectorHandler{
		options:  options,
		executor: executor,
		defaults: defaults,
		validate: validate,
		logger:   logger.With("handler", "alive5_connector"),
	}
}

// RegisterRoutes registers the host-facing routes with the given router.
func (h *ConnectorHandler) RegisterRoutes(r chi.Router) {
	r.Route("/nodes/{nodeID}", func(nr chi.Router) {
		nr.Get("/options/channels", h.handleListChannels)
		nr.Get("/options/agents", h.handleListAgents)
		nr.Post("/execute", h.handleExecute)
	})
	r.Post("/credentials/test", h.handleTestCredentials)
}

func (h *ConnectorHandler) credentials(r *http.Request) (domain.Credentials, error) {
	return domain.Credentials{
		APIKey:  strings.TrimSpace(r.Header.Get(provider.APIKeyHeader)),
		BaseURL: strings.TrimSpace(r.Header.Get(BaseURLHeader)),
	}.Resolve(h.defaults)
}

func (h *ConnectorHandler) credentialsOrError(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (domain.Credentials, bool) {
	creds, err := h.credentials(r)
	if err != nil {
		h.jsonError(w, logger, err.Error(), domain.ErrorKind(err), http.StatusBadRequest)
		return domain.Credentials{}, false
	}
	return creds, true
}

func (h *ConnectorHandler) requestLogger(r *http.Request) *slog.Logger {
	return h.logger.With("request_id", chi_middleware.GetReqID(r.Context()), "node_id", chi.URLParam(r, "nodeID"))
}

func (h *ConnectorHandler) handleListChannels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	creds, ok := h.credentialsOrError(w, r, logger)
	if !ok {
		return
	}
	opts, err := h.options.ListChannels(ctx, chi.URLParam(r, "nodeID"), creds)
	if err != nil {
		h.jsonError(w, logger, err.Error(), "", http.StatusBadGateway)
		return
	}
	h.writeJSON(w, http.StatusOK, opts)
}

func (h *ConnectorHandler) handleListAgents(w http.ResponseWriter, r *http.Request) {
	creds, ok := h.credentialsOrError(w, r, h.requestLogger(r))
	if !ok {
		return
	}
	channelID := strings.TrimSpace(r.URL.Query().Get("channel_id"))
	opts := h.options.ListAgents(r.Context(), chi.URLParam(r, "nodeID"), creds, channelID)
	h.writeJSON(w, http.StatusOK, opts)
}

func (h *ConnectorHandler) handleExecute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	var req app.ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "Failed to decode execute request", "error", err)
		h.jsonError(w, logger, "Invalid request payload: "+err.Error(), "invalid_request", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.jsonError(w, logger, "Invalid request payload: "+err.Error(), "invalid_request", http.StatusBadRequest)
		return
	}

	creds, ok := h.credentialsOrError(w, r, logger)
	if !ok {
		return
	}
	exec, err := h.executor.Execute(ctx, creds, req.InputItems(), req.ContinueOnFail)
	resp := app.NewExecuteResponse(exec, err)
	if err != nil {
		logger.WarnContext(ctx, "Execution aborted", "error", err, "error_kind", resp.ErrorKind)
		h.writeJSON(w, executeErrorStatus(err), resp)
		return
	}
	logger.InfoContext(ctx, "Execution completed", "execution_id", exec.ID, "succeeded", exec.Succeeded(), "failed", exec.Failed())
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *ConnectorHandler) handleTestCredentials(w http.ResponseWriter, r *http.Request) {
	logger := h.requestLogger(r)
	creds, ok := h.credentialsOrError(w, r, logger)
	if !ok {
		return
	}
	if creds.APIKey == "" {
		h.jsonError(w, logger, "API key is required", "invalid_request", http.StatusBadRequest)
		return
	}

	if err := h.options.TestCredentials(r.Context(), creds); err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, provider.ErrCredentialsRejected) {
			status = http.StatusUnauthorized
		}
		h.jsonError(w, logger, err.Error(), "", status)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func executeErrorStatus(err error) int {
	switch {
	case domain.IsValidationError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest
	case errors.Is(err, domain.ErrRemoteFetch), errors.Is(err, domain.ErrSend), errors.Is(err, domain.ErrInvalidResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *ConnectorHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

func (h *ConnectorHandler) jsonError(w http.ResponseWriter, logger *slog.Logger, message, kind string, statusCode int) {
	logger.Warn("API Error Response", "status_code", statusCode, "message", message)
	h.writeJSON(w, statusCode, GenericErrorResponse{Error: message, ErrorKind: kind})
}

// GenericErrorResponse for API errors.
type GenericErrorResponse struct {
	Error     string `json:"error"`
	ErrorKind string `json:"error_kind,omitempty"`
}
