package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"leona-console/internal/domain"
	"leona-console/internal/usecase"
)

const (
	historyPath          = "/api/chat-history"
	correlationHeader    = "X-Correlation-Id"
	codeRouteNotFound    = "ROUTE_NOT_FOUND"
	codeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

type HistoryUseCase interface {
	List(ctx context.Context) ([]domain.Conversation, error)
	Replace(ctx context.Context, chats []domain.Conversation) error
	Delete(ctx context.Context, id string) error
}

type historyBody struct {
	Chats []domain.Conversation `json:"chats"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves the history endpoints behind API Gateway.
type Handler struct {
	uc     HistoryUseCase
	logger *slog.Logger
}

func NewHandler(uc HistoryUseCase) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: use case must not be nil")
	}
	return &Handler{uc: uc, logger: slog.Default()}, nil
}

func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	start := time.Now()
	corrID := headerValue(req.Headers, correlationHeader)
	if corrID == "" {
		corrID = uuid.NewString()
	}
	logger := h.logger.With("correlation_id", corrID, "method", req.HTTPMethod, "path", req.Path)

	status, body := h.route(ctx, logger, req)
	resp := jsonResponse(status, body, corrID)
	logger.Info("request handled", "status", status, "duration_ms", time.Since(start).Milliseconds())
	return resp, nil
}

func (h *Handler) route(ctx context.Context, logger *slog.Logger, req events.APIGatewayProxyRequest) (int, any) {
	path := strings.TrimRight(req.Path, "/")
	switch {
	case path == historyPath:
		switch req.HTTPMethod {
		case http.MethodGet:
			return h.list(ctx, logger)
		case http.MethodPost:
			return h.replace(ctx, logger, req.Body)
		default:
			return http.StatusMethodNotAllowed, errorResponse{Error: codeMethodNotAllowed}
		}
	case strings.HasPrefix(path, historyPath+"/"):
		if req.HTTPMethod != http.MethodDelete {
			return http.StatusMethodNotAllowed, errorResponse{Error: codeMethodNotAllowed}
		}
		return h.delete(ctx, logger, conversationID(req, path))
	default:
		return http.StatusNotFound, errorResponse{Error: codeRouteNotFound}
	}
}

func (h *Handler) list(ctx context.Context, logger *slog.Logger) (int, any) {
	chats, err := h.uc.List(ctx)
	if err != nil {
		return errorStatus(logger, err)
	}
	return http.StatusOK, historyBody{Chats: chats}
}

func (h *Handler) replace(ctx context.Context, logger *slog.Logger, raw string) (int, any) {
	var body historyBody
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		logger.Warn("invalid request body", "err", err)
		return http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput)}
	}
	if err := h.uc.Replace(ctx, body.Chats); err != nil {
		return errorStatus(logger, err)
	}
	logger.Info("history replaced", "chats", len(body.Chats))
	return http.StatusOK, statusResponse{Status: "success"}
}

func (h *Handler) delete(ctx context.Context, logger *slog.Logger, id string) (int, any) {
	if err := h.uc.Delete(ctx, id); err != nil {
		return errorStatus(logger, err)
	}
	logger.Info("conversation deleted", "conversation_id", id)
	return http.StatusOK, statusResponse{Status: "success"}
}

// conversationID prefers the API Gateway path parameter and falls back to the
// last path segment.
func conversationID(req events.APIGatewayProxyRequest, path string) string {
	if id := strings.TrimSpace(req.PathParameters["id"]); id != "" {
		return id
	}
	raw := strings.TrimPrefix(path, historyPath+"/")
	if id, err := url.PathUnescape(raw); err == nil {
		return id
	}
	return raw
}

func errorStatus(logger *slog.Logger, err error) (int, any) {
	var ue *usecase.Error
	if !errors.As(err, &ue) {
		logger.Error("unexpected error", "err", err)
		return http.StatusInternalServerError, errorResponse{Error: string(usecase.ErrorInternal)}
	}
	status := http.StatusInternalServerError
	switch ue.Code {
	case usecase.ErrorInvalidInput:
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "code", ue.Code, "reason", ue.Reason, "err", ue.Err)
	} else {
		logger.Warn("request rejected", "code", ue.Code, "reason", ue.Reason)
	}
	return status, errorResponse{Error: string(ue.Code)}
}

func jsonResponse(status int, body any, corrID string) events.APIGatewayProxyResponse {
	buf, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		buf = []byte(`{"error":"INTERNAL_ERROR"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":                "application/json",
			"Access-Control-Allow-Origin": "*",
			correlationHeader:             corrID,
		},
		Body: string(buf),
	}
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
