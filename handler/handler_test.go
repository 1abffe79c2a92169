package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"leona-console/internal/domain"
	"leona-console/internal/usecase"
)

type stubUseCase struct {
	chats    []domain.Conversation
	err      error
	replaced []domain.Conversation
	deleted  string
	calls    int
}

func (s *stubUseCase) List(context.Context) ([]domain.Conversation, error) {
	s.calls++
	return s.chats, s.err
}

func (s *stubUseCase) Replace(_ context.Context, chats []domain.Conversation) error {
	s.calls++
	s.replaced = chats
	return s.err
}

func (s *stubUseCase) Delete(_ context.Context, id string) error {
	s.calls++
	s.deleted = id
	return s.err
}

func makeEvent(method, path, body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod: method,
		Path:       path,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

func parseBody[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

func mustHandler(t *testing.T, uc HistoryUseCase) *Handler {
	t.Helper()
	h, err := NewHandler(uc)
	require.NoError(t, err)
	return h
}

func TestNewHandler_ValidatesDependency(t *testing.T) {
	_, err := NewHandler(nil)
	require.Error(t, err)
}

func TestHandle_List(t *testing.T) {
	uc := &stubUseCase{chats: []domain.Conversation{{ID: "a", Title: "forest"}}}
	h := mustHandler(t, uc)

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodGet, "/api/chat-history", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Headers["X-Correlation-Id"])

	out := parseBody[historyBody](t, resp.Body)
	require.Len(t, out.Chats, 1)
	require.Equal(t, "forest", out.Chats[0].Title)
}

func TestHandle_Replace(t *testing.T) {
	uc := &stubUseCase{}
	h := mustHandler(t, uc)

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodPost, "/api/chat-history/", `{"chats":[{"id":"a","title":"heat","starred":true}]}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "success", parseBody[statusResponse](t, resp.Body).Status)
	require.Len(t, uc.replaced, 1)
	require.True(t, uc.replaced[0].Starred)
}

func TestHandle_ReplaceInvalidBody(t *testing.T) {
	uc := &stubUseCase{}
	h := mustHandler(t, uc)

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodPost, "/api/chat-history", `not-json`))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, string(usecase.ErrorInvalidInput), parseBody[errorResponse](t, resp.Body).Error)
	require.Zero(t, uc.calls)
}

func TestHandle_Delete(t *testing.T) {
	uc := &stubUseCase{}
	h := mustHandler(t, uc)

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodDelete, "/api/chat-history/conv%201", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "conv 1", uc.deleted)
}

func TestHandle_DeletePrefersPathParameter(t *testing.T) {
	uc := &stubUseCase{}
	h := mustHandler(t, uc)

	event := makeEvent(http.MethodDelete, "/api/chat-history/ignored", "")
	event.PathParameters = map[string]string{"id": "from-params"}
	_, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, "from-params", uc.deleted)
}

func TestHandle_Routing(t *testing.T) {
	cases := []struct {
		name   string
		method string
		path   string
		status int
		code   string
	}{
		{name: "unknown path", method: http.MethodGet, path: "/api/chat", status: http.StatusNotFound, code: codeRouteNotFound},
		{name: "put on list", method: http.MethodPut, path: "/api/chat-history", status: http.StatusMethodNotAllowed, code: codeMethodNotAllowed},
		{name: "get by id", method: http.MethodGet, path: "/api/chat-history/a", status: http.StatusMethodNotAllowed, code: codeMethodNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc := &stubUseCase{}
			h := mustHandler(t, uc)
			resp, err := h.Handle(context.Background(), makeEvent(tc.method, tc.path, ""))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
			require.Equal(t, tc.code, parseBody[errorResponse](t, resp.Body).Error)
			require.Zero(t, uc.calls)
		})
	}
}

func TestHandle_MapsUseCaseErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "invalid input", err: &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "missing_chat_id"}, status: http.StatusBadRequest, code: string(usecase.ErrorInvalidInput)},
		{name: "internal", err: &usecase.Error{Code: usecase.ErrorInternal, Reason: "dynamodb_delete_error"}, status: http.StatusInternalServerError, code: string(usecase.ErrorInternal)},
		{name: "unexpected", err: errors.New("boom"), status: http.StatusInternalServerError, code: string(usecase.ErrorInternal)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := mustHandler(t, &stubUseCase{err: tc.err})

			resp, err := h.Handle(context.Background(), makeEvent(http.MethodDelete, "/api/chat-history/abc", ""))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
			require.Equal(t, tc.code, parseBody[errorResponse](t, resp.Body).Error)
		})
	}
}

func TestHandle_UsesProvidedCorrelationID_CaseInsensitive(t *testing.T) {
	h := mustHandler(t, &stubUseCase{})

	event := makeEvent(http.MethodGet, "/api/chat-history", "")
	event.Headers["x-correlation-id"] = "corr-123"
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, "corr-123", resp.Headers["X-Correlation-Id"])
}
