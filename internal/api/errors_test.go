package api_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/utsav306/farmconnect-sub000/internal/api"
	"github.com/utsav306/farmconnect-sub000/internal/apperr"
)

func TestStatusOf(t *testing.T) {
	cases := map[apperr.Code]int{
		apperr.CodeInvalidArgument:    http.StatusBadRequest,
		apperr.CodeFailedPrecondition: http.StatusBadRequest,
		apperr.CodeAlreadyExists:      http.StatusBadRequest,
		apperr.CodeUnauthenticated:    http.StatusUnauthorized,
		apperr.CodePermissionDenied:   http.StatusForbidden,
		apperr.CodeNotFound:           http.StatusNotFound,
		apperr.CodeAborted:            http.StatusConflict,
		apperr.CodeTooManyRequests:    http.StatusTooManyRequests,
		apperr.CodeInternal:           http.StatusInternalServerError,
		apperr.Code("SOMETHING_ELSE"):  http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, api.StatusOf(code), code)
	}
}

func writeError(t *testing.T, production bool, err error) (int, api.ErrorResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	api.NewErrorWriter(zap.NewNop(), production)(rec, req, err)

	var body api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	return rec.Code, body
}

func TestErrorWriter(t *testing.T) {
	dbErr := errors.New("pq: connection refused")

	t.Run("domain error keeps its message", func(t *testing.T) {
		status, body := writeError(t, true, apperr.ErrEmptyCart)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Cart is empty", body.Message)
		assert.Empty(t, body.Error)
	})

	t.Run("wrapped sentinel maps through the chain", func(t *testing.T) {
		status, body := writeError(t, false, errors.Join(errors.New("context"), apperr.ErrOrderNotFound))
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "Order not found", body.Message)
	})

	t.Run("development exposes the cause", func(t *testing.T) {
		status, body := writeError(t, false, apperr.Internal("Failed to load orders", dbErr))
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "Failed to load orders", body.Message)
		assert.Equal(t, dbErr.Error(), body.Error)
	})

	t.Run("production hides internal details", func(t *testing.T) {
		status, body := writeError(t, true, apperr.Internal("Failed to load orders", dbErr))
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "Internal server error", body.Message)
		assert.Empty(t, body.Error)
	})

	t.Run("unclassified error is internal", func(t *testing.T) {
		status, body := writeError(t, false, dbErr)
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "Internal server error", body.Message)
		assert.Equal(t, dbErr.Error(), body.Error)
	})
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	decode := func(body string) (payload, error) {
		var p payload
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		err := api.DecodeJSON(httptest.NewRecorder(), req, &p)
		return p, err
	}

	p, err := decode(`{"name":"Tomato"}`)
	require.NoError(t, err)
	assert.Equal(t, "Tomato", p.Name)

	cases := map[string]string{
		"empty":     "",
		"malformed": `{"name":`,
		"trailing":  `{"name":"a"} {"name":"b"}`,
		"too large": `{"name":"` + strings.Repeat("x", api.MaxBodyBytes) + `"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := decode(body)
			assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
		})
	}
}

func TestPathID(t *testing.T) {
	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetPathValue("id", id.String())

	got, err := api.PathID(req, "id", apperr.ErrOrderNotFound)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	req.SetPathValue("id", "not-a-uuid")
	_, err = api.PathID(req, "id", apperr.ErrOrderNotFound)
	assert.ErrorIs(t, err, apperr.ErrOrderNotFound)
}
