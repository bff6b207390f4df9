package response_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kiranshivaraju/logtrail/internal/api/response"
	"github.com/kiranshivaraju/logtrail/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	response.JSON(w, map[string]string{"name": "test"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "test", body["name"])
}

func TestJSON_BareArray(t *testing.T) {
	w := httptest.NewRecorder()
	response.JSON(w, []string{})

	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestCreated(t *testing.T) {
	w := httptest.NewRecorder()
	response.Created(w, map[string]string{"id": "abc"})

	assert.Equal(t, http.StatusCreated, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "abc", body["id"])
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()
	response.Error(w, http.StatusNotFound, "application not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"code":404,"message":"application not found"}`, w.Body.String())
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"validation", apperr.MissingParameter("content"), 400, "missing required parameter: content"},
		{"unknown team", apperr.UnknownTeam("team x does not exist"), 400, "team x does not exist"},
		{"not found", apperr.NotFound("application not found"), 404, "application not found"},
		{"forbidden", apperr.Forbidden("no access"), 403, "no access"},
		{"unauthenticated", apperr.Unauthenticated("authentication required"), 403, "authentication required"},
		{"unavailable hides cause", apperr.Unavailable("log query failed", errors.New("es: 10.0.0.3 refused")), 503, "A backend service is unavailable"},
		{"plain error hides detail", errors.New("pq: relation does not exist"), 500, "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest("GET", "/x", nil)
			response.FromError(w, r, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, float64(tt.wantStatus), body["code"])
			assert.Equal(t, tt.wantMessage, body["message"])
		})
	}
}
