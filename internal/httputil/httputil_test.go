package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorWithExtras(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondErrorWithExtras(rec, http.StatusConflict, "document changed", map[string]interface{}{
		"postId": "123",
		"status": "ignored",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(http.StatusConflict), body["status"])
	assert.Equal(t, "document changed", body["message"])
	assert.Equal(t, "document changed", body["detail"])
	assert.Equal(t, "123", body["postId"])
	assert.Contains(t, body["type"], "section-6.5.8")
}

func TestRespondJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondJSON(rec, http.StatusOK, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRespondJSON_EncodingFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondJSON(rec, http.StatusOK, map[string]interface{}{"bad": make(chan int)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestParseJSON(t *testing.T) {
	type payload struct {
		URL string `json:"url"`
	}

	tests := []struct {
		name    string
		body    string
		limit   int64
		want    string
		wantErr string
	}{
		{name: "valid", body: `{"url":"https://x.com/a/status/1"}`, limit: 1024, want: "https://x.com/a/status/1"},
		{name: "empty", body: ``, limit: 1024, wantErr: "empty body"},
		{name: "malformed", body: `{"url":`, limit: 1024, wantErr: "invalid JSON"},
		{name: "trailing", body: `{"url":"a"} {"url":"b"}`, limit: 1024, wantErr: "trailing data"},
		{name: "too large", body: `{"url":"` + strings.Repeat("a", 100) + `"}`, limit: 16, wantErr: ErrBodyTooLarge.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var got payload
			err := ParseJSON(httptest.NewRecorder(), req, &got, tt.limit)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.URL)
		})
	}
}

func TestRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, GetRequestID(req))

	req = WithRequestID(req, "abc")
	assert.Equal(t, "abc", GetRequestID(req))
	assert.Equal(t, "abc", RequestIDFromContext(req.Context()))
}
