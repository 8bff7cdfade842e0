package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/notevault/notevault/internal/store/storetest"
	"github.com/notevault/notevault/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthEnv(t *testing.T) (*AuthHandler, *token.Service) {
	t.Helper()
	tokens := token.NewService("test-secret", time.Hour)
	return NewAuthHandler(storetest.New(), tokens), tokens
}

func postJSON(t *testing.T, handler http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func TestSignup(t *testing.T) {
	h, _ := newAuthEnv(t)

	rr := postJSON(t, h.Signup, map[string]string{"username": "alice", "password": "s3cret"})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Message string `json:"message"`
		ID      string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "User signed up successfully!!", resp.Message)
	assert.NotEmpty(t, resp.ID)
}

func TestSignupDuplicateUsername(t *testing.T) {
	h, _ := newAuthEnv(t)

	rr := postJSON(t, h.Signup, map[string]string{"username": "alice", "password": "s3cret"})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = postJSON(t, h.Signup, map[string]string{"username": "alice", "password": "other"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSignupInvalidInput(t *testing.T) {
	h, _ := newAuthEnv(t)

	rr := postJSON(t, h.Signup, map[string]string{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	h, tokens := newAuthEnv(t)

	rr := postJSON(t, h.Signup, map[string]string{"username": "alice", "password": "s3cret"})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = postJSON(t, h.Login, map[string]string{"username": "alice", "password": "s3cret"})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	username, err := tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)
}

func TestLoginBadCredentials(t *testing.T) {
	h, _ := newAuthEnv(t)

	rr := postJSON(t, h.Signup, map[string]string{"username": "alice", "password": "s3cret"})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = postJSON(t, h.Login, map[string]string{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusLengthRequired, rr.Code)

	rr = postJSON(t, h.Login, map[string]string{"username": "nobody", "password": "s3cret"})
	assert.Equal(t, http.StatusLengthRequired, rr.Code)
}
