package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/reporting-engine/pkg/errors"
)

func verifierServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAuthServiceValidateToken(t *testing.T) {
	srv := verifierServer(t, http.StatusOK, `{"id":"user-7"}`)
	svc := NewAuthService(srv.Client(), nil, AuthConfig{VerifyURL: srv.URL})

	principal, err := svc.ValidateToken(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "user-7", principal.ID)

	_, err = svc.ValidateToken(context.Background(), "bad")
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestAuthServiceRejectsMissingID(t *testing.T) {
	srv := verifierServer(t, http.StatusOK, `{"name":"no id"}`)
	svc := NewAuthService(srv.Client(), nil, AuthConfig{VerifyURL: srv.URL})
	_, err := svc.ValidateToken(context.Background(), "good")
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestAuthServiceVerifierFailure(t *testing.T) {
	srv := verifierServer(t, http.StatusBadGateway, "")
	svc := NewAuthService(srv.Client(), nil, AuthConfig{VerifyURL: srv.URL})
	_, err := svc.ValidateToken(context.Background(), "good")
	assert.True(t, errors.Is(err, appErrors.ErrUpstreamUnavailable))

	down := NewAuthService(nil, nil, AuthConfig{VerifyURL: "http://127.0.0.1:1/verify"})
	_, err = down.ValidateToken(context.Background(), "good")
	assert.True(t, errors.Is(err, appErrors.ErrUpstreamUnavailable))
}
