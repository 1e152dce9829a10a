package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/reporting-engine/internal/models"
	appErrors "github.com/noah-isme/reporting-engine/pkg/errors"
)

// AuthConfig points at the external token verification endpoint.
type AuthConfig struct {
	VerifyURL string
	Timeout   time.Duration
}

// AuthService delegates bearer token checks to the portal verifier.
type AuthService struct {
	client *http.Client
	logger *zap.Logger
	config AuthConfig
}

// NewAuthService constructs an AuthService. A nil client uses one bound to config.Timeout.
func NewAuthService(client *http.Client, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Timeout <= 0 {
		config.Timeout = 3 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}
	return &AuthService{client: client, logger: logger, config: config}
}

type verifyResponse struct {
	ID string `json:"id"`
}

// ValidateToken accepts a token iff the verifier answers 200 with a non-empty id.
// Verifier outages surface as UpstreamUnavailable, rejections as Unauthorized.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*models.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing token")
	}
	if s.config.VerifyURL == "" {
		return nil, appErrors.Clone(appErrors.ErrUpstreamUnavailable, "token verifier not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.VerifyURL, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build verify request")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("token verifier unreachable", zap.Error(err))
		return nil, appErrors.Upstream(err, "token verifier unavailable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, appErrors.Upstream(fmt.Errorf("verifier status %d", resp.StatusCode), "token verifier unavailable")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}

	var body verifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil || body.ID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return &models.Principal{ID: body.ID, Token: token}, nil
}
