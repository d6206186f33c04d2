package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/glindberg2000/ella-ai-sub000/internal/config"
	"github.com/glindberg2000/ella-ai-sub000/internal/domain"
	"github.com/glindberg2000/ella-ai-sub000/internal/repository"
	"github.com/glindberg2000/ella-ai-sub000/pkg/observability"
)

// expirySkew keeps access tokens from expiring mid-request
const expirySkew = time.Minute

// CredentialManager owns the OAuth credentials for the upstream providers.
// Constructed once at process start and shared by reference; the refresh
// path is single-flight so concurrent callers never race duplicate refresh
// requests for the same provider.
type CredentialManager struct {
	creds   repository.CredentialRepository
	oauth   config.OAuthConfig
	retry   RetryPolicy
	logger  *zap.Logger
	metrics *observability.Metrics
	clock   Clock

	mu    sync.RWMutex
	cache map[string]*oauth2.Token
	group singleflight.Group
}

// NewCredentialManager creates a credential manager
func NewCredentialManager(
	creds repository.CredentialRepository,
	oauthCfg config.OAuthConfig,
	retry RetryPolicy,
	clock Clock,
	logger *zap.Logger,
	metrics *observability.Metrics,
) *CredentialManager {
	return &CredentialManager{
		creds:   creds,
		oauth:   oauthCfg,
		retry:   retry,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
		cache:   make(map[string]*oauth2.Token),
	}
}

// Client returns a ready-to-use HTTP client for the provider. The transport
// pulls a fresh token through the manager on every request, so long-lived
// clients survive token expiry.
func (m *CredentialManager) Client(ctx context.Context, providerName string) (*http.Client, error) {
	if _, err := m.token(ctx, providerName); err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, &managerTokenSource{m: m, provider: providerName}), nil
}

// LazyClient is Client without the upfront token check. It is safe to
// build at boot, before any consent has been stored; the first request
// through it surfaces the credential error instead.
func (m *CredentialManager) LazyClient(providerName string) *http.Client {
	return oauth2.NewClient(context.Background(), &managerTokenSource{m: m, provider: providerName})
}

// Token returns a valid access token for the provider, refreshing if needed
func (m *CredentialManager) Token(ctx context.Context, providerName string) (*oauth2.Token, error) {
	return m.token(ctx, providerName)
}

type managerTokenSource struct {
	m        *CredentialManager
	provider string
}

func (s *managerTokenSource) Token() (*oauth2.Token, error) {
	return s.m.token(context.Background(), s.provider)
}

func (m *CredentialManager) token(ctx context.Context, providerName string) (*oauth2.Token, error) {
	now := m.clock.Now()

	m.mu.RLock()
	cached, ok := m.cache[providerName]
	m.mu.RUnlock()
	if ok && cached.Expiry.After(now.Add(expirySkew)) {
		return cached, nil
	}

	cred, err := m.creds.GetByProvider(ctx, providerName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("no credential stored for %s: %w", providerName, ErrCredentialExpired)
		}
		return nil, fmt.Errorf("failed to load credential for %s: %w", providerName, ErrCredentialUnavailable)
	}

	if cred.Status == domain.CredentialFailed {
		return nil, fmt.Errorf("credential for %s is marked failed: %w", providerName, ErrCredentialExpired)
	}

	if !cred.Expired(now) {
		tok := &oauth2.Token{
			AccessToken:  cred.AccessToken,
			RefreshToken: cred.RefreshToken,
			Expiry:       cred.Expiry,
		}
		m.mu.Lock()
		m.cache[providerName] = tok
		m.mu.Unlock()
		return tok, nil
	}

	// Single-flight: concurrent callers during a refresh block on the
	// in-flight exchange instead of each hitting the token endpoint.
	result, err, _ := m.group.Do(providerName, func() (interface{}, error) {
		return m.refresh(ctx, cred)
	})
	if err != nil {
		return nil, err
	}

	return result.(*oauth2.Token), nil
}

func (m *CredentialManager) refresh(ctx context.Context, cred *domain.Credential) (*oauth2.Token, error) {
	cfg := oauth2.Config{
		ClientID:     m.oauth.ClientID,
		ClientSecret: m.oauth.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: m.oauth.TokenURL},
	}

	stale := &oauth2.Token{RefreshToken: cred.RefreshToken}

	// Permanent rejections must not be retried regardless of the
	// injected backoff bounds.
	policy := m.retry
	policy.Retryable = func(err error) bool { return !isPermanentRefreshError(err) }

	var newToken *oauth2.Token
	err := policy.Run(ctx, func() error {
		var err error
		newToken, err = cfg.TokenSource(ctx, stale).Token()
		return err
	})

	if err != nil {
		if isPermanentRefreshError(err) {
			m.logger.Error("Refresh token rejected, credential requires re-consent",
				zap.String("provider", cred.Provider),
				zap.Error(err),
			)
			if markErr := m.creds.MarkFailed(ctx, cred.Provider); markErr != nil {
				m.logger.Warn("Failed to mark credential failed", zap.Error(markErr))
			}
			m.metrics.RecordRefresh(ctx, cred.Provider, "permanent_failure")
			return nil, fmt.Errorf("refresh rejected for %s: %w", cred.Provider, ErrCredentialExpired)
		}

		m.logger.Warn("Token refresh failed transiently",
			zap.String("provider", cred.Provider),
			zap.Error(err),
		)
		m.metrics.RecordRefresh(ctx, cred.Provider, "transient_failure")
		return nil, fmt.Errorf("refresh failed for %s: %w", cred.Provider, ErrCredentialUnavailable)
	}

	cred.AccessToken = newToken.AccessToken
	cred.Expiry = newToken.Expiry
	cred.Status = domain.CredentialValid
	// Persist a rotated refresh token when the endpoint returns one
	if newToken.RefreshToken != "" && newToken.RefreshToken != cred.RefreshToken {
		cred.RefreshToken = newToken.RefreshToken
	}

	if err := m.creds.Upsert(ctx, cred); err != nil {
		// The token is usable this pass even if persistence failed
		m.logger.Warn("Failed to persist refreshed credential",
			zap.String("provider", cred.Provider),
			zap.Error(err),
		)
	}

	m.mu.Lock()
	m.cache[cred.Provider] = newToken
	m.mu.Unlock()

	m.metrics.RecordRefresh(ctx, cred.Provider, "success")
	m.logger.Info("Refreshed provider credential",
		zap.String("provider", cred.Provider),
		zap.Time("expiry", newToken.Expiry),
	)

	return newToken, nil
}

// isPermanentRefreshError classifies token endpoint failures. Revoked or
// invalid refresh tokens cannot recover without re-consent; everything
// else is treated as transient.
func isPermanentRefreshError(err error) bool {
	if err == nil {
		return false
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		code := retrieveErr.Response.StatusCode
		if code == http.StatusBadRequest || code == http.StatusUnauthorized || code == http.StatusForbidden {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"invalid_grant",
		"invalid_client",
		"unauthorized_client",
		"token has been expired or revoked",
		"revoked",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
