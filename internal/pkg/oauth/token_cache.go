// Package oauth caches client-credentials access tokens for outbound broker calls.
package oauth

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"feasibility-backend/internal/pkg/clock"
	"feasibility-backend/internal/pkg/config"
	"feasibility-backend/internal/pkg/errs"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"
)

const (
	// Tokens closer than this to expiry are refreshed.
	expiryMargin = 5 * time.Second
	fetchTimeout = 30 * time.Second
)

var ErrAuth = errs.New("failed to obtain access token")

// TokenCache hands out a cached bearer token and refreshes it through a single in-flight request.
type TokenCache struct {
	cfg     *clientcredentials.Config
	client  *http.Client
	clock   clock.Clock
	logger  *slog.Logger
	current atomic.Pointer[oauth2.Token]
	group   singleflight.Group
}

type Option func(*TokenCache)

func WithHTTPClient(c *http.Client) Option { return func(t *TokenCache) { t.client = c } }

func WithClock(c clock.Clock) Option { return func(t *TokenCache) { t.clock = c } }

func NewTokenCache(cfg config.OAuthConfig, logger *slog.Logger, opts ...Option) *TokenCache {
	tc := &TokenCache{
		cfg: &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		client: http.DefaultClient,
		clock:  clock.NewRealClock(),
		logger: logger,
	}
	for _, o := range opts {
		o(tc)
	}
	return tc
}

func (c *TokenCache) valid(t *oauth2.Token) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	return t.Expiry.IsZero() || c.clock.Now().Add(expiryMargin).Before(t.Expiry)
}

// Token returns a token valid for at least the expiry margin. A failed refresh leaves the cache untouched.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	if t := c.current.Load(); c.valid(t) {
		return t.AccessToken, nil
	}

	v, err, _ := c.group.Do("token", func() (any, error) {
		if t := c.current.Load(); c.valid(t) {
			return t, nil
		}
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		fctx = context.WithValue(fctx, oauth2.HTTPClient, c.client)

		t, err := c.cfg.Token(fctx)
		if err != nil {
			c.logger.Error("access token request failed", "token_url", c.cfg.TokenURL, "error", err.Error())
			return nil, errs.Mark(errs.Wrap(err, "token request failed"), ErrAuth)
		}
		c.current.Store(t)
		c.logger.Debug("access token refreshed", "token_url", c.cfg.TokenURL, "expiry", t.Expiry)
		return t, nil
	})
	if err != nil {
		return "", err
	}
	return v.(*oauth2.Token).AccessToken, nil
}

// Transport decorates base with an Authorization header carrying the cached token.
func (c *TokenCache) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &bearerTransport{tokens: c, base: base}
}

type bearerTransport struct {
	tokens *TokenCache
	base   http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.tokens.Token(req.Context())
	if err != nil {
		if req.Body != nil {
			_ = req.Body.Close()
		}
		return nil, err
	}
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+token)
	return t.base.RoundTrip(r)
}
