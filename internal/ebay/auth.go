package ebay

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const oauthScope = "https://api.ebay.com/oauth/api_scope"

// tokenExpiryMargin is subtracted from the advertised token lifetime so a
// token is never used right at its expiry boundary.
const tokenExpiryMargin = 60 * time.Second

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// tokenCache holds the current application access token.
type tokenCache struct {
	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

func (t *tokenCache) isExpired() bool {
	if t.expiresAt.IsZero() {
		return true
	}
	return time.Now().After(t.expiresAt)
}

// accessToken returns a valid application token, performing the OAuth2
// client-credentials exchange when no usable token is cached.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.tokens.mu.Lock()
	defer c.tokens.mu.Unlock()

	if c.tokens.accessToken != "" && !c.tokens.isExpired() {
		return c.tokens.accessToken, nil
	}

	credentials := base64.StdEncoding.EncodeToString([]byte(c.appID + ":" + c.certID))

	result := &tokenResponse{}
	tokenCtx, cancel := context.WithTimeout(ctx, tokenTimeout)
	defer cancel()

	_, err := handleError(c.httpClient.
		NewRequest().
		SetContext(tokenCtx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetHeader("Authorization", "Basic "+credentials).
		SetFormData(map[string]string{
			"grant_type": "client_credentials",
			"scope":      oauthScope,
		}).
		SetResult(result).
		Post("/identity/v1/oauth2/token"))
	if err != nil {
		return "", fmt.Errorf("oauth token exchange failed: %w", err)
	}
	if result.AccessToken == "" {
		return "", fmt.Errorf("oauth token exchange returned empty token")
	}

	c.tokens.accessToken = result.AccessToken
	c.tokens.expiresAt = time.Now().Add(time.Duration(result.ExpiresIn)*time.Second - tokenExpiryMargin)
	log.Debug().Int("expiresIn", result.ExpiresIn).Msg("fetched new ebay access token")

	return c.tokens.accessToken, nil
}
