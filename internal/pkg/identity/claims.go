package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vietanh2810/kids-ledger-api/internal/config"
	"github.com/vietanh2810/kids-ledger-api/internal/domain"
)

// ClaimClient updates a user's role claim through the provider's admin API:
// PUT {endpoint}/{subject} with {"app_metadata":{"role":...}}.
type ClaimClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewClaimClient(endpoint, apiKey string, client *http.Client) *ClaimClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &ClaimClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		client:   client,
	}
}

func (c *ClaimClient) SetRole(ctx context.Context, subjectID string, role domain.Role) error {
	body, err := json.Marshal(map[string]any{
		"app_metadata": map[string]string{"role": string(role)},
	})
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.endpoint+"/"+url.PathEscape(subjectID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext -> %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("c.client.Do -> %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("identity provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	return nil
}

// NopClaims is used when no provider admin endpoint is configured; role
// changes then only live in the database.
type NopClaims struct{}

func (NopClaims) SetRole(_ context.Context, subjectID string, role domain.Role) error {
	zap.L().Warn("identity.claims_endpoint not set, role claim not written",
		zap.String("subjectId", subjectID), zap.String("role", string(role)))

	return nil
}

type ClaimUpdater interface {
	SetRole(ctx context.Context, subjectID string, role domain.Role) error
}

// ClaimUpdaterFromConfig picks the HTTP client when an endpoint is set.
func ClaimUpdaterFromConfig(conf *config.IdentityConfig) ClaimUpdater {
	if conf.ClaimsEndpoint == "" {
		return NopClaims{}
	}

	return NewClaimClient(conf.ClaimsEndpoint, conf.ClaimsAPIKey, nil)
}
