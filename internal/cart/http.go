package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/dukerupert/vanir/internal/domain"
)

// HTTPClient implements Service against the cart service's REST API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewHTTPClient creates a cart client for the given base URL.
func NewHTTPClient(baseURL string, logger zerolog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger.With().Str("component", "cart_client").Logger(),
	}
}

// GetCart fetches GET {base}/v1.0/carts/{cartId} scoped to the tenant.
func (c *HTTPClient) GetCart(ctx context.Context, tenantID, cartID string) (*Cart, error) {
	const op = "cart.get_cart"

	endpoint := fmt.Sprintf("%s/v1.0/carts/%s", c.baseURL, url.PathEscape(cartID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to build cart request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Tenant-ID", tenantID)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, domain.Unavailable(err, op, "cart service unreachable")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.WrapSentinel(ErrCartNotFound, op, nil)
	case resp.StatusCode >= 500:
		return nil, domain.Unavailable(
			fmt.Errorf("cart service returned %d", resp.StatusCode), op, "cart service error")
	case resp.StatusCode != http.StatusOK:
		return nil, domain.Errorf(domain.EINVALID, op, "cart service rejected the request with %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, domain.Unavailable(err, op, "failed to read cart response")
	}

	var cart Cart
	if err := json.Unmarshal(body, &cart); err != nil {
		return nil, domain.WrapError(err, domain.EINVALID, op, "cart response is not valid JSON")
	}
	if err := cart.Validate(); err != nil {
		return nil, err
	}

	c.logger.Debug().Str("tenant_id", tenantID).Str("cart_id", cartID).Msg("cart fetched")
	return &cart, nil
}
