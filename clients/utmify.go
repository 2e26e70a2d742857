package clients

import (
	"context"
	"fmt"
	"strings"

	"github.com/Jojo244-329/server-app/models"
)

// UTMifyClient sends paid orders to the UTMify attribution API.
type UTMifyClient struct {
	baseURL  string
	apiToken string
	poster   *jsonPoster
}

func NewUTMifyClient(baseURL, apiToken string, opts Options) *UTMifyClient {
	return &UTMifyClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiToken: apiToken,
		poster:   newJSONPoster("utmify", opts),
	}
}

// SendOrder posts the order to /orders authenticated by x-api-token.
func (u *UTMifyClient) SendOrder(ctx context.Context, order models.AttributionOrder) error {
	headers := map[string]string{"x-api-token": u.apiToken}
	if err := u.poster.post(ctx, u.baseURL+"/orders", headers, order); err != nil {
		return fmt.Errorf("utmify order %s: %w", order.OrderID, err)
	}
	return nil
}
