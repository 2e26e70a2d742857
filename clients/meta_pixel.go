package clients

import (
	"context"
	"fmt"
	"strings"

	"github.com/Jojo244-329/server-app/models"
)

// MetaPixelClient sends conversion events to the Meta Conversions API.
type MetaPixelClient struct {
	baseURL     string
	pixelID     string
	accessToken string
	poster      *jsonPoster
}

type metaEventsRequest struct {
	Data        []models.ConversionEvent `json:"data"`
	AccessToken string                   `json:"access_token"`
}

func NewMetaPixelClient(baseURL, pixelID, accessToken string, opts Options) *MetaPixelClient {
	return &MetaPixelClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		pixelID:     pixelID,
		accessToken: accessToken,
		poster:      newJSONPoster("meta_pixel", opts),
	}
}

// SendEvent posts a single event to /<pixel-id>/events.
func (m *MetaPixelClient) SendEvent(ctx context.Context, event models.ConversionEvent) error {
	url := fmt.Sprintf("%s/%s/events", m.baseURL, m.pixelID)
	body := metaEventsRequest{
		Data:        []models.ConversionEvent{event},
		AccessToken: m.accessToken,
	}
	if err := m.poster.post(ctx, url, nil, body); err != nil {
		return fmt.Errorf("meta pixel %s: %w", event.EventName, err)
	}
	return nil
}
