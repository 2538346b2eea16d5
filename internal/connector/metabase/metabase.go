// Package metabase implements connector.CardCreator against the Metabase
// REST API using a static API key.
package metabase

import (
	"context"

	"github.com/crimson-sun/cardport/internal/connector"
	"github.com/crimson-sun/cardport/internal/connector/httpclient"
	"github.com/crimson-sun/cardport/internal/model"
)

// CardPath is the card-creation endpoint.
const CardPath = "/api/card"

var _ connector.CardCreator = (*Client)(nil)

// Client talks to one Metabase instance.
type Client struct {
	http *httpclient.Client
}

// New creates a Client for the instance at baseURL.
func New(baseURL, apiKey string, opts ...httpclient.Option) *Client {
	return &Client{http: httpclient.New(baseURL, apiKey, opts...)}
}

// CreateCard posts req to /api/card. A non-2xx status is returned as
// *httpclient.APIError.
func (c *Client) CreateCard(ctx context.Context, req model.CardRequest) (model.Card, error) {
	var card model.Card
	if err := c.http.PostJSON(ctx, CardPath, req, &card); err != nil {
		return model.Card{}, err
	}
	return card, nil
}
