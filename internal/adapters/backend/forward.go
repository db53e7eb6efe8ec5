package backend

import (
	"context"
	"net/http"
	"strings"

	"github.com/mydrops/storefront-edge/internal/ports"
)

// relayedHeaders are the backend response headers passed back to the browser.
// Location is withheld since it points at the backend origin.
var relayedHeaders = []string{"Content-Type", "X-Total-Count"}

// Forward relays a catalog or user-management call to the backend. Every
// backend status is returned as-is; only transport failures are errors.
func (c *Client) Forward(ctx context.Context, req ports.ForwardRequest) (ports.ForwardResponse, error) {
	header := http.Header{}
	if req.Body != nil {
		header.Set("Content-Type", "application/json")
	}

	res, err := c.do(ctx, call{
		op:     "forward_" + strings.ToLower(req.Method),
		method: req.Method,
		path:   req.Path,
		query:  req.Query,
		token:  req.Token,
		body:   req.Body,
		header: header,
	})
	if err != nil {
		return ports.ForwardResponse{}, err
	}

	out := http.Header{}
	for _, h := range relayedHeaders {
		if v := res.header.Get(h); v != "" {
			out.Set(h, v)
		}
	}
	return ports.ForwardResponse{Status: res.status, Header: out, Body: res.body}, nil
}
