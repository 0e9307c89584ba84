package viacep

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/roteiro-app/travel-planner-api/internal/ports/out/searchprovider"
)

// Client looks up Brazilian postal codes on ViaCEP (no key required).
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// LookupCEP expects exactly 8 digits; callers normalize.
func (c *Client) LookupCEP(ctx context.Context, cep string) (searchprovider.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ws/"+url.PathEscape(cep)+"/json/", nil)
	if err != nil {
		return searchprovider.Response{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return searchprovider.Response{}, fmt.Errorf("viacep: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return searchprovider.Response{}, fmt.Errorf("viacep: read body: %w", err)
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/json"
	}
	return searchprovider.Response{StatusCode: resp.StatusCode, ContentType: ct, Body: body}, nil
}
