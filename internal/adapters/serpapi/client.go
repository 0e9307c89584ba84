package serpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/roteiro-app/travel-planner-api/internal/ports/out/searchprovider"
)

// maxBody bounds how much of an upstream reply is buffered for relay.
const maxBody = 8 << 20

// Client calls the SerpAPI search endpoint. Responses are relayed unchanged.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, httpClient *http.Client) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("SERPAPI_KEY is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("SERPAPI_BASE_URL: %w", err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, http: httpClient}, nil
}

func (c *Client) SearchFlights(ctx context.Context, q searchprovider.FlightQuery) (searchprovider.Response, error) {
	v := url.Values{}
	v.Set("engine", "google_flights")
	v.Set("departure_id", q.DepartureID)
	v.Set("arrival_id", q.ArrivalID)
	v.Set("outbound_date", q.OutboundDate)
	if q.ReturnDate != "" {
		v.Set("return_date", q.ReturnDate)
		v.Set("type", "1")
	} else {
		v.Set("type", "2")
	}
	setCommon(v, q.Currency, q.Language, q.Adults)
	return c.get(ctx, v)
}

func (c *Client) SearchHotels(ctx context.Context, q searchprovider.HotelQuery) (searchprovider.Response, error) {
	v := url.Values{}
	v.Set("engine", "google_hotels")
	v.Set("q", q.Query)
	v.Set("check_in_date", q.CheckInDate)
	v.Set("check_out_date", q.CheckOutDate)
	setCommon(v, q.Currency, q.Language, q.Adults)
	return c.get(ctx, v)
}

func setCommon(v url.Values, currency, lang string, adults int) {
	if currency != "" {
		v.Set("currency", currency)
	}
	if lang != "" {
		v.Set("hl", lang)
	}
	if adults > 0 {
		v.Set("adults", strconv.Itoa(adults))
	}
}

func (c *Client) get(ctx context.Context, v url.Values) (searchprovider.Response, error) {
	v.Set("api_key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search.json?"+v.Encode(), nil)
	if err != nil {
		return searchprovider.Response{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// url.Error embeds the full URL, including the api key.
		var ue *url.Error
		if errors.As(err, &ue) {
			return searchprovider.Response{}, fmt.Errorf("serpapi %s: %w", v.Get("engine"), ue.Err)
		}
		return searchprovider.Response{}, fmt.Errorf("serpapi %s: %w", v.Get("engine"), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return searchprovider.Response{}, fmt.Errorf("serpapi %s: read body: %w", v.Get("engine"), err)
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/json"
	}
	return searchprovider.Response{StatusCode: resp.StatusCode, ContentType: ct, Body: body}, nil
}
