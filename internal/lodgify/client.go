package lodgify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"property-maintenance-backend/config"
)

// ErrMissingAPIKey is returned before any request is made when no key is configured.
var ErrMissingAPIKey = errors.New("lodgify API key not configured")

// maxPages bounds pagination against an upstream that never returns a short page.
const maxPages = 200

// Client reads active bookings from the Lodgify v2 API.
type Client struct {
	baseURL  string
	apiKey   string
	pageSize int
	client   *http.Client
	log      *zap.Logger
}

// NewClient builds a client from configuration, honouring an optional HTTP proxy.
func NewClient(cfg config.LodgifyConfig, log *zap.Logger) *Client {
	var transport http.RoundTripper = http.DefaultTransport
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			log.Warn("invalid lodgify proxy URL, not using a proxy", zap.String("proxy", cfg.HTTPProxy), zap.Error(err))
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		pageSize: pageSize,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		log: log,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// CurrentBookings fetches every booking whose stay is in progress, across all pages.
func (c *Client) CurrentBookings(ctx context.Context) ([]Booking, error) {
	return c.fetchAll(ctx, nil)
}

// GuestsForProperty sums guests over the current bookings of one property.
func (c *Client) GuestsForProperty(ctx context.Context, propertyID int64) (int, error) {
	extra := url.Values{}
	extra.Set("propertyId", strconv.FormatInt(propertyID, 10))

	bookings, err := c.fetchAll(ctx, extra)
	if err != nil {
		return 0, err
	}

	guests := 0
	for _, b := range bookings {
		if b.Property.ID == propertyID {
			guests += b.Guests
		}
	}
	return guests, nil
}

func (c *Client) fetchAll(ctx context.Context, extra url.Values) ([]Booking, error) {
	if !c.Configured() {
		return nil, ErrMissingAPIKey
	}

	var all []Booking
	var prevFirstID int64
	for page := 1; page <= maxPages; page++ {
		resp, err := c.fetchPage(ctx, page, extra)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		// An upstream that ignores paging repeats the same page forever.
		if page > 1 && len(resp.Items) > 0 && resp.Items[0].ID == prevFirstID {
			c.log.Warn("lodgify returned a repeated page, stopping pagination", zap.Int("page", page))
			break
		}
		if len(resp.Items) > 0 {
			prevFirstID = resp.Items[0].ID
		}
		all = append(all, resp.Items...)
		c.log.Debug("fetched lodgify bookings page", zap.Int("page", page), zap.Int("items", len(resp.Items)), zap.Int("total_so_far", len(all)))

		if len(resp.Items) < c.pageSize {
			break
		}
		if resp.Count != nil && len(all) >= *resp.Count {
			break
		}
	}
	return all, nil
}

// fetchPage fetches a single page of current bookings.
func (c *Client) fetchPage(ctx context.Context, page int, extra url.Values) (*BookingsResponse, error) {
	q := url.Values{}
	q.Set("stayFilter", "Current")
	q.Set("includeCount", "false")
	q.Set("includeTransactions", "false")
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(c.pageSize))
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}

	endpoint := c.baseURL + "/v2/reservations/bookings?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-ApiKey", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch data from Lodgify: %s - %s", resp.Status, strings.TrimSpace(string(body)))
	}

	bookings, err := decodeBookings(body)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal bookings response: %w", err)
	}
	return bookings, nil
}
