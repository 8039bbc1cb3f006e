package ebay

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	ApiBaseUrl   = "https://api.ebay.com"
	tokenTimeout = 10 * time.Second
	// searchTimeout bounds a single Browse API call. There is no mid-flight
	// cancellation; the timeout is the only abort path.
	searchTimeout = 15 * time.Second

	DefaultMarketplaceID = "EBAY_DE"
)

type ClientOpts struct {
	BaseURL       string
	AppID         string
	CertID        string
	MarketplaceID string
}

// Client talks to the eBay Browse API. Authentication uses the OAuth2
// client-credentials grant; tokens are cached in memory and refreshed when
// they expire (see auth.go).
type Client struct {
	httpClient    *resty.Client
	baseURL       string
	marketplaceID string
	appID         string
	certID        string

	tokens tokenCache
}

func NewClient(opts ClientOpts) (*Client, error) {
	if opts.AppID == "" || opts.CertID == "" {
		return nil, fmt.Errorf("ebay: app id and cert id are required")
	}

	c := Client{
		baseURL:       ApiBaseUrl,
		marketplaceID: DefaultMarketplaceID,
		appID:         opts.AppID,
		certID:        opts.CertID,
	}
	if opts.BaseURL != "" {
		c.baseURL = opts.BaseURL
	}
	if opts.MarketplaceID != "" {
		c.marketplaceID = opts.MarketplaceID
	}
	c.httpClient = resty.New().
		SetBaseURL(c.baseURL).
		SetTimeout(searchTimeout).
		SetHeaders(map[string]string{
			"Accept":                  "application/json",
			"Accept-Language":         "de-DE",
			"X-EBAY-C-MARKETPLACE-ID": c.marketplaceID,
		})

	return &c, nil
}

// handleError is a generic error handler for failing responses (>399 status
// code). Without this, failing responses would have nil error.
func handleError(res *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		return res, err
	}
	if res.IsError() {
		return res, fmt.Errorf("request failed: %s %s (status: %d)", res.Request.Method, res.Request.URL, res.StatusCode())
	}

	return res, nil
}
