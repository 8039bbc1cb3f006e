package ebay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer serves the OAuth token endpoint and the Browse search
// endpoint with canned data, recording search requests.
func newTestServer(t *testing.T, tokenCalls *atomic.Int32, expiresIn string, searchReqs *[]*http.Request) *httptest.Server {
	t.Helper()
	searchBody, err := os.ReadFile("testdata/browse_search.json")
	if err != nil {
		t.Fatal(err)
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/identity/v1/oauth2/token":
			tokenCalls.Add(1)
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Contains(t, r.Header.Get("Authorization"), "Basic ")
			require.Nil(t, r.ParseForm())
			assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token": "test-token", "expires_in": ` + expiresIn + `, "token_type": "Application Access Token"}`))
		case "/buy/browse/v1/item_summary/search":
			*searchReqs = append(*searchReqs, r)
			w.Header().Set("Content-Type", "application/json")
			w.Write(searchBody)
		default:
			t.Errorf("unexpected request path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(ClientOpts{
		BaseURL: baseURL,
		AppID:   "app",
		CertID:  "cert",
	})
	require.Nil(t, err)
	return client
}

func TestSearch(t *testing.T) {
	var tokenCalls atomic.Int32
	var searchReqs []*http.Request
	ts := newTestServer(t, &tokenCalls, "7200", &searchReqs)
	defer ts.Close()

	client := newTestClient(t, ts.URL)
	items, err := client.Search(context.Background(), "matrix dvd", SearchOpts{
		Limit:      50,
		Conditions: UsedConditions,
	})

	require.Nil(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Matrix DVD Deluxe Edition (1999)", items[0].Title)
	require.NotNil(t, items[0].Price)
	assert.Equal(t, "12.50", items[0].Price.Value)
	assert.Equal(t, "EUR", items[0].Price.Currency)
	require.Len(t, items[0].ShippingOptions, 1)
	assert.Equal(t, "3.00", items[0].ShippingOptions[0].ShippingCost.Value)
	assert.Empty(t, items[1].ShippingOptions)

	require.Len(t, searchReqs, 1)
	searchReq := searchReqs[0]
	assert.Equal(t, "matrix dvd", searchReq.URL.Query().Get("q"))
	assert.Equal(t, "50", searchReq.URL.Query().Get("limit"))
	assert.Equal(t, "conditions:{USED|VERY_GOOD|GOOD|ACCEPTABLE}", searchReq.URL.Query().Get("filter"))
	assert.Equal(t, "Bearer test-token", searchReq.Header.Get("Authorization"))
	assert.Equal(t, DefaultMarketplaceID, searchReq.Header.Get("X-EBAY-C-MARKETPLACE-ID"))
}

func TestSearchWithoutConditionsOmitsFilter(t *testing.T) {
	var tokenCalls atomic.Int32
	var searchReqs []*http.Request
	ts := newTestServer(t, &tokenCalls, "7200", &searchReqs)
	defer ts.Close()

	client := newTestClient(t, ts.URL)
	_, err := client.Search(context.Background(), "matrix dvd", SearchOpts{Limit: 20})

	require.Nil(t, err)
	require.Len(t, searchReqs, 1)
	assert.False(t, searchReqs[0].URL.Query().Has("filter"))
	assert.Equal(t, "20", searchReqs[0].URL.Query().Get("limit"))
}

func TestTokenIsReusedAcrossSearches(t *testing.T) {
	var tokenCalls atomic.Int32
	var searchReqs []*http.Request
	ts := newTestServer(t, &tokenCalls, "7200", &searchReqs)
	defer ts.Close()

	client := newTestClient(t, ts.URL)
	_, err := client.Search(context.Background(), "matrix dvd", SearchOpts{})
	require.Nil(t, err)
	_, err = client.Search(context.Background(), "harry potter", SearchOpts{})
	require.Nil(t, err)

	assert.Equal(t, int32(1), tokenCalls.Load(), "a valid token must be reused")
	assert.Len(t, searchReqs, 2)
}

func TestExpiredTokenIsRefreshed(t *testing.T) {
	var tokenCalls atomic.Int32
	var searchReqs []*http.Request
	// expires_in below the safety margin: the token is stale immediately.
	ts := newTestServer(t, &tokenCalls, "30", &searchReqs)
	defer ts.Close()

	client := newTestClient(t, ts.URL)
	_, err := client.Search(context.Background(), "matrix dvd", SearchOpts{})
	require.Nil(t, err)
	_, err = client.Search(context.Background(), "matrix dvd", SearchOpts{})
	require.Nil(t, err)

	assert.Equal(t, int32(2), tokenCalls.Load())
}

func TestSearchServerErrorIsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/identity/v1/oauth2/token" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token": "test-token", "expires_in": 7200}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := newTestClient(t, ts.URL)
	_, err := client.Search(context.Background(), "matrix dvd", SearchOpts{})

	assert.NotNil(t, err, "a failing search must be an error, not an empty result")
}

func TestTokenEndpointFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	client := newTestClient(t, ts.URL)
	_, err := client.Search(context.Background(), "matrix dvd", SearchOpts{})

	assert.NotNil(t, err)
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(ClientOpts{})
	assert.NotNil(t, err)

	_, err = NewClient(ClientOpts{AppID: "app"})
	assert.NotNil(t, err)
}

func TestConditionFilter(t *testing.T) {
	assert.Equal(t, "conditions:{USED|VERY_GOOD|GOOD|ACCEPTABLE}", conditionFilter(UsedConditions))
	assert.Equal(t, "conditions:{NEW}", conditionFilter([]string{"NEW"}))
}
