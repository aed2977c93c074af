// Package odata implements the DataService port against a Dynamics-style
// OData environment.
package odata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/dynabridge/internal/domain/model"
	"github.com/ericfisherdev/dynabridge/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.DataService = (*Client)(nil)

// TokenSource supplies a bearer credential for outbound requests. Satisfied
// by the application-layer credential cache.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// maxFetchRetries bounds the exponential backoff applied to transient
// failures (network errors and 5xx responses) on each request.
const maxFetchRetries = 3

// Client implements the driven.DataService port with the following transport
// stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. net/http with a request timeout
//
// Bearer credentials are resolved per attempt from the injected TokenSource.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
}

// NewClient creates a data service client for the given environment URL.
func NewClient(resourceURL string, tokens TokenSource, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: httpcache.NewMemoryCacheTransport(),
			Timeout:   timeout,
		},
		baseURL: strings.TrimRight(resourceURL, "/"),
		tokens:  tokens,
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base
// URL. This constructor is intended for testing, allowing injection of an
// httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string, tokens TokenSource) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
	}
}

// catalogRecord is the wire shape of one entity-set entry in the DataEntities
// collection.
type catalogRecord struct {
	Name                 string `json:"Name"`
	PublicCollectionName string `json:"PublicCollectionName"`
}

// FetchEntityCatalog retrieves the full list of exposed entity sets.
func (c *Client) FetchEntityCatalog(ctx context.Context) ([]model.CatalogEntry, error) {
	q := url.Values{}
	q.Set("$select", "Name,PublicCollectionName")

	var body struct {
		Value []catalogRecord `json:"value"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/data/DataEntities?"+q.Encode(), &body); err != nil {
		return nil, fmt.Errorf("fetching entity catalog: %w", err)
	}

	entries := make([]model.CatalogEntry, 0, len(body.Value))
	for _, rec := range body.Value {
		if rec.PublicCollectionName == "" {
			continue
		}
		entries = append(entries, model.CatalogEntry{
			LogicalName:   rec.Name,
			CanonicalName: rec.PublicCollectionName,
		})
	}

	return entries, nil
}

// FetchMetadata downloads the $metadata document and parses it in one pass.
func (c *Client) FetchMetadata(ctx context.Context) (*model.ServiceMetadata, error) {
	raw, err := c.getRaw(ctx, c.baseURL+"/data/$metadata", "application/xml")
	if err != nil {
		return nil, fmt.Errorf("fetching metadata document: %w", err)
	}

	meta, err := parseMetadata(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing metadata document: %w", err)
	}

	return meta, nil
}

// QueryRecords fetches rows from the given canonical entity set. filter may
// be empty; top caps the number of rows requested.
func (c *Client) QueryRecords(ctx context.Context, entitySet, filter string, top int) ([]model.Record, error) {
	q := url.Values{}
	if filter != "" {
		q.Set("$filter", filter)
	}
	if top > 0 {
		q.Set("$top", strconv.Itoa(top))
	}

	reqURL := c.baseURL + "/data/" + url.PathEscape(entitySet)
	if encoded := q.Encode(); encoded != "" {
		reqURL += "?" + encoded
	}

	var body struct {
		Value []model.Record `json:"value"`
	}
	if err := c.getJSON(ctx, reqURL, &body); err != nil {
		return nil, fmt.Errorf("querying %s: %w", entitySet, err)
	}

	if body.Value == nil {
		body.Value = []model.Record{}
	}

	return body.Value, nil
}

// getJSON performs an authenticated GET and decodes a JSON response body.
func (c *Client) getJSON(ctx context.Context, reqURL string, out any) error {
	raw, err := c.getRaw(ctx, reqURL, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", reqURL, err)
	}
	return nil
}

// getRaw performs an authenticated GET with exponential backoff on transient
// failures and returns the response body. Credential failures and 4xx
// responses are permanent; network errors and 5xx responses are retried.
func (c *Client) getRaw(ctx context.Context, reqURL, accept string) ([]byte, error) {
	var raw []byte

	op := func() error {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", accept)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("GET %s: status %d", reqURL, resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("GET %s: status %d", reqURL, resp.StatusCode))
		}

		raw, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response from %s: %w", reqURL, err)
		}
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxFetchRetries), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, err
	}

	return raw, nil
}
