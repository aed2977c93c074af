package odata_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/dynabridge/internal/adapter/driven/odata"
	"github.com/ericfisherdev/dynabridge/internal/domain/model"
)

// staticTokens is a TokenSource returning a fixed credential.
type staticTokens struct {
	token string
	err   error
}

func (s *staticTokens) Token(_ context.Context) (string, error) {
	return s.token, s.err
}

// newTestClient creates a Client backed by the given httptest handler.
func newTestClient(t *testing.T, handler http.Handler) *odata.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return odata.NewClientWithHTTPClient(server.Client(), server.URL, &staticTokens{token: "tok-1"})
}

func TestFetchEntityCatalog(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/DataEntities", r.URL.Path)
		assert.Equal(t, "Name,PublicCollectionName", r.URL.Query().Get("$select"))
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]string{
				{"Name": "Customer", "PublicCollectionName": "CustomersV3"},
				{"Name": "Vendor", "PublicCollectionName": "VendorsV2"},
				{"Name": "InternalOnly", "PublicCollectionName": ""},
			},
		})
	})

	client := newTestClient(t, handler)

	entries, err := client.FetchEntityCatalog(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []model.CatalogEntry{
		{LogicalName: "Customer", CanonicalName: "CustomersV3"},
		{LogicalName: "Vendor", CanonicalName: "VendorsV2"},
	}, entries)
}

func TestFetchEntityCatalog_MalformedBody(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value": [`))
	})

	client := newTestClient(t, handler)

	_, err := client.FetchEntityCatalog(context.Background())

	require.Error(t, err)
}

func TestQueryRecords(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/CustomersV3", r.URL.Path)
		assert.Equal(t, "dataAreaId eq 'usmf'", r.URL.Query().Get("$filter"))
		assert.Equal(t, "50", r.URL.Query().Get("$top"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]any{
				{"CustomerAccount": "US-001", "Name": "Contoso Retail"},
			},
		})
	})

	client := newTestClient(t, handler)

	records, err := client.QueryRecords(context.Background(), "CustomersV3", "dataAreaId eq 'usmf'", 50)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "US-001", records[0]["CustomerAccount"])
}

func TestQueryRecords_EmptyResult(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"value": []any{}})
	})

	client := newTestClient(t, handler)

	records, err := client.QueryRecords(context.Background(), "CustomersV3", "", 0)

	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestGetRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"value": []any{}})
	})

	client := newTestClient(t, handler)

	_, err := client.QueryRecords(context.Background(), "CustomersV3", "", 0)

	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	client := newTestClient(t, handler)

	_, err := client.QueryRecords(context.Background(), "NoSuchSet", "", 0)

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetPropagatesTokenFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the service without a credential")
	}))
	t.Cleanup(server.Close)

	tokens := &staticTokens{err: &model.CredentialError{Err: assert.AnError}}
	client := odata.NewClientWithHTTPClient(server.Client(), server.URL, tokens)

	_, err := client.QueryRecords(context.Background(), "CustomersV3", "", 0)

	require.Error(t, err)
	var credErr *model.CredentialError
	assert.ErrorAs(t, err, &credErr)
}
