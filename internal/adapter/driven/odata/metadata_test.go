package odata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/dynabridge/internal/domain/model"
)

// fixedTokens is a TokenSource stub for tests inside the package.
type fixedTokens struct {
	token string
}

func (f *fixedTokens) Token(_ context.Context) (string, error) {
	return f.token, nil
}

// sampleCSDL is a trimmed-down metadata document in the shape the service
// actually returns: namespaced edmx wrapper, one schema with entity types,
// and an entity container mapping set names to qualified type names.
const sampleCSDL = `<?xml version="1.0" encoding="utf-8"?>
<edmx:Edmx Version="4.0" xmlns:edmx="http://docs.oasis-open.org/odata/ns/edmx">
  <edmx:DataServices>
    <Schema Namespace="Microsoft.Dynamics.DataEntities" xmlns="http://docs.oasis-open.org/odata/ns/edm">
      <EnumType Name="PurchStatus">
        <Member Name="None" Value="0"/>
        <Member Name="Received" Value="2"/>
      </EnumType>
      <EntityType Name="PurchaseOrderHeader">
        <Key>
          <PropertyRef Name="dataAreaId"/>
          <PropertyRef Name="PurchaseOrderNumber"/>
        </Key>
        <Property Name="dataAreaId" Type="Edm.String" Nullable="false"/>
        <Property Name="PurchaseOrderNumber" Type="Edm.String" Nullable="false"/>
        <Property Name="PurchaseOrderStatus" Type="Microsoft.Dynamics.DataEntities.PurchStatus"/>
        <Property Name="OrderTotal" Type="Edm.Decimal"/>
      </EntityType>
      <EntityType Name="Customer">
        <Key>
          <PropertyRef Name="CustomerAccount"/>
        </Key>
        <Property Name="CustomerAccount" Type="Edm.String" Nullable="false"/>
        <Property Name="Name" Type="Edm.String"/>
      </EntityType>
      <EntityContainer Name="DataServices">
        <EntitySet Name="PurchaseOrderHeadersV2" EntityType="Microsoft.Dynamics.DataEntities.PurchaseOrderHeader"/>
        <EntitySet Name="CustomersV3" EntityType="Microsoft.Dynamics.DataEntities.Customer"/>
      </EntityContainer>
    </Schema>
  </edmx:DataServices>
</edmx:Edmx>`

func TestParseMetadata(t *testing.T) {
	meta, err := parseMetadata([]byte(sampleCSDL))

	require.NoError(t, err)
	require.Len(t, meta.Types, 2)

	po, ok := meta.Types["Microsoft.Dynamics.DataEntities.PurchaseOrderHeader"]
	require.True(t, ok)
	assert.Equal(t, "Microsoft.Dynamics.DataEntities.PurchaseOrderHeader", po.TypeName)
	require.Len(t, po.Fields, 4)

	assert.Equal(t, "dataAreaId", po.Fields[0].Name)
	assert.True(t, po.Fields[0].IsKey)
	assert.Equal(t, model.FieldKindPrimitive, po.Fields[0].Type.Kind)

	status := po.FieldNamed("PurchaseOrderStatus")
	require.NotNil(t, status)
	assert.False(t, status.IsKey)
	assert.Equal(t, model.FieldKindEnumeration, status.Type.Kind)
	assert.Equal(t, "Microsoft.Dynamics.DataEntities.PurchStatus", status.Type.Qualified)

	assert.Equal(t, map[string]string{
		"PurchaseOrderHeadersV2": "Microsoft.Dynamics.DataEntities.PurchaseOrderHeader",
		"CustomersV3":            "Microsoft.Dynamics.DataEntities.Customer",
	}, meta.Sets)
}

func TestParseMetadata_EmptyDocument(t *testing.T) {
	meta, err := parseMetadata([]byte(`<edmx:Edmx xmlns:edmx="http://docs.oasis-open.org/odata/ns/edmx"><edmx:DataServices/></edmx:Edmx>`))

	require.NoError(t, err)
	assert.Empty(t, meta.Types)
	assert.Empty(t, meta.Sets)
}

func TestParseMetadata_MalformedXML(t *testing.T) {
	_, err := parseMetadata([]byte(`<edmx:Edmx><unclosed`))

	require.Error(t, err)
}

func TestFetchMetadata(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/$metadata", r.URL.Path)
		assert.Equal(t, "application/xml", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(sampleCSDL))
	})

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClientWithHTTPClient(server.Client(), server.URL, &fixedTokens{token: "tok-1"})

	meta, err := client.FetchMetadata(context.Background())

	require.NoError(t, err)
	assert.Len(t, meta.Types, 2)
	assert.Len(t, meta.Sets, 2)
}
