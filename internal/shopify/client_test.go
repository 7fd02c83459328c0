package shopify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/pimsync/internal/wait"
	"github.com/agentstation/pimsync/pkg/errors"
)

type graphqlCall struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// newTestClient serves each request with the next canned response body.
func newTestClient(t *testing.T, rec *wait.Recorder, bodies ...string) (*Client, *[]graphqlCall) {
	t.Helper()
	var calls []graphqlCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", r.Header.Get("X-Shopify-Access-Token"))
		var call graphqlCall
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&call))
		calls = append(calls, call)
		i := len(calls) - 1
		if i >= len(bodies) {
			i = len(bodies) - 1
		}
		_, _ = w.Write([]byte(bodies[i]))
	}))
	t.Cleanup(srv.Close)

	c, err := New(Config{Endpoint: srv.URL, AccessToken: "tok"}, WithSleep(rec.Sleep))
	require.NoError(t, err)
	return c, &calls
}

func TestNew_Endpoint(t *testing.T) {
	c, err := New(Config{Store: "my-shop", AccessToken: "x"})
	require.NoError(t, err)
	assert.Equal(t, "https://my-shop.myshopify.com/admin/api/2024-10/graphql.json", c.Endpoint())

	c, err = New(Config{Store: "https://shop.example.com/", AccessToken: "x", APIVersion: "2025-01"})
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/admin/api/2025-01/graphql.json", c.Endpoint())

	_, err = New(Config{AccessToken: "x"})
	assert.Error(t, err)
	_, err = New(Config{Store: "s"})
	assert.Error(t, err)
}

func TestSearchProducts(t *testing.T) {
	var rec wait.Recorder
	c, calls := newTestClient(t, &rec, `{"data":{"products":{"nodes":[
		{"id":"gid://shopify/Product/1","title":"Creator 2.0","handle":"creator-2-0",
		 "variants":{"nodes":[{"id":"gid://shopify/ProductVariant/11","sku":"STTU964C001S","selectedOptions":[{"name":"Size","value":"S"},{"name":"Color","value":"White"}]}]}}
	]}}}`)

	products, err := c.SearchProducts(context.Background(), SearchQuery("title", "Creator 2.0"))
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "creator-2-0", products[0].Handle)
	require.Len(t, products[0].Variants, 1)
	assert.Equal(t, "S", products[0].Variants[0].Option("size"))
	assert.False(t, products[0].Variants[0].HasImage())

	require.Len(t, *calls, 1)
	assert.Equal(t, `title:"Creator 2.0"`, (*calls)[0].Variables["query"])
	assert.Empty(t, rec.Delays)
}

func TestCreateProduct_UserErrors(t *testing.T) {
	var rec wait.Recorder
	c, _ := newTestClient(t, &rec, `{"data":{"productCreate":{"product":null,"userErrors":[{"field":["title"],"message":"Title can't be blank"}]}}}`)

	_, err := c.CreateProduct(context.Background(), ProductInput{})
	require.Error(t, err)
	ue, ok := errors.AsUserErrors(err)
	require.True(t, ok)
	assert.Equal(t, "productCreate", ue.Operation)
	assert.True(t, ue.Contains("blank"))
}

func TestBulkCreateVariants_PartialDuplicates(t *testing.T) {
	var rec wait.Recorder
	c, calls := newTestClient(t, &rec, `{"data":{"productVariantsBulkCreate":{
		"productVariants":[{"id":"gid://shopify/ProductVariant/2","sku":"A1C1M"}],
		"userErrors":[{"field":["variants","1"],"message":"Variant already exists","code":"VARIANT_ALREADY_EXISTS"}]}}}`)

	variants, err := c.BulkCreateVariants(context.Background(), "gid://shopify/Product/1", []VariantInput{
		{Price: "10.00", OptionValues: []VariantOptionValue{{OptionName: "Size", Name: "M"}}, InventoryItem: &InventoryItemInput{SKU: "A1C1M", Measurement: Grams(180)}},
	})
	assert.Len(t, variants, 1)
	assert.True(t, errors.IsAlreadyExists(err))
	assert.Equal(t, "REMOVE_STANDALONE_VARIANT", (*calls)[0].Variables["strategy"])
}

func TestDo_TopLevelErrors(t *testing.T) {
	var rec wait.Recorder
	c, _ := newTestClient(t, &rec, `{"errors":[{"message":"Field 'bogus' doesn't exist"}]}`)
	err := c.Do(context.Background(), "query bogus { bogus }", nil, nil)
	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "bogus", apiErr.Endpoint)
	assert.False(t, errors.IsTransient(err))
}

func TestDo_Throttled(t *testing.T) {
	throttled := `{"errors":[{"message":"Throttled","extensions":{"code":"THROTTLED"}}],
		"extensions":{"cost":{"requestedQueryCost":50,"throttleStatus":{"maximumAvailable":1000,"currentlyAvailable":10,"restoreRate":50}}}}`
	ok := `{"data":{"shop":{"name":"x"}},"extensions":{"cost":{"requestedQueryCost":1,"throttleStatus":{"maximumAvailable":1000,"currentlyAvailable":900,"restoreRate":50}}}}`

	var rec wait.Recorder
	c, calls := newTestClient(t, &rec, throttled, ok)

	var out struct {
		Shop struct{ Name string } `json:"shop"`
	}
	require.NoError(t, c.Do(context.Background(), "query shop { shop { name } }", nil, &out))
	assert.Equal(t, "x", out.Shop.Name)
	assert.Len(t, *calls, 2)
	// (100 - 10) / 50 rounds up to 2 seconds.
	assert.Equal(t, []time.Duration{2 * time.Second}, rec.Delays)
}

func TestDo_ThrottledGivesUp(t *testing.T) {
	var rec wait.Recorder
	c, calls := newTestClient(t, &rec, `{"errors":[{"message":"Throttled","extensions":{"code":"THROTTLED"}}]}`)
	err := c.Do(context.Background(), "query shop { shop { name } }", nil, nil)
	assert.True(t, errors.IsRateLimited(err))
	assert.Len(t, *calls, maxThrottleRetries+1)
}

func TestDo_LowBucketWaits(t *testing.T) {
	var rec wait.Recorder
	c, _ := newTestClient(t, &rec, `{"data":{},"extensions":{"cost":{"throttleStatus":{"currentlyAvailable":40,"restoreRate":100}}}}`)
	require.NoError(t, c.Do(context.Background(), "query shop { shop { name } }", nil, nil))
	assert.Equal(t, []time.Duration{time.Second}, rec.Delays)
}

func TestFile(t *testing.T) {
	var f File
	require.NoError(t, json.Unmarshal([]byte(`{"id":"gid://shopify/MediaImage/1","fileStatus":"READY",
		"image":{"url":"https://cdn.shopify.com/s/files/1/files/SFM0_STTU964_C134-0b7c6c3e-7f3e-4a56-9d35-0d6d2a1f8e44.jpg?v=1"}}`), &f))
	assert.True(t, f.Ready())
	assert.Equal(t, "SFM0_STTU964_C134-0b7c6c3e-7f3e-4a56-9d35-0d6d2a1f8e44.jpg", f.Filename())

	assert.Equal(t, "", File{}.Filename())
	assert.Equal(t, "doc.pdf", File{GenericURL: "https://cdn/x/doc.pdf"}.Filename())
}

func TestMetaobjectByHandle_Missing(t *testing.T) {
	var rec wait.Recorder
	c, calls := newTestClient(t, &rec, `{"data":{"metaobjectByHandle":null}}`)
	m, err := c.MetaobjectByHandle(context.Background(), "pim_style_group", "creator-2-0")
	require.NoError(t, err)
	assert.Nil(t, m)
	handle := (*calls)[0].Variables["handle"].(map[string]any)
	assert.Equal(t, "creator-2-0", handle["handle"])
}

func TestVariantMediaMutations(t *testing.T) {
	var rec wait.Recorder
	c, calls := newTestClient(t, &rec,
		`{"data":{"productVariantAppendMedia":{"userErrors":[{"message":"Media is still processing","code":"NON_READY_MEDIA"}]}}}`,
		`{"data":{"productVariantsBulkUpdate":{"productVariants":[],"userErrors":[]}}}`,
		`{"data":{"productVariantUpdate":{"userErrors":[]}}}`,
	)
	ctx := context.Background()

	err := c.AppendVariantMedia(ctx, "p", "v", "m")
	assert.True(t, errors.IsNotReady(err))
	assert.NoError(t, c.BulkSetVariantMedia(ctx, "p", "v", "m"))
	assert.NoError(t, c.UpdateVariantMedia(ctx, "v", "m"))

	require.Len(t, *calls, 3)
	assert.True(t, strings.HasPrefix((*calls)[1].Query, "mutation productVariantsBulkUpdate"))
	variants := (*calls)[1].Variables["variants"].([]any)
	assert.Equal(t, "m", variants[0].(map[string]any)["mediaId"])
}

func TestSearchQuery(t *testing.T) {
	assert.Equal(t, "handle:creator-2-0", SearchQuery("handle", "creator-2-0"))
	assert.Equal(t, `title:"Say \"hi\""`, SearchQuery("title", `Say "hi"`))
	assert.Equal(t, "sku:STTU964*", SearchQuery("sku", "STTU964*"))
	assert.Equal(t, "plain", SearchQuery("", "plain"))
}

func TestOperationName(t *testing.T) {
	assert.Equal(t, "productCreate", operationName(productCreateMutation))
	assert.Equal(t, "products", operationName(searchProductsQuery))
	assert.Equal(t, "graphql", operationName("{ shop }"))
}
