package extraction_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/storekit/storefront_backend/internal/adapters/extraction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generationStub(t *testing.T, reply string, capture *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generate", r.URL.Path)
		assert.Equal(t, "Bearer gen_key", r.Header.Get("Authorization"))
		if capture != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}
		json.NewEncoder(w).Encode(map[string]string{"text": reply})
	}))
}

func TestClient_ExtractReceipt(t *testing.T) {
	reply := `{"date":"2025-03-14","supplier":"Acme Office Supply","category":"software",
"subtotal":"90","tax":"10","total":"100","currency":"USD",
"lineItems":[{"description":"Annual license","quantity":1,"amount":"90"}],"confidence":0.93}`

	var captured map[string]any
	srv := generationStub(t, reply, &captured)
	defer srv.Close()

	client := extraction.NewClient(srv.URL, "gen_key", "vision-large")
	fields, err := client.ExtractReceipt(context.Background(), "https://cdn.example.com/r1.jpg")

	require.NoError(t, err)
	assert.Equal(t, "Acme Office Supply", fields.Supplier)
	assert.Equal(t, "software", fields.Category)
	assert.True(t, fields.Total.Equal(decimal.NewFromInt(100)))
	require.Len(t, fields.LineItems, 1)
	assert.Equal(t, "Annual license", fields.LineItems[0].Description)
	assert.InDelta(t, 0.93, fields.Confidence, 1e-9)

	assert.Equal(t, "vision-large", captured["model"])
	assert.Equal(t, "https://cdn.example.com/r1.jpg", captured["imageUrl"])
}

func TestClient_ExtractReceipt_StripsCodeFences(t *testing.T) {
	reply := "```json\n{\"supplier\":\"Fenced Vendor\",\"category\":\"meals\",\"total\":\"12\",\"currency\":\"USD\",\"confidence\":0.8}\n```"
	srv := generationStub(t, reply, nil)
	defer srv.Close()

	client := extraction.NewClient(srv.URL, "gen_key", "vision-large")
	fields, err := client.ExtractReceipt(context.Background(), "https://cdn.example.com/r2.jpg")

	require.NoError(t, err)
	assert.Equal(t, "Fenced Vendor", fields.Supplier)
}

func TestClient_ExtractReceipt_UnparseableTextFails(t *testing.T) {
	srv := generationStub(t, "Sorry, I cannot read this receipt.", nil)
	defer srv.Close()

	client := extraction.NewClient(srv.URL, "gen_key", "vision-large")
	fields, err := client.ExtractReceipt(context.Background(), "https://cdn.example.com/r3.jpg")

	require.Error(t, err)
	assert.Nil(t, fields)
	assert.Contains(t, err.Error(), "unparseable")
}

func TestClient_SuggestCategory_NormalizesReply(t *testing.T) {
	var captured map[string]any
	srv := generationStub(t, "  Software\n", &captured)
	defer srv.Close()

	client := extraction.NewClient(srv.URL, "gen_key", "text-small")
	category, err := client.SuggestCategory(context.Background(), "CloudHost", decimal.NewFromInt(120))

	require.NoError(t, err)
	assert.Equal(t, "software", category)
	prompt, _ := captured["prompt"].(string)
	assert.Contains(t, prompt, "CloudHost")
	assert.Contains(t, prompt, "120")
}

func TestClient_CollaboratorFailureSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := extraction.NewClient(srv.URL, "gen_key", "vision-large")
	_, err := client.ExtractReceipt(context.Background(), "https://cdn.example.com/r4.jpg")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
