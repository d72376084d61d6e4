package esign

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CreateRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/signature_requests", r.URL.Path)
		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)

		var req SignatureRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []byte("%PDF"), req.Document)
		if len(req.Signers) == 1 && req.Signers[0].Email == "fail@example.com" {
			http.Error(w, "rejected", http.StatusUnprocessableEntity)
			return
		}
		_ = json.NewEncoder(w).Encode(signatureResponse{ID: "sig-42"})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL+"/api", "key", time.Second)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		id, err := c.CreateRequest(ctx, SignatureRequest{Title: "AGR-0001", Document: []byte("%PDF"), Signers: []Signer{{Name: "Ada", Email: "ada@example.com"}}})
		require.NoError(t, err)
		assert.Equal(t, "sig-42", id)
	})

	t.Run("Provider error", func(t *testing.T) {
		_, err := c.CreateRequest(ctx, SignatureRequest{Document: []byte("%PDF"), Signers: []Signer{{Email: "fail@example.com"}}})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "422")
	})

	t.Run("No signers", func(t *testing.T) {
		_, err := c.CreateRequest(ctx, SignatureRequest{Document: []byte("%PDF")})
		assert.Error(t, err)
	})
}
