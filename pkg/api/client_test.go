package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestClient_FetchCtbURL(t *testing.T) {
	var gotPath, gotCSRF, gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCSRF = r.Header.Get(CSRFHeader)
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(PurchaseURL{URL: "https://buy.example.com/checkout?token=a1"})
	}))
	defer server.Close()

	client := NewClient(server.URL, server.URL+"/events",
		WithCSRFToken("csrf-123"),
		WithCredentials(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "cred-1"})),
	)

	url, err := client.FetchCtbURL(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "https://buy.example.com/checkout?token=a1", url)
	assert.Equal(t, "/ctb/url", gotPath)
	assert.Equal(t, "csrf-123", gotCSRF)
	assert.Equal(t, "Bearer cred-1", gotAuth)

	_, err = client.FetchCtbURL(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "/ctb/42", gotPath)
}

func TestClient_FetchCtbURL_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-OK status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			},
		},
		{
			name: "missing url field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{}`))
			},
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`not-json`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewClient(server.URL, server.URL+"/events")
			_, err := client.FetchCtbURL(context.Background(), "42")
			if err == nil {
				t.Error("FetchCtbURL() expected error, got nil")
			}
		})
	}
}

func TestClient_PostEvent(t *testing.T) {
	var got Event

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, server.URL+"/events")
	event := ModalOpenedEvent("42", "acme", "external", "/product/42")

	require.NoError(t, client.PostEvent(context.Background(), event))
	assert.Equal(t, ActionModalOpened, got.Action)
	assert.Equal(t, "ctb_id", got.Data.LabelKey)
	assert.Equal(t, "42", got.Data.CTBID)
	assert.Equal(t, "acme", got.Data.Brand)
	assert.Equal(t, "external", got.Data.Context)
	assert.Equal(t, "/product/42", got.Data.Page)
}

func TestClient_PostEvent_NoAntiForgeryHeader(t *testing.T) {
	var gotCSRF, gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCSRF = r.Header.Get(CSRFHeader)
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, server.URL+"/events",
		WithCSRFToken("csrf-123"),
		WithCredentials(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "cred-1"})),
	)

	require.NoError(t, client.PostEvent(context.Background(), ModalOpenedEvent("42", "acme", "external", "/p")))
	assert.Empty(t, gotCSRF, "event endpoint must not receive the anti-forgery header")
	assert.Equal(t, "Bearer cred-1", gotAuth)
}

func TestClient_PostEvent_NonOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, server.URL+"/events")
	err := client.PostEvent(context.Background(), ModalOpenedEvent("42", "acme", "external", "/p"))
	if err == nil {
		t.Error("PostEvent() expected error, got nil")
	}
}
