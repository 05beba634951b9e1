package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFulfill(t *testing.T) {
	var got Fulfillment
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		auth = req.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"fulfillmentTexts": []string{"Order 42 is on its way."},
			"payload":          map[string]interface{}{"orderId": "42"},
		})
	}))
	defer srv.Close()

	c := &Client{URL: srv.URL, Token: "secret"}
	resp, err := c.Fulfill(context.Background(), Fulfillment{
		UserID: "u1",
		Intent: "track order",
		Action: "lookup-order",
		Input:  "where is my order",
		States: []string{"root"},
		Next:   []string{"tracking"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "track order", got.Intent)
	assert.Equal(t, []string{"tracking"}, got.Next)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"Order 42 is on its way."}, resp.Texts)
	assert.Equal(t, map[string]interface{}{"orderId": "42"}, resp.Payload)
}

func TestFulfillNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := &Client{URL: srv.URL}
	_, err := c.Fulfill(context.Background(), Fulfillment{UserID: "u1"})
	require.Error(t, err)
}

func TestFulfillTolerantBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := &Client{URL: srv.URL}
	resp, err := c.Fulfill(context.Background(), Fulfillment{UserID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, resp.Texts)
	assert.Nil(t, resp.Payload)
}

func TestFulfillConcurrent(t *testing.T) {
	// First use from several goroutines at once; the lazy HTTP
	// client init must hold up under the race detector.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"fulfillmentTexts": []string{"ok"},
		})
	}))
	defer srv.Close()

	c := &Client{URL: srv.URL}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := c.Fulfill(context.Background(), Fulfillment{UserID: "u1"})
			if assert.NoError(t, err) {
				assert.Equal(t, []string{"ok"}, resp.Texts)
			}
		}()
	}
	wg.Wait()
}

func TestFulfillTestResponse(t *testing.T) {
	c := &Client{
		TestResponse: &Response{
			StatusCode: http.StatusOK,
			Texts:      []string{"canned"},
		},
	}
	resp, err := c.Fulfill(context.Background(), Fulfillment{})
	require.NoError(t, err)
	assert.Equal(t, []string{"canned"}, resp.Texts)
}
