package report

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time { return time.Unix(1760000000, 0) }

func TestSend(t *testing.T) {
	var got Payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/tabs", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	c := New(Options{APIURL: server.URL + "/api/", AccessToken: "secret", Now: fixedNow})
	require.NoError(t, c.Send(context.Background(), 42))
	assert.Equal(t, Payload{Time: 1760000000, Tabs: 42}, got)
}

func TestSendAtUsesGivenTime(t *testing.T) {
	var got Payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer server.Close()

	c := New(Options{APIURL: server.URL, AccessToken: "t", Now: fixedNow})
	require.NoError(t, c.SendAt(context.Background(), time.Unix(1700000000, 0), 7))
	assert.Equal(t, Payload{Time: 1700000000, Tabs: 7}, got)
}

func TestSendStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer server.Close()

	c := New(Options{APIURL: server.URL + "/", AccessToken: "wrong", Now: fixedNow})
	err := c.Send(context.Background(), 1)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Equal(t, "bad token", se.Body)
}

func TestSendServerErrorWithoutRetries(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := New(Options{APIURL: server.URL, AccessToken: "t", Now: fixedNow})
	err := c.Send(context.Background(), 1)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
	assert.Equal(t, int32(1), hits.Load())
}

func TestSendRetries(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"time":1760000000,"tabs":7}`, string(body))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New(Options{
		APIURL:       server.URL,
		AccessToken:  "t",
		Retries:      2,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 2 * time.Millisecond,
		Now:          fixedNow,
	})
	require.NoError(t, c.Send(context.Background(), 7))
	assert.Equal(t, int32(3), hits.Load())
}

func TestSendUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c := New(Options{APIURL: url, AccessToken: "t", Timeout: time.Second})
	assert.Error(t, c.Send(context.Background(), 1))
}

func TestEndpoint(t *testing.T) {
	assert.Equal(t, "https://api.example/v1/tabs", Endpoint("https://api.example/v1/"))
	assert.Equal(t, "https://api.example/v1/tabs", Endpoint("https://api.example/v1"))
}
