package storeclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bark-labs/devicemgt/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is a minimal API store serving /subscriptions with ETags.
type fakeStore struct {
	mu       sync.Mutex
	subs     map[string]model.Subscription
	versions map[string]int
	requests []*http.Request
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		subs:     make(map[string]model.Subscription),
		versions: make(map[string]int),
	}
}

func (f *fakeStore) etag(id string) string {
	return fmt.Sprintf(`"%s-%d"`, id, f.versions[id])
}

func (f *fakeStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Clone(context.Background()))

	const prefix = "/api/am/store/v0.11/subscriptions"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, prefix), "/")

	switch {
	case r.Method == http.MethodPost && id == "":
		var sub model.Subscription
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		sub.SubscriptionID = uuid.NewString()
		sub.Status = model.SubscriptionUnblocked
		f.subs[sub.SubscriptionID] = sub
		f.versions[sub.SubscriptionID] = 1
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("ETag", f.etag(sub.SubscriptionID))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(sub)
	case r.Method == http.MethodGet:
		sub, ok := f.subs[id]
		if !ok {
			http.Error(w, `{"message":"subscription not found"}`, http.StatusNotFound)
			return
		}
		if r.Header.Get("If-None-Match") == f.etag(id) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("ETag", f.etag(id))
		_ = json.NewEncoder(w).Encode(sub)
	case r.Method == http.MethodDelete:
		if _, ok := f.subs[id]; !ok {
			http.Error(w, `{"message":"subscription not found"}`, http.StatusNotFound)
			return
		}
		if match := r.Header.Get("If-Match"); match != "" && match != f.etag(id) {
			w.WriteHeader(http.StatusPreconditionFailed)
			return
		}
		delete(f.subs, id)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeStore) lastRequest() *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T) (*Client, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	srv := httptest.NewServer(store)
	t.Cleanup(srv.Close)

	client, err := New(srv.URL+"/api/am/store/v0.11/", "access-token", 5*time.Second)
	require.NoError(t, err)
	return client, store
}

func TestNewValidatesBaseURL(t *testing.T) {
	_, err := New("", "", time.Second)
	assert.Error(t, err)

	_, err = New("localhost:9763", "", time.Second)
	assert.Error(t, err)

	client, err := New("https://gateway.local/api/am/store/v0.11/", "", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "https://gateway.local/api/am/store/v0.11", client.BaseURL())
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	client, store := newTestClient(t)

	created, err := client.CreateSubscription(ctx, &model.Subscription{
		ApplicationID: "app-1",
		APIIdentifier: "admin-DeviceManagement-1.0.0",
		Tier:          "Unlimited",
	}, "application/json")
	require.NoError(t, err)
	require.NotEmpty(t, created.SubscriptionID)

	req := store.lastRequest()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.Equal(t, "application/json", req.Header.Get("Accept"))
	assert.Equal(t, "Bearer access-token", req.Header.Get("Authorization"))

	fetched, err := client.GetSubscription(ctx, created.SubscriptionID, GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, created, fetched)
}

func TestCreateContentTypeOverride(t *testing.T) {
	client, store := newTestClient(t)

	_, err := client.CreateSubscription(context.Background(), &model.Subscription{ApplicationID: "app-1"}, "application/json; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, "application/json; charset=utf-8", store.lastRequest().Header.Get("Content-Type"))

	_, err = client.CreateSubscription(context.Background(), &model.Subscription{ApplicationID: "app-2"}, "")
	require.NoError(t, err)
	assert.Equal(t, "application/json", store.lastRequest().Header.Get("Content-Type"))
}

func TestGetConditionalHeaders(t *testing.T) {
	ctx := context.Background()
	client, store := newTestClient(t)

	created, err := client.CreateSubscription(ctx, &model.Subscription{ApplicationID: "app-1"}, "")
	require.NoError(t, err)
	etag := fmt.Sprintf(`"%s-1"`, created.SubscriptionID)

	_, err = client.GetSubscription(ctx, created.SubscriptionID, GetOptions{
		Accept:          "application/json",
		IfNoneMatch:     etag,
		IfModifiedSince: "Tue, 24 Jan 2017 00:00:00 GMT",
	})
	require.Error(t, err)
	assert.True(t, IsNotModified(err))

	req := store.lastRequest()
	assert.Equal(t, etag, req.Header.Get("If-None-Match"))
	assert.Equal(t, "Tue, 24 Jan 2017 00:00:00 GMT", req.Header.Get("If-Modified-Since"))

	_, err = client.GetSubscription(ctx, created.SubscriptionID, GetOptions{})
	require.NoError(t, err)
	req = store.lastRequest()
	assert.Empty(t, req.Header.Get("If-None-Match"))
	assert.Empty(t, req.Header.Get("If-Modified-Since"))
}

func TestGetUnknownSubscription(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.GetSubscription(context.Background(), "missing", GetOptions{})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Contains(t, httpErr.Body, "subscription not found")
	assert.Contains(t, httpErr.Error(), "404")
}

func TestDeleteSubscription(t *testing.T) {
	ctx := context.Background()
	client, store := newTestClient(t)

	created, err := client.CreateSubscription(ctx, &model.Subscription{ApplicationID: "app-1"}, "")
	require.NoError(t, err)

	err = client.DeleteSubscription(ctx, created.SubscriptionID, DeleteOptions{IfMatch: `"stale"`})
	require.Error(t, err)
	assert.True(t, IsPreconditionFailed(err))

	err = client.DeleteSubscription(ctx, created.SubscriptionID, DeleteOptions{
		IfMatch:           fmt.Sprintf(`"%s-1"`, created.SubscriptionID),
		IfUnmodifiedSince: "Tue, 24 Jan 2017 00:00:00 GMT",
	})
	require.NoError(t, err)
	req := store.lastRequest()
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "Tue, 24 Jan 2017 00:00:00 GMT", req.Header.Get("If-Unmodified-Since"))

	_, err = client.GetSubscription(ctx, created.SubscriptionID, GetOptions{})
	assert.True(t, IsNotFound(err))
}

func TestSubscriptionIDIsPathEscaped(t *testing.T) {
	client, store := newTestClient(t)

	_, err := client.GetSubscription(context.Background(), "a/b c", GetOptions{})
	require.Error(t, err)
	assert.Equal(t, "/api/am/store/v0.11/subscriptions/a%2Fb%20c", store.lastRequest().URL.EscapedPath())

	_, err = client.GetSubscription(context.Background(), "..hidden", GetOptions{})
	require.Error(t, err)
	assert.Equal(t, "/api/am/store/v0.11/subscriptions/..hidden", store.lastRequest().URL.EscapedPath())
}

func TestDotSegmentIDsRejected(t *testing.T) {
	ctx := context.Background()
	client, store := newTestClient(t)

	for _, id := range []string{".", ".."} {
		err := client.DeleteSubscription(ctx, id, DeleteOptions{})
		assert.ErrorIs(t, err, ErrInvalidSubscriptionID, id)

		_, err = client.GetSubscription(ctx, id, GetOptions{})
		assert.ErrorIs(t, err, ErrInvalidSubscriptionID, id)
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Empty(t, store.requests)
}

// countingTransport records every round trip it forwards.
type countingTransport struct {
	mu    sync.Mutex
	calls []string
	next  http.RoundTripper
}

func (c *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	c.calls = append(c.calls, req.Method+" "+req.URL.Path)
	c.mu.Unlock()
	return c.next.RoundTrip(req)
}

func TestEachCallIsOneRequest(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	srv := httptest.NewServer(store)
	t.Cleanup(srv.Close)

	transport := &countingTransport{next: http.DefaultTransport}
	client, err := New(srv.URL+"/api/am/store/v0.11", "", time.Second,
		WithHTTPClient(&http.Client{Transport: transport}))
	require.NoError(t, err)

	created, err := client.CreateSubscription(ctx, &model.Subscription{ApplicationID: "app-1"}, "")
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionUnblocked, created.Status)
	assert.True(t, created.Active())

	_, err = client.GetSubscription(ctx, created.SubscriptionID, GetOptions{})
	require.NoError(t, err)
	require.NoError(t, client.DeleteSubscription(ctx, created.SubscriptionID, DeleteOptions{}))

	prefix := "/api/am/store/v0.11/subscriptions"
	assert.Equal(t, []string{
		"POST " + prefix,
		"GET " + prefix + "/" + created.SubscriptionID,
		"DELETE " + prefix + "/" + created.SubscriptionID,
	}, transport.calls)
	assert.Empty(t, store.lastRequest().Header.Get("Authorization"))
}

func TestWithHTTPClientIgnoresNil(t *testing.T) {
	client, err := New("https://gateway.local", "", 3*time.Second, WithHTTPClient(nil))
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, client.http.Timeout)
}

func TestEmptySubscriptionIDRejected(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.GetSubscription(context.Background(), "", GetOptions{})
	assert.Error(t, err)
	assert.Error(t, client.DeleteSubscription(context.Background(), "", DeleteOptions{}))
}
