package rwclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"ringq/internal/queue"
	"ringq/internal/queueapi"
)

type errorRoundTripper struct{ err error }

func (e errorRoundTripper) RoundTrip(*http.Request) (*http.Response, error) { return nil, e.err }

func newHTTPTestClient(tsURL string, rtErr error) *Client {
	c := New(tsURL, "q")
	c.RetryInterval = time.Millisecond
	if rtErr != nil {
		c.HttpClient = &http.Client{Transport: errorRoundTripper{err: rtErr}}
	}
	return c
}

func newQueueServer(t *testing.T, defaultCapacity int) (*httptest.Server, *queue.Manager) {
	t.Helper()
	m := queue.NewManager(defaultCapacity)
	ts := httptest.NewServer(queueapi.RegisterRoutes(context.Background(), queueapi.NewHandler(m), nil))
	t.Cleanup(ts.Close)
	return ts, m
}

func waitForFileContent(t *testing.T, path string, want []byte, timeout time.Duration, interval time.Duration) {
	t.Helper()
	if interval <= 0 {
		interval = 5 * time.Millisecond
	}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		got, err := os.ReadFile(path)
		if err == nil && string(got) == string(want) {
			return
		}
		time.Sleep(interval)
	}
	got, _ := os.ReadFile(path)
	if string(got) != string(want) {
		t.Fatalf("content mismatch after timeout: got %q want %q", string(got), string(want))
	}
}
