package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ringq/internal/metrics"
	"ringq/internal/queue"
	"ringq/internal/queueapi"
)

func TestQueueServiceMain_RegisterRoutes(t *testing.T) {
	m := metrics.New()
	h := queueapi.RegisterRoutes(context.Background(), queueapi.NewHandler(queue.NewManager(4, queue.WithObserver(m))), m)
	ts := httptest.NewServer(h)
	defer ts.Close()

	cases := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"enqueue missing queue", "POST", "/queues//messages", 400},
		{"dequeue missing queue", "DELETE", "/queues//messages/head", 400},
		{"dequeue unknown queue", "DELETE", "/queues/none/messages/head", 404},
		{"metrics", "GET", "/metrics", 200},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req, err := http.NewRequest(c.method, ts.URL+c.path, nil)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			_ = resp.Body.Close()
			assert.Equal(t, c.want, resp.StatusCode, "%s %s", c.method, c.path)
		})
	}
}
