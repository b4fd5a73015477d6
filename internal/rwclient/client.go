package rwclient

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	ErrQueueFull     = errors.New("queue is full")
	ErrQueueNotFound = errors.New("queue not found")
	ErrQueueExists   = errors.New("queue already exists")
)

const defaultRetryInterval = 20 * time.Millisecond

type Client struct {
	QueueURL   string
	QueueName  string
	HttpClient *http.Client
	// RetryInterval is how long Produce waits before re-sending a message
	// the server rejected because the queue was full, and how long Consume
	// idles on an empty queue.
	RetryInterval time.Duration
	Log           *zap.Logger
}

func New(queueURL, queueName string) *Client {
	return &Client{
		QueueURL:      queueURL,
		QueueName:     queueName,
		HttpClient:    &http.Client{Timeout: 30 * time.Second},
		RetryInterval: defaultRetryInterval,
		Log:           zap.NewNop(),
	}
}

func (c *Client) queueURL() string {
	return fmt.Sprintf("%s/queues/%s", c.QueueURL, c.QueueName)
}

// Produce enqueues inputPath line by line, keeping newlines. A full queue
// is retried until ctx is done.
func (c *Client) Produce(ctx context.Context, inputPath string) error {
	f, err := os.Open(inputPath)
	if err != nil {
		return errors.Wrap(err, "open input")
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := reader.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			if len(line) > 0 {
				// last line without newline, still enqueue
				return c.enqueueWithRetry(ctx, line)
			}
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read input")
		}
		if err := c.enqueueWithRetry(ctx, line); err != nil {
			return err
		}
	}
}

func (c *Client) enqueueWithRetry(ctx context.Context, body []byte) error {
	for {
		err := c.Enqueue(ctx, body)
		if !errors.Is(err, ErrQueueFull) {
			return err
		}
		c.Log.Debug("queue full, retrying", zap.String("queue", c.QueueName))
		if err := c.wait(ctx); err != nil {
			return err
		}
	}
}

func (c *Client) wait(ctx context.Context) error {
	t := time.NewTimer(c.RetryInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Consume writes every dequeued message to outputPath until ctx is done.
// Delivery is at-most-once on shutdown: if ctx is cancelled while a dequeue
// is in flight, the server may already have removed the message and the
// response is discarded, so that message is lost.
func (c *Client) Consume(ctx context.Context, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	defer f.Close()

	for {
		if ctx.Err() != nil {
			return nil
		}
		msg, err := c.Dequeue(ctx)
		if err != nil || len(msg) == 0 {
			if err != nil && !errors.Is(err, ErrQueueNotFound) && ctx.Err() == nil {
				c.Log.Warn("dequeue failed", zap.String("queue", c.QueueName), zap.Error(err))
			}
			if c.wait(ctx) != nil {
				return nil
			}
			continue
		}
		if _, err := f.Write(msg); err != nil {
			return errors.Wrap(err, "write output")
		}
	}
}

// Drain writes messages to outputPath until the queue reports empty.
func (c *Client) Drain(ctx context.Context, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	defer f.Close()
	return c.drainTo(ctx, f)
}

func (c *Client) drainTo(ctx context.Context, w io.Writer) error {
	for {
		msg, err := c.Dequeue(ctx)
		if errors.Is(err, ErrQueueNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if len(msg) == 0 {
			return nil
		}
		if _, err := w.Write(msg); err != nil {
			return errors.Wrap(err, "write output")
		}
	}
}

func (c *Client) CreateQueue(ctx context.Context, capacity int) error {
	url := c.queueURL()
	if capacity > 0 {
		url += "?capacity=" + strconv.Itoa(capacity)
	}
	resp, err := c.do(ctx, http.MethodPut, url, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusCreated:
		return nil
	case http.StatusConflict:
		return errors.Wrapf(ErrQueueExists, "create %s", c.QueueName)
	default:
		return statusError("create", resp)
	}
}

func (c *Client) Enqueue(ctx context.Context, body []byte) error {
	resp, err := c.do(ctx, http.MethodPost, c.queueURL()+"/messages", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusAccepted:
		return nil
	case http.StatusInsufficientStorage:
		return errors.Wrapf(ErrQueueFull, "enqueue %s", c.QueueName)
	default:
		return statusError("enqueue", resp)
	}
}

// Dequeue returns nil, nil when the queue is empty.
func (c *Client) Dequeue(ctx context.Context) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodDelete, c.queueURL()+"/messages/head", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errors.Wrap(err, "read message")
		}
		return b, nil
	case http.StatusNoContent:
		return nil, nil
	case http.StatusNotFound:
		return nil, errors.Wrapf(ErrQueueNotFound, "dequeue %s", c.QueueName)
	default:
		return nil, statusError("dequeue", resp)
	}
}

func (c *Client) QueueLength(ctx context.Context) (int, error) {
	resp, err := c.do(ctx, http.MethodHead, c.queueURL(), nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return 0, errors.Wrapf(ErrQueueNotFound, "queue length %s", c.QueueName)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, statusError("queue length", resp)
	}
	h := resp.Header.Get("X-Queue-Len")
	if h == "" {
		return 0, errors.New("missing X-Queue-Len header")
	}
	n, err := strconv.Atoi(h)
	if err != nil {
		return 0, errors.Wrap(err, "invalid X-Queue-Len header")
	}
	return n, nil
}

func (c *Client) Delete(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodDelete, c.queueURL(), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return errors.Wrapf(ErrQueueNotFound, "delete %s", c.QueueName)
	default:
		return statusError("delete", resp)
	}
}

func (c *Client) do(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, r)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/octet-stream")
	}
	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, url)
	}
	return resp, nil
}

func statusError(op string, resp *http.Response) error {
	b, _ := io.ReadAll(resp.Body)
	return errors.Errorf("%s failed: %s: %s", op, resp.Status, string(b))
}
