package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"ringq/internal/logger"
	"ringq/internal/rwclient"
)

type config struct {
	queueURL  string
	queueName string
	capacity  int
	inPath    string
	outPath   string
	mode      string // once|stream
	logLevel  string
}

func main() {
	cfg := parseConfig()

	log, err := logger.New("worker", logger.Config{Level: cfg.logLevel})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = logger.WithCtx(ctx, log)

	if err := run(ctx, cfg); err != nil {
		log.Error("worker failed", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
	log.Info("worker finished successfully")
}

func parseConfig() config {
	var cfg config
	flag.StringVar(&cfg.queueURL, "queue-url", "http://localhost:8080", "queue service base URL")
	flag.StringVar(&cfg.queueName, "queue", "lines", "queue name")
	flag.IntVar(&cfg.capacity, "capacity", 0, "create the queue with this capacity (0 uses the server default)")
	flag.StringVar(&cfg.inPath, "in", "data/input.txt", "input file path")
	flag.StringVar(&cfg.outPath, "out", "data/output.txt", "output file path")
	flag.StringVar(&cfg.mode, "mode", "once", "once: stop when the queue drains; stream: consume until signalled")
	flag.StringVar(&cfg.logLevel, "log-level", "info", "debug|info|warn|error")
	flag.Parse()
	return cfg
}

func run(ctx context.Context, cfg config) error {
	if cfg.mode != "once" && cfg.mode != "stream" {
		return errors.Errorf("unknown mode %q", cfg.mode)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.outPath), 0o755); err != nil {
		return errors.Wrap(err, "create output dir")
	}

	log := logger.FromCtx(ctx)
	client := rwclient.New(cfg.queueURL, cfg.queueName)
	client.Log = log

	if err := client.CreateQueue(ctx, cfg.capacity); err != nil && !errors.Is(err, rwclient.ErrQueueExists) {
		return err
	}
	log.Info("worker start",
		zap.String("queue_url", cfg.queueURL),
		zap.String("queue", cfg.queueName),
		zap.String("mode", cfg.mode),
		zap.String("in", cfg.inPath),
		zap.String("out", cfg.outPath))

	prodErr, consErr := runPipeline(ctx, client, cfg)
	if prodErr != nil && !errors.Is(prodErr, context.Canceled) {
		return errors.Wrap(prodErr, "producer")
	}
	if consErr != nil && !errors.Is(consErr, context.Canceled) {
		return errors.Wrap(consErr, "consumer")
	}
	return nil
}

// runPipeline produces and consumes concurrently; with a bounded queue the
// producer can only finish if someone is draining.
func runPipeline(ctx context.Context, client *rwclient.Client, cfg config) (prodErr, consErr error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	producerDone := make(chan error, 1)
	go func() { producerDone <- client.Produce(ctx, cfg.inPath) }()

	if cfg.mode == "stream" {
		consErr = client.Consume(ctx, cfg.outPath)
		return <-producerDone, consErr
	}
	return consumeOnce(ctx, cancel, client, cfg.outPath, producerDone)
}

// consumeOnce drains the queue until the producer is done and the queue is
// empty. On any consumer failure it cancels the producer before waiting for
// it, since a producer blocked on a full queue never finishes on its own.
func consumeOnce(ctx context.Context, cancel context.CancelFunc, c *rwclient.Client, outPath string, producerDone <-chan error) (prodErr, consErr error) {
	producerFinished := false
	stopProducer := func() error {
		if producerFinished {
			return prodErr
		}
		cancel()
		return <-producerDone
	}

	f, err := os.Create(outPath)
	if err != nil {
		return stopProducer(), errors.Wrap(err, "create output")
	}
	defer f.Close()

	const idle = 10 * time.Millisecond
	for {
		if err := ctx.Err(); err != nil {
			return stopProducer(), err
		}
		b, err := c.Dequeue(ctx)
		if err != nil && !errors.Is(err, rwclient.ErrQueueNotFound) {
			return stopProducer(), err
		}
		if len(b) > 0 {
			if _, err := f.Write(b); err != nil {
				return stopProducer(), errors.Wrap(err, "write output")
			}
			continue
		}
		if !producerFinished {
			select {
			case prodErr = <-producerDone:
				producerFinished = true
				if prodErr != nil {
					return prodErr, nil
				}
			default:
			}
		}
		if producerFinished && queueIsEmpty(ctx, c) {
			logger.FromCtx(ctx).Info("consumer: completed once mode")
			return nil, nil
		}
		time.Sleep(idle)
	}
}

func queueIsEmpty(ctx context.Context, c *rwclient.Client) bool {
	ln, err := c.QueueLength(ctx)
	return errors.Is(err, rwclient.ErrQueueNotFound) || (err == nil && ln == 0)
}
