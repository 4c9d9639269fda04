// Package recorder records configured ICY streams to disk, cutting track
// boundaries from the inline metadata and fanning them out to artifact
// writers.
package recorder

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/grafana/dskit/backoff"
	"github.com/grafana/dskit/modules"
	"github.com/grafana/dskit/services"
	"github.com/pkg/errors"
)

const metricsNamespace = "rprecorder"

var module = "recorder"

type Recorder struct {
	services.Service
	cfg     *Config
	logger  *slog.Logger
	metrics *metrics

	streams []StreamConfig
	endTime time.Time
}

// New creates and returns a new Recorder service.
func New(cfg Config, logger slog.Logger) (*Recorder, error) {
	r := &Recorder{
		cfg:     &cfg,
		logger:  logger.With("module", module),
		metrics: globalMetrics(),
	}

	r.Service = services.NewBasicService(r.starting, r.running, r.stopping)

	return r, nil
}

func (r *Recorder) starting(ctx context.Context) error {
	r.streams = r.cfg.streams()
	if len(r.streams) == 0 {
		return errors.New("no streams configured")
	}
	for _, sc := range r.streams {
		if sc.URL == "" {
			return errors.Errorf("stream %q has no URL", sc.Name)
		}
	}

	endTime, err := ParseEndTime(r.cfg.EndTime, time.Now())
	if err != nil {
		return errors.Wrap(err, "invalid end time")
	}
	r.endTime = endTime

	if r.cfg.Dir != "" {
		if err := os.MkdirAll(r.cfg.Dir, os.ModePerm); err != nil {
			return errors.Wrap(err, "creating output directory")
		}
	}

	return nil
}

// running records every configured stream in its own goroutine and returns
// when all of them are done. Finishing on our own (end time reached on every
// stream) asks the process to shut down.
func (r *Recorder) running(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, sc := range r.streams {
		sc := sc
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.recordStream(ctx, sc)
		}()
	}
	wg.Wait()

	select {
	case <-ctx.Done():
		return nil
	default:
		return modules.ErrStopProcess
	}
}

func (r *Recorder) stopping(_ error) error {
	r.logger.Info("stopping")
	return nil
}

// recordStream runs one session per connection attempt. A session that ends
// before the configured end time (or that has no end time at all) is
// restarted with exponential backoff; sessions never reconnect internally.
func (r *Recorder) recordStream(ctx context.Context, sc StreamConfig) {
	logger := r.logger.With("stream", sc.Name)

	boff := backoff.New(ctx, backoff.Config{
		MinBackoff: r.cfg.ReconnectBackoff,
		MaxBackoff: r.cfg.ReconnectBackoffMax,
	})

	for boff.Ongoing() {
		sess := newSession(r.cfg, sc, r.endTime, logger, r.metrics)
		err := sess.Run(ctx)

		if ctx.Err() != nil {
			return
		}
		if !r.endTime.IsZero() && !time.Now().Before(r.endTime) {
			logger.Info("recording finished", "written", sess.written)
			return
		}

		if err != nil {
			logger.Error("session failed", "err", err)
		} else {
			logger.Warn("stream ended early, reconnecting", "written", sess.written)
		}
		if sess.written > 0 {
			// The connection held long enough to produce data.
			boff.Reset()
		}
		r.metrics.reconnects.WithLabelValues(sc.Name).Inc()
		boff.Wait()
	}
}
