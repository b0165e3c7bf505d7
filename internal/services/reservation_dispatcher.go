package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/lendhub/backend/domain"
	"github.com/lendhub/backend/internal/infrastructure/outbox"
	"github.com/lendhub/backend/usecase"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// DispatcherConfig controls how the outbox is drained.
type DispatcherConfig struct {
	LendingURL string
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// ReservationDispatcher delivers admitted reservations from the durable
// outbox to the external lending workflow. Delivery failures requeue the
// item up to the retry cap; admission itself is never undone here.
type ReservationDispatcher struct {
	store   *outbox.Store
	monitor ConnectionHealth
	client  *fasthttp.Client
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     DispatcherConfig
}

func NewReservationDispatcher(store *outbox.Store, monitor ConnectionHealth, logger *zap.Logger, cfg DispatcherConfig) *ReservationDispatcher {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &ReservationDispatcher{
		store:   store,
		monitor: monitor,
		client: &fasthttp.Client{
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		logger: logger,
		cfg:    cfg,
		cron:   cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = d.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := d.Drain(ctx); err != nil {
			d.logger.Error("outbox drain failed", zap.Error(err))
		}
	})
	_, _ = d.cron.AddFunc("@hourly", func() {
		if err := d.store.Cleanup(time.Now().Add(-cfg.Retention)); err != nil {
			d.logger.Warn("outbox cleanup failed", zap.Error(err))
		}
	})

	return d
}

// Start launches the cron scheduler.
func (d *ReservationDispatcher) Start() {
	if d == nil || d.cron == nil {
		return
	}
	d.cron.Start()
	d.logger.Info("reservation dispatcher started")
}

// Stop gracefully stops the scheduler.
func (d *ReservationDispatcher) Stop(ctx context.Context) {
	if d == nil || d.cron == nil {
		return
	}
	stopCtx := d.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	d.logger.Info("reservation dispatcher stopped")
}

// EnqueueReservation queues an admitted reservation for delivery. The write
// is durable before Validate returns to its caller.
func (d *ReservationDispatcher) EnqueueReservation(ctx context.Context, reservation *domain.ReservationRequest) error {
	if d == nil || d.store == nil {
		return fmt.Errorf("reservation dispatcher not configured")
	}
	if reservation == nil {
		return domain.ErrInvalidPayload
	}

	payload, err := json.Marshal(reservation)
	if err != nil {
		return err
	}
	return d.store.Enqueue(outbox.Item{
		ID:       reservation.ID,
		MemberID: reservation.MemberID,
		Data:     payload,
	})
}

// Drain delivers queued reservations synchronously.
func (d *ReservationDispatcher) Drain(ctx context.Context) error {
	if d == nil || d.store == nil {
		return nil
	}
	if d.monitor != nil && !d.monitor.IsOnline() {
		d.logger.Debug("skipping outbox drain (offline)")
		return nil
	}

	items, err := d.store.GetBatch(d.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := d.deliver(item); err != nil {
			d.logger.Error("failed to deliver reservation",
				zap.String("reservation_id", item.ID),
				zap.Error(err))

			item.Retries++
			if item.Retries >= d.cfg.MaxRetries {
				d.logger.Warn("dropping reservation handoff (max retries reached)", zap.String("reservation_id", item.ID))
				_ = d.store.Remove(item)
				continue
			}

			if err := d.store.Remove(item); err != nil {
				d.logger.Warn("failed to remove outbox item", zap.Error(err))
			}
			if err := d.store.Requeue(item); err != nil {
				d.logger.Error("failed to requeue outbox item", zap.Error(err))
			}
			continue
		}

		if err := d.store.Remove(item); err != nil {
			d.logger.Warn("failed to purge delivered outbox item", zap.Error(err))
		}
	}
	return nil
}

// Size returns the number of queued handoffs.
func (d *ReservationDispatcher) Size() int {
	if d == nil || d.store == nil {
		return 0
	}
	size, err := d.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (d *ReservationDispatcher) deliver(item outbox.Item) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(d.cfg.LendingURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(item.Data)

	if err := d.client.DoTimeout(req, resp, 10*time.Second); err != nil {
		return err
	}
	if status := resp.StatusCode(); status < http.StatusOK || status >= http.StatusMultipleChoices {
		return fmt.Errorf("lending workflow returned status %d", status)
	}
	return nil
}

var _ usecase.ReservationOutbox = (*ReservationDispatcher)(nil)
