// Package sweeper periodically finds sessions whose deadline has passed and
// publishes close directives for them. The sweeper never closes a session
// itself: closure happens on the ordered channel, on the same lane as the
// session's other events, so the store's guarded transition stays the single
// point of truth.
package sweeper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/coopvote/plenum/internal/events"
	"github.com/coopvote/plenum/internal/model"
	"github.com/coopvote/plenum/internal/store"
)

// DefaultInterval is how often the sweeper scans for expired sessions.
const DefaultInterval = time.Minute

// Sweeper scans for expired sessions on a fixed interval.
type Sweeper struct {
	store     store.Store
	publisher events.Publisher
	shards    int
	interval  time.Duration
	logger    *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// New creates a sweeper. A non-positive interval falls back to
// DefaultInterval.
func New(st store.Store, publisher events.Publisher, shards int, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if shards <= 0 {
		shards = events.DefaultShards
	}
	return &Sweeper{
		store:     st,
		publisher: publisher,
		shards:    shards,
		interval:  interval,
		logger:    logger,
	}
}

// Start launches the sweep loop. Calling Start on a running sweeper is a
// no-op.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go s.run(ctx)
	s.logger.Info("expiry sweeper started", "interval", s.interval)
}

// Stop halts the sweep loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("expiry sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx, time.Now().UTC())
		}
	}
}

// SweepOnce publishes a close directive for every session expired as of now.
// Failures are isolated per session: one bad publish does not stop the rest,
// and the next sweep retries anything still open. Returns how many directives
// were published.
func (s *Sweeper) SweepOnce(ctx context.Context, now time.Time) int {
	expired, err := s.store.ListExpiredSessions(ctx, now)
	if err != nil {
		s.logger.Error("listing expired sessions", "err", err)
		return 0
	}

	published := 0
	for _, sess := range expired {
		if err := s.publishClose(ctx, sess); err != nil {
			s.logger.Error("publishing close directive",
				"session_id", sess.ID, "agenda_item_id", sess.AgendaItemID, "err", err)
			continue
		}
		published++
	}

	if published > 0 {
		s.logger.Info("swept expired sessions", "count", published)
	}
	return published
}

func (s *Sweeper) publishClose(ctx context.Context, sess *model.Session) error {
	shard := events.ShardFor(sess.AgendaItemID, s.shards)
	return s.publisher.Publish(ctx, events.TopicSessionDirective(shard), events.SessionDirective{
		SessionID:    sess.ID,
		AgendaItemID: sess.AgendaItemID,
		OpensAt:      sess.OpensAt,
		ClosesAt:     sess.ClosesAt,
		Op:           events.OpClose,
		SentAt:       time.Now().UnixMilli(),
	})
}
