package consumer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"

	"github.com/coopvote/plenum/internal/events"
	"github.com/coopvote/plenum/internal/model"
	"github.com/coopvote/plenum/internal/notify"
	"github.com/coopvote/plenum/internal/store/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestConsumer builds a consumer over an in-memory store with event
// publication discarded, for exercising the apply functions directly.
func newTestConsumer(st *memory.MemoryStore) *Consumer {
	return &Consumer{
		store:      st,
		publisher:  &events.NoopPublisher{},
		dispatcher: notify.NewDispatcher(nil, testLogger()),
		shards:     events.DefaultShards,
		logger:     testLogger(),
	}
}

func seedItem(t *testing.T, st *memory.MemoryStore, id string) {
	t.Helper()
	err := st.CreateAgendaItem(context.Background(), &model.AgendaItem{
		ID:        id,
		Title:     "Budget approval",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seeding agenda item: %v", err)
	}
}

func TestApplyAgendaCreateIsIdempotent(t *testing.T) {
	st := memory.New()
	c := newTestConsumer(st)
	ctx := context.Background()

	ev := &events.AgendaCreate{AgendaItemID: "ag-1", Title: "Budget approval"}
	if err := c.applyAgendaCreate(ctx, ev); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if err := c.applyAgendaCreate(ctx, ev); err != nil {
		t.Fatalf("redelivered apply: %v", err)
	}

	items, err := st.ListAgendaItems(ctx)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("got %d agenda items, want 1", len(items))
	}
}

func TestApplyOpen(t *testing.T) {
	st := memory.New()
	c := newTestConsumer(st)
	ctx := context.Background()
	seedItem(t, st, "ag-1")

	now := time.Now().UTC()
	ev := &events.SessionDirective{
		SessionID:    "se-1",
		AgendaItemID: "ag-1",
		OpensAt:      now,
		ClosesAt:     now.Add(time.Minute),
		Op:           events.OpOpen,
	}
	if err := c.applyOpen(ctx, ev); err != nil {
		t.Fatalf("applyOpen: %v", err)
	}

	sess, err := st.GetSessionByAgendaItem(ctx, "ag-1")
	if err != nil {
		t.Fatalf("fetching session: %v", err)
	}
	if !sess.IsOpen(now) {
		t.Error("session should be open")
	}

	// A second directive for the same item is a terminal conflict.
	second := *ev
	second.SessionID = "se-2"
	if err := c.applyOpen(ctx, &second); !errors.Is(err, model.ErrConflict) {
		t.Errorf("second open: got %v, want ErrConflict", err)
	}
}

func TestApplyOpenMissingItem(t *testing.T) {
	c := newTestConsumer(memory.New())
	err := c.applyOpen(context.Background(), &events.SessionDirective{
		SessionID: "se-1", AgendaItemID: "ag-missing", Op: events.OpOpen,
	})
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestApplyCloseTransitionsOnce(t *testing.T) {
	st := memory.New()
	c := newTestConsumer(st)
	ctx := context.Background()
	seedItem(t, st, "ag-1")

	now := time.Now().UTC()
	if err := st.CreateSession(ctx, &model.Session{
		ID: "se-1", AgendaItemID: "ag-1",
		OpensAt: now, ClosesAt: now.Add(time.Minute), Open: true,
	}); err != nil {
		t.Fatalf("seeding session: %v", err)
	}

	ev := &events.SessionDirective{SessionID: "se-1", AgendaItemID: "ag-1", Op: events.OpClose}
	if err := c.applyClose(ctx, ev); err != nil {
		t.Fatalf("first close: %v", err)
	}

	sess, err := st.GetSession(ctx, "se-1")
	if err != nil {
		t.Fatalf("fetching session: %v", err)
	}
	if sess.Open {
		t.Error("session should be flagged closed")
	}

	// Redelivered close is a silent no-op.
	if err := c.applyClose(ctx, ev); err != nil {
		t.Fatalf("redelivered close: %v", err)
	}
}

func TestApplyCloseUnknownSession(t *testing.T) {
	c := newTestConsumer(memory.New())
	err := c.applyClose(context.Background(), &events.SessionDirective{
		SessionID: "se-missing", Op: events.OpClose,
	})
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestApplyBallot(t *testing.T) {
	st := memory.New()
	c := newTestConsumer(st)
	ctx := context.Background()
	seedItem(t, st, "ag-1")

	now := time.Now().UTC()
	if err := st.CreateSession(ctx, &model.Session{
		ID: "se-1", AgendaItemID: "ag-1",
		OpensAt: now, ClosesAt: now.Add(time.Minute), Open: true,
	}); err != nil {
		t.Fatalf("seeding session: %v", err)
	}

	ev := &events.BallotCast{
		VoteID: "vt-1", AgendaItemID: "ag-1", MemberID: "12345678901", Choice: "YES",
	}
	if err := c.applyBallot(ctx, ev); err != nil {
		t.Fatalf("applyBallot: %v", err)
	}

	// Same member voting again, even with a fresh vote ID, is a duplicate.
	again := *ev
	again.VoteID = "vt-2"
	if err := c.applyBallot(ctx, &again); !errors.Is(err, model.ErrDuplicateVote) {
		t.Errorf("second ballot: got %v, want ErrDuplicateVote", err)
	}

	count, err := st.CountVotes(ctx, "ag-1")
	if err != nil {
		t.Fatalf("counting votes: %v", err)
	}
	if count != 1 {
		t.Errorf("got %d votes, want 1", count)
	}
}

func TestApplyBallotAfterDeadline(t *testing.T) {
	st := memory.New()
	c := newTestConsumer(st)
	ctx := context.Background()
	seedItem(t, st, "ag-1")

	// Session still flagged open but past its deadline.
	now := time.Now().UTC()
	if err := st.CreateSession(ctx, &model.Session{
		ID: "se-1", AgendaItemID: "ag-1",
		OpensAt: now.Add(-2 * time.Minute), ClosesAt: now.Add(-time.Minute), Open: true,
	}); err != nil {
		t.Fatalf("seeding session: %v", err)
	}

	err := c.applyBallot(ctx, &events.BallotCast{
		VoteID: "vt-1", AgendaItemID: "ag-1", MemberID: "12345678901", Choice: "NO",
	})
	if !errors.Is(err, model.ErrSessionClosed) {
		t.Errorf("got %v, want ErrSessionClosed", err)
	}
}

func TestApplyBallotInvalidChoiceDropped(t *testing.T) {
	st := memory.New()
	c := newTestConsumer(st)
	ctx := context.Background()
	seedItem(t, st, "ag-1")

	err := c.applyBallot(ctx, &events.BallotCast{
		VoteID: "vt-1", AgendaItemID: "ag-1", MemberID: "12345678901", Choice: "MAYBE",
	})
	if err != nil {
		t.Errorf("invalid choice must be dropped without error, got %v", err)
	}
}

// startTestNATS starts an embedded NATS server with JetStream enabled.
func startTestNATS(t *testing.T) string {
	t.Helper()
	opts := &natsserver.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
	}
	srv, err := natsserver.NewServer(opts)
	if err != nil {
		t.Fatalf("starting embedded NATS: %v", err)
	}
	srv.Start()
	t.Cleanup(srv.Shutdown)
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS not ready")
	}
	return srv.ClientURL()
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

// TestConsumerEndToEnd drives the full open, vote, close flow through the
// channel and asserts the store ends up with the right state.
func TestConsumerEndToEnd(t *testing.T) {
	url := startTestNATS(t)

	bus, err := events.Connect(url)
	if err != nil {
		t.Fatalf("connecting bus: %v", err)
	}
	defer bus.Close()

	st := memory.New()
	c := New(st, bus, notify.NewDispatcher(nil, testLogger()), events.DefaultShards, testLogger())
	if err := c.Start(); err != nil {
		t.Fatalf("starting consumer: %v", err)
	}
	defer c.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := bus.Publish(ctx, events.TopicAgendaCreate, events.AgendaCreate{
		AgendaItemID: "ag-1", Title: "Budget approval",
	}); err != nil {
		t.Fatalf("publishing agenda create: %v", err)
	}
	waitFor(t, 5*time.Second, func() bool {
		_, err := st.GetAgendaItem(ctx, "ag-1")
		return err == nil
	})

	shard := events.ShardFor("ag-1", events.DefaultShards)
	now := time.Now().UTC()
	if err := bus.Publish(ctx, events.TopicSessionDirective(shard), events.SessionDirective{
		SessionID: "se-1", AgendaItemID: "ag-1",
		OpensAt: now, ClosesAt: now.Add(time.Minute), Op: events.OpOpen,
	}); err != nil {
		t.Fatalf("publishing open: %v", err)
	}
	waitFor(t, 5*time.Second, func() bool {
		_, err := st.GetSessionByAgendaItem(ctx, "ag-1")
		return err == nil
	})

	if err := bus.Publish(ctx, events.TopicBallotCast(shard), events.BallotCast{
		VoteID: "vt-1", AgendaItemID: "ag-1", MemberID: "12345678901", Choice: "YES",
	}); err != nil {
		t.Fatalf("publishing ballot: %v", err)
	}
	waitFor(t, 5*time.Second, func() bool {
		n, err := st.CountVotes(ctx, "ag-1")
		return err == nil && n == 1
	})

	if err := bus.Publish(ctx, events.TopicSessionDirective(shard), events.SessionDirective{
		SessionID: "se-1", AgendaItemID: "ag-1", Op: events.OpClose,
	}); err != nil {
		t.Fatalf("publishing close: %v", err)
	}
	waitFor(t, 5*time.Second, func() bool {
		sess, err := st.GetSession(ctx, "se-1")
		return err == nil && !sess.Open
	})
}
