package network

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tamaverse/petgotchi/internal/clock"
	"github.com/tamaverse/petgotchi/internal/domain/pet"
	"github.com/tamaverse/petgotchi/internal/engine"
	"github.com/tamaverse/petgotchi/internal/events"
	"github.com/tamaverse/petgotchi/internal/ledger"
	"github.com/tamaverse/petgotchi/internal/platform/logger"
)

func newTestHub(t *testing.T) (*Hub, *engine.Controller, *events.Log) {
	t.Helper()

	clk := clock.NewVirtual(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	rec := pet.NewRecord("0xTEST", clk.Now())
	rec.Sleep = pet.SleepConfig{Mode: pet.SleepCustom} // start==end, never asleep
	eventLog := events.NewLog(nil)

	ctrl := engine.NewController(rec, eventLog, logger.NewLogger(), ledger.NewMemory(), clk, engine.NewSeededRand(1), engine.ModeCapped)
	ctrl.StartSession()

	return NewHub(ctrl, nil, logger.NewLogger()), ctrl, eventLog
}

// fakeBacklog serves a canned history regardless of owner.
type fakeBacklog struct {
	history []events.Event
}

func (f *fakeBacklog) Recent(ctx context.Context, owner string, limit int) ([]events.Event, error) {
	if limit > 0 && len(f.history) > limit {
		return f.history[len(f.history)-limit:], nil
	}
	return f.history, nil
}

func receiveMessage(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data := <-c.send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return Message{}
	}
}

func TestHubSendsViewOnRegister(t *testing.T) {
	hub, _, _ := newTestHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	c := NewClient(hub, nil)
	c.Register()

	msg := receiveMessage(t, c)
	require.Equal(t, "view", msg.Kind)
}

func TestHubPushesBacklogBeforeView(t *testing.T) {
	hub, _, _ := newTestHub(t)
	hub.backlog = &fakeBacklog{history: []events.Event{
		{ID: "1", Owner: "0xTEST", Type: events.EventTypeEvolved},
		{ID: "2", Owner: "0xTEST", Type: events.EventTypePetSick},
	}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	c := NewClient(hub, nil)
	c.Register()

	first := receiveMessage(t, c)
	require.Equal(t, "event", first.Kind)
	second := receiveMessage(t, c)
	require.Equal(t, "event", second.Kind)
	last := receiveMessage(t, c)
	require.Equal(t, "view", last.Kind, "history replays before the live view")
}

func TestHubBroadcastReachesClients(t *testing.T) {
	hub, _, _ := newTestHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	c := NewClient(hub, nil)
	c.Register()
	receiveMessage(t, c) // drain the registration view

	hub.Broadcast("event", map[string]string{"hello": "there"})

	msg := receiveMessage(t, c)
	require.Equal(t, "event", msg.Kind)
}

func TestHubForwardsEngineEvents(t *testing.T) {
	hub, ctrl, eventLog := newTestHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)
	hub.StartForwarders(ctx, eventLog)

	c := NewClient(hub, nil)
	c.Register()
	receiveMessage(t, c) // drain the registration view

	require.NoError(t, ctrl.Play())

	deadline := time.After(2 * time.Second)
	for {
		select {
		case data := <-c.send:
			var msg Message
			require.NoError(t, json.Unmarshal(data, &msg))
			if msg.Kind == "event" {
				return
			}
		case <-deadline:
			t.Fatal("engine event never reached the client")
		}
	}
}

func TestDispatchAppliesActions(t *testing.T) {
	hub, ctrl, _ := newTestHub(t)
	c := NewClient(hub, nil)

	before := ctrl.View().Happiness
	c.dispatch(ClientAction{Type: "play"})

	msg := receiveMessage(t, c)
	require.Equal(t, "view", msg.Kind, "dispatch pushes a fresh view immediately")
	require.Greater(t, ctrl.View().Happiness, before)
}

func TestDispatchDefaultsFeedKind(t *testing.T) {
	hub, ctrl, _ := newTestHub(t)
	c := NewClient(hub, nil)

	before := ctrl.View().Hunger
	c.dispatch(ClientAction{Type: "feed"})
	require.Greater(t, ctrl.View().Hunger, before)

	// Unknown actions are ignored without a view push.
	c.dispatch(ClientAction{Type: "dance"})
}
