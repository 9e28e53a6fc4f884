package event_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/victornm/kudos/internal/event"
)

func TestBus_PublishSubscribe(t *testing.T) {
	type (
		inputs struct {
			published   []event.Event
			subscribers []subscriber
		}

		outputs struct {
			received map[string][]event.Event
		}
	)

	tests := map[string]struct {
		arrange func() inputs
		assert  func(t *testing.T, out outputs)
	}{
		"a subscriber should only receive events it subscribed to": {
			arrange: func() inputs {
				return inputs{
					published: []event.Event{
						eventWithName("awards.recorded"),
						eventWithName("other"),
					},
					subscribers: []subscriber{
						{
							name:        "announcer",
							subscribeTo: []string{"awards.recorded"},
						},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				assert.ElementsMatch(t, []event.Event{eventWithName("awards.recorded")}, out.received["announcer"])
			},
		},

		"every published event should be dispatched": {
			arrange: func() inputs {
				return inputs{
					published: []event.Event{
						eventWithName("awards.recorded"),
						eventWithName("awards.recorded"),
					},
					subscribers: []subscriber{
						{
							name:        "announcer",
							subscribeTo: []string{"awards.recorded"},
						},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				assert.Len(t, out.received["announcer"], 2)
			},
		},

		"an event should reach all subscribers": {
			arrange: func() inputs {
				return inputs{
					published: []event.Event{
						eventWithName("awards.recorded"),
					},
					subscribers: []subscriber{
						{
							name:        "announcer",
							subscribeTo: []string{"awards.recorded"},
						},
						{
							name:        "metrics",
							subscribeTo: []string{"awards.recorded"},
						},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				assert.ElementsMatch(t, []event.Event{eventWithName("awards.recorded")}, out.received["announcer"])
				assert.ElementsMatch(t, []event.Event{eventWithName("awards.recorded")}, out.received["metrics"])
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			in := tt.arrange()
			mu := sync.Mutex{}
			out := outputs{received: make(map[string][]event.Event)}

			b := event.NewBus()
			for _, s := range in.subscribers {
				s := s
				for _, e := range s.subscribeTo {
					b.Subscribe(e, func(ctx context.Context, e event.Event) error {
						mu.Lock()
						out.received[s.name] = append(out.received[s.name], e)
						mu.Unlock()
						return nil
					})
				}
			}

			for _, e := range in.published {
				b.Publish(context.Background(), e)
			}
			b.Stop()

			tt.assert(t, out)
		})
	}
}

func TestBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	t.Parallel()

	b := event.NewBus()

	var (
		mu    sync.Mutex
		calls int
	)

	b.Subscribe("e", func(ctx context.Context, e event.Event) error {
		return errors.New("boom")
	})
	b.Subscribe("e", func(ctx context.Context, e event.Event) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	})

	b.Publish(context.Background(), eventWithName("e"))
	b.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

type eventWithName string

func (e eventWithName) Name() string {
	return string(e)
}

type subscriber struct {
	name        string
	subscribeTo []string
}
