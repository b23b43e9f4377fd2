package events

import (
	"sync"
	"testing"
	"time"

	"token-crowdsale/internal/domain"
)

func TestBus_PublishSyncDispatchesByType(t *testing.T) {
	bus := NewBus()

	var contributions, all int
	bus.Subscribe(domain.EventContribution, func(ev domain.SaleEvent) { contributions++ })
	bus.Subscribe("", func(ev domain.SaleEvent) { all++ })

	bus.PublishSync(domain.SaleEvent{SaleID: "s1", Type: domain.EventContribution})
	bus.PublishSync(domain.SaleEvent{SaleID: "s1", Type: domain.EventSaleStarted})

	if contributions != 1 {
		t.Errorf("contribution handler calls: got %d, want 1", contributions)
	}
	if all != 2 {
		t.Errorf("wildcard handler calls: got %d, want 2", all)
	}
}

func TestBus_AsyncDispatch(t *testing.T) {
	bus := NewBus()
	bus.Start()
	defer bus.Stop()

	var mu sync.Mutex
	var got []string
	done := make(chan struct{})

	bus.Subscribe("", func(ev domain.SaleEvent) {
		mu.Lock()
		got = append(got, ev.Type)
		mu.Unlock()
		if len(got) == 2 {
			close(done)
		}
	})

	bus.Publish(domain.SaleEvent{SaleID: "s1", Type: domain.EventSaleStarted})
	bus.Publish(domain.SaleEvent{SaleID: "s1", Type: domain.EventContribution})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for async dispatch")
	}

	mu.Lock()
	defer mu.Unlock()
	if got[0] != domain.EventSaleStarted || got[1] != domain.EventContribution {
		t.Errorf("events out of order: %v", got)
	}
}

func TestBus_StatsCountPublished(t *testing.T) {
	bus := NewBus()

	bus.PublishSync(domain.SaleEvent{Type: domain.EventSaleStarted})
	bus.PublishSync(domain.SaleEvent{Type: domain.EventContribution})

	stats := bus.Stats()
	if stats.Published != 2 {
		t.Errorf("published: got %d, want 2", stats.Published)
	}
	if stats.Dropped != 0 {
		t.Errorf("dropped: got %d, want 0", stats.Dropped)
	}
}

func TestBus_StartStopIdempotent(t *testing.T) {
	bus := NewBus()

	bus.Start()
	bus.Start()
	bus.Stop()
	bus.Stop()
}
