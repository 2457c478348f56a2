package indexer

import (
	"context"
	"sync"
)

// broadcaster fans completed run results out to subscribers. Slow
// subscribers miss results rather than block a run.
type broadcaster struct {
	mu       sync.Mutex
	watchers map[uint64]chan Result
	nextID   uint64
}

func newBroadcaster() *broadcaster {
	return &broadcaster{watchers: make(map[uint64]chan Result)}
}

func (b *broadcaster) subscribe(ctx context.Context) <-chan Result {
	if ctx == nil {
		ctx = context.Background()
	}
	ch := make(chan Result, 1)
	if ctx.Err() != nil {
		close(ch)
		return ch
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.watchers[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.watchers, id)
		close(ch)
		b.mu.Unlock()
	}()
	return ch
}

func (b *broadcaster) publish(result Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.watchers {
		select {
		case ch <- result:
		default:
		}
	}
}
