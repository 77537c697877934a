package gateway

import (
	"sync"

	"github.com/retro-admin/dashboard/types"
)

// Notifier fans identity changes out to OnAuthStateChange subscribers.
// Subscribers are called outside the notifier's lock, in subscription order.
type Notifier struct {
	mu   sync.Mutex
	next int
	subs map[int]func(*types.Identity)
	ids  []int
}

// Subscribe registers fn and returns its unsubscribe function.
func (n *Notifier) Subscribe(fn func(*types.Identity)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.subs == nil {
		n.subs = make(map[int]func(*types.Identity))
	}
	id := n.next
	n.next++
	n.subs[id] = fn
	n.ids = append(n.ids, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.subs, id)
			for i, existing := range n.ids {
				if existing == id {
					n.ids = append(n.ids[:i], n.ids[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish delivers identity to every current subscriber. Each subscriber gets its own copy.
func (n *Notifier) Publish(identity *types.Identity) {
	n.mu.Lock()
	fns := make([]func(*types.Identity), 0, len(n.ids))
	for _, id := range n.ids {
		fns = append(fns, n.subs[id])
	}
	n.mu.Unlock()

	for _, fn := range fns {
		var copied *types.Identity
		if identity != nil {
			value := *identity
			copied = &value
		}
		fn(copied)
	}
}
