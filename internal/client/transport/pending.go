package transport

import (
	"sync"

	"github.com/mvoronin/forumwire/internal/protocol"
)

// slot tracks one outstanding request. done is closed when a correlated
// response has been stored (any response counts, including falsy-looking
// ones); gone is closed when the caller gives up, stopping the retry sender.
type slot struct {
	done     chan struct{}
	gone     chan struct{}
	val      protocol.Envelope
	resolve  sync.Once
	withdraw sync.Once
}

func (s *slot) store(env protocol.Envelope) {
	s.resolve.Do(func() {
		s.val = env
		close(s.done)
	})
}

func (s *slot) abandon() {
	s.withdraw.Do(func() {
		close(s.gone)
	})
}

// pendingTable is the correlation table shared by the caller, the receiver
// loop and the per-request retry senders.
type pendingTable struct {
	mu    sync.Mutex
	slots map[string]*slot
}

func newPendingTable() *pendingTable {
	return &pendingTable{slots: make(map[string]*slot)}
}

func (p *pendingTable) add(echo string) *slot {
	s := &slot{
		done: make(chan struct{}),
		gone: make(chan struct{}),
	}
	p.mu.Lock()
	p.slots[echo] = s
	p.mu.Unlock()
	return s
}

// resolve stores env into the slot registered for echo, if any. Responses
// with no matching slot are dropped; they belong to a request that already
// timed out.
func (p *pendingTable) resolve(echo string, env protocol.Envelope) bool {
	p.mu.Lock()
	s, ok := p.slots[echo]
	p.mu.Unlock()
	if !ok {
		return false
	}
	s.store(env)
	return true
}

// remove unregisters the slot and stops its retry sender.
func (p *pendingTable) remove(echo string) {
	p.mu.Lock()
	s, ok := p.slots[echo]
	delete(p.slots, echo)
	p.mu.Unlock()
	if ok {
		s.abandon()
	}
}
