package orchestrator

import "sync"

// conversationLocks serializes turn handling per conversation. Locks
// are created on first use and kept for the process lifetime; the
// number of live conversations is small.
type conversationLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newConversationLocks() *conversationLocks {
	return &conversationLocks{locks: make(map[string]*sync.Mutex)}
}

func (c *conversationLocks) get(conversationID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[conversationID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[conversationID] = l
	}
	return l
}
