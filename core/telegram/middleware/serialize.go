package middleware

import (
	"sync"

	tele "gopkg.in/telebot.v4"
)

// keyedLocks hands out one mutex per key and forgets it once unused.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[int64]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

func (k *keyedLocks) lock(key int64) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// SerializePerUser runs the updates of one sender one at a time.
// Different senders still run concurrently.
func SerializePerUser() tele.MiddlewareFunc {
	locks := &keyedLocks{locks: make(map[int64]*keyedLock)}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil {
				return next(c)
			}
			unlock := locks.lock(user.ID)
			defer unlock()
			return next(c)
		}
	}
}
