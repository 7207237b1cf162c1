package tymws

import (
	"sync"

	"github.com/google/uuid"
)

// Conn is one accepted connection: an opaque transport handle plus registry
// membership. No per-connection protocol state is kept beyond that.
type Conn struct {
	ID        string
	Transport Transport
}

// Registry tracks accepted connections in insertion order. All mutation is
// mutex-guarded so transport loops on different goroutines may register and
// remove concurrently.
type Registry struct {
	mu    sync.RWMutex
	conns []*Conn
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers a transport handle and returns its Conn. No uniqueness is
// enforced beyond identity of the handle.
func (r *Registry) Add(t Transport) *Conn {
	conn := &Conn{ID: uuid.NewString(), Transport: t}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns = append(r.conns, conn)

	return conn
}

func (r *Registry) Remove(conn *Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, c := range r.conns {
		if c == conn {
			r.conns = append(r.conns[:i], r.conns[i+1:]...)
			return nil
		}
	}

	return ErrConnNotFound
}

func (r *Registry) Get(id string) (*Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.conns {
		if c.ID == id {
			return c, true
		}
	}

	return nil, false
}

// Conns returns a snapshot of the registered connections in insertion order.
func (r *Registry) Conns() []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make([]*Conn, len(r.conns))
	copy(snapshot, r.conns)

	return snapshot
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
