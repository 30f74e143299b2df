package fetch

import (
	"container/list"
	"context"
	"sync"
)

// DefaultPoolSize bounds pool growth when no size is configured.
const DefaultPoolSize = 4

// Pool owns every client in existence and hands them out one caller at a
// time. It keeps a free list of idle clients and a wait queue of parked
// acquirers; a released client always goes to the front of the queue, so
// waiters are served strictly in arrival order. The pool starts empty and
// grows on demand up to its ceiling.
type Pool struct {
	cfg ClientConfig

	mu      sync.Mutex
	free    []*Client
	waiters *list.List // of chan *Client, capacity 1 each
	created int
	ceiling int
	closed  bool
}

// NewPool creates an empty pool growing up to ceiling clients.
func NewPool(ceiling int, cfg ClientConfig) *Pool {
	if ceiling <= 0 {
		ceiling = DefaultPoolSize
	}
	return &Pool{
		cfg:     cfg,
		waiters: list.New(),
		ceiling: ceiling,
	}
}

// Acquire returns a lease on a client held by no one else. When every
// client is busy and the pool is at its ceiling, the caller parks until a
// release or until ctx ends. Always release the lease; the deferred form
// covers error paths.
func (p *Pool) Acquire(ctx context.Context) (*Lease, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}

	if n := len(p.free); n > 0 {
		c := p.free[n-1]
		p.free = p.free[:n-1]
		p.mu.Unlock()
		return &Lease{pool: p, client: c}, nil
	}

	if p.created < p.ceiling {
		p.created++
		p.mu.Unlock()
		return &Lease{pool: p, client: NewClient(p.cfg)}, nil
	}

	w := make(chan *Client, 1)
	elem := p.waiters.PushBack(w)
	p.mu.Unlock()

	select {
	case c, ok := <-w:
		if !ok {
			return nil, ErrPoolClosed
		}
		return &Lease{pool: p, client: c}, nil
	case <-ctx.Done():
		p.mu.Lock()
		p.waiters.Remove(elem)
		select {
		case c, ok := <-w:
			// A release won the race; hand the client to the next waiter.
			p.mu.Unlock()
			if ok {
				p.put(c)
			}
		default:
			p.mu.Unlock()
		}
		return nil, ctx.Err()
	}
}

// put returns a client to the pool, waking the longest-parked acquirer if
// one exists.
func (p *Pool) put(c *Client) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		c.Close()
		return
	}

	if front := p.waiters.Front(); front != nil {
		p.waiters.Remove(front)
		front.Value.(chan *Client) <- c
		return
	}

	p.free = append(p.free, c)
}

// Close shuts the pool down. Parked acquirers fail with ErrPoolClosed;
// clients in flight are closed as they return.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	for e := p.waiters.Front(); e != nil; e = e.Next() {
		close(e.Value.(chan *Client))
	}
	p.waiters.Init()

	for _, c := range p.free {
		c.Close()
	}
	p.free = nil
}

// Stats reports pool occupancy.
func (p *Pool) Stats() map[string]interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	return map[string]interface{}{
		"ceiling":   p.ceiling,
		"created":   p.created,
		"available": len(p.free),
		"in_use":    p.created - len(p.free),
		"waiting":   p.waiters.Len(),
		"closed":    p.closed,
	}
}

// Lease is an exclusive handle on one pooled client. The holder may mutate
// the client's jar and redirect policy until Release, which is idempotent
// and restores the default policy so an override never leaks into a later,
// unrelated fetch.
type Lease struct {
	pool    *Pool
	client  *Client
	release sync.Once
}

// Client returns the leased client.
func (l *Lease) Client() *Client {
	return l.client
}

// Release returns the client to the pool. Safe to call more than once.
func (l *Lease) Release() {
	l.release.Do(func() {
		l.client.resetPolicy()
		l.pool.put(l.client)
	})
}
