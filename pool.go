package gridseq

import (
	"sync"
)

// Pool is a simple pool of Oracle instances so multiple images can be
// processed in parallel, one model instance per worker
type Pool struct {
	// pool of oracles
	oracles chan Oracle
	// size of pool
	size int
	mu   sync.Mutex
	// set once Close has run, Return drops oracles instead of sending on
	// the closed channel
	closed bool
}

// NewPool creates a new oracle pool.  The factory is called size times to
// create the pooled model instances.
func NewPool(size int, factory func() (Oracle, error)) (*Pool, error) {
	p := &Pool{
		oracles: make(chan Oracle, size),
		size:    size,
	}

	for i := 0; i < size; i++ {
		o, err := factory()

		if err != nil {
			// close any instances that may have been created before receiving
			// the error
			p.Close()
			return nil, err
		}

		// attach to pool
		p.Return(o)
	}

	return p, nil
}

// Gets an oracle from the pool
func (p *Pool) Get() Oracle {
	return <-p.oracles
}

// Return an oracle to the pool
func (p *Pool) Return(o Oracle) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		// pool was closed, close the stray oracle as well
		_ = o.Close()
		return
	}

	select {
	case p.oracles <- o:
	default:
		// pool is full
	}
}

// Size returns the number of oracles the pool was created with
func (p *Pool) Size() int {
	return p.size
}

// Close the pool and all oracles in it
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	p.closed = true

	// close channel
	close(p.oracles)

	// close all oracles
	for next := range p.oracles {
		_ = next.Close()
	}
}
