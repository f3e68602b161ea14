package catalogs

import (
	"fmt"
	"sync"
)

// Provider loads the config directory on first use and caches the result
// until Invalidate is called. It is safe for concurrent use.
type Provider struct {
	dir string

	mu    sync.Mutex
	cur   *Catalogs
	stale bool
	gen   uint64
}

func NewProvider(dir string) *Provider {
	return &Provider{dir: dir, stale: true}
}

func (p *Provider) Dir() string { return p.dir }

// Get returns the cached catalogs, rebuilding them if they were invalidated.
// When a rebuild fails the previous catalogs (possibly nil) are returned
// together with the error, and the next Get retries.
func (p *Provider) Get() (*Catalogs, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.stale && p.cur != nil {
		return p.cur, nil
	}
	c, err := Load(p.dir)
	if err != nil {
		return p.cur, fmt.Errorf("load catalogs %s: %w", p.dir, err)
	}
	p.cur = c
	p.stale = false
	p.gen++
	return c, nil
}

// Invalidate drops the cached index; the next Get rebuilds it.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	p.stale = true
	p.mu.Unlock()
}

// Generation counts successful rebuilds.
func (p *Provider) Generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen
}

// Digest is the digest of the cached catalogs, or "" before the first load.
func (p *Provider) Digest() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cur == nil {
		return ""
	}
	return p.cur.Digest
}
