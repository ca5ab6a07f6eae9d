package imgproc

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/gogpu/imgproc/gpucore"
)

// ProgramCache compiles programs once per ProgramKey and hands out the
// cached Program on every later request.
//
// Build failures are cached too: a key that failed to compile or link
// keeps returning the same error without another build attempt, since
// the result of compiling identical source never changes.
//
// Thread Safety:
// ProgramCache is safe for concurrent use. It uses RWMutex with
// double-check locking for efficient reads and safe writes. The device
// itself is not, so concurrent users must still serialize their draws.
type ProgramCache struct {
	mu sync.RWMutex

	dev      gpucore.Device
	programs map[ProgramKey]*Program
	failed   map[ProgramKey]error

	// hits and misses count lookups (atomic for lock-free reads).
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewProgramCache creates an empty cache compiling on dev.
func NewProgramCache(dev gpucore.Device) *ProgramCache {
	return &ProgramCache{
		dev:      dev,
		programs: make(map[ProgramKey]*Program),
		failed:   make(map[ProgramKey]error),
	}
}

// Device returns the device programs are compiled on.
func (c *ProgramCache) Device() gpucore.Device { return c.dev }

// GetOrCompile returns the program cached under key, compiling tmpl with
// key's specialization on a miss. The returned program is bound as the
// device's current program.
//
// A cached program is returned unchanged, including its uniform values.
func (c *ProgramCache) GetOrCompile(key ProgramKey, tmpl *ProgramTemplate) (*Program, error) {
	// Fast path: read lock
	c.mu.RLock()
	p, ok := c.programs[key]
	failure := c.failed[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		c.dev.BindProgram(p.id)
		return p, nil
	}
	if failure != nil {
		c.hits.Add(1)
		return nil, failure
	}

	// Slow path: write lock with double-check
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.programs[key]; ok {
		c.hits.Add(1)
		c.dev.BindProgram(p.id)
		return p, nil
	}
	if err := c.failed[key]; err != nil {
		c.hits.Add(1)
		return nil, err
	}
	c.misses.Add(1)

	if tmpl == nil {
		err := &gpucore.CompileError{Label: key.String(), Log: "no program template"}
		c.failed[key] = err
		return nil, err
	}

	var frag gpucore.FragmentFunc
	if tmpl.Fragment != nil {
		frag = tmpl.Fragment(key.Spec)
	}
	id, err := c.dev.CompileProgram(&gpucore.ProgramDesc{
		Label:    key.String(),
		Source:   tmpl.Instantiate(key.Spec),
		Fragment: frag,
	})
	if err != nil {
		Logger().Warn("imgproc: program build failed", "key", key.String(), "err", err)
		c.failed[key] = err
		return nil, err
	}

	p = &Program{key: key, id: id}
	c.programs[key] = p
	c.dev.BindProgram(id)
	Logger().Debug("imgproc: program compiled", "key", key.String(), "device", c.dev.Name())
	return p, nil
}

// Lookup returns the cached program for key without compiling.
func (c *ProgramCache) Lookup(key ProgramKey) (*Program, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.programs[key]
	return p, ok
}

// Failure returns the cached build error for key, if any.
func (c *ProgramCache) Failure(key ProgramKey) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.failed[key]
}

// Delete removes key from the cache and releases its device program.
// A recorded build failure for key is forgotten as well. Delete reports
// whether anything was removed.
func (c *ProgramCache) Delete(key ProgramKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, failed := c.failed[key]
	delete(c.failed, key)
	p, ok := c.programs[key]
	if !ok {
		return failed
	}
	delete(c.programs, key)
	c.release(p)
	Logger().Debug("imgproc: program deleted", "key", key.String())
	return true
}

// DeleteFunc removes every compiled program whose key matches and
// returns how many were released.
func (c *ProgramCache) DeleteFunc(match func(ProgramKey) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, p := range c.programs {
		if !match(key) {
			continue
		}
		delete(c.programs, key)
		c.release(p)
		n++
	}
	return n
}

// Purge releases every cached program and resets statistics.
func (c *ProgramCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range c.programs {
		c.release(p)
	}
	c.programs = make(map[ProgramKey]*Program)
	c.failed = make(map[ProgramKey]error)
	c.hits.Store(0)
	c.misses.Store(0)
}

func (c *ProgramCache) release(p *Program) {
	p.released = true
	c.dev.DestroyProgram(p.id)
}

// Len returns the number of compiled programs.
func (c *ProgramCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.programs)
}

// Stats returns the number of cache hits and misses. A request for a key
// whose build failed earlier counts as a hit.
func (c *ProgramCache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// HitRate returns the cache hit rate (0.0 to 1.0).
//
// Returns 0.0 if no requests have been made.
func (c *ProgramCache) HitRate() float64 {
	hits, misses := c.Stats()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// IsBuildError reports whether err is a program compile or link failure.
func IsBuildError(err error) bool {
	var ce *gpucore.CompileError
	var le *gpucore.LinkError
	return errors.As(err, &ce) || errors.As(err, &le)
}
