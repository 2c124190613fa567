// Copyright 2024 The go-ember Authors
// This file is part of the go-ember library.
//
// The go-ember library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ember library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ember library. If not, see <http://www.gnu.org/licenses/>.

package vm

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/embervm/go-ember/common"
	"github.com/embervm/go-ember/common/lru"
	"github.com/embervm/go-ember/log"
	"golang.org/x/sync/errgroup"
)

// compileRequest is one queued unit of compiler work.
type compileRequest struct {
	rev   Revision
	hash  common.Hash
	icode *Intercode
}

// Compiler turns intercode into nativecode in background workers and
// publishes the results into the varcode cache. Requests are deduplicated by
// contract hash: while a request for a hash is queued or being processed,
// further requests for it are dropped.
type Compiler struct {
	config CompilerConfig
	cache  *lru.WeightCache[common.Hash, *Varcode]

	queue    chan compileRequest
	inflight mapset.Set[common.Hash]

	// mu guards the enqueue path so the membership set and the queue change
	// together, and serves as the monitor of the outstanding counter.
	mu          sync.Mutex
	outstanding int
	idle        *sync.Cond

	workers *errgroup.Group
	quit    chan struct{}

	logger log.Logger
}

// NewCompiler creates a compiler service around a fresh varcode cache. With
// async enabled, the configured number of worker goroutines starts
// immediately; otherwise no worker runs, AsyncCompile still enqueues and
// deduplicates requests but nothing consumes them, and only synchronous
// Compile produces nativecode.
func NewCompiler(config CompilerConfig, async bool) *Compiler {
	c := &Compiler{
		config:   config,
		cache:    lru.NewWeightCache[common.Hash, *Varcode](config.MaxCacheWeight, config.CacheUpdatePeriod),
		queue:    make(chan compileRequest, config.QueueSize),
		inflight: mapset.NewSet[common.Hash](),
		quit:     make(chan struct{}),
		logger:   log.New("service", "compiler"),
	}
	c.idle = sync.NewCond(&c.mu)
	if async {
		c.workers = new(errgroup.Group)
		for i := 0; i < config.Workers; i++ {
			c.workers.Go(c.worker)
		}
		c.logger.Debug("Compile workers started", "workers", config.Workers, "queue", config.QueueSize)
	}
	return c
}

// Stop terminates the worker pool. Requests still queued are dropped; a
// request being processed is finished first.
func (c *Compiler) Stop() {
	if c.workers == nil {
		return
	}
	close(c.quit)
	c.workers.Wait()
	c.workers = nil
	c.logger.Debug("Compile workers stopped")
}

// AsyncCompile enqueues a compile request for the given contract. It returns
// false when an equivalent request is already queued or in flight, or when
// the queue is full. It never blocks.
func (c *Compiler) AsyncCompile(rev Revision, hash common.Hash, icode *Intercode) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight.Contains(hash) {
		return false
	}
	select {
	case c.queue <- compileRequest{rev: rev, hash: hash, icode: icode}:
		c.inflight.Add(hash)
		c.outstanding++
		return true
	default:
		c.logger.Trace("Compile request dropped, queue full", "hash", hash)
		return false
	}
}

// Compile synchronously compiles intercode for the given revision. A
// rejection by the backend is returned as a nativecode with a nil entrypoint
// so callers install the permanent failure sentinel instead of retrying.
func (c *Compiler) Compile(rev Revision, icode *Intercode) *Nativecode {
	chainID := ChainIDForRevision(rev)
	entry, err := compileEntrypoint(rev, icode, c.config)
	if err != nil {
		c.logger.Debug("Contract compilation failed", "rev", rev, "size", icode.Size(), "err", err)
		return NewNativecode(nil, chainID)
	}
	return NewNativecode(entry, chainID)
}

// worker pulls requests off the queue until the service stops.
func (c *Compiler) worker() error {
	for {
		select {
		case <-c.quit:
			return nil
		case req := <-c.queue:
			c.process(req)
		}
	}
}

// process compiles one request and publishes the artifact. If the cache has
// no varcode for the hash (it may have been evicted, or never inserted), a
// fresh one wrapping the request's intercode is installed.
func (c *Compiler) process(req compileRequest) {
	ncode := c.Compile(req.rev, req.icode)

	if vcode, ok := c.cache.Find(req.hash); ok {
		vcode.PublishNativecode(ncode)
	} else {
		vcode := NewVarcode(req.icode)
		vcode.PublishNativecode(ncode)
		c.cache.Insert(req.hash, vcode)
	}

	c.mu.Lock()
	c.inflight.Remove(req.hash)
	c.outstanding--
	if c.outstanding == 0 {
		c.idle.Broadcast()
	}
	c.mu.Unlock()
}

// FindVarcode looks up the varcode cached for the given contract hash.
func (c *Compiler) FindVarcode(hash common.Hash) (*Varcode, bool) {
	return c.cache.Find(hash)
}

// GetOrInsertVarcode returns the cached varcode for hash, inserting a fresh
// one wrapping icode if none is present.
func (c *Compiler) GetOrInsertVarcode(hash common.Hash, icode *Intercode) *Varcode {
	if vcode, ok := c.cache.Find(hash); ok {
		return vcode
	}
	vcode := NewVarcode(icode)
	if !c.cache.Insert(hash, vcode) {
		// Lost the race against a concurrent insert; use the winner. The
		// entry can be evicted between the failed insert and this find,
		// though the window is tiny; if it is, falling back to our own
		// instance is correct.
		if cached, ok := c.cache.Find(hash); ok {
			return cached
		}
	}
	return vcode
}

// IsVarcodeCacheWarm reports whether the cache population has crossed the
// configured threshold. While cold, the tiering policy compiles eagerly;
// once warm it waits for contracts to prove themselves hot.
func (c *Compiler) IsVarcodeCacheWarm() bool {
	return c.cache.Len() >= c.config.WarmThreshold
}

// Cache exposes the varcode cache.
func (c *Compiler) Cache() *lru.WeightCache[common.Hash, *Varcode] {
	return c.cache
}

// DebugWaitForEmptyQueue blocks until no request is queued or in flight.
// Diagnostic only; new requests arriving concurrently extend the wait.
func (c *Compiler) DebugWaitForEmptyQueue() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.outstanding > 0 {
		c.idle.Wait()
	}
}
