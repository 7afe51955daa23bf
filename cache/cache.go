// Package cache implements the simulator's fully-associative,
// LRU-eviction data cache (spec §4.2).
//
// Eviction policy is delegated to github.com/hashicorp/golang-lru/v2:
// every touch of a block (hit or insert-on-miss) bumps it to most
// recently used, and inserting past capacity evicts the least recently
// used entry automatically — exactly the "evict the block with the
// smallest last-access, ties broken by insertion order" rule spec §4.2
// specifies, since an entry that has never been touched again sits
// behind every entry that has.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Config mirrors the cache portion of spec §6's configuration shape.
type Config struct {
	Enabled     bool
	BlockSize   int
	CacheSize   int
	MissPenalty int
}

// DefaultConfig returns the spec §6 defaults: enabled, 4-byte blocks,
// 16-byte cache, a 10-cycle miss penalty.
func DefaultConfig() Config {
	return Config{Enabled: true, BlockSize: 4, CacheSize: 16, MissPenalty: 10}
}

// Block is a single cache entry, exposed for snapshot/inspection (the
// UI's cache table, and tests asserting on cache contents).
type Block struct {
	Tag        int // address / BlockSize
	LastAccess int // cycle of the most recent touch
}

// Cache is the simulator's data cache.
type Cache struct {
	cfg    Config
	blocks *lru.Cache[int, int] // block tag -> last-access cycle
}

// New constructs a Cache from cfg. Disabled caches still construct the
// underlying LRU (with a capacity of at least one) so Clone has
// something to copy, but Access always reports a hit with no
// side effect when cfg.Enabled is false.
func New(cfg Config) *Cache {
	sets := 1
	if cfg.BlockSize > 0 {
		sets = cfg.CacheSize / cfg.BlockSize
	}
	if sets < 1 {
		sets = 1
	}
	blocks, err := lru.New[int, int](sets)
	if err != nil {
		// sets is always >= 1 here, so lru.New cannot actually fail;
		// this guards against a future change to that invariant.
		panic(err)
	}
	return &Cache{cfg: cfg, blocks: blocks}
}

// Access looks up addr at the given cycle. When the cache is disabled,
// every access is reported as a hit with zero penalty and the cache is
// left untouched, per spec §4.2.
func (c *Cache) Access(addr int, cycle int) (hit bool, penalty int) {
	if !c.cfg.Enabled {
		return true, 0
	}

	blockTag := addr / c.cfg.BlockSize
	if _, ok := c.blocks.Get(blockTag); ok {
		c.blocks.Add(blockTag, cycle)
		return true, 0
	}

	c.blocks.Add(blockTag, cycle)
	return false, c.cfg.MissPenalty
}

// Len reports how many blocks are currently resident.
func (c *Cache) Len() int {
	if !c.cfg.Enabled {
		return 0
	}
	return c.blocks.Len()
}

// Blocks returns a snapshot of resident blocks, oldest access first,
// for display and for tests.
func (c *Cache) Blocks() []Block {
	if !c.cfg.Enabled {
		return nil
	}
	keys := c.blocks.Keys()
	out := make([]Block, 0, len(keys))
	for _, k := range keys {
		if last, ok := c.blocks.Peek(k); ok {
			out = append(out, Block{Tag: k, LastAccess: last})
		}
	}
	return out
}

// Clone returns an independent copy with the same resident blocks and
// recency order.
func (c *Cache) Clone() *Cache {
	cp := New(c.cfg)
	for _, b := range c.Blocks() {
		cp.blocks.Add(b.Tag, b.LastAccess)
	}
	return cp
}
