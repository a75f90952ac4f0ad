// Package memory implements a best-fit allocator over a single linear address
// space. The low end of the space is reserved for realtime work; the rest is
// split between allocated or freed blocks and a contiguous free pool at the
// high end.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/viant/hds/tracing"
	"go.uber.org/zap"
)

// Accounter mirrors allocator capacity changes into the resource counters.
type Accounter interface {
	AcquireMemory(units int) error
	ReleaseMemory(units int)
}

// Option customises an Allocator.
type Option func(*Allocator)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Allocator) {
		a.logger = logger
	}
}

// WithAccounter sets the resource accounter updated on every allocation and release.
func WithAccounter(accounter Accounter) Option {
	return func(a *Allocator) {
		a.accounter = accounter
	}
}

// Allocator owns the block list and the pool info. Allocate, Free and Compact
// never interleave.
type Allocator struct {
	logger    *zap.Logger
	accounter Accounter

	mu      sync.Mutex
	info    Info
	blocks  []*Block
	retired []*Block
}

// New creates an allocator for total units, the first reserve units of which
// never take part in allocation.
func New(total, reserve int, options ...Option) (*Allocator, error) {
	if total <= 0 {
		return nil, fmt.Errorf("%w: total %d", ErrInvalidSize, total)
	}
	if reserve < 0 || reserve >= total {
		return nil, fmt.Errorf("%w: reserve %d for total %d", ErrInvalidSize, reserve, total)
	}
	ret := &Allocator{
		logger: zap.NewNop(),
		info: Info{
			Total:     total,
			Reserve:   reserve,
			Available: total - reserve,
			PoolStart: reserve,
			PoolEnd:   total - 1,
			NextID:    1,
		},
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret, nil
}

// Allocate assigns size units to pid and returns the block handle. It tries the
// free pool first, then the smallest sufficient freed block, then compacts and
// retries the free pool.
func (a *Allocator) Allocate(ctx context.Context, pid, size int) (handle int, err error) {
	_, span := tracing.StartSpan(ctx, "memory.Allocate")
	span.WithInt("pid", pid).WithInt("size", size)
	defer func() { tracing.EndSpan(span.WithInt("block", handle), err) }()

	if size <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidOwner, pid)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if size > a.info.Available {
		a.logger.Warn("allocation rejected", zap.Int("pid", pid), zap.Int("size", size), zap.Int("available", a.info.Available))
		return 0, fmt.Errorf("%w: pid %d requested %d, available %d", ErrOutOfMemory, pid, size, a.info.Available)
	}
	if block, err := a.carve(pid, size); block != nil || err != nil {
		return blockID(block), err
	}
	if block, err := a.reuse(pid, size); block != nil || err != nil {
		return blockID(block), err
	}
	span.AddEvent("compaction")
	a.compact()
	if block, err := a.carve(pid, size); block != nil || err != nil {
		return blockID(block), err
	}
	a.logger.Error("allocation failed after compaction", zap.Int("pid", pid), zap.Int("size", size),
		zap.Int("available", a.info.Available), zap.Int("pool", a.info.PoolSize()))
	return 0, fmt.Errorf("%w: pid %d requested %d after compaction", ErrOutOfMemory, pid, size)
}

func blockID(block *Block) int {
	if block == nil {
		return 0
	}
	return block.ID
}

// carve takes a new block from the start of the free pool.
func (a *Allocator) carve(pid, size int) (*Block, error) {
	if a.info.PoolSize() < size {
		return nil, nil
	}
	if err := a.acquire(size); err != nil {
		return nil, err
	}
	block := &Block{
		ID:    a.info.NextID,
		Owner: pid,
		Size:  size,
		Start: a.info.PoolStart,
		End:   a.info.PoolStart + size - 1,
	}
	a.info.NextID++
	a.info.PoolStart += size
	a.blocks = append(a.blocks, block)
	a.logger.Debug("block carved", zap.Int("pid", pid), zap.Int("block", block.ID), zap.Int("start", block.Start), zap.Int("size", size))
	return block, nil
}

// reuse hands the smallest sufficient free block to pid; the first one wins a tie.
func (a *Allocator) reuse(pid, size int) (*Block, error) {
	var best *Block
	for _, candidate := range a.blocks {
		if !candidate.IsFree() || candidate.Size < size {
			continue
		}
		if best == nil || candidate.Size < best.Size {
			best = candidate
		}
	}
	if best == nil {
		return nil, nil
	}
	if err := a.acquire(best.Size); err != nil {
		return nil, err
	}
	best.Owner = pid
	a.logger.Debug("block reused", zap.Int("pid", pid), zap.Int("block", best.ID), zap.Int("size", best.Size), zap.Int("requested", size))
	return best, nil
}

func (a *Allocator) acquire(units int) error {
	if a.accounter != nil {
		if err := a.accounter.AcquireMemory(units); err != nil {
			return fmt.Errorf("%w: %v", ErrOutOfMemory, err)
		}
	}
	a.info.Available -= units
	return nil
}

// Free releases the block identified by handle. The block stays in place until
// it is reused or compacted away.
func (a *Allocator) Free(ctx context.Context, pid, handle int) (err error) {
	_, span := tracing.StartSpan(ctx, "memory.Free")
	span.WithInt("pid", pid).WithInt("block", handle)
	defer func() { tracing.EndSpan(span, err) }()

	a.mu.Lock()
	defer a.mu.Unlock()

	block := a.lookup(handle)
	if block == nil {
		return fmt.Errorf("%w: %d", ErrBlockNotFound, handle)
	}
	if block.IsFree() {
		a.logger.Warn("double free", zap.Int("pid", pid), zap.Int("block", handle))
		return fmt.Errorf("%w: pid %d freeing block %d", ErrAlreadyFree, pid, handle)
	}
	if block.Owner != pid {
		a.logger.Error("access violation", zap.Int("pid", pid), zap.Int("block", handle), zap.Int("owner", block.Owner))
		return fmt.Errorf("%w: pid %d freeing block %d owned by %d", ErrAccessViolation, pid, handle, block.Owner)
	}
	block.Owner = FreeOwner
	a.info.Available += block.Size
	if a.accounter != nil {
		a.accounter.ReleaseMemory(block.Size)
	}
	a.logger.Debug("block freed", zap.Int("pid", pid), zap.Int("block", handle), zap.Int("size", block.Size))
	return nil
}

func (a *Allocator) lookup(handle int) *Block {
	for _, block := range a.blocks {
		if block.ID == handle {
			return block
		}
	}
	return nil
}

// Compact packs owned blocks from the reserve boundary and returns freed blocks
// to the pool.
func (a *Allocator) Compact(ctx context.Context) {
	_, span := tracing.StartSpan(ctx, "memory.Compact")
	defer tracing.EndSpan(span, nil)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.compact()
}

func (a *Allocator) compact() {
	sorted := mergeSort(a.blocks)
	kept := make([]*Block, 0, len(sorted))
	next := a.info.Reserve
	moved := 0
	for _, block := range sorted {
		if block.IsFree() {
			a.retired = append(a.retired, block)
			a.info.Retired++
			continue
		}
		if block.Start != next {
			moved++
		}
		block.Start = next
		block.End = next + block.Size - 1
		next += block.Size
		kept = append(kept, block)
	}
	reclaimed := len(a.blocks) - len(kept)
	a.blocks = kept
	a.info.PoolStart = next
	a.logger.Debug("memory compacted", zap.Int("moved", moved), zap.Int("reclaimed", reclaimed), zap.Int("poolStart", next))
}

// Owner returns the owner of the block identified by handle.
func (a *Allocator) Owner(handle int) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	block := a.lookup(handle)
	if block == nil {
		return 0, fmt.Errorf("%w: %d", ErrBlockNotFound, handle)
	}
	return block.Owner, nil
}

// Info returns a copy of the pool info.
func (a *Allocator) Info() Info {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.info
}

// Blocks returns copies of the live blocks ordered by start offset.
func (a *Allocator) Blocks() []Block {
	a.mu.Lock()
	defer a.mu.Unlock()
	sorted := mergeSort(a.blocks)
	ret := make([]Block, len(sorted))
	for i, block := range sorted {
		ret[i] = *block
	}
	return ret
}

// Verify checks that blocks and the free pool partition the address space
// above the reserve without gaps or overlaps, and that the available capacity
// matches the owned blocks.
func (a *Allocator) Verify() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	expected := a.info.Reserve
	owned := 0
	for _, block := range mergeSort(a.blocks) {
		if block.Size != block.End-block.Start+1 {
			return fmt.Errorf("%v: size does not match extent", block)
		}
		if block.Start != expected {
			return fmt.Errorf("%v: expected start %d", block, expected)
		}
		expected = block.End + 1
		if !block.IsFree() {
			owned += block.Size
		}
	}
	if a.info.PoolStart != expected {
		return fmt.Errorf("free pool starts at %d, expected %d", a.info.PoolStart, expected)
	}
	if a.info.PoolEnd != a.info.Total-1 {
		return fmt.Errorf("free pool ends at %d, expected %d", a.info.PoolEnd, a.info.Total-1)
	}
	if a.info.PoolStart > a.info.PoolEnd+1 {
		return fmt.Errorf("free pool start %d beyond end %d", a.info.PoolStart, a.info.PoolEnd)
	}
	if want := a.info.Total - a.info.Reserve - owned; a.info.Available != want {
		return fmt.Errorf("available %d, expected %d", a.info.Available, want)
	}
	return nil
}

// Teardown drops every block record, live or retired.
func (a *Allocator) Teardown() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logger.Debug("block list released", zap.Int("live", len(a.blocks)), zap.Int("retired", len(a.retired)))
	a.blocks = nil
	a.retired = nil
	a.info.Retired = 0
}
