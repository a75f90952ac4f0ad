package memory

import "fmt"

// FreeOwner marks a block that is not owned by any process.
const FreeOwner = -1

// Block represents a memory extent. Start and End are inclusive offsets.
type Block struct {
	ID    int `json:"id"`
	Owner int `json:"owner"`
	Size  int `json:"size"`
	Start int `json:"start"`
	End   int `json:"end"`
}

// IsFree returns true when the block has no owner.
func (b *Block) IsFree() bool {
	return b.Owner == FreeOwner
}

func (b *Block) String() string {
	owner := fmt.Sprintf("pid %d", b.Owner)
	if b.IsFree() {
		owner = "free"
	}
	return fmt.Sprintf("block %d [%d-%d] size=%d %s", b.ID, b.Start, b.End, b.Size, owner)
}

// Info represents the global memory pool state.
type Info struct {
	Total     int `json:"total"`
	Reserve   int `json:"reserve"`
	Available int `json:"available"`
	PoolStart int `json:"poolStart"`
	PoolEnd   int `json:"poolEnd"`
	NextID    int `json:"nextId"`
	// Retired counts free blocks reclaimed by compaction whose records are
	// kept until teardown.
	Retired int `json:"retired"`
}

// PoolSize returns the size of the contiguous free pool.
func (i *Info) PoolSize() int {
	return i.PoolEnd - i.PoolStart + 1
}

// mergeSort returns blocks ordered by start offset; equal keys keep their order.
func mergeSort(blocks []*Block) []*Block {
	if len(blocks) <= 1 {
		return append([]*Block(nil), blocks...)
	}
	mid := len(blocks) / 2
	left := mergeSort(blocks[:mid])
	right := mergeSort(blocks[mid:])
	ret := make([]*Block, 0, len(blocks))
	i, j := 0, 0
	for i < len(left) && j < len(right) {
		if right[j].Start < left[i].Start {
			ret = append(ret, right[j])
			j++
			continue
		}
		ret = append(ret, left[i])
		i++
	}
	ret = append(ret, left[i:]...)
	return append(ret, right[j:]...)
}
