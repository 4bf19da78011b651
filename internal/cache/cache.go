package cache

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/1F47E/go-framereel/internal/storage"
	"github.com/1F47E/go-framereel/pkg/logger"
)

var ErrOutOfRange = errors.New("frame index out of range")

// Cache keeps a bounded window of decoded frames around the playback position.
//
// Frames live in an arena of slots indexed by frame index. The resident
// indices are kept sorted, so the frame farthest from the current position is
// always the first or the last one.
//
// Exported methods take the lock; helpers ending in Locked expect it held.
type Cache struct {
	mu sync.RWMutex

	loader      storage.Loader
	assets      []storage.FrameAsset
	slots       []*storage.Frame
	resident    []int
	maxResident int
	current     int // last index returned by EnsureLoaded
	memory      int
}

func New(loader storage.Loader, assets []storage.FrameAsset, maxResident int) *Cache {
	if maxResident < 1 {
		panic(fmt.Sprintf("cache: max resident frames must be >= 1, got %d", maxResident))
	}
	return &Cache{
		loader:      loader,
		assets:      assets,
		slots:       make([]*storage.Frame, len(assets)),
		resident:    make([]int, 0, maxResident+1),
		maxResident: maxResident,
	}
}

// EnsureLoaded returns the frame at index, loading it on a miss.
// The window is re-centered on index and index itself is never evicted.
func (c *Cache) EnsureLoaded(index int) (*storage.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ensureLoadedLocked(index)
}

func (c *Cache) ensureLoadedLocked(index int) (*storage.Frame, error) {
	if index < 0 || index >= len(c.assets) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, index, len(c.assets))
	}
	if f := c.slots[index]; f != nil {
		c.current = index
		return f, nil
	}

	log := logger.Scope("cache")
	frame, err := c.loader.Load(c.assets[index])
	if err != nil {
		return nil, err
	}
	frame.Index = index
	c.current = index
	c.insertLocked(frame)
	log.Debugf("loaded frame %d (%dx%d), resident %d, memory %d bytes",
		index, frame.Width(), frame.Height(), len(c.resident), c.memory)

	c.maintainWindowLocked(index)
	return frame, nil
}

// Insert adds an already decoded frame, used by background prefetch.
// Frames outside the current window are dropped. Reports whether the frame is resident.
func (c *Cache) Insert(frame *storage.Frame) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := frame.Index
	if idx < 0 || idx >= len(c.assets) {
		return false
	}
	if c.slots[idx] != nil {
		return true
	}
	start, end := c.windowLocked(c.current)
	if idx < start || idx >= end {
		return false
	}
	c.insertLocked(frame)
	c.maintainWindowLocked(c.current)
	return c.slots[idx] != nil
}

// MaintainWindow evicts frames that fall outside the window around current.
func (c *Cache) MaintainWindow(current int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if current < 0 || current >= len(c.assets) {
		return
	}
	c.current = current
	c.maintainWindowLocked(current)
}

func (c *Cache) maintainWindowLocked(current int) {
	start, end := c.windowLocked(current)

	kept := c.resident[:0]
	var evicted []int
	for _, idx := range c.resident {
		if idx == current || (idx >= start && idx < end) {
			kept = append(kept, idx)
			continue
		}
		evicted = append(evicted, idx)
	}
	c.resident = kept
	for _, idx := range evicted {
		c.dropSlotLocked(idx)
	}

	// still over budget, drop the farthest frames first
	for len(c.resident) > c.maxResident {
		pos := c.farthestLocked(current)
		if pos < 0 {
			break
		}
		idx := c.resident[pos]
		c.resident = append(c.resident[:pos], c.resident[pos+1:]...)
		c.dropSlotLocked(idx)
		evicted = append(evicted, idx)
	}

	if len(evicted) > 0 {
		logger.Scope("cache").Debugf("evicted frames %v around %d, resident %d", evicted, current, len(c.resident))
	}
}

// farthestLocked returns the position in c.resident of the evictable frame
// with the greatest distance to current, or -1 when only current is left.
func (c *Cache) farthestLocked(current int) int {
	n := len(c.resident)
	if n == 0 {
		return -1
	}
	first, last := 0, n-1
	if c.resident[first] == current {
		first++
	}
	if c.resident[last] == current {
		last--
	}
	if first > last {
		return -1
	}
	if distance(c.resident[first], current) >= distance(c.resident[last], current) {
		return first
	}
	return last
}

func (c *Cache) insertLocked(frame *storage.Frame) {
	idx := frame.Index
	c.slots[idx] = frame
	pos := sort.SearchInts(c.resident, idx)
	c.resident = append(c.resident, 0)
	copy(c.resident[pos+1:], c.resident[pos:])
	c.resident[pos] = idx
	c.memory += frame.Bytes()
}

func (c *Cache) dropSlotLocked(idx int) {
	if f := c.slots[idx]; f != nil {
		c.memory -= f.Bytes()
		c.slots[idx] = nil
	}
}

func (c *Cache) windowLocked(current int) (int, int) {
	return Window(current, c.maxResident, len(c.assets))
}

// Window returns the half-open range [start, end) of indices kept around current.
func Window(current, maxResident, length int) (int, int) {
	start := current - maxResident/2
	if start < 0 {
		start = 0
	}
	end := start + maxResident
	if end > length {
		end = length
	}
	return start, end
}

// SetMaxResident changes the budget and evicts down to it.
func (c *Cache) SetMaxResident(n int) {
	if n < 1 {
		panic(fmt.Sprintf("cache: max resident frames must be >= 1, got %d", n))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxResident = n
	c.maintainWindowLocked(c.current)
}

// Clear drops every resident frame.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, idx := range c.resident {
		c.slots[idx] = nil
	}
	c.resident = c.resident[:0]
	c.memory = 0
}

func (c *Cache) IsResident(index int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return index >= 0 && index < len(c.slots) && c.slots[index] != nil
}

func (c *Cache) ResidentCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.resident)
}

func (c *Cache) MemoryUsageBytes() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.memory
}

// ResidentIndices returns a sorted copy of the resident frame indices.
func (c *Cache) ResidentIndices() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]int, len(c.resident))
	copy(out, c.resident)
	return out
}

func (c *Cache) MaxResident() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxResident
}

func (c *Cache) Current() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

func (c *Cache) Len() int {
	return len(c.assets)
}

// Asset returns the enumerated asset at index.
func (c *Cache) Asset(index int) (storage.FrameAsset, bool) {
	if index < 0 || index >= len(c.assets) {
		return storage.FrameAsset{}, false
	}
	return c.assets[index], true
}

func distance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
