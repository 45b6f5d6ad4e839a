// Package bufferpool implements the fixed-frame buffer pool that mediates
// every page read and write between the record manager / B+-tree layers and
// the page store. It supports FIFO and LRU replacement and enforces the
// pin/unpin/dirty bookkeeping invariants the rest of the engine relies on.
package bufferpool

import (
	"errors"
	"fmt"
	"log/slog"

	"go.uber.org/multierr"

	"github.com/riverdb/riverdb/internal/dberr"
	"github.com/riverdb/riverdb/internal/pagestore"
)

// Policy selects the replacement policy a Pool uses when every frame is
// occupied and a new page must be loaded.
type Policy int

const (
	FIFO Policy = iota
	LRU
)

var (
	// ErrStillPinned is returned by Shutdown if any frame has a positive pin
	// count.
	ErrStillPinned = errors.New("bufferpool: frame still pinned at shutdown")

	// ErrPageNotInPool is returned by MarkDirty/ForcePage/Unpin for a page
	// that is not currently resident in the pool.
	ErrPageNotInPool = errors.New("bufferpool: page not resident")

	// ErrNoVictimAvailable is returned by Pin when every frame is pinned and
	// none can be reclaimed.
	ErrNoVictimAvailable = errors.New("bufferpool: no victim available, all frames pinned")
)

// frame is one entry in the pool: the page it currently holds (if any), its
// data buffer, pin count, dirty flag and policy bookkeeping.
type frame struct {
	occupied bool
	pageNum  int
	data     []byte
	pin      int
	dirty    bool

	// loadSeq is set when a page is loaded into this frame; FIFO picks the
	// occupied, unpinned frame with the smallest loadSeq as its victim.
	loadSeq uint64

	// recency is refreshed on every Pin; LRU picks the occupied, unpinned
	// frame with the smallest recency as its victim.
	recency uint64
}

// Pool is a fixed-size array of frames bound to exactly one page file.
type Pool struct {
	file   *pagestore.File
	policy Policy

	frames    []frame
	pageTable map[int]int // pageNum -> frame index

	readIO  uint64
	writeIO uint64

	seqCounter uint64
}

// Init allocates frameCount empty frames bound to file and resets the I/O
// counters. Fails with a wrapped dberr.ErrInvalidArgument when frameCount<=0.
func Init(file *pagestore.File, frameCount int, policy Policy) (*Pool, error) {
	if frameCount <= 0 {
		return nil, fmt.Errorf("%w: frame count must be positive, got %d", dberr.ErrInvalidArgument, frameCount)
	}

	p := &Pool{
		file:      file,
		policy:    policy,
		frames:    make([]frame, frameCount),
		pageTable: make(map[int]int, frameCount),
	}
	return p, nil
}

// Shutdown requires every pin count to be zero, forces every dirty frame to
// disk and releases the pool. It is best-effort: a failure flushing one
// frame does not stop it from attempting the rest, and every failure is
// reported via a combined error.
func (p *Pool) Shutdown() error {
	for i := range p.frames {
		if p.frames[i].occupied && p.frames[i].pin > 0 {
			return fmt.Errorf("%w: frame %d holds page %d with pin=%d", ErrStillPinned, i, p.frames[i].pageNum, p.frames[i].pin)
		}
	}

	var errs error
	for i := range p.frames {
		f := &p.frames[i]
		if !f.occupied || !f.dirty {
			continue
		}
		if err := p.writeBack(f); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("frame %d (page %d): %w", i, f.pageNum, err))
			continue
		}
		f.dirty = false
	}

	p.frames = nil
	p.pageTable = nil
	return errs
}

// PageHandle is the client view of a pinned page: a page number and a
// pointer into the owning frame's data buffer. It is valid only while the
// frame remains pinned.
type PageHandle struct {
	PageNum  int
	frameIdx int
	pool     *Pool
}

// Data returns the frame's PageSize-byte buffer. Callers must not retain the
// slice after Unpin.
func (h PageHandle) Data() []byte {
	return h.pool.frames[h.frameIdx].data
}

// Pin produces a handle over a frame holding pageNum, pinning it and loading
// it from disk first if necessary.
func (p *Pool) Pin(pageNum int) (PageHandle, error) {
	if idx, ok := p.pageTable[pageNum]; ok {
		f := &p.frames[idx]
		f.pin++
		p.seqCounter++
		f.recency = p.seqCounter
		return PageHandle{PageNum: pageNum, frameIdx: idx, pool: p}, nil
	}

	victimIdx := -1
	for i := range p.frames {
		if !p.frames[i].occupied {
			victimIdx = i
			break
		}
	}
	if victimIdx == -1 {
		var err error
		victimIdx, err = p.pickVictim()
		if err != nil {
			return PageHandle{}, err
		}

		victim := &p.frames[victimIdx]
		if victim.dirty {
			if err := p.writeBack(victim); err != nil {
				return PageHandle{}, fmt.Errorf("%w: %v", dberr.ErrIoFailure, err)
			}
		}
		delete(p.pageTable, victim.pageNum)
	}

	f := &p.frames[victimIdx]
	if f.data == nil {
		f.data = make([]byte, pagestore.PageSize)
	}
	if err := p.file.ReadBlock(pageNum, f.data); err != nil {
		return PageHandle{}, fmt.Errorf("%w: %v", dberr.ErrIoFailure, err)
	}
	p.readIO++

	p.seqCounter++
	*f = frame{
		occupied: true,
		pageNum:  pageNum,
		data:     f.data,
		pin:      1,
		dirty:    false,
		loadSeq:  p.seqCounter,
		recency:  p.seqCounter,
	}
	p.pageTable[pageNum] = victimIdx

	slog.Debug("bufferpool: pin loaded page", "pageNum", pageNum, "frame", victimIdx)
	return PageHandle{PageNum: pageNum, frameIdx: victimIdx, pool: p}, nil
}

// pickVictim selects an occupied, unpinned frame by policy. Ties are broken
// by lowest frame index.
func (p *Pool) pickVictim() (int, error) {
	best := -1
	for i := range p.frames {
		f := &p.frames[i]
		if !f.occupied || f.pin > 0 {
			continue
		}
		if best == -1 {
			best = i
			continue
		}
		switch p.policy {
		case FIFO:
			if f.loadSeq < p.frames[best].loadSeq {
				best = i
			}
		case LRU:
			if f.recency < p.frames[best].recency {
				best = i
			}
		}
	}
	if best == -1 {
		return -1, ErrNoVictimAvailable
	}
	return best, nil
}

func (p *Pool) writeBack(f *frame) error {
	if err := p.file.WriteBlock(f.pageNum, f.data); err != nil {
		return err
	}
	p.writeIO++
	return nil
}

// Unpin decrements the pin count of the frame holding the handle's page.
// Unpinning an already-zero-pin frame is an idempotent success (spec §9
// open question 1; this implementation picks that branch since a caller
// racing its own cleanup code should not have to track whether it already
// unpinned).
func (p *Pool) Unpin(h PageHandle) error {
	idx, ok := p.pageTable[h.PageNum]
	if !ok {
		return fmt.Errorf("%w: page %d", ErrPageNotInPool, h.PageNum)
	}
	f := &p.frames[idx]
	if f.pin > 0 {
		f.pin--
	}
	return nil
}

// MarkDirty sets the dirty flag of the frame holding the handle's page. It
// is idempotent.
func (p *Pool) MarkDirty(h PageHandle) error {
	idx, ok := p.pageTable[h.PageNum]
	if !ok {
		return fmt.Errorf("%w: page %d", ErrPageNotInPool, h.PageNum)
	}
	p.frames[idx].dirty = true
	return nil
}

// ForcePage writes the handle's page through to disk if dirty, clearing the
// dirty flag. Resident-clean is a no-op success (spec §9 open question 3).
func (p *Pool) ForcePage(h PageHandle) error {
	idx, ok := p.pageTable[h.PageNum]
	if !ok {
		return fmt.Errorf("%w: page %d", ErrPageNotInPool, h.PageNum)
	}
	f := &p.frames[idx]
	if !f.dirty {
		return nil
	}
	if err := p.writeBack(f); err != nil {
		return fmt.Errorf("%w: %v", dberr.ErrIoFailure, err)
	}
	f.dirty = false
	return nil
}

// ForceFlush forces every resident, unpinned, dirty frame to disk. Pinned
// dirty frames are left alone. Best-effort: every per-frame failure is
// collected and the call continues to the next frame (mirrors the Shutdown
// policy documented there).
func (p *Pool) ForceFlush() error {
	var errs error
	for i := range p.frames {
		f := &p.frames[i]
		if !f.occupied || f.pin > 0 || !f.dirty {
			continue
		}
		if err := p.writeBack(f); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("frame %d (page %d): %w", i, f.pageNum, err))
			continue
		}
		f.dirty = false
	}
	return errs
}

// GetFrameContents returns, per frame index, the page number held or -1 if
// the frame is empty.
func (p *Pool) GetFrameContents() []int {
	out := make([]int, len(p.frames))
	for i, f := range p.frames {
		if f.occupied {
			out[i] = f.pageNum
		} else {
			out[i] = -1
		}
	}
	return out
}

// GetDirtyFlags returns, per frame index, whether the frame is dirty.
func (p *Pool) GetDirtyFlags() []bool {
	out := make([]bool, len(p.frames))
	for i, f := range p.frames {
		out[i] = f.dirty
	}
	return out
}

// GetFixCounts returns, per frame index, the current pin count.
func (p *Pool) GetFixCounts() []int {
	out := make([]int, len(p.frames))
	for i, f := range p.frames {
		out[i] = f.pin
	}
	return out
}

// GetNumReadIO returns the number of page reads since Init.
func (p *Pool) GetNumReadIO() uint64 { return p.readIO }

// GetNumWriteIO returns the number of page writes since Init.
func (p *Pool) GetNumWriteIO() uint64 { return p.writeIO }

// FrameCount returns the fixed number of frames the pool was created with.
func (p *Pool) FrameCount() int { return len(p.frames) }
