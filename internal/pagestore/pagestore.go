// Package pagestore is the external collaborator the rest of the engine
// treats as a black box: a named byte file divided into fixed-size blocks.
// Block reads and writes go through the buffer pool only; the table and
// index layers call it directly just to create, open, close, grow and
// destroy files and to read the page count.
package pagestore

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// PageSize is the fixed block size, in bytes, for every page file. Spec §3
// fixes this at 4096 and it is not configurable.
const PageSize = 4096

var (
	// ErrFileNotFound is returned when opening a page file that does not exist.
	ErrFileNotFound = errors.New("pagestore: file not found")

	// ErrNoSuchPage is returned for a page number outside [0, totalNumPages).
	ErrNoSuchPage = errors.New("pagestore: no such page")

	// ErrWriteFailed wraps an underlying short or failed write.
	ErrWriteFailed = errors.New("pagestore: write failed")
)

// File is an open page file: an ordered, append-only-growing sequence of
// PageSize blocks with in-place rewrite of existing blocks.
type File struct {
	mu           sync.Mutex
	f            *os.File
	name         string
	totalNumPages int
	curPagePos   int
}

// CreatePageFile creates name with a single zero-filled block, truncating
// any existing file of the same name.
func CreatePageFile(name string) error {
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("pagestore: create %q: %w", name, err)
	}
	defer f.Close()

	zero := make([]byte, PageSize)
	if _, err := f.WriteAt(zero, 0); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}

// OpenPageFile opens an existing page file and populates its bookkeeping
// fields (fileName, totalNumPages, curPagePos=0).
func OpenPageFile(name string) (*File, error) {
	f, err := os.OpenFile(name, os.O_RDWR, 0o644)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("pagestore: open %q: %w", name, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("pagestore: stat %q: %w", name, err)
	}

	return &File{
		f:            f,
		name:         name,
		totalNumPages: int(info.Size() / PageSize),
		curPagePos:   0,
	}, nil
}

// ClosePageFile closes the underlying OS file.
func (pf *File) ClosePageFile() error {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	return pf.f.Close()
}

// DestroyPageFile removes the named file. It does not close any open File
// for that name.
func DestroyPageFile(name string) error {
	return os.Remove(name)
}

// TotalNumPages returns the current page count.
func (pf *File) TotalNumPages() int {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	return pf.totalNumPages
}

// Name returns the underlying file name.
func (pf *File) Name() string { return pf.name }

// ReadBlock reads pageNum into buf, which must be exactly PageSize bytes.
func (pf *File) ReadBlock(pageNum int, buf []byte) error {
	if len(buf) != PageSize {
		return fmt.Errorf("pagestore: buf must be %d bytes, got %d", PageSize, len(buf))
	}

	pf.mu.Lock()
	defer pf.mu.Unlock()

	if pageNum < 0 || pageNum >= pf.totalNumPages {
		return ErrNoSuchPage
	}

	off := int64(pageNum) * PageSize
	if _, err := pf.f.ReadAt(buf, off); err != nil && err != io.EOF {
		return fmt.Errorf("pagestore: read block %d: %w", pageNum, err)
	}
	pf.curPagePos = pageNum
	return nil
}

// WriteBlock rewrites pageNum in place with buf, which must be exactly
// PageSize bytes.
func (pf *File) WriteBlock(pageNum int, buf []byte) error {
	if len(buf) != PageSize {
		return fmt.Errorf("pagestore: buf must be %d bytes, got %d", PageSize, len(buf))
	}

	pf.mu.Lock()
	defer pf.mu.Unlock()

	if pageNum < 0 || pageNum >= pf.totalNumPages {
		return ErrNoSuchPage
	}

	off := int64(pageNum) * PageSize
	n, err := pf.f.WriteAt(buf, off)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if n != PageSize {
		return fmt.Errorf("%w: short write (%d of %d bytes)", ErrWriteFailed, n, PageSize)
	}
	pf.curPagePos = pageNum
	return nil
}

// AppendEmptyBlock grows the file by one zero-filled block and returns its
// page number.
func (pf *File) AppendEmptyBlock() (int, error) {
	pf.mu.Lock()
	defer pf.mu.Unlock()

	pageNum := pf.totalNumPages
	zero := make([]byte, PageSize)
	off := int64(pageNum) * PageSize
	if _, err := pf.f.WriteAt(zero, off); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	pf.totalNumPages++
	slog.Debug("pagestore: appended block", "file", pf.name, "pageNum", pageNum)
	return pageNum, nil
}

// EnsureCapacity appends empty blocks until totalNumPages >= n.
func (pf *File) EnsureCapacity(n int) error {
	for {
		pf.mu.Lock()
		short := pf.totalNumPages < n
		pf.mu.Unlock()
		if !short {
			return nil
		}
		if _, err := pf.AppendEmptyBlock(); err != nil {
			return err
		}
	}
}

// FirstBlockPos, LastBlockPos, NextBlockPos, PreviousBlockPos and
// CurrentBlockPos are positional helpers over curPagePos, mirroring the
// classic page-file cursor API; none of them perform I/O.

func (pf *File) CurrentBlockPos() int {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	return pf.curPagePos
}

func (pf *File) FirstBlockPos() int { return 0 }

func (pf *File) LastBlockPos() int {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	return pf.totalNumPages - 1
}

func (pf *File) NextBlockPos() int {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	return pf.curPagePos + 1
}

func (pf *File) PreviousBlockPos() int {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	return pf.curPagePos - 1
}
