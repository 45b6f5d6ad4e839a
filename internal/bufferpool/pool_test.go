package bufferpool

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riverdb/riverdb/internal/pagestore"
)

func newTestFile(t *testing.T, numPages int) *pagestore.File {
	t.Helper()
	name := filepath.Join(t.TempDir(), "t.page")
	require.NoError(t, pagestore.CreatePageFile(name))

	f, err := pagestore.OpenPageFile(name)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.ClosePageFile() })

	for f.TotalNumPages() < numPages {
		_, err := f.AppendEmptyBlock()
		require.NoError(t, err)
	}
	return f
}

// TestScenarioA_FIFO_Eviction follows spec §8 Scenario A: FIFO, F=3,
// pin(1..3), unpin(1..3), pin(4) should evict the frame holding page 1.
func TestScenarioA_FIFO_Eviction(t *testing.T) {
	f := newTestFile(t, 5)
	p, err := Init(f, 3, FIFO)
	require.NoError(t, err)

	h1, err := p.Pin(1)
	require.NoError(t, err)
	h2, err := p.Pin(2)
	require.NoError(t, err)
	h3, err := p.Pin(3)
	require.NoError(t, err)

	require.NoError(t, p.Unpin(h1))
	require.NoError(t, p.Unpin(h2))
	require.NoError(t, p.Unpin(h3))

	_, err = p.Pin(4)
	require.NoError(t, err)

	contents := p.GetFrameContents()
	require.ElementsMatch(t, []int{4, 2, 3}, contents)
	require.EqualValues(t, 4, p.GetNumReadIO())
	require.EqualValues(t, 0, p.GetNumWriteIO())
}

// TestScenarioB_DirtyEviction follows spec §8 Scenario B.
func TestScenarioB_DirtyEviction(t *testing.T) {
	f := newTestFile(t, 5)
	p, err := Init(f, 3, FIFO)
	require.NoError(t, err)

	h1, err := p.Pin(1)
	require.NoError(t, err)
	h2, err := p.Pin(2)
	require.NoError(t, err)
	h3, err := p.Pin(3)
	require.NoError(t, err)

	copy(h1.Data(), []byte("modified page 1 bytes"))
	require.NoError(t, p.MarkDirty(h1))

	require.NoError(t, p.Unpin(h1))
	require.NoError(t, p.Unpin(h2))
	require.NoError(t, p.Unpin(h3))

	_, err = p.Pin(4)
	require.NoError(t, err)

	require.EqualValues(t, 1, p.GetNumWriteIO())
	require.ElementsMatch(t, []int{4, 2, 3}, p.GetFrameContents())

	buf := make([]byte, pagestore.PageSize)
	require.NoError(t, f.ReadBlock(1, buf))
	require.Equal(t, "modified page 1 bytes", string(buf[:len("modified page 1 bytes")]))
}

func TestPin_F1_SecondDifferentPage_NoVictim(t *testing.T) {
	f := newTestFile(t, 5)
	p, err := Init(f, 1, FIFO)
	require.NoError(t, err)

	_, err = p.Pin(1)
	require.NoError(t, err)

	_, err = p.Pin(2)
	require.ErrorIs(t, err, ErrNoVictimAvailable)
}

func TestInit_InvalidFrameCount(t *testing.T) {
	f := newTestFile(t, 1)
	_, err := Init(f, 0, FIFO)
	require.Error(t, err)
}

func TestShutdown_RequiresAllUnpinned(t *testing.T) {
	f := newTestFile(t, 2)
	p, err := Init(f, 2, LRU)
	require.NoError(t, err)

	_, err = p.Pin(0)
	require.NoError(t, err)

	err = p.Shutdown()
	require.ErrorIs(t, err, ErrStillPinned)
}

func TestLRU_VictimIsLeastRecentlyUsed(t *testing.T) {
	f := newTestFile(t, 5)
	p, err := Init(f, 2, LRU)
	require.NoError(t, err)

	h1, err := p.Pin(1)
	require.NoError(t, err)
	h2, err := p.Pin(2)
	require.NoError(t, err)

	require.NoError(t, p.Unpin(h1))
	require.NoError(t, p.Unpin(h2))

	// Re-pin page 1 to make it more recently used than page 2.
	h1b, err := p.Pin(1)
	require.NoError(t, err)
	require.NoError(t, p.Unpin(h1b))

	// Pinning a third page should evict page 2 (least recently used), not 1.
	_, err = p.Pin(3)
	require.NoError(t, err)

	require.ElementsMatch(t, []int{1, 3}, p.GetFrameContents())
}

func TestForcePageNoOpWhenClean(t *testing.T) {
	f := newTestFile(t, 2)
	p, err := Init(f, 2, FIFO)
	require.NoError(t, err)

	h, err := p.Pin(0)
	require.NoError(t, err)

	require.NoError(t, p.ForcePage(h))
	require.EqualValues(t, 0, p.GetNumWriteIO())
}

func TestForceFlushIdempotent(t *testing.T) {
	f := newTestFile(t, 2)
	p, err := Init(f, 2, FIFO)
	require.NoError(t, err)

	h, err := p.Pin(0)
	require.NoError(t, err)
	require.NoError(t, p.MarkDirty(h))
	require.NoError(t, p.Unpin(h))

	require.NoError(t, p.ForceFlush())
	require.EqualValues(t, 1, p.GetNumWriteIO())

	// A second flush with nothing dirty performs zero additional writes.
	require.NoError(t, p.ForceFlush())
	require.EqualValues(t, 1, p.GetNumWriteIO())
}

func TestUnpinAlreadyZeroIsIdempotent(t *testing.T) {
	f := newTestFile(t, 1)
	p, err := Init(f, 1, FIFO)
	require.NoError(t, err)

	h, err := p.Pin(0)
	require.NoError(t, err)
	require.NoError(t, p.Unpin(h))
	require.NoError(t, p.Unpin(h))
}

func TestMarkDirtyNonResidentFails(t *testing.T) {
	f := newTestFile(t, 1)
	p, err := Init(f, 1, FIFO)
	require.NoError(t, err)

	err = p.MarkDirty(PageHandle{PageNum: 99, pool: p})
	require.ErrorIs(t, err, ErrPageNotInPool)
}
