package app

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobRegistry_TryStartRejectsDuplicate(t *testing.T) {
	r := NewJobRegistry()

	assert.True(t, r.TryStart("build-1"))
	assert.False(t, r.TryStart("build-1"))
	assert.Equal(t, 1, r.Len())
	assert.True(t, r.IsActive("build-1"))
}

func TestJobRegistry_IDReusableAfterFinish(t *testing.T) {
	r := NewJobRegistry()

	require.True(t, r.TryStart("build-1"))
	r.Finish("build-1")
	assert.False(t, r.IsActive("build-1"))
	assert.True(t, r.TryStart("build-1"))
}

func TestJobRegistry_FinishIsIdempotent(t *testing.T) {
	r := NewJobRegistry()

	assert.NotPanics(t, func() {
		r.Finish("missing")
		r.Finish("missing")
	})
	assert.Equal(t, 0, r.Len())
}

func TestJobRegistry_Cancel(t *testing.T) {
	r := NewJobRegistry()
	require.True(t, r.TryStart("build-1"))

	assert.True(t, r.Cancel("build-1"))
	assert.False(t, r.Cancel("build-1"))
	assert.False(t, r.IsActive("build-1"))
}

func TestJobRegistry_List(t *testing.T) {
	r := NewJobRegistry()
	r.TryStart("b")
	r.TryStart("a")

	assert.Equal(t, []string{"a", "b"}, r.List())
}

func TestLease_ActiveUntilCancelled(t *testing.T) {
	r := NewJobRegistry()
	lease, ok := r.Acquire("build-1")
	require.True(t, ok)
	assert.Equal(t, "build-1", lease.ID())

	assert.True(t, lease.Active())
	r.Cancel("build-1")
	assert.False(t, lease.Active())
}

func TestLease_StaleReleaseKeepsNewAdmission(t *testing.T) {
	r := NewJobRegistry()
	first, ok := r.Acquire("build-1")
	require.True(t, ok)

	r.Cancel("build-1")
	second, ok := r.Acquire("build-1")
	require.True(t, ok)

	first.Release()

	assert.False(t, first.Active())
	assert.True(t, second.Active())
	assert.True(t, r.IsActive("build-1"))

	second.Release()
	assert.False(t, r.IsActive("build-1"))
}

func TestLease_ReleaseOnce(t *testing.T) {
	r := NewJobRegistry()
	lease, ok := r.Acquire("build-1")
	require.True(t, ok)

	lease.Release()
	require.True(t, r.TryStart("build-1"))
	lease.Release()

	assert.True(t, r.IsActive("build-1"))
}

func TestJobRegistry_ConcurrentAdmission(t *testing.T) {
	r := NewJobRegistry()
	var admitted atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.TryStart("shared") {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), admitted.Load())
}

func TestRegistries_Independent(t *testing.T) {
	regs := NewRegistries()

	require.True(t, regs.Downloads.TryStart("build-1"))
	assert.True(t, regs.Extractions.TryStart("build-1"))

	regs.Downloads.Cancel("build-1")
	assert.True(t, regs.Extractions.IsActive("build-1"))
}

func TestJobRegistry_ManyIDs(t *testing.T) {
	r := NewJobRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lease, ok := r.Acquire(fmt.Sprintf("job-%d", i))
			if ok {
				lease.Release()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, r.Len())
}
