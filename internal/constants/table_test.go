package constants

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableAppendAndSnapshot(t *testing.T) {
	t.Run("append returns the slot index", func(t *testing.T) {
		tbl := New()
		i0 := tbl.Append("a")
		i1 := tbl.Append("b")
		assert.Equal(t, 0, i0)
		assert.Equal(t, 1, i1)
		assert.Equal(t, 2, tbl.Len())
	})

	t.Run("snapshot reflects values at the time it was taken", func(t *testing.T) {
		tbl := New()
		tbl.Append("a")
		snap := tbl.Snapshot()
		assert.Equal(t, []any{"a"}, snap)

		tbl.Append("b")
		assert.Len(t, snap, 1, "earlier snapshot must not observe later appends")
		assert.Equal(t, []any{"a", "b"}, tbl.Snapshot())
	})

	t.Run("concurrent appends are safe", func(t *testing.T) {
		tbl := New()
		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func(v int) {
				defer wg.Done()
				tbl.Append(v)
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 100, tbl.Len())
	})
}

func TestWithRuntimeArgs(t *testing.T) {
	t.Run("appends a trailing slot without mutating the snapshot", func(t *testing.T) {
		tbl := New()
		tbl.Append("a")
		snap := tbl.Snapshot()

		args := []any{1, 2}
		withArgs := WithRuntimeArgs(snap, args)

		assert.Equal(t, []any{"a", args}, withArgs)
		assert.Equal(t, []any{"a"}, snap, "original snapshot must be untouched")
	})

	t.Run("two calls produce independent trailing slots", func(t *testing.T) {
		tbl := New()
		tbl.Append("a")
		snap := tbl.Snapshot()

		first := WithRuntimeArgs(snap, []any{1})
		second := WithRuntimeArgs(snap, []any{2})

		assert.Equal(t, []any{1}, first[1])
		assert.Equal(t, []any{2}, second[1])
	})
}
