// Copyright 2019 the Go-FUSE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableCreateGrowsAndKeepsIndicesStable(t *testing.T) {
	tbl := NewTable()

	var idxs []Idx
	var ptrs []*Inode
	for i := 0; i < 10; i++ {
		idx, n := tbl.Create(File)
		idxs = append(idxs, idx)
		ptrs = append(ptrs, n)
	}

	// Growth from 4 to 8 to 16 must have happened by now; every earlier
	// idx must still resolve to the same *Inode.
	for i, idx := range idxs {
		n, err := tbl.Get(idx)
		require.NoError(t, err)
		assert.Same(t, ptrs[i], n)
	}
}

func TestTableRemoveThenReuse(t *testing.T) {
	tbl := NewTable()
	idx, _ := tbl.Create(File)

	require.NoError(t, tbl.Remove(idx))
	_, err := tbl.Get(idx)
	assert.ErrorIs(t, err, ErrInvalidIdx)

	err = tbl.Remove(idx)
	assert.ErrorIs(t, err, ErrInvalidIdx)

	reused, _ := tbl.Create(Dir)
	assert.Equal(t, idx, reused)
}

func TestTableGetOutOfRange(t *testing.T) {
	tbl := NewTable()
	_, err := tbl.Get(42)
	assert.ErrorIs(t, err, ErrInvalidIdx)
}

func TestDirectoryAddSearchRemove(t *testing.T) {
	d := newDirectory()
	assert.True(t, d.IsEmpty())

	require.NoError(t, d.AddEntry(1, "a"))
	require.NoError(t, d.AddEntry(2, "b"))
	assert.False(t, d.IsEmpty())

	assert.Equal(t, Idx(1), d.SearchByName("a"))
	assert.Equal(t, NoIdx, d.SearchByName("missing"))

	var addErr *DirAddError
	err := d.AddEntry(3, "a")
	require.ErrorAs(t, err, &addErr)
	assert.Equal(t, DuplicateName, addErr.Kind)
	assert.Equal(t, Idx(1), addErr.ExistingIdx)

	err = d.AddEntry(4, "")
	require.ErrorAs(t, err, &addErr)
	assert.Equal(t, EmptyName, addErr.Kind)

	assert.True(t, d.RemoveEntry(1))
	assert.False(t, d.RemoveEntry(1))
	assert.Equal(t, NoIdx, d.SearchByName("a"))
}

func TestDirectoryGrowsPastInitialCapacity(t *testing.T) {
	d := newDirectory()
	for i := 0; i < 20; i++ {
		require.NoError(t, d.AddEntry(Idx(i), string(rune('a'+i))))
	}
	for i := 0; i < 20; i++ {
		assert.Equal(t, Idx(i), d.SearchByName(string(rune('a'+i))))
	}
}

func TestDirectoryRenameEntry(t *testing.T) {
	d := newDirectory()
	require.NoError(t, d.AddEntry(1, "a"))
	require.NoError(t, d.AddEntry(2, "b"))

	require.NoError(t, d.RenameEntry(1, "c"))
	assert.Equal(t, NoIdx, d.SearchByName("a"))
	assert.Equal(t, Idx(1), d.SearchByName("c"))

	err := d.RenameEntry(1, "b")
	require.Error(t, err)

	err = d.RenameEntry(99, "d")
	var renameErr *DirRenameError
	require.ErrorAs(t, err, &renameErr)
	assert.True(t, renameErr.NotFound)
}

func TestDirectoryNameTruncation(t *testing.T) {
	d := newDirectory()
	long := strings.Repeat("x", MaxName+50)
	require.NoError(t, d.AddEntry(1, long))

	truncated := long[:MaxName]
	assert.Equal(t, Idx(1), d.SearchByName(long))
	assert.Equal(t, Idx(1), d.SearchByName(truncated))
}
