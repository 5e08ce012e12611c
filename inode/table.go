// Copyright 2019 the Go-FUSE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inode

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/hanwen/tfs/rwlock"
)

// ErrInvalidIdx is returned by Get/Remove for an out-of-range idx or one
// that currently names a free (None) slot. It is an internal error kind:
// the fs package never surfaces it to users directly, translating it into
// the richer FindError/RemoveError taxonomy instead.
var ErrInvalidIdx = errors.New("inode: invalid idx")

// Table is a growable, index-stable container of Inodes. It is
// implemented as a vector of pointers rather than a vector of values, so
// that *Inode identity, and therefore every payload borrow into it, is
// never invalidated by a later table growth, satisfying the index
// stability invariant across Create calls that reallocate the backing
// slice.
type Table struct {
	mu    sync.RWMutex
	slots []*Inode
}

// NewTable returns an empty table with no root. The fs package constructs
// the root separately by calling Create once.
func NewTable() *Table {
	return &Table{}
}

// Create finds the first free slot, or grows the table (doubling capacity
// from 4) if none exists, and overwrites it with a fresh inode of typ.
// It never fails: allocation failure is fatal to the process, as for any
// other Go allocation.
func (t *Table) Create(typ Type) (Idx, *Inode) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, n := range t.slots {
		if n.typ == None {
			n.reset(typ)
			return n.Idx, n
		}
	}

	oldLen := len(t.slots)
	newLen := 4
	if oldLen > 0 {
		newLen = oldLen * 2
	}
	grown := make([]*Inode, newLen)
	copy(grown, t.slots)
	for i := oldLen; i < newLen; i++ {
		grown[i] = newFreeSlot(Idx(i))
	}
	t.slots = grown

	n := t.slots[oldLen]
	n.reset(typ)
	return n.Idx, n
}

// Remove destroys the slot's payload and marks it free. It returns
// ErrInvalidIdx for an out-of-range idx or an already-free slot.
func (t *Table) Remove(idx Idx) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.validLocked(idx) {
		return ErrInvalidIdx
	}
	t.slots[idx].free()
	return nil
}

// At resolves idx to its *Inode without checking liveness. Used
// internally once a directory entry has already confirmed the idx is
// live, to avoid re-taking the table lock on every hand-over-hand step.
func (t *Table) At(idx Idx) (*Inode, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if idx < 0 || int(idx) >= len(t.slots) {
		return nil, false
	}
	return t.slots[idx], true
}

// Get returns the inode at idx, or ErrInvalidIdx if idx is out of range or
// names a free slot.
func (t *Table) Get(idx Idx) (*Inode, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.validLocked(idx) {
		return nil, ErrInvalidIdx
	}
	return t.slots[idx], nil
}

func (t *Table) validLocked(idx Idx) bool {
	return idx >= 0 && int(idx) < len(t.slots) && t.slots[idx].typ != None
}

// PrintTree recursively prints the subtree rooted at idx to out, one line
// per entry, as prefix+"/"+name. It takes a Shared lock on each directory
// it enumerates, released before recursing into children, so the result is
// consistent per subtree but not globally serializable with concurrent
// mutation of the whole tree, a deliberate choice to keep printing cheap
// (see the fs package's Print for the rest of this contract).
func (t *Table) PrintTree(out io.Writer, idx Idx, prefix string) error {
	n, ok := t.At(idx)
	if !ok {
		return ErrInvalidIdx
	}

	n.Lock.Lock(rwlock.Shared)
	entries := []DirEntry(nil)
	if n.typ == Dir {
		entries = n.dir.Entries()
	}
	n.Lock.Unlock()

	for _, e := range entries {
		p := prefix + "/" + e.Name
		if _, err := fmt.Fprintln(out, p); err != nil {
			return err
		}
		if err := t.PrintTree(out, e.Idx, p); err != nil {
			return err
		}
	}
	return nil
}
