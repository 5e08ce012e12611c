// Copyright 2019 the Go-FUSE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package inode implements the tagged inode union, its growable
// index-stable table, and the directory payload that the fs package's
// locking protocol operates on.
package inode

import "github.com/hanwen/tfs/rwlock"

// MaxName bounds the length, in bytes, of a single directory entry name.
// Names supplied to AddEntry/RenameEntry that exceed this length are
// truncated rather than rejected (see DESIGN.md's resolution of the
// corresponding open question).
const MaxName = 100

// Idx is a stable handle into an InodeTable. It remains valid, referring to
// the same logical inode, for as long as that inode exists, regardless of
// how many times the table's backing store grows.
type Idx int

// NoIdx is the sentinel value meaning "no inode": an empty directory
// entry, or the result of a failed lookup.
const NoIdx Idx = -1

// Type tags the variant an Inode currently holds.
type Type int

const (
	// None marks a free table slot.
	None Type = iota
	// File is a regular file; its payload is an optional byte buffer.
	File
	// Dir is a directory; its payload is a set of name/Idx entries.
	Dir
)

func (t Type) String() string {
	switch t {
	case File:
		return "File"
	case Dir:
		return "Dir"
	default:
		return "None"
	}
}

// FilePayload is the contents of a File inode.
type FilePayload struct {
	Contents []byte
}

// Inode is one slot of an InodeTable: a tagged union of None/File/Dir plus
// the RWLock that guards mutation of its own payload. The None variant's
// lock is allocated but never meaningfully contended.
type Inode struct {
	Idx  Idx
	Lock *rwlock.RWLock

	typ  Type
	file *FilePayload
	dir  *Directory
}

func newFreeSlot(idx Idx) *Inode {
	return &Inode{Idx: idx, Lock: rwlock.New(), typ: None}
}

// Type returns the inode's current tag. Callers that need this to be
// stable across the call must already hold the inode's Lock.
func (n *Inode) Type() Type {
	return n.typ
}

// File returns the inode's file payload, or nil if it is not a File.
func (n *Inode) File() *FilePayload {
	return n.file
}

// Dir returns the inode's directory payload, or nil if it is not a Dir.
func (n *Inode) Dir() *Directory {
	return n.dir
}

// reset overwrites a free slot with a fresh inode of the given type. The
// caller (Table.Create) must hold the table's structural lock and
// must only call this on a slot nobody else can presently observe.
func (n *Inode) reset(typ Type) {
	n.typ = typ
	n.file = nil
	n.dir = nil
	switch typ {
	case File:
		n.file = &FilePayload{}
	case Dir:
		n.dir = newDirectory()
	}
}

// free tears down the slot's payload and marks it None, ready for reuse.
func (n *Inode) free() {
	n.typ = None
	n.file = nil
	n.dir = nil
}
