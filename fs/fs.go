// Copyright 2019 the Go-FUSE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fs implements the concurrent namespace engine: the hand-over-hand
// path-resolution algorithm and the locking protocol on top of the inode
// package's table and directory types. It is the component every hard
// invariant of the system lives in: index stability across table growth,
// the "return a still-locked inode to the caller" contract, and the
// multi-parent lock ordering move needs to stay safe under concurrent
// mutation of overlapping paths.
package fs

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/hanwen/tfs/inode"
	"github.com/hanwen/tfs/path"
	"github.com/hanwen/tfs/rwlock"
)

// RootIdx is the inode index of the namespace root, fixed at construction
// and never removable.
const RootIdx inode.Idx = 0

// MoveStrategy selects how Move avoids deadlocking on a concurrent inverse
// move across two distinct parent directories.
type MoveStrategy int

const (
	// MoveAncestorLocked holds the common ancestor's Unique lock for the
	// whole two-parent move, serializing conflicting moves at the
	// ancestor. This is the recommended default: simpler, and correct
	// because nothing can even traverse into the subtree while the
	// ancestor is held Unique.
	MoveAncestorLocked MoveStrategy = iota
	// MoveTryLockOrdered releases the ancestor once both parents are
	// individually pinned, acquiring them in a fixed global order (lower
	// Idx first) with a non-blocking try on the second and a full
	// restart-from-the-ancestor on failure. A move in which one parent is
	// the common ancestor itself takes the MoveAncestorLocked path.
	MoveTryLockOrdered
)

// Option configures a Fs at construction.
type Option func(*Fs)

// WithMoveStrategy overrides the default two-parent move strategy.
func WithMoveStrategy(s MoveStrategy) Option {
	return func(f *Fs) { f.moveStrategy = s }
}

// Fs is the namespace engine: an inode table plus the locking protocol
// described in this package's doc comment. The zero value is not usable;
// construct with New.
type Fs struct {
	table        *inode.Table
	moveStrategy MoveStrategy
}

// New constructs a namespace with a freshly created, indestructible root
// directory at RootIdx.
func New(opts ...Option) *Fs {
	f := &Fs{table: inode.NewTable()}
	for _, o := range opts {
		o(f)
	}

	idx, _ := f.table.Create(inode.Dir)
	if idx != RootIdx {
		// The table is empty at this point; Create must land the very
		// first allocation at index 0. If it doesn't, the table
		// implementation violated its own contract.
		panic("fs: root inode did not land at index 0")
	}
	return f
}

// LockedInode is a handle to an inode whose RWLock is held by the calling
// goroutine, returned by Create/Find/Move. It must be released via
// Fs.UnlockInode exactly once.
type LockedInode struct {
	Idx  inode.Idx
	Type inode.Type
	node *inode.Inode
}

// File returns the locked inode's file payload, or nil if it is not a
// File. Valid only while the lock is held.
func (l LockedInode) File() *inode.FilePayload {
	return l.node.File()
}

// Dir returns the locked inode's directory payload, or nil if it is not a
// Dir. Valid only while the lock is held.
func (l LockedInode) Dir() *inode.Directory {
	return l.node.Dir()
}

func newLocked(n *inode.Inode) LockedInode {
	return LockedInode{Idx: n.Idx, Type: n.Type(), node: n}
}

// UnlockInode releases the lock on idx previously returned by Create, Find,
// or Move. Calling it for an idx the caller does not hold locked, or more
// than once, is the same undefined behavior as unlocking an RWLock nobody
// holds (see the rwlock package).
func (f *Fs) UnlockInode(idx inode.Idx) {
	n, ok := f.table.At(idx)
	if !ok {
		return
	}
	n.Lock.Unlock()
}

// Find resolves path and returns it locked in access.
func (f *Fs) Find(p path.Path, access rwlock.Access) (LockedInode, error) {
	n, err := f.findLocked(p, access)
	if err != nil {
		return LockedInode{}, err
	}
	return newLocked(n), nil
}

// findLocked is the hand-over-hand resolution primitive shared by Find,
// Create, Remove, and Move. It returns the target inode locked in
// finalAccess, or an error with every intermediate lock already released.
func (f *Fs) findLocked(p path.Path, finalAccess rwlock.Access) (*inode.Inode, error) {
	root, ok := f.table.At(RootIdx)
	if !ok {
		panic("fs: root inode missing from table")
	}

	access := rwlock.Shared
	if p.IsEmpty() {
		access = finalAccess
	}
	root.Lock.Lock(access)

	return f.walkLocked(root, p, finalAccess, "")
}

// walkLocked continues hand-over-hand resolution starting from cur, which
// the caller has already locked appropriately for the first step of
// remaining. Every step locks the child before releasing the parent, so at
// all times at least one lock on the traversal frontier is held.
func (f *Fs) walkLocked(cur *inode.Inode, remaining path.Path, finalAccess rwlock.Access, walked string) (*inode.Inode, error) {
	for {
		if remaining.IsEmpty() {
			return cur, nil
		}

		if cur.Type() != inode.Dir {
			cur.Lock.Unlock()
			return nil, &FindError{Kind: ParentsNotDir, Prefix: walked}
		}

		var name path.Path
		name, remaining = path.SplitFirst(remaining)
		walked = joinPrefix(walked, name.String())

		childIdx := cur.Dir().SearchByName(name.String())
		if childIdx == inode.NoIdx {
			cur.Lock.Unlock()
			return nil, &FindError{Kind: NameNotFound, Prefix: walked}
		}

		child, ok := f.table.At(childIdx)
		if !ok {
			cur.Lock.Unlock()
			return nil, &FindError{Kind: NameNotFound, Prefix: walked}
		}

		childAccess := rwlock.Shared
		if remaining.IsEmpty() {
			childAccess = finalAccess
		}
		child.Lock.Lock(childAccess)
		cur.Lock.Unlock()
		cur = child
	}
}

func joinPrefix(walked, component string) string {
	if walked == "" {
		return component
	}
	return walked + "/" + component
}

// Create allocates a new inode of typ and links it into path's parent
// directory under path's final component, returning it locked Unique.
func (f *Fs) Create(p path.Path, typ inode.Type) (LockedInode, error) {
	parentPath, name := path.SplitLast(p)
	nameStr := name.String()

	parent, err := f.findLocked(parentPath, rwlock.Unique)
	if err != nil {
		return LockedInode{}, &CreateError{Kind: CreateInexistentParentDir, Parent: parentPath.String(), Find: err.(*FindError)}
	}
	if parent.Type() != inode.Dir {
		parent.Lock.Unlock()
		return LockedInode{}, &CreateError{Kind: CreateParentNotDir, Parent: parentPath.String()}
	}

	newIdx, newNode := f.table.Create(typ)

	if addErr := parent.Dir().AddEntry(newIdx, nameStr); addErr != nil {
		// The table never fails to remove a slot it just created.
		_ = f.table.Remove(newIdx)
		parent.Lock.Unlock()
		return LockedInode{}, &CreateError{Kind: CreateAddEntry, Parent: parentPath.String(), Add: addErr}
	}

	newNode.Lock.Lock(rwlock.Unique)
	parent.Lock.Unlock()
	return newLocked(newNode), nil
}

// Remove unlinks and destroys the inode at path. It fails RemoveNonEmptyDir
// without modifying anything if path names a non-empty directory.
func (f *Fs) Remove(p path.Path) error {
	parentPath, name := path.SplitLast(p)
	nameStr := name.String()

	parent, err := f.findLocked(parentPath, rwlock.Unique)
	if err != nil {
		return &RemoveError{Kind: RemoveInexistentParentDir, Parent: parentPath.String(), Find: err.(*FindError)}
	}
	if parent.Type() != inode.Dir {
		parent.Lock.Unlock()
		return &RemoveError{Kind: RemoveParentNotDir, Parent: parentPath.String()}
	}

	targetIdx := parent.Dir().SearchByName(nameStr)
	if targetIdx == inode.NoIdx {
		parent.Lock.Unlock()
		return &RemoveError{Kind: RemoveNameNotFound, Name: nameStr}
	}

	target, ok := f.table.At(targetIdx)
	if !ok {
		parent.Lock.Unlock()
		return &RemoveError{Kind: RemoveNameNotFound, Name: nameStr}
	}

	target.Lock.Lock(rwlock.Unique)
	if target.Type() == inode.Dir && !target.Dir().IsEmpty() {
		target.Lock.Unlock()
		parent.Lock.Unlock()
		return &RemoveError{Kind: RemoveNonEmptyDir, Name: nameStr}
	}

	parent.Dir().RemoveEntry(targetIdx)
	_ = f.table.Remove(targetIdx)
	target.Lock.Unlock()
	parent.Lock.Unlock()
	return nil
}

// Move relocates the inode at src to dst, returning it locked in access.
// See moveSameParent and moveTwoParentsAncestorLocked/moveTwoParentsTryLock
// for the cases the hand-over-hand protocol splits into.
func (f *Fs) Move(src, dst path.Path, access rwlock.Access) (LockedInode, error) {
	prefix, srcRest, dstRest := path.CommonAncestor(src, dst)

	if srcRest.IsEmpty() {
		// Nothing has been locked yet, so there is nothing to release.
		return LockedInode{}, &MoveError{Kind: MoveOriginDestinationParent}
	}
	if dstRest.IsEmpty() {
		return LockedInode{}, &MoveError{Kind: MoveDestinationOriginParent}
	}

	srcParentRel, srcName := path.SplitLast(srcRest)
	dstParentRel, dstName := path.SplitLast(dstRest)

	if f.moveStrategy == MoveTryLockOrdered && !srcParentRel.IsEmpty() && !dstParentRel.IsEmpty() {
		return f.moveTwoParentsTryLock(prefix, srcParentRel, srcName.String(), dstParentRel, dstName.String(), access)
	}

	ancestor, err := f.findLocked(prefix, rwlock.Unique)
	if err != nil {
		return LockedInode{}, &MoveError{Kind: MoveInexistentCommonAncestor, Find: err.(*FindError)}
	}
	if ancestor.Type() != inode.Dir {
		ancestor.Lock.Unlock()
		return LockedInode{}, &MoveError{Kind: MoveCommonAncestorNotDir}
	}

	if srcParentRel.IsEmpty() && dstParentRel.IsEmpty() {
		return f.moveSameParent(ancestor, srcName.String(), dstName.String(), access)
	}
	return f.moveTwoParentsAncestorLocked(ancestor, srcParentRel, srcName.String(), dstParentRel, dstName.String(), access)
}

// moveSameParent handles the rename fast path: source and destination
// differ only in their final component under a shared, already-Unique-
// locked ancestor.
func (f *Fs) moveSameParent(ancestor *inode.Inode, srcName, dstName string, access rwlock.Access) (LockedInode, error) {
	idx := ancestor.Dir().SearchByName(srcName)
	if idx == inode.NoIdx {
		ancestor.Lock.Unlock()
		return LockedInode{}, &MoveError{Kind: MoveOriginNotFound}
	}

	if err := ancestor.Dir().RenameEntry(idx, dstName); err != nil {
		ancestor.Lock.Unlock()
		return LockedInode{}, &MoveError{Kind: MoveRenameEntry, Rename: err}
	}

	moved, ok := f.table.At(idx)
	if !ok {
		ancestor.Lock.Unlock()
		return LockedInode{}, &MoveError{Kind: MoveOriginNotFound}
	}

	moved.Lock.Lock(access)
	ancestor.Lock.Unlock()
	return newLocked(moved), nil
}

// resolveDirInSubtree walks rel starting at start without taking any
// additional locks, relying on the caller already holding exclusive access
// to the whole subtree (the common ancestor's Unique lock).
func (f *Fs) resolveDirInSubtree(start *inode.Inode, rel path.Path) (*inode.Inode, error) {
	cur := start
	remaining := rel
	walked := ""
	for !remaining.IsEmpty() {
		if cur.Type() != inode.Dir {
			return nil, &FindError{Kind: ParentsNotDir, Prefix: walked}
		}
		var name path.Path
		name, remaining = path.SplitFirst(remaining)
		walked = joinPrefix(walked, name.String())

		childIdx := cur.Dir().SearchByName(name.String())
		if childIdx == inode.NoIdx {
			return nil, &FindError{Kind: NameNotFound, Prefix: walked}
		}
		child, ok := f.table.At(childIdx)
		if !ok {
			return nil, &FindError{Kind: NameNotFound, Prefix: walked}
		}
		cur = child
	}
	return cur, nil
}

// moveTwoParentsAncestorLocked implements MoveAncestorLocked: the ancestor
// stays Unique-locked for the whole operation, which on its own excludes
// any conflicting concurrent move (nothing can even traverse into this
// subtree while the ancestor is held). The two parent directories are still
// individually Unique-locked before being mutated, matching the invariant
// that every modified directory is locked in its own right; a parent that is
// the ancestor itself is already held and is not locked a second time.
func (f *Fs) moveTwoParentsAncestorLocked(ancestor *inode.Inode, srcParentRel path.Path, srcName string, dstParentRel path.Path, dstName string, access rwlock.Access) (LockedInode, error) {
	srcParent, err := f.resolveDirInSubtree(ancestor, srcParentRel)
	if err != nil {
		ancestor.Lock.Unlock()
		return LockedInode{}, &MoveError{Kind: MoveInexistentOriginParentDir, Find: err.(*FindError)}
	}
	if srcParent.Type() != inode.Dir {
		ancestor.Lock.Unlock()
		return LockedInode{}, &MoveError{Kind: MoveOriginParentNotDir}
	}

	dstParent, err := f.resolveDirInSubtree(ancestor, dstParentRel)
	if err != nil {
		ancestor.Lock.Unlock()
		return LockedInode{}, &MoveError{Kind: MoveInexistentDestinationParentDir, Find: err.(*FindError)}
	}
	if dstParent.Type() != inode.Dir {
		ancestor.Lock.Unlock()
		return LockedInode{}, &MoveError{Kind: MoveDestinationParentNotDir}
	}

	if srcParent != ancestor {
		srcParent.Lock.Lock(rwlock.Unique)
	}
	if dstParent != ancestor && dstParent != srcParent {
		dstParent.Lock.Lock(rwlock.Unique)
	}

	moved, err := f.transferEntry(srcParent, srcName, dstParent, dstName, access)

	if dstParent != ancestor && dstParent != srcParent {
		dstParent.Lock.Unlock()
	}
	if srcParent != ancestor {
		srcParent.Lock.Unlock()
	}
	ancestor.Lock.Unlock()

	if err != nil {
		return LockedInode{}, err
	}
	return newLocked(moved), nil
}

// moveTwoParentsTryLock implements MoveTryLockOrdered: rather than holding
// the common ancestor Unique for the whole operation, it resolves both
// parents under a (briefly held) ancestor lock, then acquires the parents'
// own Unique locks in a fixed global order (lower Idx first) so that two
// moves racing over the same pair of directories can never wait on each
// other in opposite orders. A failed non-blocking try on the second parent
// releases everything acquired since the ancestor and restarts from there.
func (f *Fs) moveTwoParentsTryLock(prefix, srcParentRel path.Path, srcName string, dstParentRel path.Path, dstName string, access rwlock.Access) (LockedInode, error) {
	for {
		ancestor, err := f.findLocked(prefix, rwlock.Unique)
		if err != nil {
			return LockedInode{}, &MoveError{Kind: MoveInexistentCommonAncestor, Find: err.(*FindError)}
		}
		if ancestor.Type() != inode.Dir {
			ancestor.Lock.Unlock()
			return LockedInode{}, &MoveError{Kind: MoveCommonAncestorNotDir}
		}

		srcParent, err := f.resolveDirInSubtree(ancestor, srcParentRel)
		if err != nil {
			ancestor.Lock.Unlock()
			return LockedInode{}, &MoveError{Kind: MoveInexistentOriginParentDir, Find: err.(*FindError)}
		}
		if srcParent.Type() != inode.Dir {
			ancestor.Lock.Unlock()
			return LockedInode{}, &MoveError{Kind: MoveOriginParentNotDir}
		}

		dstParent, err := f.resolveDirInSubtree(ancestor, dstParentRel)
		if err != nil {
			ancestor.Lock.Unlock()
			return LockedInode{}, &MoveError{Kind: MoveInexistentDestinationParentDir, Find: err.(*FindError)}
		}
		if dstParent.Type() != inode.Dir {
			ancestor.Lock.Unlock()
			return LockedInode{}, &MoveError{Kind: MoveDestinationParentNotDir}
		}

		lo, hi := srcParent, dstParent
		if hi.Idx < lo.Idx {
			lo, hi = hi, lo
		}

		lo.Lock.Lock(rwlock.Unique)
		if lo != hi && !hi.Lock.TryLock(rwlock.Unique) {
			lo.Lock.Unlock()
			ancestor.Lock.Unlock()
			runtime.Gosched()
			continue
		}
		ancestor.Lock.Unlock()

		moved, err := f.transferEntry(srcParent, srcName, dstParent, dstName, access)

		hi.Lock.Unlock()
		if lo != hi {
			lo.Lock.Unlock()
		}

		if err != nil {
			return LockedInode{}, err
		}
		return newLocked(moved), nil
	}
}

// transferEntry performs the add-then-remove link swap shared by both
// two-parent strategies. Both parents must already be Unique-locked by the
// caller. Adding before removing means a failed AddEntry leaves the tree
// unchanged.
func (f *Fs) transferEntry(srcParent *inode.Inode, srcName string, dstParent *inode.Inode, dstName string, access rwlock.Access) (*inode.Inode, error) {
	srcIdx := srcParent.Dir().SearchByName(srcName)
	if srcIdx == inode.NoIdx {
		return nil, &MoveError{Kind: MoveOriginNotFound}
	}
	if existing := dstParent.Dir().SearchByName(dstName); existing != inode.NoIdx {
		return nil, &MoveError{Kind: MoveAddEntry, Add: &inode.DirAddError{Kind: inode.DuplicateName, Name: dstName, ExistingIdx: existing}}
	}

	moved, ok := f.table.At(srcIdx)
	if !ok {
		return nil, &MoveError{Kind: MoveOriginNotFound}
	}

	if err := dstParent.Dir().AddEntry(srcIdx, dstName); err != nil {
		return nil, &MoveError{Kind: MoveAddEntry, Add: err}
	}
	srcParent.Dir().RemoveEntry(srcIdx)

	moved.Lock.Lock(access)
	return moved, nil
}

// Print writes a depth-first, one-line-per-inode snapshot of the tree to
// w. Each directory is enumerated under its own Shared lock, released
// before recursing, so the result is consistent per subtree but not
// globally serializable with concurrent mutation of the whole tree, a
// deliberate choice to keep printing cheap.
func (f *Fs) Print(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "/"); err != nil {
		return err
	}
	return f.table.PrintTree(w, RootIdx, "")
}

// PrintFile opens name for writing ("-" meaning standard output) and calls
// Print on it.
func (f *Fs) PrintFile(name string) error {
	if name == "-" {
		return f.Print(os.Stdout)
	}

	out, err := os.Create(name)
	if err != nil {
		return &PrintError{Cause: err}
	}
	defer out.Close()
	return f.Print(out)
}
