// Copyright 2019 the Go-FUSE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inode

import "fmt"

// DirEntry is one slot of a Directory's entry set. An entry with
// Idx == NoIdx is empty; its Name is not meaningful.
type DirEntry struct {
	Name string
	Idx  Idx
}

// Directory is the payload of a directory inode: a growable set of
// DirEntry slots. Callers must hold the owning Inode's Lock in Unique mode
// before calling any mutating method, and in Shared mode before any
// read-only method; Directory itself does no locking.
type Directory struct {
	entries []DirEntry
}

func newDirectory() *Directory {
	return &Directory{}
}

// DirAddErrorKind enumerates why AddEntry failed.
type DirAddErrorKind int

const (
	// EmptyName means the supplied name had zero length.
	EmptyName DirAddErrorKind = iota
	// DuplicateName means an entry with this name already exists.
	DuplicateName
)

// DirAddError is returned by AddEntry. RenameEntry returns a DirRenameError
// that embeds one for the EmptyName and DuplicateName kinds.
type DirAddError struct {
	Kind        DirAddErrorKind
	Name        string
	ExistingIdx Idx // valid only for DuplicateName
}

func (e *DirAddError) Error() string {
	switch e.Kind {
	case EmptyName:
		return "directory: empty name"
	case DuplicateName:
		return fmt.Sprintf("directory: name %q already exists (idx %d)", e.Name, e.ExistingIdx)
	default:
		return "directory: add entry failed"
	}
}

// IsEmpty reports whether no non-empty entry exists.
func (d *Directory) IsEmpty() bool {
	for _, e := range d.entries {
		if e.Idx != NoIdx {
			return false
		}
	}
	return true
}

// SearchByName returns the idx of the unique entry whose stored name
// equals name exactly, or NoIdx if none matches.
func (d *Directory) SearchByName(name string) Idx {
	name = truncateName(name)
	for _, e := range d.entries {
		if e.Idx != NoIdx && e.Name == name {
			return e.Idx
		}
	}
	return NoIdx
}

// Entries returns a snapshot of the non-empty entries, for iteration by the
// fs package's tree printer and table dump.
func (d *Directory) Entries() []DirEntry {
	out := make([]DirEntry, 0, len(d.entries))
	for _, e := range d.entries {
		if e.Idx != NoIdx {
			out = append(out, e)
		}
	}
	return out
}

// AddEntry adds a (name, idx) pair. It fails with EmptyName if name has
// zero length, or DuplicateName if an entry already carries this name.
// Names longer than MaxName are truncated before comparison and storage,
// documented, deliberate behavior (see DESIGN.md), not a caller error.
func (d *Directory) AddEntry(idx Idx, name string) error {
	if len(name) == 0 {
		return &DirAddError{Kind: EmptyName}
	}
	name = truncateName(name)

	for _, e := range d.entries {
		if e.Idx != NoIdx && e.Name == name {
			return &DirAddError{Kind: DuplicateName, Name: name, ExistingIdx: e.Idx}
		}
	}

	for i := range d.entries {
		if d.entries[i].Idx == NoIdx {
			d.entries[i] = DirEntry{Name: name, Idx: idx}
			return nil
		}
	}

	d.grow()
	return d.addAfterGrow(idx, name)
}

// grow doubles the entry slice capacity, starting at 4, filling the new
// slots as empty.
func (d *Directory) grow() {
	newLen := 4
	if len(d.entries) > 0 {
		newLen = len(d.entries) * 2
	}
	grown := make([]DirEntry, newLen)
	copy(grown, d.entries)
	for i := len(d.entries); i < newLen; i++ {
		grown[i] = DirEntry{Idx: NoIdx}
	}
	d.entries = grown
}

// addAfterGrow writes into the first empty slot created by grow. It always
// succeeds because grow only runs when every existing slot was full.
func (d *Directory) addAfterGrow(idx Idx, name string) error {
	for i := range d.entries {
		if d.entries[i].Idx == NoIdx {
			d.entries[i] = DirEntry{Name: name, Idx: idx}
			return nil
		}
	}
	panic("inode: directory grow did not create an empty slot")
}

// RemoveEntry locates the entry with the given inode index, empties it,
// and reports whether a match was found.
func (d *Directory) RemoveEntry(idx Idx) bool {
	for i := range d.entries {
		if d.entries[i].Idx == idx {
			d.entries[i] = DirEntry{Idx: NoIdx}
			return true
		}
	}
	return false
}

// DirRenameError is returned by RenameEntry.
type DirRenameError struct {
	*DirAddError
	NotFound bool
}

func (e *DirRenameError) Error() string {
	if e.NotFound {
		return "directory: rename of nonexistent entry"
	}
	return e.DirAddError.Error()
}

// RenameEntry locates the entry with the given inode index and rewrites
// its name, failing EmptyName/DuplicateName analogously to AddEntry.
func (d *Directory) RenameEntry(idx Idx, newName string) error {
	if len(newName) == 0 {
		return &DirRenameError{DirAddError: &DirAddError{Kind: EmptyName}}
	}
	newName = truncateName(newName)

	pos := -1
	for i, e := range d.entries {
		if e.Idx == idx {
			pos = i
			continue
		}
		if e.Idx != NoIdx && e.Name == newName {
			return &DirRenameError{DirAddError: &DirAddError{Kind: DuplicateName, Name: newName, ExistingIdx: e.Idx}}
		}
	}
	if pos < 0 {
		return &DirRenameError{NotFound: true}
	}
	d.entries[pos].Name = newName
	return nil
}

func truncateName(name string) string {
	if len(name) > MaxName {
		return name[:MaxName]
	}
	return name
}
