// Copyright 2019 the Go-FUSE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fs

import "fmt"

// FindErrorKind enumerates why Find (or the internal resolution any other
// operation builds on) failed.
type FindErrorKind int

const (
	// ParentsNotDir means one of the path's parents was not a directory.
	ParentsNotDir FindErrorKind = iota
	// NameNotFound means one of the path's components did not exist.
	NameNotFound
)

// FindError is returned by Find, and wrapped inside Create/Remove/Move
// errors whenever resolving a parent or ancestor path fails.
type FindError struct {
	Kind FindErrorKind
	// Prefix is the offending path prefix: for ParentsNotDir, the first
	// non-directory component found; for NameNotFound, the component
	// that did not exist.
	Prefix string
}

func (e *FindError) Error() string {
	switch e.Kind {
	case ParentsNotDir:
		return fmt.Sprintf("fs: entry %q is not a directory", e.Prefix)
	case NameNotFound:
		return fmt.Sprintf("fs: entry %q does not exist", e.Prefix)
	default:
		return "fs: find failed"
	}
}

// CreateErrorKind enumerates why Create failed.
type CreateErrorKind int

const (
	CreateInexistentParentDir CreateErrorKind = iota
	CreateParentNotDir
	CreateAddEntry
)

// CreateError is returned by Create.
type CreateError struct {
	Kind   CreateErrorKind
	Parent string
	Find   *FindError // set for CreateInexistentParentDir
	Add    error       // set for CreateAddEntry
}

func (e *CreateError) Error() string {
	switch e.Kind {
	case CreateInexistentParentDir:
		return fmt.Sprintf("fs: create: parent directory %q not found: %v", e.Parent, e.Find)
	case CreateParentNotDir:
		return fmt.Sprintf("fs: create: parent %q is not a directory", e.Parent)
	case CreateAddEntry:
		return fmt.Sprintf("fs: create: %v", e.Add)
	default:
		return "fs: create failed"
	}
}

func (e *CreateError) Unwrap() error {
	if e.Find != nil {
		return e.Find
	}
	return e.Add
}

// RemoveErrorKind enumerates why Remove failed.
type RemoveErrorKind int

const (
	RemoveInexistentParentDir RemoveErrorKind = iota
	RemoveParentNotDir
	RemoveNameNotFound
	RemoveNonEmptyDir
)

// RemoveError is returned by Remove.
type RemoveError struct {
	Kind   RemoveErrorKind
	Parent string
	Name   string
	Find   *FindError
}

func (e *RemoveError) Error() string {
	switch e.Kind {
	case RemoveInexistentParentDir:
		return fmt.Sprintf("fs: remove: parent directory %q not found: %v", e.Parent, e.Find)
	case RemoveParentNotDir:
		return fmt.Sprintf("fs: remove: parent %q is not a directory", e.Parent)
	case RemoveNameNotFound:
		return fmt.Sprintf("fs: remove: entry %q does not exist", e.Name)
	case RemoveNonEmptyDir:
		return fmt.Sprintf("fs: remove: directory %q is not empty", e.Name)
	default:
		return "fs: remove failed"
	}
}

func (e *RemoveError) Unwrap() error {
	return e.Find
}

// MoveErrorKind enumerates why Move failed.
type MoveErrorKind int

const (
	MoveInexistentCommonAncestor MoveErrorKind = iota
	MoveCommonAncestorNotDir
	MoveOriginDestinationParent
	MoveDestinationOriginParent
	MoveInexistentOriginParentDir
	MoveInexistentDestinationParentDir
	MoveOriginParentNotDir
	MoveDestinationParentNotDir
	MoveOriginNotFound
	MoveAddEntry
	MoveRenameEntry
)

// MoveError is returned by Move.
type MoveError struct {
	Kind   MoveErrorKind
	Find   *FindError
	Add    error
	Rename error
}

func (e *MoveError) Error() string {
	switch e.Kind {
	case MoveInexistentCommonAncestor:
		return fmt.Sprintf("fs: move: common ancestor not found: %v", e.Find)
	case MoveCommonAncestorNotDir:
		return "fs: move: common ancestor is not a directory"
	case MoveOriginDestinationParent:
		return "fs: move: origin is an ancestor of destination"
	case MoveDestinationOriginParent:
		return "fs: move: destination is an ancestor of origin"
	case MoveInexistentOriginParentDir:
		return fmt.Sprintf("fs: move: origin parent not found: %v", e.Find)
	case MoveInexistentDestinationParentDir:
		return fmt.Sprintf("fs: move: destination parent not found: %v", e.Find)
	case MoveOriginParentNotDir:
		return "fs: move: origin parent is not a directory"
	case MoveDestinationParentNotDir:
		return "fs: move: destination parent is not a directory"
	case MoveOriginNotFound:
		return "fs: move: origin does not exist"
	case MoveAddEntry:
		return fmt.Sprintf("fs: move: %v", e.Add)
	case MoveRenameEntry:
		return fmt.Sprintf("fs: move: %v", e.Rename)
	default:
		return "fs: move failed"
	}
}

func (e *MoveError) Unwrap() error {
	if e.Find != nil {
		return e.Find
	}
	if e.Add != nil {
		return e.Add
	}
	return e.Rename
}

// PrintError is returned by PrintFile when the output file cannot be
// opened.
type PrintError struct {
	Cause error
}

func (e *PrintError) Error() string {
	return fmt.Sprintf("fs: print: %v", e.Cause)
}

func (e *PrintError) Unwrap() error {
	return e.Cause
}
