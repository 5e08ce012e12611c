// Copyright 2019 the Go-FUSE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package treeprint is a thin read-only wrapper around fs.Fs.Print, kept
// separate so callers that only need to render a snapshot (such as tests)
// don't need to import the whole client/server stack.
package treeprint

import (
	"io"

	"github.com/hanwen/tfs/fs"
)

// Write renders a depth-first snapshot of f's namespace to w, one line per
// inode, under fs.Fs.Print's per-subtree consistency contract.
func Write(w io.Writer, f *fs.Fs) error {
	return f.Print(w)
}
