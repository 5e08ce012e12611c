// Copyright 2019 the Go-FUSE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package treeprint

import (
	"bytes"
	"sort"
	"strings"
	"testing"

	"github.com/kylelemons/godebug/pretty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanwen/tfs/fs"
	"github.com/hanwen/tfs/inode"
	"github.com/hanwen/tfs/path"
	"github.com/hanwen/tfs/rwlock"
)

func TestWriteRendersCreatedEntries(t *testing.T) {
	f := fs.New()
	locked, err := f.Create(path.FromString("/a"), inode.Dir)
	require.NoError(t, err)
	f.UnlockInode(locked.Idx)

	locked, err = f.Create(path.FromString("/a/b"), inode.File)
	require.NoError(t, err)
	f.UnlockInode(locked.Idx)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, f))

	out := buf.String()
	assert.Contains(t, out, "/a")
	assert.Contains(t, out, "/a/b")

	found, err := f.Find(path.FromString("/a"), rwlock.Shared)
	require.NoError(t, err)
	f.UnlockInode(found.Idx)
}

func TestWriteLineSetMatchesExpectedTreeShape(t *testing.T) {
	f := fs.New()
	for _, p := range []string{"/a", "/a/b", "/a/c", "/d"} {
		typ := inode.File
		if p == "/a" {
			typ = inode.Dir
		}
		locked, err := f.Create(path.FromString(p), typ)
		require.NoError(t, err)
		f.UnlockInode(locked.Idx)
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, f))

	got := sortedLines(buf.String())
	want := []string{"/", "/a", "/a/b", "/a/c", "/d"}
	if diff := pretty.Compare(want, got); diff != "" {
		t.Fatalf("tree line set mismatch (-want +got):\n%s", diff)
	}
}

func sortedLines(s string) []string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	sort.Strings(lines)
	return lines
}
