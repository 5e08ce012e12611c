// Copyright 2019 the Go-FUSE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package path implements slash-separated namespace paths and the
// splitting primitives the fs package uses to walk them one component at a
// time. Leading and trailing slashes are ignored; the root path is the
// empty path.
package path

import "bytes"

// Path is a borrowed view over externally owned bytes. It is not
// NUL-terminated and must not outlive the bytes it aliases.
type Path struct {
	b []byte
}

// Owned is a heap-allocated copy of a Path, safe to carry across a queued
// command's lifetime.
type Owned struct {
	b []byte
}

// FromString wraps s as a borrowed Path without copying.
func FromString(s string) Path {
	return Path{b: []byte(s)}
}

// FromBytes wraps b as a borrowed Path without copying.
func FromBytes(b []byte) Path {
	return Path{b: b}
}

// String returns the path's textual form.
func (p Path) String() string {
	return string(p.b)
}

// Bytes returns the path's raw bytes. Callers must not retain or mutate
// the slice beyond the borrow's lifetime.
func (p Path) Bytes() []byte {
	return p.b
}

// IsEmpty reports whether p is the root path.
func (p Path) IsEmpty() bool {
	return len(trimSlashes(p.b)) == 0
}

// ToOwned copies a borrowed Path into an Owned value.
func (p Path) ToOwned() Owned {
	cp := make([]byte, len(p.b))
	copy(cp, p.b)
	return Owned{b: cp}
}

// Borrow returns a Path view aliasing o's backing array.
func (o Owned) Borrow() Path {
	return Path{b: o.b}
}

// String returns the owned path's textual form.
func (o Owned) String() string {
	return string(o.b)
}

func trimLeadingSlashes(b []byte) []byte {
	i := 0
	for i < len(b) && b[i] == '/' {
		i++
	}
	return b[i:]
}

func trimTrailingSlashes(b []byte) []byte {
	j := len(b)
	for j > 0 && b[j-1] == '/' {
		j--
	}
	return b[:j]
}

func trimSlashes(b []byte) []byte {
	return trimTrailingSlashes(trimLeadingSlashes(b))
}

// SplitLast strips any trailing slash from p, locates the last remaining
// slash, and returns (parent, last). parent is everything before that
// slash (possibly empty); last is everything after it (possibly empty if p
// was empty or "/"). last never contains a slash character; parent may.
func SplitLast(p Path) (parent, last Path) {
	b := trimTrailingSlashes(p.b)
	if i := bytes.LastIndexByte(b, '/'); i >= 0 {
		return Path{b: b[:i]}, Path{b: b[i+1:]}
	}
	return Path{b: nil}, Path{b: b}
}

// SplitFirst strips any leading slash from p, locates the first remaining
// slash, and returns (first, rest). first is everything before that slash;
// rest is everything after it (possibly empty). first never contains a
// slash character; rest may.
func SplitFirst(p Path) (first, rest Path) {
	b := trimLeadingSlashes(p.b)
	if i := bytes.IndexByte(b, '/'); i >= 0 {
		return Path{b: b[:i]}, Path{b: b[i+1:]}
	}
	return Path{b: b}, Path{b: nil}
}

// ComponentsLen returns the number of non-empty components in p.
func ComponentsLen(p Path) int {
	n := 0
	rest := p
	for !rest.IsEmpty() {
		var first Path
		first, rest = SplitFirst(rest)
		if len(first.b) > 0 {
			n++
		}
	}
	return n
}

// CommonAncestor walks a and b component by component and returns the
// longest shared prefix, along with the remainders of a and b after that
// prefix.
func CommonAncestor(a, b Path) (prefix, aRest, bRest Path) {
	ra, rb := a, b
	var prefixParts [][]byte

	for {
		if ra.IsEmpty() || rb.IsEmpty() {
			break
		}
		fa, resta := SplitFirst(ra)
		fb, restb := SplitFirst(rb)
		if !bytes.Equal(fa.b, fb.b) {
			break
		}
		prefixParts = append(prefixParts, fa.b)
		ra, rb = resta, restb
	}

	return Path{b: bytes.Join(prefixParts, []byte("/"))}, ra, rb
}
