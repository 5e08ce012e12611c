// Copyright 2019 the Go-FUSE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanwen/tfs/inode"
)

func TestParseCreate(t *testing.T) {
	r, err := Parse([]byte("c /a/b f"))
	require.NoError(t, err)
	assert.Equal(t, Create, r.Kind)
	assert.Equal(t, "/a/b", r.Path.String())
	assert.Equal(t, inode.File, r.CreateType)
}

func TestParseCreateDir(t *testing.T) {
	r, err := Parse([]byte("c /a d"))
	require.NoError(t, err)
	assert.Equal(t, inode.Dir, r.CreateType)
}

func TestParseCreateInvalidType(t *testing.T) {
	_, err := Parse([]byte("c /a x"))
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, InvalidType, pe.Kind)
}

func TestParseSearchAndRemove(t *testing.T) {
	r, err := Parse([]byte("l /a"))
	require.NoError(t, err)
	assert.Equal(t, Search, r.Kind)

	r, err = Parse([]byte("d /a"))
	require.NoError(t, err)
	assert.Equal(t, Remove, r.Kind)
}

func TestParseMove(t *testing.T) {
	r, err := Parse([]byte("m /a /b"))
	require.NoError(t, err)
	assert.Equal(t, Move, r.Kind)
	assert.Equal(t, "/a", r.Source.String())
	assert.Equal(t, "/b", r.Dest.String())
}

func TestParsePrintDefaultsToStdout(t *testing.T) {
	r, err := Parse([]byte("p"))
	require.NoError(t, err)
	assert.Equal(t, Print, r.Kind)
	assert.Equal(t, "-", r.File)

	r, err = Parse([]byte("p out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "out.txt", r.File)
}

func TestParseEmptyLine(t *testing.T) {
	_, err := Parse([]byte("   "))
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, NoCommand, pe.Kind)
}

func TestParseInvalidCommand(t *testing.T) {
	_, err := Parse([]byte("z /a"))
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, InvalidCommand, pe.Kind)
}

func TestParseMissingArgs(t *testing.T) {
	_, err := Parse([]byte("c /a"))
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, MissingArgs, pe.Kind)
}

func TestParseWhitespaceIsTrimmed(t *testing.T) {
	r, err := Parse([]byte("  l   /a  "))
	require.NoError(t, err)
	assert.Equal(t, "/a", r.Path.String())
}
