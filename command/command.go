// Copyright 2019 the Go-FUSE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package command implements the wire-line grammar the server and client
// exchange: one ASCII line per request, parsed into a tagged Record.
package command

import (
	"bytes"
	"fmt"

	"github.com/hanwen/tfs/inode"
	"github.com/hanwen/tfs/path"
)

// MaxPathBytes bounds a single path argument on the wire.
const MaxPathBytes = 1024

// Kind tags a Record's variant.
type Kind int

const (
	Create Kind = iota
	Search
	Remove
	Move
	Print
)

func (k Kind) String() string {
	switch k {
	case Create:
		return "Create"
	case Search:
		return "Search"
	case Remove:
		return "Remove"
	case Move:
		return "Move"
	case Print:
		return "Print"
	default:
		return "Unknown"
	}
}

// Record is a parsed command line, holding owned copies of every path
// argument so it can safely be queued and read by a different goroutine
// than the one that parsed it.
type Record struct {
	Kind Kind

	// Path is set for Create, Search, Remove.
	Path path.Owned
	// CreateType is set for Create.
	CreateType inode.Type
	// Source/Dest are set for Move.
	Source, Dest path.Owned
	// File is set for Print ("-" meaning standard output).
	File string
}

// ParseErrorKind enumerates why Parse failed.
type ParseErrorKind int

const (
	NoCommand ParseErrorKind = iota
	InvalidCommand
	MissingArgs
	InvalidType
	PathTooLong
)

// ParseError is returned by Parse.
type ParseError struct {
	Kind    ParseErrorKind
	Command byte // set for InvalidCommand, InvalidType (holds the bad type byte there)
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case NoCommand:
		return "command: no command was supplied"
	case InvalidCommand:
		return fmt.Sprintf("command: invalid command %q", e.Command)
	case MissingArgs:
		return "command: missing arguments"
	case InvalidType:
		return fmt.Sprintf("command: invalid type %q", e.Command)
	case PathTooLong:
		return fmt.Sprintf("command: path exceeds %d bytes", MaxPathBytes)
	default:
		return "command: parse failed"
	}
}

// Parse decodes one wire line: "<cmd> <arg1>[ <arg2>]", cmd in {c, l, d, m,
// p}, whitespace-trimmed. line must not include the NUL terminator used on
// the wire.
func Parse(line []byte) (Record, error) {
	fields := bytes.Fields(line)
	if len(fields) == 0 {
		return Record{}, &ParseError{Kind: NoCommand}
	}
	if len(fields[0]) != 1 {
		return Record{}, &ParseError{Kind: InvalidCommand, Command: fields[0][0]}
	}

	cmd := fields[0][0]
	switch cmd {
	case 'c':
		if len(fields) < 3 {
			return Record{}, &ParseError{Kind: MissingArgs}
		}
		if err := checkPathLen(fields[1]); err != nil {
			return Record{}, err
		}
		if len(fields[2]) != 1 {
			return Record{}, &ParseError{Kind: InvalidType, Command: fields[2][0]}
		}
		var typ inode.Type
		switch fields[2][0] {
		case 'f':
			typ = inode.File
		case 'd':
			typ = inode.Dir
		default:
			return Record{}, &ParseError{Kind: InvalidType, Command: fields[2][0]}
		}
		return Record{Kind: Create, Path: path.FromBytes(fields[1]).ToOwned(), CreateType: typ}, nil

	case 'l':
		if len(fields) < 2 {
			return Record{}, &ParseError{Kind: MissingArgs}
		}
		if err := checkPathLen(fields[1]); err != nil {
			return Record{}, err
		}
		return Record{Kind: Search, Path: path.FromBytes(fields[1]).ToOwned()}, nil

	case 'd':
		if len(fields) < 2 {
			return Record{}, &ParseError{Kind: MissingArgs}
		}
		if err := checkPathLen(fields[1]); err != nil {
			return Record{}, err
		}
		return Record{Kind: Remove, Path: path.FromBytes(fields[1]).ToOwned()}, nil

	case 'm':
		if len(fields) < 3 {
			return Record{}, &ParseError{Kind: MissingArgs}
		}
		if err := checkPathLen(fields[1]); err != nil {
			return Record{}, err
		}
		if err := checkPathLen(fields[2]); err != nil {
			return Record{}, err
		}
		return Record{Kind: Move, Source: path.FromBytes(fields[1]).ToOwned(), Dest: path.FromBytes(fields[2]).ToOwned()}, nil

	case 'p':
		file := "-"
		if len(fields) >= 2 {
			file = string(fields[1])
		}
		return Record{Kind: Print, File: file}, nil

	default:
		return Record{}, &ParseError{Kind: InvalidCommand, Command: cmd}
	}
}

func checkPathLen(b []byte) error {
	if len(b) > MaxPathBytes {
		return &ParseError{Kind: PathTooLong}
	}
	return nil
}
