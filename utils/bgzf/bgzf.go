// gtconcord: genotype concordance analysis for VCF files.
// Copyright (c) 2021 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/gtconcord/blob/master/LICENSE.txt>.

// Package bgzf reads and writes BGZF files, the blocked gzip variant
// used for compressed VCF files. Blocks are inflated and deflated in
// parallel with a pargo pipeline, and delivered in file order.
package bgzf

import (
	"bufio"
	"encoding/binary"
	"io"
	"sync"
)

// maxBlockSize is the maximum size of an uncompressed BGZF block.
const maxBlockSize = 65536

// eofMarker is the empty block that terminates every BGZF file.
var eofMarker = []byte{
	0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0xff, 0x06, 0x00,
	0x42, 0x43, 0x02, 0x00, 0x1b, 0x00,
	0x03, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
}

// blockHeader is the fixed gzip member header of a BGZF block. The
// block size at offset 16 is filled in per block.
var blockHeader = []byte{
	0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0xff, 0x06, 0x00,
	0x42, 0x43, 0x02, 0x00, 0x00, 0x00,
}

// IsGzip reports whether the next byte of the scanner starts a gzip
// stream. The byte is unread again.
func IsGzip(scanner io.ByteScanner) (bool, error) {
	b, err := scanner.ReadByte()
	if err != nil {
		return false, err
	}
	if err := scanner.UnreadByte(); err != nil {
		return false, err
	}
	return b == 0x1f, nil
}

// IsBgzf reports whether the buffered input starts with a gzip member
// that carries the BC extra subfield of the BGZF format.
func IsBgzf(buf *bufio.Reader) bool {
	head, err := buf.Peek(16)
	if err != nil {
		return false
	}
	if head[0] != 0x1f || head[1] != 0x8b || head[3]&0x04 == 0 {
		return false
	}
	xlen := binary.LittleEndian.Uint16(head[10:12])
	return xlen >= 6 && head[12] == 'B' && head[13] == 'C'
}

// chunk holds either compressed or uncompressed block contents.
type chunk struct {
	data  []byte
	crc   uint32
	isize uint32
}

var chunkPool = sync.Pool{New: func() interface{} {
	return &chunk{data: make([]byte, 0, maxBlockSize)}
}}

func getChunk() *chunk {
	c := chunkPool.Get().(*chunk)
	c.data = c.data[:0]
	return c
}
