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

package bgzf

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"sync"

	"github.com/exascience/pargo/pipeline"
)

// Reader decompresses a BGZF stream, inflating blocks in parallel.
type Reader struct {
	r       io.Reader
	gz      *gzip.Reader
	p       pipeline.Pipeline
	running sync.WaitGroup
	blocks  chan *chunk
	ctx     context.Context
	cancel  context.CancelFunc
	current *chunk
	offset  int

	// state of the pipeline source
	err  error
	data interface{}
}

// blockSource feeds compressed blocks into the pipeline of a Reader.
type blockSource Reader

// nextBlock reads the compressed payload of the gzip member whose
// header the gzip.Reader has just consumed.
func (src *blockSource) nextBlock() (*chunk, error) {
	extra := src.gz.Extra
	for i := 0; i+4 <= len(extra); {
		slen := int(binary.LittleEndian.Uint16(extra[i+2 : i+4]))
		if extra[i] == 'B' && extra[i+1] == 'C' && slen == 2 {
			bsize := int(binary.LittleEndian.Uint16(extra[i+4 : i+6]))
			block := getChunk()
			block.data = block.data[:bsize-len(extra)-19]
			if _, err := io.ReadFull(src.r, block.data); err != nil {
				return nil, err
			}
			var trailer [8]byte
			if _, err := io.ReadFull(src.r, trailer[:]); err != nil {
				return nil, err
			}
			block.crc = binary.LittleEndian.Uint32(trailer[0:4])
			block.isize = binary.LittleEndian.Uint32(trailer[4:8])
			switch err := src.gz.Reset(src.r); {
			case err == io.EOF:
				if !bytes.Equal(block.data, []byte{3, 0}) || block.crc != 0 || block.isize != 0 {
					return block, errors.New("invalid BGZF file: missing EOF marker block")
				}
				return block, io.EOF
			case err != nil:
				return block, fmt.Errorf("%w, while reading BGZF block header", err)
			}
			return block, nil
		}
		i += 4 + slen
	}
	return nil, errors.New("missing BC extra subfield in BGZF header")
}

func (src *blockSource) Err() error {
	if src.err == io.EOF {
		return nil
	}
	return src.err
}

func (src *blockSource) Prepare(_ context.Context) int {
	return -1
}

func (src *blockSource) Fetch(_ int) int {
	if src.err != nil {
		src.data = nil
		return 0
	}
	block, err := src.nextBlock()
	src.err = err
	if block == nil {
		src.data = nil
		return 0
	}
	src.data = block
	return 1
}

func (src *blockSource) Data() interface{} {
	return src.data
}

var inflaters sync.Pool

func inflate(block *chunk) (*chunk, error) {
	in := bytes.NewReader(block.data)
	var fr io.ReadCloser
	if pooled := inflaters.Get(); pooled != nil {
		fr = pooled.(io.ReadCloser)
		if err := fr.(flate.Resetter).Reset(in, nil); err != nil {
			fr = flate.NewReader(in)
		}
	} else {
		fr = flate.NewReader(in)
	}
	defer inflaters.Put(fr)
	out := getChunk()
	out.data = out.data[:int(block.isize)]
	if _, err := io.ReadFull(fr, out.data); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return out, err
	}
	if crc32.ChecksumIEEE(out.data) != block.crc {
		return out, errors.New("invalid CRC-32 value for a data block in a BGZF file")
	}
	return out, fr.Close()
}

// NewReader starts decompressing the given BGZF stream.
func NewReader(r flate.Reader) (*Reader, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w, while opening BGZF stream", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	reader := &Reader{
		r:      r,
		gz:     gz,
		blocks: make(chan *chunk, 1),
		ctx:    ctx,
		cancel: cancel,
	}
	reader.p.Source((*blockSource)(reader))
	reader.p.Add(
		pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
			block := data.(*chunk)
			out, err := inflate(block)
			if err != nil {
				reader.p.SetErr(err)
			}
			chunkPool.Put(block)
			return out
		})),
		pipeline.StrictOrd(pipeline.ReceiveAndFinalize(func(_ int, data interface{}) interface{} {
			select {
			case <-reader.ctx.Done():
			case reader.blocks <- data.(*chunk):
			}
			return nil
		}, func() {
			close(reader.blocks)
		})),
	)
	reader.running.Add(1)
	go func() {
		defer reader.running.Done()
		reader.p.Run()
	}()
	return reader, nil
}

// Read implements io.Reader.
func (reader *Reader) Read(p []byte) (int, error) {
	for reader.current == nil || reader.offset == len(reader.current.data) {
		if reader.current != nil {
			chunkPool.Put(reader.current)
			reader.current = nil
		}
		block, ok := <-reader.blocks
		if !ok {
			if err := reader.p.Err(); err != nil {
				return 0, err
			}
			return 0, io.EOF
		}
		reader.current, reader.offset = block, 0
	}
	n := copy(p, reader.current.data[reader.offset:])
	reader.offset += n
	return n, nil
}

// Close stops the decompression pipeline and reports any error it
// encountered.
func (reader *Reader) Close() error {
	reader.cancel()
	reader.running.Wait()
	if err := reader.gz.Close(); err != nil {
		return err
	}
	return reader.p.Err()
}
