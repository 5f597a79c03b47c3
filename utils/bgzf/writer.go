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
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
	"sync"

	"github.com/exascience/pargo/pipeline"
)

// Writer compresses into a BGZF stream, deflating blocks in parallel.
type Writer struct {
	w       io.Writer
	p       pipeline.Pipeline
	running sync.WaitGroup
	pending *chunk
	blocks  chan *chunk
	closed  bool
	data    interface{}
}

// pendingSource feeds filled blocks into the pipeline of a Writer.
type pendingSource Writer

func (*pendingSource) Err() error {
	return nil
}

func (src *pendingSource) Prepare(_ context.Context) int {
	return -1
}

func (src *pendingSource) Fetch(_ int) int {
	block, ok := <-src.blocks
	if !ok {
		src.data = nil
		return 0
	}
	src.data = block
	return 1
}

func (src *pendingSource) Data() interface{} {
	return src.data
}

var deflaters sync.Pool

func deflate(block *chunk, level int) (*chunk, error) {
	out := getChunk()
	buf := bytes.NewBuffer(out.data)
	buf.Write(blockHeader)
	var fw *flate.Writer
	if pooled := deflaters.Get(); pooled != nil {
		fw = pooled.(*flate.Writer)
		fw.Reset(buf)
	} else {
		var err error
		if fw, err = flate.NewWriter(buf, level); err != nil {
			return out, err
		}
	}
	defer deflaters.Put(fw)
	if _, err := fw.Write(block.data); err != nil {
		return out, err
	}
	if err := fw.Close(); err != nil {
		return out, err
	}
	var trailer [8]byte
	binary.LittleEndian.PutUint32(trailer[0:4], crc32.ChecksumIEEE(block.data))
	binary.LittleEndian.PutUint32(trailer[4:8], uint32(len(block.data)))
	buf.Write(trailer[:])
	out.data = buf.Bytes()
	binary.LittleEndian.PutUint16(out.data[16:18], uint16(len(out.data)-1))
	return out, nil
}

// NewWriter returns a Writer that compresses into w with the given
// flate compression level.
func NewWriter(w io.Writer, level int) *Writer {
	writer := &Writer{
		w:       w,
		pending: getChunk(),
		blocks:  make(chan *chunk, 1),
	}
	writer.p.Source((*pendingSource)(writer))
	writer.p.Add(
		pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
			block := data.(*chunk)
			out, err := deflate(block, level)
			if err != nil {
				writer.p.SetErr(err)
			}
			chunkPool.Put(block)
			return out
		})),
		pipeline.StrictOrd(pipeline.Receive(func(_ int, data interface{}) interface{} {
			out := data.(*chunk)
			if _, err := w.Write(out.data); err != nil {
				writer.p.SetErr(err)
			}
			chunkPool.Put(out)
			return nil
		})),
	)
	writer.running.Add(1)
	go func() {
		defer writer.running.Done()
		writer.p.Run()
	}()
	return writer
}

// Write implements io.Writer.
func (writer *Writer) Write(p []byte) (int, error) {
	if writer.closed {
		return 0, errors.New("write to closed BGZF writer")
	}
	n := len(p)
	for len(p) > 0 {
		free := maxBlockSize - len(writer.pending.data)
		if free > len(p) {
			writer.pending.data = append(writer.pending.data, p...)
			break
		}
		writer.pending.data = append(writer.pending.data, p[:free]...)
		p = p[free:]
		writer.blocks <- writer.pending
		writer.pending = getChunk()
	}
	return n, nil
}

// Close flushes the last block, waits for all blocks to be written,
// and appends the BGZF end-of-file marker.
func (writer *Writer) Close() error {
	if writer.closed {
		return nil
	}
	writer.closed = true
	if len(writer.pending.data) > 0 {
		writer.blocks <- writer.pending
	} else {
		chunkPool.Put(writer.pending)
	}
	writer.pending = nil
	close(writer.blocks)
	writer.running.Wait()
	if err := writer.p.Err(); err != nil {
		return err
	}
	_, err := writer.w.Write(eofMarker)
	return err
}
