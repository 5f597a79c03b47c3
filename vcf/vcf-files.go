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

package vcf

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/exascience/gtconcord/internal"
	"github.com/exascience/gtconcord/utils"
	"github.com/exascience/gtconcord/utils/bgzf"
)

// A Reader streams the variants of a VCF file, which may be plain
// text, gzip or BGZF compressed.
type Reader struct {
	Header *Header
	Name   string

	file   io.Closer
	input  io.ReadCloser
	reader *bufio.Reader
	parser *VariantParser
	sc     StringScanner
	line   int
}

// Open opens a VCF file and parses its header.
func Open(name string) (*Reader, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(file, name)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	r.file = file
	return r, nil
}

// NewReader parses the header of the VCF data in r. The name is used
// in error messages.
func NewReader(r io.Reader, name string) (*Reader, error) {
	input, err := utils.OpenCompressed(bufio.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("%w, while opening VCF file %v", err, name)
	}
	reader := bufio.NewReader(input)
	header, lines, err := ParseHeader(reader)
	if err != nil {
		_ = input.Close()
		return nil, fmt.Errorf("%w, in line %v of VCF file %v", err, lines, name)
	}
	return &Reader{
		Header: header,
		Name:   name,
		input:  input,
		reader: reader,
		parser: header.NewVariantParser(),
		line:   lines,
	}, nil
}

// SelectSample restricts parsing to one sample column.
func (r *Reader) SelectSample(index int) {
	r.parser.SelectSample(index)
}

// SkipSamples turns off parsing of the sample columns.
func (r *Reader) SkipSamples() {
	r.parser.NSamples = 0
}

// Next returns the next variant, or io.EOF at the end of the file.
func (r *Reader) Next() (*Variant, error) {
	for {
		line, err := getLine(r.reader)
		if err != nil {
			return nil, err
		}
		r.line++
		if line == "" {
			continue
		}
		r.sc.Reset(line)
		variant := r.sc.ParseVariant(r.parser)
		if err := r.sc.Err(); err != nil {
			return nil, fmt.Errorf("%w, in line %v of VCF file %v", err, r.line, r.Name)
		}
		return variant, nil
	}
}

// Close closes the underlying file.
func (r *Reader) Close() (err error) {
	err = r.input.Close()
	if r.file != nil {
		if nerr := r.file.Close(); err == nil {
			err = nerr
		}
	}
	return err
}

// A Writer writes VCF files. Names ending in .gz are written as BGZF.
type Writer struct {
	file   *os.File
	bgzf   *bgzf.Writer
	writer *bufio.Writer
	buf    []byte
}

// Create creates a VCF file.
func Create(name string) (*Writer, error) {
	file, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	w := &Writer{file: file}
	if strings.HasSuffix(name, ".gz") {
		w.bgzf = bgzf.NewWriter(file, gzip.DefaultCompression)
		w.writer = bufio.NewWriter(w.bgzf)
	} else {
		w.writer = bufio.NewWriter(file)
	}
	return w, nil
}

// NewWriter returns a Writer for plain text output.
func NewWriter(out io.Writer) *Writer {
	return &Writer{writer: bufio.NewWriter(out)}
}

// WriteHeader writes a VCF header.
func (w *Writer) WriteHeader(hdr *Header) error {
	w.buf = hdr.Format(w.buf[:0])
	_, err := w.writer.Write(w.buf)
	return err
}

// Write writes a VCF data line.
func (w *Writer) Write(v *Variant) error {
	buf := internal.ReserveByteBuffer()
	buf = v.Format(buf)
	_, err := w.writer.Write(buf)
	internal.ReleaseByteBuffer(buf)
	return err
}

// Close flushes all output and closes the file.
func (w *Writer) Close() error {
	err := w.writer.Flush()
	if w.bgzf != nil {
		if nerr := w.bgzf.Close(); err == nil {
			err = nerr
		}
	}
	if w.file != nil {
		if nerr := w.file.Close(); err == nil {
			err = nerr
		}
	}
	return err
}

// ErrNotSorted is returned when a VCF file is not sorted by contig
// and position.
var ErrNotSorted = errors.New("VCF file is not sorted")
