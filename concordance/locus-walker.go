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

package concordance

import (
	"context"
	"fmt"
	"io"

	"github.com/exascience/gtconcord/vcf"
)

// A VariantReader yields variants in file order, and io.EOF at the
// end. *vcf.Reader is a VariantReader.
type VariantReader interface {
	Next() (*vcf.Variant, error)
}

// A Source is a variant stream with one record of look-ahead. Peek
// returns nil at the end of the stream. Peek is idempotent until the
// next call to Advance.
type Source interface {
	Peek() (*vcf.Variant, error)
	Advance()
}

type readerSource struct {
	reader VariantReader
	next   *vcf.Variant
	err    error
	peeked bool
	eof    bool
}

// NewSource turns a VariantReader into a Source. Read errors are
// sticky.
func NewSource(r VariantReader) Source {
	return &readerSource{reader: r}
}

func (src *readerSource) Peek() (*vcf.Variant, error) {
	if src.err != nil {
		return nil, src.err
	}
	if src.eof {
		return nil, nil
	}
	if !src.peeked {
		v, err := src.reader.Next()
		switch {
		case err == io.EOF:
			src.eof = true
			return nil, nil
		case err != nil:
			src.err = err
			return nil, err
		}
		src.next, src.peeked = v, true
	}
	return src.next, nil
}

func (src *readerSource) Advance() {
	src.next, src.peeked = nil, false
}

// ContigOrder ranks contigs by their order in the ##contig lines of
// VCF headers. Contigs that occur in no header are ranked on first
// use, after all known contigs.
type ContigOrder struct {
	ranks map[string]int
}

// NewContigOrder ranks the contigs of the given headers, in order.
func NewContigOrder(headers ...*vcf.Header) *ContigOrder {
	order := &ContigOrder{ranks: make(map[string]int)}
	for _, hdr := range headers {
		for _, contig := range hdr.Contigs() {
			order.Rank(contig)
		}
	}
	return order
}

// Rank returns the rank of a contig, assigning the next rank to a
// contig seen for the first time.
func (order *ContigOrder) Rank(contig string) int {
	if rank, ok := order.ranks[contig]; ok {
		return rank
	}
	rank := len(order.ranks)
	order.ranks[contig] = rank
	return rank
}

func (order *ContigOrder) rankOf(contig string) (int, bool) {
	rank, ok := order.ranks[contig]
	return rank, ok
}

// Compare orders variants by contig rank, then by position.
func (order *ContigOrder) Compare(a, b *vcf.Variant) int {
	if a.Chrom != b.Chrom {
		if order.Rank(a.Chrom) < order.Rank(b.Chrom) {
			return -1
		}
		return 1
	}
	switch {
	case a.Pos < b.Pos:
		return -1
	case a.Pos > b.Pos:
		return 1
	default:
		return 0
	}
}

// A Unit is one comparison unit of a walk: a truth and a call record
// at the same position, or a single record when the other stream has
// none. A missing side is nil.
type Unit struct {
	Truth, Call *vcf.Variant
}

// stream is one side of a walk.
type stream struct {
	name    string
	src     Source
	last    *vcf.Variant
	checked *vcf.Variant
	chrom   string
	spanEnd int32
}

// peek returns the next record and verifies that the stream does not
// move backwards.
func (s *stream) peek(order *ContigOrder) (*vcf.Variant, error) {
	v, err := s.src.Peek()
	if err != nil {
		return nil, fmt.Errorf("%w, while reading %v stream", err, s.name)
	}
	if v == nil || v == s.checked {
		return v, nil
	}
	order.Rank(v.Chrom)
	if s.last != nil && order.Compare(v, s.last) < 0 {
		return nil, fmt.Errorf("%w: %v stream record at %v:%v follows %v:%v",
			vcf.ErrNotSorted, s.name, v.Chrom, v.Pos, s.last.Chrom, s.last.Pos)
	}
	s.checked = v
	return v, nil
}

func (s *stream) advance(v *vcf.Variant) {
	s.src.Advance()
	s.last = v
}

// emit extends the reference span of the records emitted from this
// stream.
func (s *stream) emit(v *vcf.Variant) {
	end := v.Pos - 1 + int32(len(v.Ref))
	if v.Chrom != s.chrom {
		s.chrom, s.spanEnd = v.Chrom, end
	} else if end > s.spanEnd {
		s.spanEnd = end
	}
}

// spans reports whether a record of the other stream starts inside
// the reference span of the records emitted from this stream.
func (s *stream) spans(v *vcf.Variant) bool {
	return v.Chrom == s.chrom && v.Pos <= s.spanEnd
}

// A Walker merges a truth and a call stream into comparison units.
type Walker struct {
	order       *ContigOrder
	truth, call stream

	// Units counts the units returned by Next.
	Units int64
	// Spanning counts the records skipped because they start inside a
	// record of the other stream.
	Spanning int64
}

// NewWalker creates a Walker over two sorted streams.
func NewWalker(truth, call Source, order *ContigOrder) *Walker {
	return &Walker{
		order: order,
		truth: stream{name: "truth", src: truth},
		call:  stream{name: "call", src: call},
	}
}

// Next returns the next comparison unit. The second result is false
// at the end of both streams.
func (w *Walker) Next(ctx context.Context) (Unit, bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Unit{}, false, err
		}
		t, err := w.truth.peek(w.order)
		if err != nil {
			return Unit{}, false, err
		}
		c, err := w.call.peek(w.order)
		if err != nil {
			return Unit{}, false, err
		}
		var cmp int
		switch {
		case t == nil && c == nil:
			return Unit{}, false, nil
		case t == nil:
			cmp = 1
		case c == nil:
			cmp = -1
		default:
			cmp = w.order.Compare(t, c)
		}
		switch {
		case cmp < 0:
			w.truth.advance(t)
			if w.call.spans(t) {
				w.Spanning++
				continue
			}
			w.truth.emit(t)
			w.Units++
			return Unit{Truth: t}, true, nil
		case cmp > 0:
			w.call.advance(c)
			if w.truth.spans(c) {
				w.Spanning++
				continue
			}
			w.call.emit(c)
			w.Units++
			return Unit{Call: c}, true, nil
		default:
			w.truth.advance(t)
			w.call.advance(c)
			w.truth.emit(t)
			w.call.emit(c)
			w.Units++
			return Unit{Truth: t, Call: c}, true, nil
		}
	}
}

// Walk calls f for each comparison unit, in order.
func (w *Walker) Walk(ctx context.Context, f func(Unit) error) error {
	for {
		unit, ok, err := w.Next(ctx)
		if err != nil || !ok {
			return err
		}
		if err := f(unit); err != nil {
			return err
		}
	}
}
