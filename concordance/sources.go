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
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/exascience/gtconcord/intervals"
	"github.com/exascience/gtconcord/utils"
	"github.com/exascience/gtconcord/vcf"
)

// ErrContradictoryScope is returned for interval scopes that cannot be
// satisfied, such as hom-ref synthesis without intervals.
var ErrContradictoryScope = errors.New("contradictory interval scope")

// refEnd returns the last reference position of a record, based on
// the length of its reference allele.
func refEnd(v *vcf.Variant) int32 {
	if end := v.Pos + int32(len(v.Ref)) - 1; end > v.Pos {
		return end
	}
	return v.Pos
}

// IntervalScope restricts a Source to the records that overlap with a
// normalized interval set. It ends the stream once every contig of the
// set has been passed, without reading the rest of the underlying
// stream.
type IntervalScope struct {
	src     Source
	set     intervals.Set
	order   *ContigOrder
	contigs []string
	index   map[string]uint
	done    *bitset.BitSet
	current string
}

// NewIntervalScope restricts src to set, which must be normalized.
func NewIntervalScope(src Source, set intervals.Set, order *ContigOrder) *IntervalScope {
	contigs := set.Contigs()
	index := make(map[string]uint, len(contigs))
	for i, contig := range contigs {
		index[contig] = uint(i)
	}
	return &IntervalScope{
		src:     src,
		set:     set,
		order:   order,
		contigs: contigs,
		index:   index,
		done:    bitset.New(uint(len(contigs))),
	}
}

// enter marks the contigs that lie before a newly entered contig as
// done.
func (scope *IntervalScope) enter(contig string) {
	if i, ok := scope.index[scope.current]; ok {
		scope.done.Set(i)
	}
	scope.current = contig
	rank := scope.order.Rank(contig)
	for i, c := range scope.contigs {
		if r, ok := scope.order.rankOf(c); ok && r < rank {
			scope.done.Set(uint(i))
		}
	}
}

// Peek implements Source.
func (scope *IntervalScope) Peek() (*vcf.Variant, error) {
	for {
		if scope.done.Count() == uint(len(scope.contigs)) {
			return nil, nil
		}
		v, err := scope.src.Peek()
		if v == nil || err != nil {
			return v, err
		}
		if v.Chrom != scope.current {
			scope.enter(v.Chrom)
		}
		i, ok := scope.index[v.Chrom]
		if !ok || scope.done.Test(i) {
			scope.src.Advance()
			continue
		}
		contigIntervals := scope.set[v.Chrom]
		if v.Pos > contigIntervals[len(contigIntervals)-1].End {
			scope.done.Set(i)
			scope.src.Advance()
			continue
		}
		if intervals.Overlap(contigIntervals, v.Pos, refEnd(v)) {
			return v, nil
		}
		scope.src.Advance()
	}
}

// Advance implements Source.
func (scope *IntervalScope) Advance() {
	scope.src.Advance()
}

// HomRefSynthesizer decorates a truth Source. At every position in
// its interval set where the call stream has a record and the truth
// stream does not, it yields a homozygous reference truth record.
// Positions inside the reference span of a truth record are left
// alone.
type HomRefSynthesizer struct {
	truth, call Source
	set         intervals.Set
	order       *ContigOrder
	synthetic   *vcf.Variant

	// reference span of the truth records passed on the current contig
	chrom   string
	spanEnd int32
}

// NewHomRefSynthesizer decorates truth. The call Source must be the
// one that is walked alongside the result.
func NewHomRefSynthesizer(truth, call Source, set intervals.Set, order *ContigOrder) (*HomRefSynthesizer, error) {
	if len(set) == 0 {
		return nil, fmt.Errorf("%w: treating missing sites as hom-ref requires intervals", ErrContradictoryScope)
	}
	return &HomRefSynthesizer{truth: truth, call: call, set: set, order: order}, nil
}

func homRef(call *vcf.Variant) *vcf.Variant {
	return &vcf.Variant{
		Chrom:          call.Chrom,
		Pos:            call.Pos,
		Ref:            call.Ref,
		GenotypeFormat: []utils.Symbol{vcf.GT},
		GenotypeData:   []vcf.Genotype{{GT: []int32{0, 0}}},
	}
}

// Peek implements Source.
func (s *HomRefSynthesizer) Peek() (*vcf.Variant, error) {
	if s.synthetic != nil {
		return s.synthetic, nil
	}
	t, err := s.truth.Peek()
	if err != nil {
		return nil, err
	}
	c, err := s.call.Peek()
	if err != nil {
		return nil, err
	}
	if c != nil && !s.spans(c) && s.set.Contains(c.Chrom, c.Pos) && (t == nil || s.order.Compare(c, t) < 0) {
		s.synthetic = homRef(c)
		return s.synthetic, nil
	}
	return t, nil
}

func (s *HomRefSynthesizer) spans(c *vcf.Variant) bool {
	return c.Chrom == s.chrom && c.Pos <= s.spanEnd
}

// Advance implements Source.
func (s *HomRefSynthesizer) Advance() {
	if s.synthetic != nil {
		s.synthetic = nil
		return
	}
	if t, err := s.truth.Peek(); err == nil && t != nil {
		end := refEnd(t)
		if t.Chrom != s.chrom {
			s.chrom, s.spanEnd = t.Chrom, end
		} else if end > s.spanEnd {
			s.spanEnd = end
		}
	}
	s.truth.Advance()
}
