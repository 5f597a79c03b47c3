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
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exascience/gtconcord/intervals"
	"github.com/exascience/gtconcord/utils"
	"github.com/exascience/gtconcord/vcf"
)

type sliceReader []*vcf.Variant

func (r *sliceReader) Next() (*vcf.Variant, error) {
	if len(*r) == 0 {
		return nil, io.EOF
	}
	v := (*r)[0]
	*r = (*r)[1:]
	return v, nil
}

func variant(chrom string, pos int32, ref string, alts ...string) *vcf.Variant {
	return &vcf.Variant{
		Chrom:          chrom,
		Pos:            pos,
		Ref:            ref,
		Alt:            alts,
		GenotypeFormat: []utils.Symbol{vcf.GT},
		GenotypeData:   []vcf.Genotype{{GT: []int32{0, 1}}},
	}
}

func source(variants ...*vcf.Variant) Source {
	r := sliceReader(variants)
	return NewSource(&r)
}

func walkAll(t *testing.T, w *Walker) (units []Unit) {
	require.NoError(t, w.Walk(context.Background(), func(unit Unit) error {
		units = append(units, unit)
		return nil
	}))
	return units
}

func position(unit Unit) (string, int32) {
	if unit.Truth != nil {
		return unit.Truth.Chrom, unit.Truth.Pos
	}
	return unit.Call.Chrom, unit.Call.Pos
}

func TestWalkerPairs(t *testing.T) {
	truth := source(variant("1", 100, "A", "C"), variant("1", 200, "A", "G"), variant("2", 50, "T", "C"))
	call := source(variant("1", 100, "A", "C"), variant("1", 150, "G", "T"), variant("2", 50, "T", "C"), variant("2", 60, "C", "A"))
	w := NewWalker(truth, call, NewContigOrder())
	units := walkAll(t, w)
	require.Len(t, units, 5)

	expected := []struct {
		chrom        string
		pos          int32
		truth, calls bool
	}{
		{"1", 100, true, true},
		{"1", 150, false, true},
		{"1", 200, true, false},
		{"2", 50, true, true},
		{"2", 60, false, true},
	}
	for i, e := range expected {
		chrom, pos := position(units[i])
		assert.Equal(t, e.chrom, chrom)
		assert.Equal(t, e.pos, pos)
		assert.Equal(t, e.truth, units[i].Truth != nil, "unit %v", i)
		assert.Equal(t, e.calls, units[i].Call != nil, "unit %v", i)
	}
	assert.Equal(t, int64(5), w.Units)
	assert.Equal(t, int64(0), w.Spanning)
}

func TestWalkerFirstAppearanceContigOrder(t *testing.T) {
	truth := source(variant("chr1", 100, "A", "C"), variant("chr2", 50, "T", "C"), variant("chr10", 5, "G", "A"))
	call := source(variant("chr1", 100, "A", "C"), variant("chr10", 5, "G", "A"))
	order := NewContigOrder()
	units := walkAll(t, NewWalker(truth, call, order))
	require.Len(t, units, 3)
	assert.Equal(t, "chr2", units[1].Truth.Chrom)
	assert.Nil(t, units[1].Call)
	assert.NotNil(t, units[2].Call)
	assert.True(t, order.Rank("chr1") < order.Rank("chr2"))
	assert.True(t, order.Rank("chr2") < order.Rank("chr10"))
}

func TestWalkerHeaderContigOrder(t *testing.T) {
	hdr := vcf.NewHeader()
	for _, contig := range []string{"chr2", "chr1"} {
		meta := vcf.NewMetaInformation()
		meta.ID = utils.Intern(contig)
		hdr.AddMeta("contig", meta)
	}
	truth := source(variant("chr2", 10, "A", "C"), variant("chr1", 5, "A", "C"))
	call := source(variant("chr1", 5, "A", "C"))
	units := walkAll(t, NewWalker(truth, call, NewContigOrder(hdr)))
	require.Len(t, units, 2)
	assert.Nil(t, units[0].Call)
	assert.NotNil(t, units[1].Call)
}

func TestWalkerSpanningDeletion(t *testing.T) {
	truth := source(variant("1", 100, "ACGT", "A"))
	call := source(variant("1", 102, "G", "T"), variant("1", 104, "C", "T"))
	w := NewWalker(truth, call, NewContigOrder())
	units := walkAll(t, w)
	require.Len(t, units, 2)
	assert.Equal(t, int32(100), units[0].Truth.Pos)
	assert.Nil(t, units[0].Call)
	assert.Equal(t, int32(104), units[1].Call.Pos)
	assert.Equal(t, int64(1), w.Spanning)
}

func TestWalkerNotSorted(t *testing.T) {
	truth := source(variant("1", 200, "A", "C"), variant("1", 100, "A", "C"))
	err := NewWalker(truth, source(), NewContigOrder()).Walk(context.Background(), func(Unit) error { return nil })
	assert.True(t, errors.Is(err, vcf.ErrNotSorted))
	assert.Contains(t, err.Error(), "truth")

	call := source(variant("1", 100, "A", "C"), variant("2", 5, "A", "C"), variant("1", 300, "A", "C"))
	err = NewWalker(source(), call, NewContigOrder()).Walk(context.Background(), func(Unit) error { return nil })
	assert.True(t, errors.Is(err, vcf.ErrNotSorted))
	assert.Contains(t, err.Error(), "call")
}

func TestWalkerReadError(t *testing.T) {
	failing := errors.New("read failure")
	truth := NewSource(readerFunc(func() (*vcf.Variant, error) { return nil, failing }))
	err := NewWalker(truth, source(), NewContigOrder()).Walk(context.Background(), func(Unit) error { return nil })
	assert.True(t, errors.Is(err, failing))
}

type readerFunc func() (*vcf.Variant, error)

func (f readerFunc) Next() (*vcf.Variant, error) {
	return f()
}

func TestWalkerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok, err := NewWalker(source(variant("1", 1, "A", "C")), source(), NewContigOrder()).Next(ctx)
	assert.False(t, ok)
	assert.True(t, errors.Is(err, context.Canceled))
}

func scope(t *testing.T, regions ...interface{}) intervals.Set {
	set := make(intervals.Set)
	for i := 0; i < len(regions); i += 3 {
		require.NoError(t, set.Add(regions[i].(string), int32(regions[i+1].(int)), int32(regions[i+2].(int))))
	}
	set.Normalize()
	return set
}

func TestIntervalScope(t *testing.T) {
	set := scope(t, "1", 100, 200, "2", 10, 20)
	r := sliceReader{
		variant("1", 50, "A", "C"),
		variant("1", 98, "ACGT", "A"),
		variant("1", 150, "A", "C"),
		variant("1", 250, "A", "C"),
		variant("2", 15, "A", "C"),
		variant("2", 30, "A", "C"),
		variant("3", 1, "A", "C"),
		variant("3", 2, "A", "C"),
	}
	src := NewIntervalScope(NewSource(&r), set, NewContigOrder())
	var positions []int32
	for {
		v, err := src.Peek()
		require.NoError(t, err)
		if v == nil {
			break
		}
		positions = append(positions, v.Pos)
		src.Advance()
	}
	assert.Equal(t, []int32{98, 150, 15}, positions)
	assert.Len(t, r, 2, "records after the last scoped contig are not read")
}

func TestIntervalScopeSkippedContig(t *testing.T) {
	hdr := vcf.NewHeader()
	for _, contig := range []string{"1", "2", "3"} {
		meta := vcf.NewMetaInformation()
		meta.ID = utils.Intern(contig)
		hdr.AddMeta("contig", meta)
	}
	set := scope(t, "1", 1, 10, "2", 1, 10)
	r := sliceReader{variant("2", 5, "A", "C"), variant("3", 1, "A", "C"), variant("3", 2, "A", "C")}
	src := NewIntervalScope(NewSource(&r), set, NewContigOrder(hdr))
	v, err := src.Peek()
	require.NoError(t, err)
	assert.Equal(t, int32(5), v.Pos)
	src.Advance()
	v, err = src.Peek()
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Len(t, r, 1)
}

func TestHomRefSynthesizer(t *testing.T) {
	set := scope(t, "1", 1, 1000)
	order := NewContigOrder()
	call := NewIntervalScope(source(
		variant("1", 100, "T", "C"),
		variant("1", 200, "A", "G"),
		variant("1", 300, "GA", "G"),
	), set, order)
	truth, err := NewHomRefSynthesizer(NewIntervalScope(source(variant("1", 200, "A", "G")), set, order), call, set, order)
	require.NoError(t, err)
	units := walkAll(t, NewWalker(truth, call, order))
	require.Len(t, units, 3)
	for _, unit := range units {
		require.NotNil(t, unit.Truth)
		require.NotNil(t, unit.Call)
		assert.Equal(t, unit.Call.Pos, unit.Truth.Pos)
		assert.Equal(t, unit.Call.Ref, unit.Truth.Ref)
	}
	assert.Equal(t, []int32{0, 0}, units[0].Truth.Genotype(0).GT)
	assert.Equal(t, []string{"G"}, units[1].Truth.Alt)
	assert.Equal(t, []int32{0, 0}, units[2].Truth.Genotype(0).GT)
	assert.False(t, units[2].Truth.Filtered())
}

func TestHomRefSynthesizerInsideTruthDeletion(t *testing.T) {
	set := scope(t, "1", 1, 1000)
	order := NewContigOrder()
	call := source(variant("1", 102, "G", "T"), variant("1", 104, "C", "T"))
	truth, err := NewHomRefSynthesizer(source(variant("1", 100, "ACGT", "A")), call, set, order)
	require.NoError(t, err)
	w := NewWalker(truth, call, order)
	units := walkAll(t, w)
	require.Len(t, units, 2)
	assert.Equal(t, int32(100), units[0].Truth.Pos)
	assert.Nil(t, units[0].Call)
	require.NotNil(t, units[1].Truth)
	assert.Equal(t, int32(104), units[1].Call.Pos)
	assert.Equal(t, []int32{0, 0}, units[1].Truth.Genotype(0).GT)
	assert.Equal(t, int64(1), w.Spanning)
}

func TestHomRefSynthesizerOutOfScope(t *testing.T) {
	set := scope(t, "1", 1, 150)
	order := NewContigOrder()
	call := source(variant("1", 100, "T", "C"), variant("1", 200, "A", "G"))
	truth, err := NewHomRefSynthesizer(source(), call, set, order)
	require.NoError(t, err)
	units := walkAll(t, NewWalker(truth, call, order))
	require.Len(t, units, 2)
	assert.NotNil(t, units[0].Truth)
	assert.Nil(t, units[1].Truth)
}

func TestHomRefSynthesizerRequiresIntervals(t *testing.T) {
	_, err := NewHomRefSynthesizer(source(), source(), nil, NewContigOrder())
	assert.True(t, errors.Is(err, ErrContradictoryScope))
}
