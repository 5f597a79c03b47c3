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
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleCounts() *Counts {
	counts := NewCounts()
	counts.Add(SNP, TruthHomRef, CallHomRef, 3)
	counts.Add(SNP, TruthHomRef, CallHetRefVar1, 1)
	counts.Add(SNP, TruthHetRefVar1, CallHetRefVar1, 4)
	counts.Add(SNP, TruthHetRefVar1, CallHomRef, 1)
	counts.Add(SNP, TruthHomVar1, CallHomVar1, 2)
	counts.Add(SNP, TruthHomVar1, CallHetRefVar2, 1)
	counts.Add(SNP, TruthHetVar1Var2, CallMissing, 1)
	counts.Add(SNP, TruthMissing, CallHetRefVar1, 2)
	counts.Add(SNP, TruthHetRefVar1, CallIsMixed, 1)
	counts.Increment(INDEL, TruthHetRefVar1, CallHetRefVar1)
	counts.Increment(INDEL, TruthHetRefVar1, CallHetRefVar1)
	return counts
}

func TestCountsCells(t *testing.T) {
	counts := exampleCounts()
	assert.Equal(t, int64(4), counts.Count(SNP, TruthHetRefVar1, CallHetRefVar1))
	assert.Equal(t, int64(2), counts.Count(INDEL, TruthHetRefVar1, CallHetRefVar1))
	assert.Equal(t, int64(0), counts.Count(MIXED, TruthHetRefVar1, CallHetRefVar1))
	assert.Equal(t, int64(16), counts.Total(SNP))
	assert.Equal(t, int64(2), counts.Total(INDEL))
	assert.Equal(t, int64(0), counts.Total(MIXED))
	assert.Equal(t, int64(10), counts.TruthPositives(SNP))
	assert.Equal(t, int64(10), counts.CallPositives(SNP))
}

func TestCountsMerge(t *testing.T) {
	counts := exampleCounts()
	counts.Merge(exampleCounts())
	assert.Equal(t, int64(8), counts.Count(SNP, TruthHetRefVar1, CallHetRefVar1))
	assert.Equal(t, int64(32), counts.Total(SNP))
	empty := NewCounts()
	empty.Merge(exampleCounts())
	assert.Equal(t, *exampleCounts(), *empty)
}

func TestContingencyOf(t *testing.T) {
	assert.Equal(t, TN, ContingencyOf(TruthHomRef, CallHomRef))
	assert.Equal(t, FP, ContingencyOf(TruthHomRef, CallHetVar3Var4))
	assert.Equal(t, EMPTY, ContingencyOf(TruthHomRef, CallNoCall))
	assert.Equal(t, EMPTY, ContingencyOf(TruthHomRef, CallMissing))
	assert.Equal(t, FN, ContingencyOf(TruthHetRefVar1, CallHomRef))
	assert.Equal(t, FN, ContingencyOf(TruthHomVar1, CallMissing))
	assert.Equal(t, FN, ContingencyOf(TruthHetVar1Var2, CallGTFiltered))
	assert.Equal(t, TP, ContingencyOf(TruthHetVar1Var2, CallHetVar1Var3))
	assert.Equal(t, TP, ContingencyOf(TruthHomVar1, CallHetRefVar1))
	assert.Equal(t, FP, ContingencyOf(TruthHomVar1, CallHomVar2))
	assert.Equal(t, EMPTY, ContingencyOf(TruthHetRefVar1, CallIsMixed))
	assert.Equal(t, EMPTY, ContingencyOf(TruthMissing, CallHetRefVar1))
	assert.Equal(t, EMPTY, ContingencyOf(TruthLowDP, CallHomRef))
	assert.Panics(t, func() { ContingencyOf(TruthHomRef, nCallStates) })
}

func TestContingencyTotals(t *testing.T) {
	counts := exampleCounts()
	for _, typ := range AllVariantTypes {
		c := counts.Contingency(typ)
		var details int64
		for _, row := range counts.Details("truth", "call", false) {
			if row.VariantType == typ {
				details += row.Count
			}
		}
		assert.Equal(t, details, c.Total(), "%v", typ)
		assert.Equal(t, counts.Total(typ), c.Total(), "%v", typ)
	}
	assert.Equal(t, ContingencyCounts{TP: 6, TN: 3, FP: 2, FN: 2, Empty: 3}, counts.Contingency(SNP))
}

func TestMetrics(t *testing.T) {
	counts := exampleCounts()
	assert.InDelta(t, 6.0/8.0, counts.Sensitivity(SNP), 1e-9)
	assert.InDelta(t, 6.0/8.0, counts.PPV(SNP), 1e-9)
	// TN / (TN + FP), where the HOM_VAR1/HET_REF_VAR2 cell is a false
	// positive too
	assert.InDelta(t, 3.0/5.0, counts.Specificity(SNP), 1e-9)
	// 3 + 4 + 2 agree out of 3 + 1 + 4 + 1 + 2 + 1 genotyped on both sides
	assert.InDelta(t, 9.0/12.0, counts.GenotypeConcordance(SNP), 1e-9)
	assert.InDelta(t, 6.0/9.0, counts.NonRefGenotypeConcordance(SNP), 1e-9)

	summary := counts.Summary(SNP, "NA12878", "NA12878")
	assert.InDelta(t, 4.0/6.0, summary.HetSensitivity, 1e-9)
	assert.InDelta(t, 4.0/6.0, summary.HetPPV, 1e-9)
	assert.InDelta(t, 2.0/2.0, summary.HomVarSensitivity, 1e-9)
	assert.InDelta(t, 2.0/2.0, summary.HomVarPPV, 1e-9)

	assert.True(t, math.IsNaN(counts.Sensitivity(MIXED)))
	assert.True(t, math.IsNaN(counts.Specificity(INDEL)))
	assert.True(t, math.IsNaN(counts.GenotypeConcordance(MIXED)))
}

func TestDetails(t *testing.T) {
	counts := exampleCounts()
	rows := counts.Details("a", "b", false)
	assert.Len(t, rows, 10)
	assert.Equal(t, DetailMetrics{VariantType: SNP, TruthSample: "a", CallSample: "b", TruthState: TruthHomRef, CallState: CallHomRef, Count: 3}, rows[0])
	all := counts.Details("a", "b", true)
	assert.Len(t, all, len(AllVariantTypes)*len(AllTruthStates)*len(AllCallStates))
}

func TestSaveAndLoadCounts(t *testing.T) {
	dir := t.TempDir()
	first, second := filepath.Join(dir, "first.counts"), filepath.Join(dir, "second.counts")
	require.NoError(t, SaveCounts(first, exampleCounts()))
	other := NewCounts()
	other.Add(MIXED, TruthIsMixed, CallHetVar1Var2, 7)
	require.NoError(t, SaveCounts(second, other))

	loaded := NewCounts()
	require.NoError(t, LoadCounts(loaded, first, second))
	expected := exampleCounts()
	expected.Merge(other)
	assert.Equal(t, *expected, *loaded)

	assert.Error(t, LoadCounts(loaded, filepath.Join(dir, "missing.counts")))
}
