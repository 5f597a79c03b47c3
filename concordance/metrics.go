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

	"github.com/bits-and-blooms/bitset"
)

// SummaryMetrics are the concordance statistics of one variant type.
// Undefined ratios are NaN.
type SummaryMetrics struct {
	VariantType               VariantType
	TruthSample, CallSample   string
	HetSensitivity            float64
	HetPPV                    float64
	HomVarSensitivity         float64
	HomVarPPV                 float64
	VarSensitivity            float64
	VarPPV                    float64
	VarSpecificity            float64
	GenotypeConcordance       float64
	NonRefGenotypeConcordance float64
}

// DetailMetrics is one cell of a concordance matrix.
type DetailMetrics struct {
	VariantType             VariantType
	TruthSample, CallSample string
	TruthState              TruthState
	CallState               CallState
	Count                   int64
}

// ContingencyMetrics are the confusion matrix totals of one variant
// type.
type ContingencyMetrics struct {
	VariantType             VariantType
	TruthSample, CallSample string
	ContingencyCounts
}

func ratio(numerator, denominator int64) float64 {
	if denominator == 0 {
		return math.NaN()
	}
	return float64(numerator) / float64(denominator)
}

func sensitivity(c ContingencyCounts) float64 {
	return ratio(c.TP, c.TP+c.FN)
}

func ppv(c ContingencyCounts) float64 {
	return ratio(c.TP, c.TP+c.FP)
}

func specificity(c ContingencyCounts) float64 {
	return ratio(c.TN, c.TN+c.FP)
}

// Sensitivity is TP / (TP + FN) for a variant type.
func (counts *Counts) Sensitivity(t VariantType) float64 {
	return sensitivity(counts.Contingency(t))
}

// PPV is TP / (TP + FP) for a variant type.
func (counts *Counts) PPV(t VariantType) float64 {
	return ppv(counts.Contingency(t))
}

// Specificity is TN / (TN + FP) for a variant type.
func (counts *Counts) Specificity(t VariantType) float64 {
	return specificity(counts.Contingency(t))
}

// matchingGenotypes pairs each truth genotype state with the call
// state that agrees with it exactly.
var matchingGenotypes = [...]StatePair{
	{TruthHomRef, CallHomRef},
	{TruthHetRefVar1, CallHetRefVar1},
	{TruthHetVar1Var2, CallHetVar1Var2},
	{TruthHomVar1, CallHomVar1},
}

func (counts *Counts) genotypeConcordance(t VariantType, nonRef bool) float64 {
	var matching int64
	for _, pair := range matchingGenotypes {
		if nonRef && pair.Truth == TruthHomRef {
			continue
		}
		matching += counts.Count(t, pair.Truth, pair.Call)
	}
	total := counts.sum(t, truthGenotypes, callGenotypes)
	if nonRef {
		total -= counts.Count(t, TruthHomRef, CallHomRef)
	}
	return ratio(matching, total)
}

// GenotypeConcordance is the fraction of sites with a genotype on both
// sides where both genotypes agree exactly.
func (counts *Counts) GenotypeConcordance(t VariantType) float64 {
	return counts.genotypeConcordance(t, false)
}

// NonRefGenotypeConcordance is GenotypeConcordance without the sites
// that are homozygous reference on both sides.
func (counts *Counts) NonRefGenotypeConcordance(t VariantType) float64 {
	return counts.genotypeConcordance(t, true)
}

func (counts *Counts) restrictedSensitivity(t VariantType, truths *bitset.BitSet) float64 {
	return sensitivity(counts.restrictedContingency(t, truths, allCalls))
}

func (counts *Counts) restrictedPPV(t VariantType, calls *bitset.BitSet) float64 {
	return ppv(counts.restrictedContingency(t, allTruths, calls))
}

// Summary derives the summary metrics of a variant type.
func (counts *Counts) Summary(t VariantType, truthSample, callSample string) SummaryMetrics {
	c := counts.Contingency(t)
	return SummaryMetrics{
		VariantType:               t,
		TruthSample:               truthSample,
		CallSample:                callSample,
		HetSensitivity:            counts.restrictedSensitivity(t, truthHets),
		HetPPV:                    counts.restrictedPPV(t, callHets),
		HomVarSensitivity:         counts.restrictedSensitivity(t, truthHomVars),
		HomVarPPV:                 counts.restrictedPPV(t, callHomVars),
		VarSensitivity:            sensitivity(c),
		VarPPV:                    ppv(c),
		VarSpecificity:            specificity(c),
		GenotypeConcordance:       counts.GenotypeConcordance(t),
		NonRefGenotypeConcordance: counts.NonRefGenotypeConcordance(t),
	}
}

// Summaries derives the summary metrics of all variant types.
func (counts *Counts) Summaries(truthSample, callSample string) (result []SummaryMetrics) {
	for _, t := range AllVariantTypes {
		result = append(result, counts.Summary(t, truthSample, callSample))
	}
	return result
}

// Details lists the cells of the matrix per variant type, truth state
// and call state. Zero cells are omitted unless allRows is set.
func (counts *Counts) Details(truthSample, callSample string, allRows bool) (result []DetailMetrics) {
	for _, t := range AllVariantTypes {
		for _, truth := range AllTruthStates {
			for _, call := range AllCallStates {
				n := counts.Count(t, truth, call)
				if n == 0 && !allRows {
					continue
				}
				result = append(result, DetailMetrics{
					VariantType: t,
					TruthSample: truthSample,
					CallSample:  callSample,
					TruthState:  truth,
					CallState:   call,
					Count:       n,
				})
			}
		}
	}
	return result
}

// Contingencies lists the confusion matrix totals of all variant
// types.
func (counts *Counts) Contingencies(truthSample, callSample string) (result []ContingencyMetrics) {
	for _, t := range AllVariantTypes {
		result = append(result, ContingencyMetrics{
			VariantType:       t,
			TruthSample:       truthSample,
			CallSample:        callSample,
			ContingencyCounts: counts.Contingency(t),
		})
	}
	return result
}
