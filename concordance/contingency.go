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
	"fmt"
	"log"

	"github.com/bits-and-blooms/bitset"
)

// ContingencyState is the confusion matrix category of one cell of a
// concordance matrix.
type ContingencyState uint8

// Contingency states.
const (
	TP ContingencyState = iota
	TN
	FP
	FN
	EMPTY
)

var contingencyStateNames = [...]string{"TP", "TN", "FP", "FN", "EMPTY"}

func (s ContingencyState) String() string {
	if int(s) < len(contingencyStateNames) {
		return contingencyStateNames[s]
	}
	return fmt.Sprintf("ContingencyState(%d)", uint8(s))
}

func truthSet(states ...TruthState) *bitset.BitSet {
	set := bitset.New(uint(nTruthStates))
	for _, s := range states {
		set.Set(uint(s))
	}
	return set
}

func callSet(states ...CallState) *bitset.BitSet {
	set := bitset.New(uint(nCallStates))
	for _, s := range states {
		set.Set(uint(s))
	}
	return set
}

// State sets used by the contingency scheme and the metrics.
var (
	allTruths      = truthSet(AllTruthStates...)
	allCalls       = callSet(AllCallStates...)
	truthGenotypes = truthSet(TruthHomRef, TruthHetRefVar1, TruthHetVar1Var2, TruthHomVar1)
	truthVariants  = truthSet(TruthHetRefVar1, TruthHetVar1Var2, TruthHomVar1)
	truthHets      = truthSet(TruthHetRefVar1, TruthHetVar1Var2)
	truthHomVars   = truthSet(TruthHomVar1)

	callGenotypes = callSet(CallHomRef, CallHetRefVar1, CallHetRefVar2, CallHetRefVar3,
		CallHetVar1Var2, CallHetVar1Var3, CallHetVar3Var4, CallHomVar1, CallHomVar2, CallHomVar3)
	callVariants = callSet(CallHetRefVar1, CallHetRefVar2, CallHetRefVar3,
		CallHetVar1Var2, CallHetVar1Var3, CallHetVar3Var4, CallHomVar1, CallHomVar2, CallHomVar3)
	callHets = callSet(CallHetRefVar1, CallHetRefVar2, CallHetRefVar3,
		CallHetVar1Var2, CallHetVar1Var3, CallHetVar3Var4)
	callHomVars = callSet(CallHomVar1, CallHomVar2, CallHomVar3)
)

// ContingencyOf assigns a cell of a concordance matrix to exactly one
// contingency state.
func ContingencyOf(truth TruthState, call CallState) ContingencyState {
	switch truth {
	case TruthNoCall, TruthLowGQ, TruthLowDP, TruthVCFiltered, TruthGTFiltered, TruthIsMixed, TruthMissing:
		return EMPTY
	case TruthHomRef:
		switch {
		case call == CallHomRef:
			return TN
		case callVariants.Test(uint(call)):
			return FP
		case call < nCallStates:
			return EMPTY
		}
	case TruthHetRefVar1, TruthHetVar1Var2, TruthHomVar1:
		switch call {
		case CallHomRef, CallNoCall, CallLowGQ, CallLowDP, CallVCFiltered, CallGTFiltered, CallMissing:
			return FN
		case CallHetRefVar1, CallHetVar1Var2, CallHetVar1Var3, CallHomVar1:
			return TP
		case CallHetRefVar2, CallHetRefVar3, CallHetVar3Var4, CallHomVar2, CallHomVar3:
			return FP
		case CallIsMixed:
			return EMPTY
		}
	}
	log.Panicf("invalid state pair %v, %v", truth, call)
	return EMPTY
}

// ContingencyCounts are the confusion matrix totals of one variant
// type.
type ContingencyCounts struct {
	TP, TN, FP, FN, Empty int64
}

// Total returns the sum of all categories.
func (c ContingencyCounts) Total() int64 {
	return c.TP + c.TN + c.FP + c.FN + c.Empty
}

func (c *ContingencyCounts) add(state ContingencyState, n int64) {
	switch state {
	case TP:
		c.TP += n
	case TN:
		c.TN += n
	case FP:
		c.FP += n
	case FN:
		c.FN += n
	case EMPTY:
		c.Empty += n
	default:
		log.Panicf("invalid contingency state %v", state)
	}
}

// Contingency sums the cells of a variant type per contingency state.
func (counts *Counts) Contingency(t VariantType) ContingencyCounts {
	return counts.restrictedContingency(t, allTruths, allCalls)
}

// sum adds the cells of a variant type whose truth and call states are
// in the given sets.
func (counts *Counts) sum(t VariantType, truths, calls *bitset.BitSet) (total int64) {
	for truth, i := truths.NextSet(0); i; truth, i = truths.NextSet(truth + 1) {
		for call, j := calls.NextSet(0); j; call, j = calls.NextSet(call + 1) {
			total += counts.cells[t][truth][call]
		}
	}
	return total
}

// restrictedContingency sums the cells of a variant type per
// contingency state, restricted to the given truth and call states.
func (counts *Counts) restrictedContingency(t VariantType, truths, calls *bitset.BitSet) (result ContingencyCounts) {
	for truth, i := truths.NextSet(0); i; truth, i = truths.NextSet(truth + 1) {
		for call, j := calls.NextSet(0); j; call, j = calls.NextSet(call + 1) {
			if n := counts.cells[t][truth][call]; n != 0 {
				result.add(ContingencyOf(TruthState(truth), CallState(call)), n)
			}
		}
	}
	return result
}
