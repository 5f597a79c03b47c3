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

// Package concordance compares the genotypes of a truth sample and a
// call sample site by site, and derives Picard-compatible genotype
// concordance metrics from the comparison.
package concordance

import (
	"fmt"
	"log"
)

// TruthState classifies the truth genotype at a site.
type TruthState uint8

// Truth states, in metrics output order.
const (
	TruthHomRef TruthState = iota
	TruthHetRefVar1
	TruthHetVar1Var2
	TruthHomVar1
	TruthNoCall
	TruthLowGQ
	TruthLowDP
	TruthVCFiltered
	TruthGTFiltered
	TruthIsMixed
	TruthMissing
	nTruthStates
)

var truthStateNames = [nTruthStates]string{
	"HOM_REF", "HET_REF_VAR1", "HET_VAR1_VAR2", "HOM_VAR1",
	"NO_CALL", "LOW_GQ", "LOW_DP", "VC_FILTERED", "GT_FILTERED", "IS_MIXED", "MISSING",
}

func (s TruthState) String() string {
	if s < nTruthStates {
		return truthStateNames[s]
	}
	return fmt.Sprintf("TruthState(%d)", uint8(s))
}

// ParseTruthState returns the TruthState with the given name.
func ParseTruthState(name string) (TruthState, error) {
	for s, n := range truthStateNames {
		if n == name {
			return TruthState(s), nil
		}
	}
	return nTruthStates, fmt.Errorf("unknown truth state %v", name)
}

// AllTruthStates lists every TruthState in order.
var AllTruthStates = func() (states []TruthState) {
	for s := TruthState(0); s < nTruthStates; s++ {
		states = append(states, s)
	}
	return
}()

// CallState classifies the call genotype at a site, with alternate
// alleles numbered relative to the truth genotype.
type CallState uint8

// Call states, in metrics output order.
const (
	CallHomRef CallState = iota
	CallHetRefVar1
	CallHetRefVar2
	CallHetRefVar3
	CallHetVar1Var2
	CallHetVar1Var3
	CallHetVar3Var4
	CallHomVar1
	CallHomVar2
	CallHomVar3
	CallNoCall
	CallLowGQ
	CallLowDP
	CallVCFiltered
	CallGTFiltered
	CallIsMixed
	CallMissing
	nCallStates
)

var callStateNames = [nCallStates]string{
	"HOM_REF", "HET_REF_VAR1", "HET_REF_VAR2", "HET_REF_VAR3",
	"HET_VAR1_VAR2", "HET_VAR1_VAR3", "HET_VAR3_VAR4",
	"HOM_VAR1", "HOM_VAR2", "HOM_VAR3",
	"NO_CALL", "LOW_GQ", "LOW_DP", "VC_FILTERED", "GT_FILTERED", "IS_MIXED", "MISSING",
}

func (s CallState) String() string {
	if s < nCallStates {
		return callStateNames[s]
	}
	return fmt.Sprintf("CallState(%d)", uint8(s))
}

// ParseCallState returns the CallState with the given name.
func ParseCallState(name string) (CallState, error) {
	for s, n := range callStateNames {
		if n == name {
			return CallState(s), nil
		}
	}
	return nCallStates, fmt.Errorf("unknown call state %v", name)
}

// AllCallStates lists every CallState in order.
var AllCallStates = func() (states []CallState) {
	for s := CallState(0); s < nCallStates; s++ {
		states = append(states, s)
	}
	return
}()

// StatePair is the key of one cell in a concordance matrix.
type StatePair struct {
	Truth TruthState
	Call  CallState
}

func (p StatePair) String() string {
	return p.Truth.String() + "," + p.Call.String()
}

// VariantType is the metrics bucket of a site.
type VariantType uint8

// Variant types. noVariation marks sites without real alternate
// alleles; it never appears in a matrix.
const (
	SNP VariantType = iota
	INDEL
	MIXED
	nVariantTypes
	noVariation = nVariantTypes
)

var variantTypeNames = [nVariantTypes]string{"SNP", "INDEL", "MIXED"}

func (t VariantType) String() string {
	if t < nVariantTypes {
		return variantTypeNames[t]
	}
	return "NO_VARIATION"
}

// ParseVariantType returns the VariantType with the given name.
func ParseVariantType(name string) (VariantType, error) {
	for t, n := range variantTypeNames {
		if n == name {
			return VariantType(t), nil
		}
	}
	return nVariantTypes, fmt.Errorf("unknown variant type %v", name)
}

// AllVariantTypes lists every VariantType in order.
var AllVariantTypes = []VariantType{SNP, INDEL, MIXED}

// gate is the outcome of the quality and filter checks that precede
// allele pattern classification.
type gate uint8

const (
	gatePass gate = iota
	gateMissing
	gateVCFiltered
	gateGTFiltered
	gateLowGQ
	gateLowDP
	gateNoCall
	gateIsMixed
)

func (g gate) truthState() TruthState {
	switch g {
	case gateMissing:
		return TruthMissing
	case gateVCFiltered:
		return TruthVCFiltered
	case gateGTFiltered:
		return TruthGTFiltered
	case gateLowGQ:
		return TruthLowGQ
	case gateLowDP:
		return TruthLowDP
	case gateNoCall:
		return TruthNoCall
	case gateIsMixed:
		return TruthIsMixed
	default:
		log.Panicf("gate %d has no truth state", g)
		return nTruthStates
	}
}

func (g gate) callState() CallState {
	switch g {
	case gateMissing:
		return CallMissing
	case gateVCFiltered:
		return CallVCFiltered
	case gateGTFiltered:
		return CallGTFiltered
	case gateLowGQ:
		return CallLowGQ
	case gateLowDP:
		return CallLowDP
	case gateNoCall:
		return CallNoCall
	case gateIsMixed:
		return CallIsMixed
	default:
		log.Panicf("gate %d has no call state", g)
		return nCallStates
	}
}
