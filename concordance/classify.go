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
	"log"

	"github.com/exascience/gtconcord/vcf"
)

// SampleCall is the genotype of one sample at one site, together with
// the site and genotype metadata that gate its classification. GQ and
// DP are -1 when undefined.
type SampleCall struct {
	Present          bool
	SiteFiltered     bool
	GenotypeFiltered bool
	GQ, DP           int
	Mixed            bool
	Ref              string
	Alleles          [2]string
}

// Thresholds configure the quality gates of the classifier. Zero
// thresholds disable the corresponding gate.
type Thresholds struct {
	MinGQ, MinDP  int
	IgnoreFilters bool
}

// classify applies the checks that precede allele pattern
// classification, in order. The first failing check wins.
func classify(s SampleCall, t Thresholds) gate {
	switch {
	case !s.Present:
		return gateMissing
	case s.SiteFiltered && !t.IgnoreFilters:
		return gateVCFiltered
	case s.GenotypeFiltered && !t.IgnoreFilters:
		return gateGTFiltered
	case s.GQ >= 0 && s.GQ < t.MinGQ:
		return gateLowGQ
	case s.DP >= 0 && s.DP < t.MinDP:
		return gateLowDP
	case s.Alleles[0] == vcf.NoCall || s.Alleles[1] == vcf.NoCall:
		return gateNoCall
	case s.Mixed:
		return gateIsMixed
	default:
		return gatePass
	}
}

// ClassifyTruth determines the TruthState of a truth genotype.
func ClassifyTruth(s SampleCall, t Thresholds) TruthState {
	if g := classify(s, t); g != gatePass {
		return g.truthState()
	}
	a, b := s.Alleles[0], s.Alleles[1]
	switch {
	case a == s.Ref && b == s.Ref:
		return TruthHomRef
	case a == s.Ref || b == s.Ref:
		return TruthHetRefVar1
	case a == b:
		return TruthHomVar1
	default:
		return TruthHetVar1Var2
	}
}

// TruthAlternates returns the non-reference alleles of a truth genotype
// in order of appearance, or nil when the truth state is not a
// genotype pattern.
func TruthAlternates(s SampleCall, state TruthState) []string {
	switch state {
	case TruthHomRef:
		return nil
	case TruthHetRefVar1:
		if s.Alleles[0] == s.Ref {
			return []string{s.Alleles[1]}
		}
		return []string{s.Alleles[0]}
	case TruthHomVar1:
		return []string{s.Alleles[0]}
	case TruthHetVar1Var2:
		return []string{s.Alleles[0], s.Alleles[1]}
	case TruthNoCall, TruthLowGQ, TruthLowDP, TruthVCFiltered, TruthGTFiltered, TruthIsMixed, TruthMissing:
		return nil
	default:
		log.Panicf("invalid truth state %v", state)
		return nil
	}
}

// callRanks numbers the call alleles: the reference is 0, alleles
// shared with the truth genotype are numbered from 1 in order of
// appearance, and other alleles follow the truth alternates.
func callRanks(s SampleCall, truthAlts []string) (ranks [2]int) {
	labels := make(map[string]int, 2)
	matched, novel := 0, len(truthAlts)
	for i, allele := range s.Alleles {
		if allele == s.Ref {
			ranks[i] = 0
			continue
		}
		if label, ok := labels[allele]; ok {
			ranks[i] = label
			continue
		}
		shared := false
		for _, alt := range truthAlts {
			if alt == allele {
				shared = true
				break
			}
		}
		if shared {
			matched++
			ranks[i] = matched
		} else {
			novel++
			ranks[i] = novel
		}
		labels[allele] = ranks[i]
	}
	return ranks
}

// callStateOf maps a pair of allele ranks to a CallState. Rank pairs
// outside the supported state space are IS_MIXED.
func callStateOf(i, j int) CallState {
	if i > j {
		i, j = j, i
	}
	switch {
	case i == 0 && j == 0:
		return CallHomRef
	case i == 0 && j == 1:
		return CallHetRefVar1
	case i == 0 && j == 2:
		return CallHetRefVar2
	case i == 0 && j == 3:
		return CallHetRefVar3
	case i == 1 && j == 1:
		return CallHomVar1
	case i == 2 && j == 2:
		return CallHomVar2
	case i == 3 && j == 3:
		return CallHomVar3
	case i == 1 && j == 2:
		return CallHetVar1Var2
	case i == 1 && j == 3:
		return CallHetVar1Var3
	case i == 2 && j == 3, i == 3 && j == 4:
		return CallHetVar3Var4
	default:
		return CallIsMixed
	}
}

// ClassifyCall determines the CallState of a call genotype, numbering
// its alternate alleles relative to the alternates of the truth
// genotype at the same site.
func ClassifyCall(s SampleCall, t Thresholds, truthAlts []string) CallState {
	if g := classify(s, t); g != gatePass {
		return g.callState()
	}
	ranks := callRanks(s, truthAlts)
	return callStateOf(ranks[0], ranks[1])
}

// alleleType determines the variant type that one alternate allele
// forms with the reference allele, or noVariation for alleles that do
// not spell out bases.
func alleleType(ref, alt string) VariantType {
	switch {
	case !isConcrete(alt):
		return noVariation
	case len(ref) != len(alt):
		return INDEL
	case len(ref) == 1:
		return SNP
	default:
		return mnp
	}
}

// mnp is the type of an alternate with the same length as the
// reference but more than one base. It is reported as MIXED.
const mnp = nVariantTypes + 1

// siteType determines the variant type of a site from its alternate
// alleles. A site without concrete alternates is noVariation. The
// second result reports whether the site mixes allele types.
func siteType(ref string, alts []string) (VariantType, bool) {
	result := noVariation
	for _, alt := range alts {
		switch t := alleleType(ref, alt); {
		case t == noVariation:
		case result == noVariation:
			result = t
		case result != t:
			return MIXED, true
		}
	}
	if result == mnp {
		return MIXED, false
	}
	return result, false
}

// pairType determines the metrics bucket of a comparison unit from the
// site types of the truth and call records. The second result is false
// when neither record shows any variation.
func pairType(truth, call VariantType) (VariantType, bool) {
	switch truth {
	case SNP, INDEL:
		if call == SNP || call == INDEL {
			if call != truth {
				return MIXED, true
			}
		}
		return truth, true
	case MIXED:
		if call == SNP || call == INDEL {
			return call, true
		}
		return MIXED, true
	case noVariation:
		if call == noVariation {
			return noVariation, false
		}
		return call, true
	default:
		log.Panicf("invalid variant type %v", truth)
		return noVariation, false
	}
}

// genotypeAlleles returns the two alleles of the first genotype of a
// variant. Haploid genotypes are doubled; the second result is false
// for genotypes with more than two alleles.
func genotypeAlleles(v *vcf.Variant) ([2]string, bool) {
	g := v.Genotype(0)
	if g == nil {
		return [2]string{vcf.NoCall, vcf.NoCall}, true
	}
	switch len(g.GT) {
	case 0:
		return [2]string{vcf.NoCall, vcf.NoCall}, true
	case 1:
		a := v.Allele(g.GT[0])
		return [2]string{a, a}, true
	case 2:
		return [2]string{v.Allele(g.GT[0]), v.Allele(g.GT[1])}, true
	default:
		return [2]string{vcf.NoCall, vcf.NoCall}, false
	}
}

// newSampleCall gathers the classification input of the first
// genotype of a variant, with alleles already normalized against ref.
// A nil variant yields a missing SampleCall.
func newSampleCall(v *vcf.Variant, ref string, alleles [2]string, diploid bool) SampleCall {
	if v == nil {
		return SampleCall{GQ: -1, DP: -1, Ref: ref, Alleles: alleles}
	}
	s := SampleCall{
		Present:      true,
		SiteFiltered: v.Filtered(),
		GQ:           -1,
		DP:           -1,
		Ref:          ref,
		Alleles:      alleles,
	}
	_, s.Mixed = siteType(v.Ref, v.Alt)
	if !diploid {
		s.Mixed = true
	}
	if g := v.Genotype(0); g != nil {
		s.GenotypeFiltered = !g.Pass()
		if gq, ok := g.Int(vcf.GQ); ok {
			s.GQ = gq
		}
		if dp, ok := g.Int(vcf.DP); ok {
			s.DP = dp
		}
	}
	return s
}

// hasSpanningDeletion reports whether a variant carries the spanning
// deletion allele.
func hasSpanningDeletion(v *vcf.Variant) bool {
	if v == nil {
		return false
	}
	for _, alt := range v.Alt {
		if alt == vcf.SpanningDeletion {
			return true
		}
	}
	return false
}
