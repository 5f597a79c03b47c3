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
	"strings"

	"github.com/exascience/gtconcord/vcf"
)

// NormalizedAlleles are the genotype alleles of a truth and a call
// record expressed against one canonical reference allele.
type NormalizedAlleles struct {
	Ref   string
	Truth [2]string
	Call  [2]string
}

// A NormalizationError reports two reference alleles at the same
// position that do not describe the same reference sequence.
type NormalizationError struct {
	TruthRef, CallRef string
}

func (err *NormalizationError) Error() string {
	return fmt.Sprintf("truth reference allele %v and call reference allele %v are incompatible", err.TruthRef, err.CallRef)
}

// isConcrete reports whether an allele spells out bases, as opposed to
// a no-call, a spanning deletion or a symbolic allele.
func isConcrete(allele string) bool {
	switch {
	case allele == "", allele == vcf.NoCall, allele == vcf.SpanningDeletion:
		return false
	case strings.HasPrefix(allele, "<"):
		return false
	default:
		return true
	}
}

func extend(alleles [2]string, suffix string) (result [2]string) {
	for i, allele := range alleles {
		if isConcrete(allele) {
			result[i] = allele + suffix
		} else {
			result[i] = allele
		}
	}
	return result
}

// NormalizeAlleles rewrites the alleles of the side with the shorter
// reference allele so that both sides use the longer reference. An
// empty reference marks a missing side, whose alleles pass through.
func NormalizeAlleles(truthRef string, truth [2]string, callRef string, call [2]string) (NormalizedAlleles, error) {
	switch {
	case truthRef == "":
		return NormalizedAlleles{Ref: callRef, Truth: truth, Call: call}, nil
	case callRef == "":
		return NormalizedAlleles{Ref: truthRef, Truth: truth, Call: call}, nil
	case len(truthRef) == len(callRef):
		if truthRef != callRef {
			return NormalizedAlleles{}, &NormalizationError{TruthRef: truthRef, CallRef: callRef}
		}
		return NormalizedAlleles{Ref: truthRef, Truth: truth, Call: call}, nil
	case len(truthRef) > len(callRef):
		if !strings.HasPrefix(truthRef, callRef) {
			return NormalizedAlleles{}, &NormalizationError{TruthRef: truthRef, CallRef: callRef}
		}
		return NormalizedAlleles{Ref: truthRef, Truth: truth, Call: extend(call, truthRef[len(callRef):])}, nil
	default:
		if !strings.HasPrefix(callRef, truthRef) {
			return NormalizedAlleles{}, &NormalizationError{TruthRef: truthRef, CallRef: callRef}
		}
		return NormalizedAlleles{Ref: callRef, Truth: extend(truth, callRef[len(truthRef):]), Call: call}, nil
	}
}

// swap exchanges the truth and call halves.
func (alleles NormalizedAlleles) swap() NormalizedAlleles {
	return NormalizedAlleles{Ref: alleles.Ref, Truth: alleles.Call, Call: alleles.Truth}
}
