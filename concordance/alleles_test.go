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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAllelesSameRef(t *testing.T) {
	alleles, err := NormalizeAlleles("A", [2]string{"A", "C"}, "A", [2]string{"A", "G"})
	require.NoError(t, err)
	assert.Equal(t, "A", alleles.Ref)
	assert.Equal(t, [2]string{"A", "C"}, alleles.Truth)
	assert.Equal(t, [2]string{"A", "G"}, alleles.Call)
}

func TestNormalizeAllelesPadding(t *testing.T) {
	// The same deletion, once with an extra base of padding.
	alleles, err := NormalizeAlleles("ACT", [2]string{"ACT", "A"}, "AC", [2]string{"AC", "A"})
	require.NoError(t, err)
	assert.Equal(t, "ACT", alleles.Ref)
	assert.Equal(t, [2]string{"ACT", "A"}, alleles.Truth)
	assert.Equal(t, [2]string{"ACT", "AT"}, alleles.Call)

	alleles, err = NormalizeAlleles("ACGT", [2]string{"ACGT", "AGT"}, "AC", [2]string{"A", "AC"})
	require.NoError(t, err)
	assert.Equal(t, [2]string{"ACGT", "AGT"}, alleles.Truth)
	assert.Equal(t, [2]string{"AGT", "ACGT"}, alleles.Call)
}

func TestNormalizeAllelesPassThrough(t *testing.T) {
	alleles, err := NormalizeAlleles("A", [2]string{".", "C"}, "ACG", [2]string{"*", "<NON_REF>"})
	require.NoError(t, err)
	assert.Equal(t, "ACG", alleles.Ref)
	assert.Equal(t, [2]string{".", "CCG"}, alleles.Truth)
	assert.Equal(t, [2]string{"*", "<NON_REF>"}, alleles.Call)
}

func TestNormalizeAllelesMissingSide(t *testing.T) {
	alleles, err := NormalizeAlleles("", [2]string{".", "."}, "AT", [2]string{"AT", "A"})
	require.NoError(t, err)
	assert.Equal(t, "AT", alleles.Ref)
	assert.Equal(t, [2]string{".", "."}, alleles.Truth)
	assert.Equal(t, [2]string{"AT", "A"}, alleles.Call)

	alleles, err = NormalizeAlleles("G", [2]string{"G", "T"}, "", [2]string{".", "."})
	require.NoError(t, err)
	assert.Equal(t, "G", alleles.Ref)
	assert.Equal(t, [2]string{"G", "T"}, alleles.Truth)
}

func TestNormalizeAllelesIncompatible(t *testing.T) {
	for _, refs := range [][2]string{{"A", "C"}, {"AT", "CT"}, {"ACT", "G"}, {"G", "ACT"}} {
		_, err := NormalizeAlleles(refs[0], [2]string{refs[0], refs[0]}, refs[1], [2]string{refs[1], refs[1]})
		var normErr *NormalizationError
		require.True(t, errors.As(err, &normErr), "%v", refs)
		assert.Equal(t, refs[0], normErr.TruthRef)
		assert.Equal(t, refs[1], normErr.CallRef)
	}
}

func TestNormalizeAllelesSymmetric(t *testing.T) {
	cases := []struct {
		ref1    string
		alleles [2]string
		ref2    string
		other   [2]string
	}{
		{"A", [2]string{"A", "C"}, "A", [2]string{"C", "C"}},
		{"ACT", [2]string{"ACT", "A"}, "AC", [2]string{"AC", "A"}},
		{"A", [2]string{".", "AT"}, "ATTT", [2]string{"A", "ATTTT"}},
		{"", [2]string{".", "."}, "G", [2]string{"G", "T"}},
	}
	for _, c := range cases {
		forward, err := NormalizeAlleles(c.ref1, c.alleles, c.ref2, c.other)
		require.NoError(t, err)
		backward, err := NormalizeAlleles(c.ref2, c.other, c.ref1, c.alleles)
		require.NoError(t, err)
		assert.Equal(t, forward, backward.swap())
	}
}
