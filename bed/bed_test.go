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

package bed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exascience/gtconcord/utils"
)

func TestParse(t *testing.T) {
	const data = "browser position chr20:1-100\n" +
		"track name=exome\n" +
		"# comment\n" +
		"20\t500\t600\ttarget2\n" +
		"20\t100\t200\ttarget1\n" +
		"21\t0\t10\n"
	bed, err := Parse(strings.NewReader(data))
	require.NoError(t, err)
	regions := bed.RegionMap[utils.Intern("20")]
	require.Len(t, regions, 2)
	assert.Equal(t, int32(100), regions[0].Start)
	assert.Equal(t, "target1", regions[0].Name)
	assert.Equal(t, int32(600), regions[1].End)
	assert.Len(t, bed.RegionMap[utils.Intern("21")], 1)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse(strings.NewReader("20\t100\n"))
	assert.Error(t, err)
	_, err = Parse(strings.NewReader("20\tx\t100\n"))
	assert.Error(t, err)
	_, err = Parse(strings.NewReader("20\t-5\t100\n"))
	assert.Error(t, err)
}
