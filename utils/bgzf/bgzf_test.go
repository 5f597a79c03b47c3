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

package bgzf

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, text string) string {
	var buf bytes.Buffer
	w := NewWriter(&buf, gzip.BestSpeed)
	_, err := io.WriteString(w, text)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.True(t, bytes.HasSuffix(buf.Bytes(), eofMarker))

	in := bufio.NewReader(&buf)
	assert.True(t, IsBgzf(in))
	r, err := NewReader(in)
	require.NoError(t, err)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	return string(out)
}

func TestRoundTripSmall(t *testing.T) {
	text := "chr1\t100\t.\tA\tC\t50\tPASS\t.\tGT\t0/1\n"
	assert.Equal(t, text, roundTrip(t, text))
}

func TestRoundTripManyBlocks(t *testing.T) {
	text := strings.Repeat("chr20\t1234567\t.\tACGT\tA\t.\tPASS\tDP=12\tGT:GQ\t0|1:99\n", 20000)
	assert.Greater(t, len(text), 3*maxBlockSize)
	assert.Equal(t, text, roundTrip(t, text))
}

func TestStandardGzipCanRead(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, gzip.DefaultCompression)
	_, err := io.WriteString(w, "##fileformat=VCFv4.2\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())
	gz, err := gzip.NewReader(&buf)
	require.NoError(t, err)
	out, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, "##fileformat=VCFv4.2\n", string(out))
}

func TestIsBgzfRejectsPlainGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte("plain"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	in := bufio.NewReader(&buf)
	ok, err := IsGzip(in)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, IsBgzf(in))
}
