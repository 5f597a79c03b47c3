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
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "?", formatFloat(math.NaN()))
	assert.Equal(t, "1", formatFloat(1))
	assert.Equal(t, "0", formatFloat(0))
	assert.Equal(t, "0.75", formatFloat(0.75))
	assert.Equal(t, "0.666667", formatFloat(2.0/3.0))
}

func withoutStartTime(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if !strings.HasPrefix(line, "# Started on:") {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func TestWriteSummaryMetrics(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, WriteSummaryMetrics(&out, "gtconcord genotype-concordance", exampleCounts().Summaries("NA1", "NA2")))
	lines := strings.Split(out.String(), "\n")
	require.True(t, len(lines) > 10)
	assert.Equal(t, "## htsjdk.samtools.metrics.StringHeader", lines[0])
	assert.Equal(t, "# gtconcord genotype-concordance", lines[1])
	assert.True(t, strings.HasPrefix(lines[3], "# Started on: "))
	assert.Equal(t, "", lines[4])
	assert.Equal(t, "## METRICS CLASS\tpicard.vcf.GenotypeConcordanceSummaryMetrics", lines[5])
	assert.True(t, strings.HasPrefix(lines[6], "VARIANT_TYPE\tTRUTH_SAMPLE\tCALL_SAMPLE\tHET_SENSITIVITY"))
	assert.Equal(t, "SNP\tNA1\tNA2\t0.666667\t0.666667\t1\t1\t0.75\t0.75\t0.6\t0.75\t0.666667", lines[7])
	assert.Equal(t, "MIXED\tNA1\tNA2\t?\t?\t?\t?\t?\t?\t?\t?\t?", lines[9])
}

func TestWriteDetailAndContingencyMetrics(t *testing.T) {
	var out bytes.Buffer
	counts := exampleCounts()
	require.NoError(t, WriteDetailMetrics(&out, "cmd", counts.Details("NA1", "NA2", false)))
	assert.Contains(t, out.String(), "## METRICS CLASS\tpicard.vcf.GenotypeConcordanceDetailMetrics\n")
	assert.Contains(t, out.String(), "\nSNP\tNA1\tNA2\tHET_REF_VAR1\tHET_REF_VAR1\t4\n")
	assert.Contains(t, out.String(), "\nINDEL\tNA1\tNA2\tHET_REF_VAR1\tHET_REF_VAR1\t2\n")
	assert.NotContains(t, out.String(), "\nMIXED\t")
	assert.Contains(t, out.String(), "\nSNP\tNA1\tNA2\tHET_REF_VAR1\tIS_MIXED\t")

	out.Reset()
	require.NoError(t, WriteContingencyMetrics(&out, "cmd", counts.Contingencies("NA1", "NA2")))
	assert.Contains(t, out.String(), "\nVARIANT_TYPE\tTRUTH_SAMPLE\tCALL_SAMPLE\tTP_COUNT\tTN_COUNT\tFP_COUNT\tFN_COUNT\tEMPTY_COUNT\n")
	assert.Contains(t, out.String(), "\nSNP\tNA1\tNA2\t6\t3\t2\t2\t3\n")
	assert.Contains(t, out.String(), "\nMIXED\tNA1\tNA2\t0\t0\t0\t0\t0\n")
}

func TestPrintMetricsIdempotent(t *testing.T) {
	dir := t.TempDir()
	first, second := filepath.Join(dir, "first"), filepath.Join(dir, "second")
	counts := exampleCounts()
	require.NoError(t, PrintMetrics(first, "cmd", "NA1", "NA2", true, counts))
	require.NoError(t, PrintMetrics(second, "cmd", "NA1", "NA2", true, counts))
	for _, ext := range []string{SummaryMetricsExtension, DetailMetricsExtension, ContingencyMetricsExtension} {
		a, err := os.ReadFile(first + ext)
		require.NoError(t, err)
		b, err := os.ReadFile(second + ext)
		require.NoError(t, err)
		assert.Equal(t, withoutStartTime(string(a)), withoutStartTime(string(b)), ext)
	}
}

func TestPrintDetailArrow(t *testing.T) {
	name := filepath.Join(t.TempDir(), "run.detail.arrow")
	rows := exampleCounts().Details("NA1", "NA2", false)
	require.NoError(t, PrintDetailArrow(name, rows))

	file, err := os.Open(name)
	require.NoError(t, err)
	defer file.Close()
	reader, err := ipc.NewFileReader(file)
	require.NoError(t, err)
	defer reader.Close()
	require.Equal(t, 1, reader.NumRecords())
	record, err := reader.Record(0)
	require.NoError(t, err)
	assert.Equal(t, int64(6), record.NumCols())
	assert.Equal(t, int64(len(rows)), record.NumRows())
	states := record.Column(3).(*array.String)
	counts := record.Column(5).(*array.Int64)
	for i, row := range rows {
		assert.Equal(t, row.TruthState.String(), states.Value(i))
		assert.Equal(t, row.Count, counts.Value(i))
	}
}
