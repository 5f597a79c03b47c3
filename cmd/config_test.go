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

package cmd

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "gtconcord.yaml")
	require.NoError(t, os.WriteFile(name, []byte(content), 0666))
	return name
}

func parseConfig(t *testing.T, filename string, args ...string) Config {
	t.Helper()
	var (
		fromFlags Config
		flags     flag.FlagSet
	)
	fromFlags.register(&flags)
	require.NoError(t, flags.Parse(args))
	cfg, err := loadConfig(filename, &flags, &fromFlags)
	require.NoError(t, err)
	return cfg
}

func TestConfigFile(t *testing.T) {
	name := writeConfig(t, `
truth-sample: NA12878
min-gq: 20
intervals:
  - exome.bed
  - extra.interval_list
output-vcf: true
`)
	cfg := parseConfig(t, name)
	assert.Equal(t, "NA12878", cfg.TruthSample)
	assert.Equal(t, 20, cfg.MinGQ)
	assert.Equal(t, []string{"exome.bed", "extra.interval_list"}, cfg.Intervals)
	assert.True(t, cfg.OutputVcf)
	assert.Zero(t, cfg.MinDP)
	assert.Empty(t, cfg.CallSample)
}

func TestEmptyConfigFile(t *testing.T) {
	cfg := parseConfig(t, writeConfig(t, ""))
	assert.Equal(t, Config{}, cfg)
}

func TestConfigFileErrors(t *testing.T) {
	var flags flag.FlagSet
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), &flags, &Config{})
	assert.Error(t, err)

	_, err = loadConfig(writeConfig(t, "min-gq: [1, 2"), &flags, &Config{})
	assert.Error(t, err)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	name := writeConfig(t, "min-gq: 20\nmin-dp: 5\n")
	t.Setenv("GTCONCORD_MIN_GQ", "30")
	t.Setenv("GTCONCORD_MERGE_COUNTS", "a.counts,b.counts")
	t.Setenv("GTCONCORD_IGNORE_FILTER_STATUS", "true")
	cfg := parseConfig(t, name)
	assert.Equal(t, 30, cfg.MinGQ)
	assert.Equal(t, 5, cfg.MinDP)
	assert.Equal(t, []string{"a.counts", "b.counts"}, cfg.MergeCounts)
	assert.True(t, cfg.IgnoreFilterStatus)
}

func TestInvalidEnvironment(t *testing.T) {
	t.Setenv("GTCONCORD_MIN_DP", "deep")
	var flags flag.FlagSet
	_, err := loadConfig("", &flags, &Config{})
	assert.Error(t, err)
}

func TestExplicitFlagsOverrideEverything(t *testing.T) {
	name := writeConfig(t, "min-gq: 20\ncall-sample: HG002\nintervals: [exome.bed]\n")
	t.Setenv("GTCONCORD_MIN_DP", "10")
	t.Setenv("GTCONCORD_OUTPUT_ALL_ROWS", "true")
	cfg := parseConfig(t, name,
		"--min-dp", "15",
		"--intervals", "a.bed", "--intervals", "b.bed",
		"--nr-of-threads", "4")
	assert.Equal(t, 20, cfg.MinGQ)
	assert.Equal(t, 15, cfg.MinDP)
	assert.Equal(t, "HG002", cfg.CallSample)
	assert.Equal(t, []string{"a.bed", "b.bed"}, cfg.Intervals)
	assert.Equal(t, 4, cfg.NrOfThreads)
	assert.True(t, cfg.OutputAllRows)
}

func TestUnsetFlagsKeepConfig(t *testing.T) {
	name := writeConfig(t, "output-all-rows: true\nmin-gq: 20\n")
	cfg := parseConfig(t, name, "--call-sample", "HG002")
	assert.True(t, cfg.OutputAllRows)
	assert.Equal(t, 20, cfg.MinGQ)
	assert.Equal(t, "HG002", cfg.CallSample)
}

func TestStringList(t *testing.T) {
	var l stringList
	require.NoError(t, l.Set("a.bed"))
	require.NoError(t, l.Set("b.bed"))
	assert.Equal(t, stringList{"a.bed", "b.bed"}, l)
	assert.Equal(t, "a.bed,b.bed", l.String())
}

func TestCheckFiles(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "truth.vcf")
	require.NoError(t, os.WriteFile(existing, nil, 0666))

	assert.True(t, checkExist("", existing))
	assert.False(t, checkExist("", filepath.Join(dir, "call.vcf")))
	assert.False(t, checkExist("--intervals", ""))
	assert.False(t, checkExist("--intervals", "--min-gq"))

	created := filepath.Join(dir, "out", "run.genotype_concordance_summary_metrics")
	assert.True(t, checkCreate("", created))
	_, err := os.Stat(created)
	assert.True(t, os.IsNotExist(err))
	assert.True(t, checkCreate("", existing))
}

func TestLogFilename(t *testing.T) {
	runID := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	at := time.Date(2021, time.March, 4, 5, 6, 7, 8, time.UTC)
	name := logFilename(at, runID)
	assert.Equal(t, filepath.Join("logs", "gtconcord", "gtconcord-2021-03-04-05-06-07-000000008-UTC-6ba7b810-9dad-11d1-80b4-00c04fd430c8.log"), name)
	assert.True(t, strings.HasPrefix(name, filepath.Join("logs", "gtconcord")))
}
