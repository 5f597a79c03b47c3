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
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config holds the settings of the genotype-concordance command. They
// are read from an optional YAML file, then from GTCONCORD_
// environment variables, then from explicitly given flags.
type Config struct {
	TruthSample        string   `yaml:"truth-sample" envconfig:"GTCONCORD_TRUTH_SAMPLE"`
	CallSample         string   `yaml:"call-sample" envconfig:"GTCONCORD_CALL_SAMPLE"`
	Intervals          []string `yaml:"intervals" envconfig:"GTCONCORD_INTERVALS"`
	MinGQ              int      `yaml:"min-gq" envconfig:"GTCONCORD_MIN_GQ"`
	MinDP              int      `yaml:"min-dp" envconfig:"GTCONCORD_MIN_DP"`
	OutputAllRows      bool     `yaml:"output-all-rows" envconfig:"GTCONCORD_OUTPUT_ALL_ROWS"`
	MissingSitesHomRef bool     `yaml:"missing-sites-hom-ref" envconfig:"GTCONCORD_MISSING_SITES_HOM_REF"`
	IgnoreFilterStatus bool     `yaml:"ignore-filter-status" envconfig:"GTCONCORD_IGNORE_FILTER_STATUS"`
	OutputVcf          bool     `yaml:"output-vcf" envconfig:"GTCONCORD_OUTPUT_VCF"`
	ArrowOutput        string   `yaml:"arrow-output" envconfig:"GTCONCORD_ARROW_OUTPUT"`
	SaveCounts         string   `yaml:"save-counts" envconfig:"GTCONCORD_SAVE_COUNTS"`
	MergeCounts        []string `yaml:"merge-counts" envconfig:"GTCONCORD_MERGE_COUNTS"`
	NrOfThreads        int      `yaml:"nr-of-threads" envconfig:"GTCONCORD_NR_OF_THREADS"`
	LogPath            string   `yaml:"log-path" envconfig:"GTCONCORD_LOG_PATH"`
}

// register binds the command line flags to the fields of cfg.
func (cfg *Config) register(flags *flag.FlagSet) {
	flags.StringVar(&cfg.TruthSample, "truth-sample", "", "name of the truth sample (optional for single-sample files)")
	flags.StringVar(&cfg.CallSample, "call-sample", "", "name of the call sample (optional for single-sample files)")
	flags.Var((*stringList)(&cfg.Intervals), "intervals", "restrict the comparison to the given interval file (can be repeated)")
	flags.IntVar(&cfg.MinGQ, "min-gq", 0, "genotypes below this genotype quality are LOW_GQ")
	flags.IntVar(&cfg.MinDP, "min-dp", 0, "genotypes below this depth are LOW_DP")
	flags.BoolVar(&cfg.OutputAllRows, "output-all-rows", false, "include zero counts in the detail metrics")
	flags.BoolVar(&cfg.MissingSitesHomRef, "missing-sites-hom-ref", false, "treat call sites without truth record as hom-ref in the truth (requires --intervals)")
	flags.BoolVar(&cfg.IgnoreFilterStatus, "ignore-filter-status", false, "ignore site and genotype filters")
	flags.BoolVar(&cfg.OutputVcf, "output-vcf", false, "write an annotated VCF file")
	flags.StringVar(&cfg.ArrowOutput, "arrow-output", "", "write the detail metrics to an Arrow IPC file")
	flags.StringVar(&cfg.SaveCounts, "save-counts", "", "write the concordance counts to a file for a later merge")
	flags.Var((*stringList)(&cfg.MergeCounts), "merge-counts", "add concordance counts saved by an earlier run (can be repeated)")
	flags.IntVar(&cfg.NrOfThreads, "nr-of-threads", 0, "number of worker threads")
	flags.StringVar(&cfg.LogPath, "log-path", "", "write log files to the specified directory")
}

// readConfigFile reads settings from a YAML file. An empty file is
// valid.
func readConfigFile(filename string, cfg *Config) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w, while reading configuration file %v", err, filename)
	}
	return nil
}

// loadConfig layers the configuration sources. Only flags that were
// given explicitly override the file and environment settings.
func loadConfig(filename string, flags *flag.FlagSet, fromFlags *Config) (cfg Config, err error) {
	if filename != "" {
		if err = readConfigFile(filename, &cfg); err != nil {
			return cfg, err
		}
	}
	if err = envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "truth-sample":
			cfg.TruthSample = fromFlags.TruthSample
		case "call-sample":
			cfg.CallSample = fromFlags.CallSample
		case "intervals":
			cfg.Intervals = fromFlags.Intervals
		case "min-gq":
			cfg.MinGQ = fromFlags.MinGQ
		case "min-dp":
			cfg.MinDP = fromFlags.MinDP
		case "output-all-rows":
			cfg.OutputAllRows = fromFlags.OutputAllRows
		case "missing-sites-hom-ref":
			cfg.MissingSitesHomRef = fromFlags.MissingSitesHomRef
		case "ignore-filter-status":
			cfg.IgnoreFilterStatus = fromFlags.IgnoreFilterStatus
		case "output-vcf":
			cfg.OutputVcf = fromFlags.OutputVcf
		case "arrow-output":
			cfg.ArrowOutput = fromFlags.ArrowOutput
		case "save-counts":
			cfg.SaveCounts = fromFlags.SaveCounts
		case "merge-counts":
			cfg.MergeCounts = fromFlags.MergeCounts
		case "nr-of-threads":
			cfg.NrOfThreads = fromFlags.NrOfThreads
		case "log-path":
			cfg.LogPath = fromFlags.LogPath
		}
	})
	return cfg, nil
}
