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
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/exascience/gtconcord/concordance"
	"github.com/exascience/gtconcord/intervals"
	"github.com/exascience/gtconcord/vcf"
)

// GenotypeConcordanceHelp is the help string for this command.
const GenotypeConcordanceHelp = "\ngenotype-concordance parameters:\n" +
	"gtconcord genotype-concordance truth.vcf call.vcf output-prefix\n" +
	"[--truth-sample name]\n" +
	"[--call-sample name]\n" +
	"[--intervals .bed|.interval_list|.elsites|.vcf file]*\n" +
	"[--min-gq nr]\n" +
	"[--min-dp nr]\n" +
	"[--output-all-rows]\n" +
	"[--missing-sites-hom-ref]\n" +
	"[--ignore-filter-status]\n" +
	"[--output-vcf]\n" +
	"[--arrow-output file]\n" +
	"[--save-counts file]\n" +
	"[--merge-counts file]*\n" +
	"[--config file]\n" +
	"[--nr-of-threads nr]\n" +
	"[--timed]\n" +
	"[--profile file]\n" +
	"[--log-path path]\n"

// openSample opens a VCF file and restricts it to one sample.
func openSample(filename, sample string) (r *vcf.Reader, name string, err error) {
	if r, err = vcf.Open(filename); err != nil {
		return nil, "", err
	}
	if name, err = concordance.SelectSample(r, sample); err != nil {
		_ = r.Close()
		return nil, "", err
	}
	return r, name, nil
}

// GenotypeConcordance implements the gtconcord genotype-concordance
// command.
func GenotypeConcordance() (err error) {
	var (
		fromFlags           Config
		configFile, profile string
		timed               bool
	)

	var flags flag.FlagSet

	fromFlags.register(&flags)
	flags.StringVar(&configFile, "config", "", "read settings from a YAML file")
	flags.BoolVar(&timed, "timed", false, "measure the runtime")
	flags.StringVar(&profile, "profile", "", "write a runtime profile to the specified file(s)")

	parseFlags(&flags, 5, GenotypeConcordanceHelp)

	truthFile := getFilename(os.Args[2], GenotypeConcordanceHelp)
	callFile := getFilename(os.Args[3], GenotypeConcordanceHelp)
	prefix := getFilename(os.Args[4], GenotypeConcordanceHelp)

	cfg, err := loadConfig(configFile, &flags, &fromFlags)
	if err != nil {
		return err
	}

	if err = setLogOutput(cfg.LogPath); err != nil {
		return err
	}

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("", truthFile) {
		sanityChecksFailed = true
	}

	if !checkExist("", callFile) {
		sanityChecksFailed = true
	}

	if !checkCreate("", prefix+concordance.SummaryMetricsExtension) {
		sanityChecksFailed = true
	}

	for _, file := range cfg.Intervals {
		if !checkExist("--intervals", file) {
			sanityChecksFailed = true
		}
	}

	for _, file := range cfg.MergeCounts {
		if !checkExist("--merge-counts", file) {
			sanityChecksFailed = true
		}
	}

	if cfg.ArrowOutput != "" && !checkCreate("--arrow-output", cfg.ArrowOutput) {
		sanityChecksFailed = true
	}

	if cfg.SaveCounts != "" && !checkCreate("--save-counts", cfg.SaveCounts) {
		sanityChecksFailed = true
	}

	if profile != "" && !checkCreate("--profile", profile) {
		sanityChecksFailed = true
	}

	if cfg.MissingSitesHomRef && len(cfg.Intervals) == 0 {
		sanityChecksFailed = true
		log.Println("Error: --missing-sites-hom-ref requires --intervals")
	}

	if cfg.MinGQ < 0 {
		sanityChecksFailed = true
		log.Println("Error: Invalid min-gq: ", cfg.MinGQ)
	}

	if cfg.MinDP < 0 {
		sanityChecksFailed = true
		log.Println("Error: Invalid min-dp: ", cfg.MinDP)
	}

	if cfg.NrOfThreads < 0 {
		sanityChecksFailed = true
		log.Println("Error: Invalid nr-of-threads: ", cfg.NrOfThreads)
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, GenotypeConcordanceHelp)
		os.Exit(1)
	}

	// building output command line

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " genotype-concordance ", truthFile, " ", callFile, " ", prefix)
	if cfg.TruthSample != "" {
		fmt.Fprint(&command, " --truth-sample ", cfg.TruthSample)
	}
	if cfg.CallSample != "" {
		fmt.Fprint(&command, " --call-sample ", cfg.CallSample)
	}
	for _, file := range cfg.Intervals {
		fmt.Fprint(&command, " --intervals ", file)
	}
	if cfg.MinGQ > 0 {
		fmt.Fprint(&command, " --min-gq ", cfg.MinGQ)
	}
	if cfg.MinDP > 0 {
		fmt.Fprint(&command, " --min-dp ", cfg.MinDP)
	}
	if cfg.OutputAllRows {
		fmt.Fprint(&command, " --output-all-rows")
	}
	if cfg.MissingSitesHomRef {
		fmt.Fprint(&command, " --missing-sites-hom-ref")
	}
	if cfg.IgnoreFilterStatus {
		fmt.Fprint(&command, " --ignore-filter-status")
	}
	if cfg.OutputVcf {
		fmt.Fprint(&command, " --output-vcf")
	}
	if cfg.ArrowOutput != "" {
		fmt.Fprint(&command, " --arrow-output ", cfg.ArrowOutput)
	}
	if cfg.SaveCounts != "" {
		fmt.Fprint(&command, " --save-counts ", cfg.SaveCounts)
	}
	for _, file := range cfg.MergeCounts {
		fmt.Fprint(&command, " --merge-counts ", file)
	}
	if cfg.NrOfThreads > 0 {
		runtime.GOMAXPROCS(cfg.NrOfThreads)
		fmt.Fprint(&command, " --nr-of-threads ", cfg.NrOfThreads)
	}
	if timed {
		fmt.Fprint(&command, " --timed")
	}
	if profile != "" {
		fmt.Fprint(&command, " --profile ", profile)
	}
	if cfg.LogPath != "" {
		fmt.Fprint(&command, " --log-path ", cfg.LogPath)
	}

	// executing command

	commandString := command.String()

	log.Println("Executing command:\n", commandString)

	var (
		truth, call             *vcf.Reader
		truthSample, callSample string
		scope                   intervals.Set
	)

	timedRun(timed, profile, "Opening input files.", 1, func() {
		var g errgroup.Group
		g.Go(func() (err error) {
			truth, truthSample, err = openSample(truthFile, cfg.TruthSample)
			return
		})
		g.Go(func() (err error) {
			call, callSample, err = openSample(callFile, cfg.CallSample)
			return
		})
		if len(cfg.Intervals) > 0 {
			g.Go(func() (err error) {
				scope, err = intervals.FromFiles(cfg.Intervals)
				return
			})
		}
		err = g.Wait()
	})
	defer func() {
		for _, r := range []*vcf.Reader{truth, call} {
			if r == nil {
				continue
			}
			if nerr := r.Close(); err == nil {
				err = nerr
			}
		}
	}()
	if err != nil {
		return err
	}

	if scope != nil {
		log.Printf("Restricting the comparison to %v positions on %v contigs.\n", scope.Size(), len(scope))
	}

	log.Printf("Comparing truth sample %v with call sample %v.\n", truthSample, callSample)

	opts := concordance.Options{
		Thresholds: concordance.Thresholds{
			MinGQ:         cfg.MinGQ,
			MinDP:         cfg.MinDP,
			IgnoreFilters: cfg.IgnoreFilterStatus,
		},
		Intervals:          scope,
		MissingSitesHomRef: cfg.MissingSitesHomRef,
	}

	if cfg.OutputVcf {
		if opts.Output, err = concordance.CreateAnnotatedWriter(prefix+concordance.OutputVcfExtension+".gz", truth.Header, call.Header); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var result *concordance.Result

	timedRun(timed, profile, "Comparing genotypes.", 2, func() {
		result, err = concordance.Compare(ctx, truth, call, concordance.NewContigOrder(truth.Header, call.Header), opts)
		if opts.Output != nil {
			if nerr := opts.Output.Close(); err == nil {
				err = nerr
			}
		}
	})
	if err != nil {
		return err
	}

	stats := result.Stats
	log.Printf("Compared %v of %v sites; %v spanning deletions, %v normalization failures, %v without variation.\n",
		stats.Compared, stats.Units, stats.Spanning, stats.NormalizationFailures, stats.NoVariation)
	if stats.NormalizationFailures > 0 {
		log.Println("Warning: Sites whose reference alleles could not be normalized were skipped.")
	}

	counts := result.Counts

	if cfg.SaveCounts != "" {
		timedRun(timed, profile, "Saving concordance counts.", 3, func() {
			err = concordance.SaveCounts(cfg.SaveCounts, counts)
		})
		if err != nil {
			return err
		}
	}

	if len(cfg.MergeCounts) > 0 {
		timedRun(timed, profile, "Merging concordance counts from "+strings.Join(cfg.MergeCounts, ", ")+".", 4, func() {
			err = concordance.LoadCounts(counts, cfg.MergeCounts...)
		})
		if err != nil {
			return err
		}
	}

	timedRun(timed, profile, "Writing metrics.", 5, func() {
		if err = concordance.PrintMetrics(prefix, commandString, truthSample, callSample, cfg.OutputAllRows, counts); err != nil {
			return
		}
		if cfg.ArrowOutput != "" {
			err = concordance.PrintDetailArrow(cfg.ArrowOutput, counts.Details(truthSample, callSample, cfg.OutputAllRows))
		}
	})

	return err
}
