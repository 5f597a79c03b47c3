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
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/exascience/pargo/pipeline"

	"github.com/exascience/gtconcord/intervals"
	"github.com/exascience/gtconcord/vcf"
)

// ErrUnknownSample is returned when a requested sample does not occur
// in a VCF file, or when no sample is requested for a file that does
// not have exactly one.
var ErrUnknownSample = errors.New("unknown sample")

// SelectSample restricts a reader to the named sample and returns the
// name of the selected sample. The empty name selects the only sample
// of a single-sample file.
func SelectSample(r *vcf.Reader, name string) (string, error) {
	index := r.Header.SampleIndex(name)
	if index < 0 {
		if name == "" {
			return "", fmt.Errorf("%w: %v has %v samples, a sample name is required", ErrUnknownSample, r.Name, len(r.Header.Samples()))
		}
		return "", fmt.Errorf("%w %v in %v", ErrUnknownSample, name, r.Name)
	}
	r.SelectSample(index)
	return r.Header.Samples()[index], nil
}

// Options configure a comparison.
type Options struct {
	Thresholds

	// Intervals restricts the comparison when non-nil. It must be
	// normalized.
	Intervals intervals.Set

	// MissingSitesHomRef treats in-scope call sites without a truth
	// record as homozygous reference in the truth sample. It requires
	// Intervals.
	MissingSitesHomRef bool

	// Output receives the annotated sites in walk order when non-nil.
	Output *AnnotatedWriter
}

// Stats count what happened to the comparison units of a run.
type Stats struct {
	Units                 int64
	Compared              int64
	Spanning              int64
	NormalizationFailures int64
	NoVariation           int64
}

func (stats *Stats) merge(other Stats) {
	stats.Units += other.Units
	stats.Compared += other.Compared
	stats.Spanning += other.Spanning
	stats.NormalizationFailures += other.NormalizationFailures
	stats.NoVariation += other.NoVariation
}

// Result is the outcome of a comparison.
type Result struct {
	Counts *Counts
	Stats  Stats
}

// outcome of classifying a single unit
type outcome uint8

const (
	compared outcome = iota
	spanning
	normalizationFailure
	noVariationPair
)

// classifyUnit normalizes and classifies one comparison unit.
func classifyUnit(unit Unit, t Thresholds) (site AnnotatedSite, result outcome) {
	site.Unit = unit
	var truthRef, callRef string
	truthAlleles, callAlleles := [2]string{vcf.NoCall, vcf.NoCall}, [2]string{vcf.NoCall, vcf.NoCall}
	truthDiploid, callDiploid := true, true
	if unit.Truth != nil {
		truthRef = unit.Truth.Ref
		truthAlleles, truthDiploid = genotypeAlleles(unit.Truth)
	}
	if unit.Call != nil {
		callRef = unit.Call.Ref
		callAlleles, callDiploid = genotypeAlleles(unit.Call)
	}
	alleles, err := NormalizeAlleles(truthRef, truthAlleles, callRef, callAlleles)
	if err != nil {
		if hasSpanningDeletion(unit.Truth) || hasSpanningDeletion(unit.Call) {
			return site, spanning
		}
		log.Printf("Warning: %v at %v:%v, site excluded", err, unit.Truth.Chrom, unit.Truth.Pos)
		return site, normalizationFailure
	}
	site.Alleles = alleles

	truthType, callType := noVariation, noVariation
	if unit.Truth != nil {
		truthType, _ = siteType(unit.Truth.Ref, unit.Truth.Alt)
	}
	if unit.Call != nil {
		callType, _ = siteType(unit.Call.Ref, unit.Call.Alt)
	}
	variantType, ok := pairType(truthType, callType)
	if !ok {
		return site, noVariationPair
	}
	site.VariantType = variantType

	truth := newSampleCall(unit.Truth, alleles.Ref, alleles.Truth, truthDiploid)
	call := newSampleCall(unit.Call, alleles.Ref, alleles.Call, callDiploid)
	site.Truth = ClassifyTruth(truth, t)
	site.Call = ClassifyCall(call, t, TruthAlternates(truth, site.Truth))
	return site, compared
}

// batch is the partial result of classifying a batch of units.
type batch struct {
	counts Counts
	sites  []AnnotatedSite
	stats  Stats
}

func classifyBatch(units []Unit, t Thresholds, annotate bool) *batch {
	b := &batch{}
	for _, unit := range units {
		site, result := classifyUnit(unit, t)
		switch result {
		case compared:
			b.counts.Increment(site.VariantType, site.Truth, site.Call)
			b.stats.Compared++
			if annotate {
				b.sites = append(b.sites, site)
			}
		case spanning:
			b.stats.Spanning++
		case normalizationFailure:
			b.stats.NormalizationFailures++
		case noVariationPair:
			b.stats.NoVariation++
		default:
			log.Panicf("invalid classification outcome %v", result)
		}
	}
	return b
}

// walkerSource feeds the units of a Walker into a pipeline.
type walkerSource struct {
	ctx    context.Context
	walker *Walker
	data   []Unit
	err    error
}

// Err implements the corresponding method of pipeline.Source
func (src *walkerSource) Err() error {
	return src.err
}

// Prepare implements the corresponding method of pipeline.Source
func (src *walkerSource) Prepare(_ context.Context) int {
	return -1
}

// Fetch implements the corresponding method of pipeline.Source
func (src *walkerSource) Fetch(size int) (fetched int) {
	src.data = nil
	if src.err != nil {
		return 0
	}
	for fetched < size {
		unit, ok, err := src.walker.Next(src.ctx)
		if err != nil {
			src.err = err
			return fetched
		}
		if !ok {
			break
		}
		src.data = append(src.data, unit)
		fetched++
	}
	return fetched
}

// Data implements the corresponding method of pipeline.Source
func (src *walkerSource) Data() interface{} {
	return src.data
}

const (
	minBatchSize = 256
	maxBatchSize = 16384
)

// Compare walks a truth and a call stream, classifies every
// comparison unit, and accumulates the result in a count matrix.
// Classification runs in parallel; annotated sites are written in walk
// order.
func Compare(ctx context.Context, truth, call VariantReader, order *ContigOrder, opts Options) (*Result, error) {
	truthSource, callSource := NewSource(truth), NewSource(call)
	if opts.Intervals != nil {
		truthSource = NewIntervalScope(truthSource, opts.Intervals, order)
		callSource = NewIntervalScope(callSource, opts.Intervals, order)
	}
	if opts.MissingSitesHomRef {
		synthesizer, err := NewHomRefSynthesizer(truthSource, callSource, opts.Intervals, order)
		if err != nil {
			return nil, err
		}
		truthSource = synthesizer
	}
	walker := NewWalker(truthSource, callSource, order)

	result := &Result{Counts: NewCounts()}
	annotate := opts.Output != nil

	var p pipeline.Pipeline
	p.Source(&walkerSource{ctx: ctx, walker: walker})
	p.SetVariableBatchSize(minBatchSize, maxBatchSize)
	p.Add(
		pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
			return classifyBatch(data.([]Unit), opts.Thresholds, annotate)
		})),
		pipeline.StrictOrd(pipeline.Receive(func(_ int, data interface{}) interface{} {
			b := data.(*batch)
			result.Counts.Merge(&b.counts)
			result.Stats.merge(b.stats)
			for i := range b.sites {
				if err := opts.Output.Write(&b.sites[i]); err != nil {
					p.SetErr(err)
					return nil
				}
			}
			return nil
		})),
	)
	p.Run()
	if err := p.Err(); err != nil {
		return nil, err
	}
	result.Stats.Units = walker.Units
	result.Stats.Spanning += walker.Spanning
	return result, nil
}
