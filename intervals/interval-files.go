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

package intervals

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/exascience/pargo/pipeline"

	"github.com/exascience/gtconcord/bed"
	"github.com/exascience/gtconcord/vcf"
)

// ElsitesHeader is the header line that every .elsites file starts with.
const ElsitesHeader = "# elsites format version 1.0\n"

func parseSitesLine(line string) (contig string, start, end int32, err error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 3 {
		return "", 0, 0, fmt.Errorf("invalid sites line %v", line)
	}
	s, err := strconv.ParseInt(fields[1], 10, 32)
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w, in sites line %v", err, line)
	}
	e, err := strconv.ParseInt(fields[2], 10, 32)
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w, in sites line %v", err, line)
	}
	return fields[0], int32(s), int32(e), nil
}

// FromElsites loads intervals from .elsites data, parsing batches of
// lines in parallel. Like BED regions, .elsites intervals are 0-based
// and half-open; empty intervals are skipped.
func FromElsites(r io.Reader) (Set, error) {
	input := bufio.NewReader(r)
	header, err := input.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	if header != ElsitesHeader {
		return nil, fmt.Errorf("not a .elsites file - invalid header %q", header)
	}
	var p pipeline.Pipeline
	p.Source(pipeline.NewScanner(input))
	p.Add(pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
		batch := make(Set)
		for _, line := range data.([]string) {
			if line == "" {
				continue
			}
			contig, start, end, err := parseSitesLine(line)
			if err == nil && start != end {
				err = batch.Add(contig, start+1, end)
			}
			if err != nil {
				p.SetErr(err)
				return batch
			}
		}
		return batch
	})))
	set := make(Set)
	p.Add(pipeline.Ord(pipeline.Receive(func(_ int, data interface{}) interface{} {
		set.Merge(data.(Set))
		return nil
	})))
	p.Run()
	if err := p.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

// FromIntervalList loads intervals from Picard interval_list data.
// Header lines start with @; positions are 1-based inclusive.
func FromIntervalList(r io.Reader) (Set, error) {
	set := make(Set)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" || line[0] == '@' {
			continue
		}
		contig, start, end, err := parseSitesLine(line)
		if err != nil {
			return nil, err
		}
		if err := set.Add(contig, start, end); err != nil {
			return nil, err
		}
	}
	return set, scanner.Err()
}

// FromBed converts the 0-based, half-open regions of a BED file.
// Empty regions are skipped.
func FromBed(regions *bed.Bed) (Set, error) {
	set := make(Set)
	for chrom, list := range regions.RegionMap {
		for _, region := range list {
			if region.End == region.Start {
				continue
			}
			if err := set.Add(*chrom, region.Start+1, region.End); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}

// FromVcf collects the reference spans of all variants of a VCF file.
func FromVcf(r *vcf.Reader) (Set, error) {
	r.SkipSamples()
	set := make(Set)
	for {
		variant, err := r.Next()
		if err == io.EOF {
			return set, nil
		} else if err != nil {
			return nil, err
		}
		if err := set.Add(variant.Chrom, variant.Start(), variant.End()); err != nil {
			return nil, err
		}
	}
}

func fromFile(filename string, parse func(io.Reader) (Set, error)) (_ Set, err error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := file.Close(); err == nil {
			err = nerr
		}
	}()
	return parse(file)
}

// FromFile loads intervals from a file, choosing the format by file
// extension: .bed, .interval_list, .elsites, or .vcf (optionally
// followed by .gz).
func FromFile(filename string) (Set, error) {
	base := strings.TrimSuffix(filename, ".gz")
	switch filepath.Ext(base) {
	case ".bed":
		regions, err := bed.ParseFile(filename)
		if err != nil {
			return nil, err
		}
		return FromBed(regions)
	case ".interval_list", ".intervals":
		return fromFile(filename, FromIntervalList)
	case ".elsites":
		return fromFile(filename, FromElsites)
	case ".vcf":
		r, err := vcf.Open(filename)
		if err != nil {
			return nil, err
		}
		set, err := FromVcf(r)
		if nerr := r.Close(); err == nil {
			err = nerr
		}
		return set, err
	default:
		return nil, fmt.Errorf("unknown interval file format for %v", filename)
	}
}

// FromFiles loads and unions the intervals of several files, and
// normalizes the result.
func FromFiles(filenames []string) (Set, error) {
	set := make(Set)
	for _, filename := range filenames {
		part, err := FromFile(filename)
		if err != nil {
			return nil, fmt.Errorf("%w, while loading intervals from %v", err, filename)
		}
		set.Merge(part)
	}
	set.Normalize()
	return set, nil
}
