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

// Package bed reads BED files. See
// https://genome.ucsc.edu/FAQ/FAQformat.html#format1
package bed

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/exascience/gtconcord/utils"
)

// A Region is one line of a BED file. Start is 0-based and End is
// exclusive, as in the file.
type Region struct {
	Chrom utils.Symbol
	Start int32
	End   int32
	Name  string // "" if not present
}

// A Bed holds the regions of a BED file per chromosome, sorted by
// start position.
type Bed struct {
	RegionMap map[utils.Symbol][]*Region
}

// NewBed allocates and initializes an empty Bed.
func NewBed() *Bed {
	return &Bed{RegionMap: make(map[utils.Symbol][]*Region)}
}

// AddRegion adds a region to the bed region map.
func (bed *Bed) AddRegion(region *Region) {
	bed.RegionMap[region.Chrom] = append(bed.RegionMap[region.Chrom], region)
}

func (bed *Bed) sortRegions() {
	for _, regions := range bed.RegionMap {
		sort.SliceStable(regions, func(i, j int) bool {
			return regions[i].Start < regions[j].Start
		})
	}
}

func parsePosition(field, line string) (int32, error) {
	value, err := strconv.ParseInt(field, 10, 32)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid position %v in BED line %v", field, line)
	}
	return int32(value), nil
}

// Parse reads BED data. Header, track and browser lines are skipped.
func Parse(r io.Reader) (*Bed, error) {
	bed := NewBed()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" ||
			strings.HasPrefix(line, "#") ||
			strings.HasPrefix(line, "track") ||
			strings.HasPrefix(line, "browser") {
			continue
		}
		data := strings.Split(line, "\t")
		if len(data) < 3 {
			return nil, fmt.Errorf("BED line with fewer than three columns: %v", line)
		}
		start, err := parsePosition(data[1], line)
		if err != nil {
			return nil, err
		}
		end, err := parsePosition(data[2], line)
		if err != nil {
			return nil, err
		}
		region := &Region{Chrom: utils.Intern(data[0]), Start: start, End: end}
		if len(data) > 3 {
			region.Name = data[3]
		}
		bed.AddRegion(region)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	bed.sortRegions()
	return bed, nil
}

// ParseFile parses a BED file, which may be compressed.
func ParseFile(filename string) (_ *Bed, err error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := file.Close(); err == nil {
			err = nerr
		}
	}()
	input, err := utils.OpenCompressed(bufio.NewReader(file))
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := input.Close(); err == nil {
			err = nerr
		}
	}()
	return Parse(input)
}
