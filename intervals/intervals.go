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

// Package intervals represents genomic regions as sorted,
// non-overlapping, 1-based inclusive intervals per contig.
package intervals

import (
	"errors"
	"fmt"
	"sort"

	"github.com/exascience/pargo/parallel"
	psort "github.com/exascience/pargo/sort"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Interval is a 1-based range of positions; both Start and End are
// included.
type Interval struct {
	Start, End int32
}

// SortByStart sorts a slice of Interval by Start position.
func SortByStart(intervals []Interval) {
	sort.SliceStable(intervals, func(i, j int) bool {
		return intervals[i].Start < intervals[j].Start
	})
}

type stableIntervalSorter []Interval

func (s stableIntervalSorter) SequentialSort(i, j int) {
	SortByStart(s[i:j])
}

func (s stableIntervalSorter) NewTemp() psort.StableSorter {
	return stableIntervalSorter(make([]Interval, len(s)))
}

func (s stableIntervalSorter) Len() int {
	return len(s)
}

func (s stableIntervalSorter) Less(i, j int) bool {
	return s[i].Start < s[j].Start
}

func (s stableIntervalSorter) Assign(source psort.StableSorter) func(i, j, len int) {
	dst, src := s, source.(stableIntervalSorter)
	return func(i, j, len int) {
		copy(dst[i:i+len], src[j:j+len])
	}
}

// ParallelSortByStart sorts a slice of Interval by Start position
// with a parallel stable sort.
func ParallelSortByStart(intervals []Interval) {
	psort.StableSort(stableIntervalSorter(intervals))
}

// Extend grows interval1 to include interval2 if the two overlap, and
// reports whether they do. interval2.Start >= interval1.Start must
// hold.
func (interval1 *Interval) Extend(interval2 Interval) bool {
	if interval2.Start > interval1.End {
		return false
	}
	if interval2.End > interval1.End {
		interval1.End = interval2.End
	}
	return true
}

// Flatten merges overlapping intervals. The intervals must be sorted
// by Start; the result is sorted by Start and shares memory with the
// argument.
func Flatten(intervals []Interval) []Interval {
	for i, n := 0, len(intervals)-1; i < n; i++ {
		if intervals[i].Extend(intervals[i+1]) {
			n++
			for j := i + 1; j < n; j++ {
				if !intervals[i].Extend(intervals[j]) {
					i++
					intervals[i] = intervals[j]
				}
			}
			return intervals[:i+1]
		}
	}
	return intervals
}

const parallelFlattenGrainSize = 0x1000

// ParallelFlatten is Flatten with a parallel divide-and-conquer
// algorithm.
func ParallelFlatten(intervals []Interval) []Interval {
	if len(intervals) < parallelFlattenGrainSize {
		return Flatten(intervals)
	}
	half := len(intervals) >> 1
	left, right := intervals[:half], intervals[half:]
	parallel.Do(
		func() { left = ParallelFlatten(left) },
		func() { right = ParallelFlatten(right) },
	)
	for len(right) > 0 && left[len(left)-1].Extend(right[0]) {
		right = right[1:]
	}
	return append(left, right...)
}

// Contains reports whether pos lies in one of the intervals, which
// must be flattened.
func Contains(intervals []Interval, pos int32) bool {
	i := sort.Search(len(intervals), func(i int) bool {
		return intervals[i].End >= pos
	})
	return i < len(intervals) && intervals[i].Start <= pos
}

// Overlap reports whether the inclusive range start..end overlaps with
// any of the intervals, which must be flattened.
func Overlap(intervals []Interval, start, end int32) bool {
	for left, right := 0, len(intervals)-1; left <= right; {
		mid := (left + right) / 2
		switch {
		case intervals[mid].Start > end:
			right = mid - 1
		case intervals[mid].End < start:
			left = mid + 1
		default:
			return true
		}
	}
	return false
}

// ErrInvalidInterval is returned for intervals that end before they
// start or start before position 1.
var ErrInvalidInterval = errors.New("invalid interval")

// A Set maps contig names to intervals.
type Set map[string][]Interval

// Add adds an interval to the set.
func (set Set) Add(contig string, start, end int32) error {
	if start < 1 || start > end {
		return fmt.Errorf("%w %v:%v-%v", ErrInvalidInterval, contig, start, end)
	}
	set[contig] = append(set[contig], Interval{Start: start, End: end})
	return nil
}

// Merge adds all intervals of another set.
func (set Set) Merge(other Set) {
	for contig, intervals := range other {
		set[contig] = append(set[contig], intervals...)
	}
}

// Contigs returns the contigs of the set in lexicographic order.
func (set Set) Contigs() []string {
	contigs := maps.Keys(set)
	slices.Sort(contigs)
	return contigs
}

// Normalize sorts and flattens the intervals of every contig, one
// contig per parallel task.
func (set Set) Normalize() {
	contigs := set.Contigs()
	if len(contigs) == 0 {
		return
	}
	flattened := make([][]Interval, len(contigs))
	parallel.Range(0, len(contigs), 0, func(low, high int) {
		for i := low; i < high; i++ {
			intervals := set[contigs[i]]
			ParallelSortByStart(intervals)
			flattened[i] = ParallelFlatten(intervals)
		}
	})
	for i, contig := range contigs {
		set[contig] = flattened[i]
	}
}

// Contains reports whether the position on the contig is in the set.
// The set must be normalized.
func (set Set) Contains(contig string, pos int32) bool {
	return Contains(set[contig], pos)
}

// Size returns the number of positions covered by a normalized set.
func (set Set) Size() (size int64) {
	for _, intervals := range set {
		for _, interval := range intervals {
			size += int64(interval.End - interval.Start + 1)
		}
	}
	return size
}
