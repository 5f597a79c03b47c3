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
	"encoding/gob"
	"fmt"
	"os"
)

// Counts is a concordance count matrix, indexed by variant type, truth
// state and call state. The zero value is an empty matrix.
type Counts struct {
	cells [nVariantTypes][nTruthStates][nCallStates]int64
}

// NewCounts creates an empty matrix.
func NewCounts() *Counts {
	return &Counts{}
}

// Increment adds one to a cell.
func (counts *Counts) Increment(t VariantType, truth TruthState, call CallState) {
	counts.cells[t][truth][call]++
}

// Add adds n to a cell.
func (counts *Counts) Add(t VariantType, truth TruthState, call CallState, n int64) {
	counts.cells[t][truth][call] += n
}

// Count returns the value of a cell.
func (counts *Counts) Count(t VariantType, truth TruthState, call CallState) int64 {
	return counts.cells[t][truth][call]
}

// Merge adds all cells of other to counts.
func (counts *Counts) Merge(other *Counts) {
	for t := range counts.cells {
		for truth := range counts.cells[t] {
			for call := range counts.cells[t][truth] {
				counts.cells[t][truth][call] += other.cells[t][truth][call]
			}
		}
	}
}

// Total returns the sum of all cells of a variant type.
func (counts *Counts) Total(t VariantType) (total int64) {
	for truth := range counts.cells[t] {
		for _, n := range counts.cells[t][truth] {
			total += n
		}
	}
	return total
}

// TruthPositives returns the number of sites of a variant type where
// the truth genotype carries a variant allele.
func (counts *Counts) TruthPositives(t VariantType) int64 {
	return counts.sum(t, truthVariants, allCalls)
}

// CallPositives returns the number of sites of a variant type where
// the call genotype carries a variant allele.
func (counts *Counts) CallPositives(t VariantType) int64 {
	return counts.sum(t, allTruths, callVariants)
}

// countRecord is the serialized form of a non-zero cell.
type countRecord struct {
	VariantType, Truth, Call string
	Count                    int64
}

// SaveCounts writes the non-zero cells of a matrix to a gob file, to
// be combined later with LoadCounts.
func SaveCounts(name string, counts *Counts) (err error) {
	var records []countRecord
	for _, t := range AllVariantTypes {
		for _, truth := range AllTruthStates {
			for _, call := range AllCallStates {
				if n := counts.Count(t, truth, call); n != 0 {
					records = append(records, countRecord{t.String(), truth.String(), call.String(), n})
				}
			}
		}
	}
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if nerr := file.Close(); err == nil {
			err = nerr
		}
	}()
	return gob.NewEncoder(file).Encode(records)
}

// LoadCounts reads matrices written by SaveCounts and adds them to
// counts.
func LoadCounts(counts *Counts, names ...string) error {
	for _, name := range names {
		file, err := os.Open(name)
		if err != nil {
			return err
		}
		var records []countRecord
		if err = gob.NewDecoder(file).Decode(&records); err != nil {
			_ = file.Close()
			return fmt.Errorf("%w, while loading counts from %v", err, name)
		}
		if err = file.Close(); err != nil {
			return err
		}
		for _, record := range records {
			t, err := ParseVariantType(record.VariantType)
			if err != nil {
				return fmt.Errorf("%w, while loading counts from %v", err, name)
			}
			truth, err := ParseTruthState(record.Truth)
			if err != nil {
				return fmt.Errorf("%w, while loading counts from %v", err, name)
			}
			call, err := ParseCallState(record.Call)
			if err != nil {
				return fmt.Errorf("%w, while loading counts from %v", err, name)
			}
			counts.Add(t, truth, call, record.Count)
		}
	}
	return nil
}
