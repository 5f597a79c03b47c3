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

// Package vcf implements the subset of the Variant Call Format needed
// to stream, compare and write back genotype calls.
package vcf

import (
	"log"
	"strconv"
	"strings"

	"github.com/exascience/gtconcord/internal"
	"github.com/exascience/gtconcord/utils"
)

// The supported VCF file format version.
const (
	FileFormatVersion           = "VCFv4.2"
	FileFormatVersionLine       = "##fileformat=VCFv4.2"
	fileFormatVersionLinePrefix = "##fileformat=VCFv4."
)

// DefaultHeaderColumns for VCF files.
var DefaultHeaderColumns = []string{"CHROM", "POS", "ID", "REF", "ALT", "QUAL", "FILTER", "INFO"}

// Type is an enumeration type for different VCF field types
type Type uint

// The different VCF field types
const (
	InvalidType Type = iota
	Integer
	Float
	Flag
	Character
	String
)

var typeNames = [...]string{"", "Integer", "Float", "Flag", "Character", "String"}

func (t Type) String() string {
	return typeNames[t]
}

// Constants for format information Number entries.
const (
	NumberA int32 = -1 * (1 + iota)
	NumberR
	NumberG
	NumberDot
	InvalidNumber
)

// Allele and genotype sentinels.
const (
	NoCall           = "."
	SpanningDeletion = "*"
	NonRef           = "<NON_REF>"
)

// Commonly used VCF entries.
var (
	END  = utils.Intern("END")
	GT   = utils.Intern("GT")
	FT   = utils.Intern("FT")
	GQ   = utils.Intern("GQ")
	DP   = utils.Intern("DP")
	PASS = utils.Intern("PASS")
)

type (
	// MetaInformation is a structured meta-information line, such as
	// ##contig=<ID=20,length=63025520>.
	MetaInformation struct {
		ID          utils.Symbol
		Description string // "" if not present
		Fields      utils.StringMap
	}

	// FormatInformation is an INFO or FORMAT declaration.
	FormatInformation struct {
		ID          utils.Symbol
		Description string
		Number      int32 // > InvalidNumber
		Type        Type
		Fields      utils.StringMap
	}

	// MetaEntry is one meta-information line other than INFO and
	// FORMAT. Value is either a string or a *MetaInformation.
	MetaEntry struct {
		Key   string
		Value interface{}
	}

	// Header section of a VCF file.
	Header struct {
		FileFormat string
		Infos      []*FormatInformation
		Formats    []*FormatInformation
		Meta       []MetaEntry // in file order
		Columns    []string
	}

	// Genotype is the FORMAT data of one sample in a variant line.
	Genotype struct {
		Phased bool
		GT     []int32        // < 0 for no-call entries
		Data   utils.SmallMap // values are nil (missing entry) or string
	}

	// Variant line in a VCF file.
	Variant struct {
		Chrom          string
		Pos            int32    // 1-based
		ID             []string // nil if missing
		Ref            string
		Alt            []string       // nil if missing
		Qual           interface{}    // float64, or nil if missing
		Filter         []utils.Symbol // nil if missing
		Info           utils.SmallMap // values are string, or true for flags
		GenotypeFormat []utils.Symbol
		GenotypeData   []Genotype
	}
)

// NewMetaInformation creates an empty instance.
func NewMetaInformation() *MetaInformation {
	return &MetaInformation{Fields: make(utils.StringMap)}
}

// NewFormatInformation creates an empty instance.
func NewFormatInformation() *FormatInformation {
	return &FormatInformation{Number: InvalidNumber, Fields: make(utils.StringMap)}
}

// NewHeader creates an empty instance.
func NewHeader() *Header {
	return &Header{
		FileFormat: FileFormatVersionLine,
		Columns:    append([]string(nil), DefaultHeaderColumns...),
	}
}

// Samples returns the sample names of the header, in column order.
func (hdr *Header) Samples() []string {
	if len(hdr.Columns) <= len(DefaultHeaderColumns) {
		return nil
	}
	return hdr.Columns[len(DefaultHeaderColumns)+1:]
}

// SampleIndex returns the position of the named sample among the
// sample columns, or -1. The empty name selects the only sample of a
// single-sample file.
func (hdr *Header) SampleIndex(name string) int {
	samples := hdr.Samples()
	if name == "" {
		if len(samples) == 1 {
			return 0
		}
		return -1
	}
	for i, sample := range samples {
		if sample == name {
			return i
		}
	}
	return -1
}

// Contigs returns the IDs of the ##contig lines, in header order.
func (hdr *Header) Contigs() (contigs []string) {
	for _, entry := range hdr.Meta {
		if entry.Key != "contig" {
			continue
		}
		if meta, ok := entry.Value.(*MetaInformation); ok {
			contigs = append(contigs, *meta.ID)
		}
	}
	return contigs
}

// AddMeta appends a meta-information line.
func (hdr *Header) AddMeta(key string, value interface{}) {
	hdr.Meta = append(hdr.Meta, MetaEntry{Key: key, Value: value})
}

// Start returns the start position of a VCF line in the reference.
func (v *Variant) Start() int32 {
	return v.Pos
}

// End returns the last reference position covered by a VCF line,
// determined either by the END field or by the length of Ref.
func (v *Variant) End() int32 {
	if end, ok := v.Info.Get(END); ok {
		switch e := end.(type) {
		case int:
			return int32(e)
		case string:
			i := internal.ParseInt(e, 10, 32)
			v.Info.Set(END, int(i))
			return int32(i)
		default:
			log.Panicf("invalid END value %v", end)
		}
	}
	return v.Pos - 1 + int32(len(v.Ref))
}

// Filtered reports whether the site failed a filter. Both PASS and a
// missing FILTER column count as not filtered.
func (v *Variant) Filtered() bool {
	return len(v.Filter) > 0 && !(len(v.Filter) == 1 && v.Filter[0] == PASS)
}

// Allele returns the allele for a GT index; negative indices and
// out-of-range indices yield NoCall.
func (v *Variant) Allele(index int32) string {
	switch {
	case index == 0:
		return v.Ref
	case index > 0 && int(index) <= len(v.Alt):
		return v.Alt[index-1]
	default:
		return NoCall
	}
}

// Alleles returns the reference followed by the alternate alleles.
func (v *Variant) Alleles() []string {
	return append([]string{v.Ref}, v.Alt...)
}

// Genotype returns the genotype of the sample at the given position
// in GenotypeData, or nil.
func (v *Variant) Genotype(index int) *Genotype {
	if index < 0 || index >= len(v.GenotypeData) {
		return nil
	}
	return &v.GenotypeData[index]
}

// Int returns an integer FORMAT value, and whether it is defined.
func (g *Genotype) Int(key utils.Symbol) (int, bool) {
	value, ok := g.Data.Get(key)
	if !ok || value == nil {
		return 0, false
	}
	switch v := value.(type) {
	case int:
		return v, true
	case string:
		i, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return 0, false
		}
		g.Data.Set(key, int(i))
		return int(i), true
	default:
		return 0, false
	}
}

// Pass reports whether the genotype-level filter (FT) is absent or
// PASS.
func (g *Genotype) Pass() bool {
	value, ok := g.Data.Get(FT)
	if !ok || value == nil {
		return true
	}
	ft, _ := value.(string)
	return ft == "" || ft == NoCall || ft == *PASS
}

// Filters returns the failed genotype-level filters.
func (g *Genotype) Filters() []string {
	if g.Pass() {
		return nil
	}
	value, _ := g.Data.Get(FT)
	return strings.Split(value.(string), ";")
}

// IsNoCall reports whether any GT entry is a no-call, or GT is absent.
func (g *Genotype) IsNoCall() bool {
	if len(g.GT) == 0 {
		return true
	}
	for _, index := range g.GT {
		if index < 0 {
			return true
		}
	}
	return false
}
