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
	"io"

	"github.com/exascience/gtconcord/utils"
	"github.com/exascience/gtconcord/vcf"
)

// Sample names of the annotated output.
const (
	OutputTruthSample = "truth"
	OutputCallSample  = "call"
)

// ConcordanceStates is the INFO key of the truth and call states in the
// annotated output.
var ConcordanceStates = utils.Intern("CONC_ST")

// An AnnotatedSite is a classified comparison unit.
type AnnotatedSite struct {
	Unit
	Alleles     NormalizedAlleles
	VariantType VariantType
	Truth       TruthState
	Call        CallState
}

// AnnotatedHeader creates the header of the annotated output. Contigs
// are taken from the truth header, followed by call contigs that the
// truth header lacks.
func AnnotatedHeader(truth, call *vcf.Header) *vcf.Header {
	hdr := vcf.NewHeader()
	hdr.AddMeta("source", utils.ProgramName+" "+utils.ProgramVersion)
	seen := make(map[string]bool)
	for _, source := range []*vcf.Header{truth, call} {
		if source == nil {
			continue
		}
		for _, entry := range source.Meta {
			if entry.Key != "contig" {
				continue
			}
			if meta, ok := entry.Value.(*vcf.MetaInformation); ok && !seen[*meta.ID] {
				seen[*meta.ID] = true
				hdr.AddMeta(entry.Key, meta)
			}
		}
	}

	info := vcf.NewFormatInformation()
	info.ID = ConcordanceStates
	info.Number = vcf.NumberDot
	info.Type = vcf.String
	info.Description = "Concordance states of the truth and call genotypes"
	hdr.Infos = append(hdr.Infos, info)

	format := vcf.NewFormatInformation()
	format.ID = vcf.GT
	format.Number = 1
	format.Type = vcf.String
	format.Description = "Genotype"
	hdr.Formats = append(hdr.Formats, format)

	hdr.Columns = append(hdr.Columns, "FORMAT", OutputTruthSample, OutputCallSample)
	return hdr
}

// Variant renders an annotated site as a VCF record with one truth and
// one call sample, both expressed against the normalized reference
// allele.
func (site *AnnotatedSite) Variant() *vcf.Variant {
	alleles := []string{site.Alleles.Ref}
	index := func(allele string) int32 {
		if allele == vcf.NoCall || allele == "" {
			return -1
		}
		for i, a := range alleles {
			if a == allele {
				return int32(i)
			}
		}
		alleles = append(alleles, allele)
		return int32(len(alleles) - 1)
	}
	genotype := func(present bool, pair [2]string) vcf.Genotype {
		if !present {
			return vcf.Genotype{GT: []int32{-1, -1}}
		}
		return vcf.Genotype{GT: []int32{index(pair[0]), index(pair[1])}}
	}
	truth := genotype(site.Unit.Truth != nil, site.Alleles.Truth)
	call := genotype(site.Unit.Call != nil, site.Alleles.Call)

	v := &vcf.Variant{
		Ref:            site.Alleles.Ref,
		Alt:            alleles[1:],
		Info:           utils.SmallMap{{Key: ConcordanceStates, Value: site.Truth.String() + "," + site.Call.String()}},
		GenotypeFormat: []utils.Symbol{vcf.GT},
		GenotypeData:   []vcf.Genotype{truth, call},
	}
	if site.Unit.Truth != nil {
		v.Chrom, v.Pos, v.ID = site.Unit.Truth.Chrom, site.Unit.Truth.Pos, site.Unit.Truth.ID
	} else {
		v.Chrom, v.Pos, v.ID = site.Unit.Call.Chrom, site.Unit.Call.Pos, site.Unit.Call.ID
	}
	if len(v.Alt) == 0 {
		v.Alt = nil
	}
	return v
}

// An AnnotatedWriter writes annotated sites as VCF records.
type AnnotatedWriter struct {
	w *vcf.Writer
}

func newAnnotatedWriter(w *vcf.Writer, truth, call *vcf.Header) (*AnnotatedWriter, error) {
	if err := w.WriteHeader(AnnotatedHeader(truth, call)); err != nil {
		_ = w.Close()
		return nil, err
	}
	return &AnnotatedWriter{w: w}, nil
}

// CreateAnnotatedWriter creates an annotated VCF file. Names ending in
// .gz are written as BGZF.
func CreateAnnotatedWriter(name string, truth, call *vcf.Header) (*AnnotatedWriter, error) {
	w, err := vcf.Create(name)
	if err != nil {
		return nil, err
	}
	return newAnnotatedWriter(w, truth, call)
}

// NewAnnotatedWriter writes annotated VCF output to out.
func NewAnnotatedWriter(out io.Writer, truth, call *vcf.Header) (*AnnotatedWriter, error) {
	return newAnnotatedWriter(vcf.NewWriter(out), truth, call)
}

// Write writes one annotated site.
func (w *AnnotatedWriter) Write(site *AnnotatedSite) error {
	return w.w.Write(site.Variant())
}

// Close flushes the output and closes the file.
func (w *AnnotatedWriter) Close() error {
	return w.w.Close()
}
