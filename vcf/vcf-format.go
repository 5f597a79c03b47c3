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

package vcf

import (
	"log"
	"strconv"
	"strings"

	"github.com/exascience/gtconcord/utils"
)

func appendQuoted(out []byte, s string) []byte {
	out = append(out, '"')
	for i := 0; i < len(s); i++ {
		if c := s[i]; c == '"' || c == '\\' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return append(out, '"')
}

func appendFields(out []byte, fields utils.StringMap) []byte {
	for _, key := range fields.SortedKeys() {
		out = append(out, ',')
		out = append(out, key...)
		out = append(out, '=')
		out = append(out, fields[key]...)
	}
	return out
}

func appendNumber(out []byte, number int32) []byte {
	switch number {
	case NumberA:
		return append(out, 'A')
	case NumberR:
		return append(out, 'R')
	case NumberG:
		return append(out, 'G')
	case NumberDot:
		return append(out, '.')
	default:
		return strconv.AppendInt(out, int64(number), 10)
	}
}

// Format appends the <...> form of an INFO or FORMAT declaration.
func (format *FormatInformation) Format(out []byte) []byte {
	out = append(out, "<ID="...)
	out = append(out, *format.ID...)
	out = append(out, ",Number="...)
	out = appendNumber(out, format.Number)
	out = append(out, ",Type="...)
	out = append(out, format.Type.String()...)
	out = append(out, ",Description="...)
	out = appendQuoted(out, format.Description)
	out = appendFields(out, format.Fields)
	return append(out, '>')
}

// Format appends the <...> form of a structured meta-information
// line.
func (meta *MetaInformation) Format(out []byte) []byte {
	out = append(out, "<ID="...)
	out = append(out, *meta.ID...)
	out = appendFields(out, meta.Fields)
	if meta.Description != "" {
		out = append(out, ",Description="...)
		out = appendQuoted(out, meta.Description)
	}
	return append(out, '>')
}

// Format appends the complete header, including the #CHROM line.
func (hdr *Header) Format(out []byte) []byte {
	out = append(out, hdr.FileFormat...)
	out = append(out, '\n')
	for _, info := range hdr.Infos {
		out = append(out, "##INFO="...)
		out = append(info.Format(out), '\n')
	}
	for _, format := range hdr.Formats {
		out = append(out, "##FORMAT="...)
		out = append(format.Format(out), '\n')
	}
	for _, entry := range hdr.Meta {
		out = append(out, "##"...)
		out = append(out, entry.Key...)
		out = append(out, '=')
		switch value := entry.Value.(type) {
		case string:
			out = append(out, value...)
		case *MetaInformation:
			out = value.Format(out)
		default:
			log.Panicf("invalid meta-information value %v", value)
		}
		out = append(out, '\n')
	}
	out = append(out, '#')
	out = append(out, strings.Join(hdr.Columns, "\t")...)
	return append(out, '\n')
}

func appendValue(out []byte, value interface{}) []byte {
	switch v := value.(type) {
	case nil:
		return append(out, '.')
	case string:
		return append(out, v...)
	case int:
		return strconv.AppendInt(out, int64(v), 10)
	case float64:
		return strconv.AppendFloat(out, v, 'f', -1, 64)
	default:
		log.Panicf("invalid VCF field value %v", value)
		return out
	}
}

func appendList(out []byte, list []string, separator byte) []byte {
	if len(list) == 0 {
		return append(out, '.')
	}
	for i, s := range list {
		if i > 0 {
			out = append(out, separator)
		}
		out = append(out, s...)
	}
	return out
}

// FormatGT appends the GT value of the genotype.
func (g *Genotype) FormatGT(out []byte) []byte {
	if len(g.GT) == 0 {
		return append(out, '.')
	}
	separator := byte('/')
	if g.Phased {
		separator = '|'
	}
	for i, index := range g.GT {
		if i > 0 {
			out = append(out, separator)
		}
		if index < 0 {
			out = append(out, '.')
		} else {
			out = strconv.AppendInt(out, int64(index), 10)
		}
	}
	return out
}

// Format appends a data line, terminated by a newline.
func (v *Variant) Format(out []byte) []byte {
	out = append(out, v.Chrom...)
	out = append(out, '\t')
	out = strconv.AppendInt(out, int64(v.Pos), 10)
	out = append(out, '\t')
	out = appendList(out, v.ID, ';')
	out = append(out, '\t')
	out = append(out, v.Ref...)
	out = append(out, '\t')
	out = appendList(out, v.Alt, ',')
	out = append(out, '\t')
	out = appendValue(out, v.Qual)
	out = append(out, '\t')
	if len(v.Filter) == 0 {
		out = append(out, '.')
	}
	for i, filter := range v.Filter {
		if i > 0 {
			out = append(out, ';')
		}
		out = append(out, *filter...)
	}
	out = append(out, '\t')
	if len(v.Info) == 0 {
		out = append(out, '.')
	}
	for i, entry := range v.Info {
		if i > 0 {
			out = append(out, ';')
		}
		out = append(out, *entry.Key...)
		if entry.Value != true {
			out = append(out, '=')
			out = appendValue(out, entry.Value)
		}
	}
	if len(v.GenotypeFormat) > 0 {
		out = append(out, '\t')
		for i, key := range v.GenotypeFormat {
			if i > 0 {
				out = append(out, ':')
			}
			out = append(out, *key...)
		}
		for i := range v.GenotypeData {
			g := &v.GenotypeData[i]
			out = append(out, '\t')
			for j, key := range v.GenotypeFormat {
				if j > 0 {
					out = append(out, ':')
				}
				if key == GT {
					out = g.FormatGT(out)
				} else {
					value, _ := g.Data.Get(key)
					out = appendValue(out, value)
				}
			}
		}
	}
	return append(out, '\n')
}
