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
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/exascience/gtconcord/utils"
)

const (
	descriptionKey = "Description"
	idKey          = "ID"
	numberKey      = "Number"
	typeKey        = "Type"
)

// ParseMetaField parses a key=value pair inside <...> of a
// meta-information line. Values may be quoted.
func (sc *StringScanner) ParseMetaField() (key, value string) {
	if sc.err != nil {
		return
	}
	sc.SkipSpace()
	start := sc.index
	for sc.index < len(sc.data) && sc.data[sc.index] != '=' && sc.data[sc.index] != ' ' {
		sc.index++
	}
	key = sc.data[start:sc.index]
	sc.SkipSpace()
	if c, ok := sc.peek(); !ok || c != '=' {
		sc.setErr(fmt.Errorf("invalid key=value pair in a VCF meta-information line: %v", sc.data))
		return
	}
	sc.index++
	if c, ok := sc.peek(); ok && c == '"' {
		sc.index++
		var buf strings.Builder
		for ; sc.index < len(sc.data); sc.index++ {
			switch c := sc.data[sc.index]; c {
			case '"':
				sc.index++
				return key, buf.String()
			case '\\':
				if sc.index+1 < len(sc.data) {
					sc.index++
				}
			}
			buf.WriteByte(sc.data[sc.index])
		}
		sc.setErr(fmt.Errorf("missing closing \" in a VCF meta-information line: %v", sc.data))
		return key, buf.String()
	}
	start = sc.index
	for ; sc.index < len(sc.data); sc.index++ {
		if c := sc.data[sc.index]; c == ',' || c == '>' {
			return key, strings.TrimRight(sc.data[start:sc.index], " ")
		}
	}
	sc.setErr(fmt.Errorf("missing closing > in a VCF meta-information line: %v", sc.data))
	return key, sc.data[start:]
}

// parseFields calls the given function for each key=value pair of a
// <...> meta-information value.
func (sc *StringScanner) parseFields(field func(key, value string)) {
	if c, ok := sc.peek(); !ok || c != '<' {
		sc.setErr(fmt.Errorf("missing open angle bracket in a VCF meta-information line: %v", sc.data))
		return
	}
	sc.index++
	for sc.err == nil {
		field(sc.ParseMetaField())
		sc.SkipSpace()
		c, ok := sc.peek()
		switch {
		case ok && c == ',':
			sc.index++
		case ok && c == '>':
			sc.index++
			return
		default:
			sc.setErr(fmt.Errorf("invalid syntax in a VCF meta-information line: %v", sc.data))
		}
	}
}

// ParseMetaInformation parses the value of a meta-information line,
// returning either a string or a *MetaInformation.
func (sc *StringScanner) ParseMetaInformation() interface{} {
	if c, ok := sc.peek(); !ok || c != '<' {
		start := sc.index
		sc.index = len(sc.data)
		return sc.data[start:]
	}
	meta := NewMetaInformation()
	sc.parseFields(func(key, value string) {
		switch key {
		case idKey:
			if meta.ID != nil {
				sc.setErr(fmt.Errorf("multiple IDs in a VCF meta-information line: %v", sc.data))
			}
			meta.ID = utils.Intern(value)
		case descriptionKey:
			meta.Description = value
		default:
			if !meta.Fields.SetUniqueEntry(key, value) {
				sc.setErr(fmt.Errorf("duplicate field key %v in a VCF meta-information line: %v", key, sc.data))
			}
		}
	})
	if meta.ID == nil {
		sc.setErr(fmt.Errorf("missing ID in a VCF meta-information line: %v", sc.data))
	}
	return meta
}

func parseNumber(value string) (int32, error) {
	switch value {
	case "a", "A":
		return NumberA, nil
	case "r", "R":
		return NumberR, nil
	case "g", "G":
		return NumberG, nil
	case ".":
		return NumberDot, nil
	}
	n, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return InvalidNumber, err
	}
	return int32(n), nil
}

func parseType(value string) Type {
	for t, name := range typeNames {
		if t > 0 && name == value {
			return Type(t)
		}
	}
	return InvalidType
}

// ParseFormatInformation parses the value of an INFO or FORMAT line.
func (sc *StringScanner) ParseFormatInformation() *FormatInformation {
	format := NewFormatInformation()
	sc.parseFields(func(key, value string) {
		switch key {
		case idKey:
			format.ID = utils.Intern(value)
		case descriptionKey:
			format.Description = value
		case numberKey:
			n, err := parseNumber(value)
			if err != nil {
				sc.setErr(fmt.Errorf("invalid Number %v in a VCF INFO/FORMAT line: %v", value, sc.data))
			}
			format.Number = n
		case typeKey:
			if format.Type = parseType(value); format.Type == InvalidType {
				sc.setErr(fmt.Errorf("unknown Type %v in a VCF INFO/FORMAT line: %v", value, sc.data))
			}
		default:
			if !format.Fields.SetUniqueEntry(key, value) {
				sc.setErr(fmt.Errorf("duplicate field key %v in a VCF INFO/FORMAT line: %v", key, sc.data))
			}
		}
	})
	switch {
	case format.ID == nil:
		sc.setErr(fmt.Errorf("missing ID in a VCF INFO/FORMAT line: %v", sc.data))
	case format.Number <= InvalidNumber:
		sc.setErr(fmt.Errorf("missing Number in a VCF INFO/FORMAT line: %v", sc.data))
	case format.Type == InvalidType:
		sc.setErr(fmt.Errorf("missing Type in a VCF INFO/FORMAT line: %v", sc.data))
	}
	return format
}

func getLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err == io.EOF {
		if line == "" {
			return "", io.EOF
		}
		err = nil
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), err
}

// ParseHeader parses a VCF header, up to and including the #CHROM
// line. It also returns the number of lines read.
func ParseHeader(reader *bufio.Reader) (hdr *Header, lines int, err error) {
	line, err := getLine(reader)
	if err == io.EOF {
		return nil, 0, errors.New("empty VCF file")
	} else if err != nil {
		return nil, 0, err
	}
	lines++
	if !strings.HasPrefix(line, fileFormatVersionLinePrefix) {
		return nil, lines, errors.New("invalid first line in a VCF file")
	}
	hdr = NewHeader()
	hdr.FileFormat = line
	var sc StringScanner
	for {
		if line, err = getLine(reader); err == io.EOF {
			return nil, lines, errors.New("unexpected end of VCF header")
		} else if err != nil {
			return nil, lines, err
		}
		lines++
		if !strings.HasPrefix(line, "##") {
			break
		}
		sc.Reset(line[2:])
		key, found := sc.readUntilByte('=')
		switch {
		case !found:
			return nil, lines, fmt.Errorf("invalid meta-information line %v", line)
		case key == "fileformat":
			return nil, lines, errors.New("multiple file format meta-information lines in a VCF file")
		case key == "INFO":
			hdr.Infos = append(hdr.Infos, sc.ParseFormatInformation())
		case key == "FORMAT":
			hdr.Formats = append(hdr.Formats, sc.ParseFormatInformation())
		default:
			hdr.AddMeta(key, sc.ParseMetaInformation())
		}
		if err := sc.Err(); err != nil {
			return nil, lines, err
		}
	}
	if !strings.HasPrefix(line, "#CHROM") {
		return nil, lines, fmt.Errorf("missing #CHROM line in a VCF header, found %v", line)
	}
	hdr.Columns = strings.Split(line[1:], "\t")
	if len(hdr.Columns) < len(DefaultHeaderColumns) || len(hdr.Columns) == len(DefaultHeaderColumns)+1 {
		return nil, lines, fmt.Errorf("invalid #CHROM line in a VCF header: %v", line)
	}
	return hdr, lines, nil
}

// VariantParser parses VCF data lines of a given header.
type VariantParser struct {
	// NSamples is the number of sample columns.
	NSamples int

	keep int
}

// NewVariantParser creates a VariantParser for the given header that
// parses all samples.
func (hdr *Header) NewVariantParser() *VariantParser {
	return &VariantParser{NSamples: len(hdr.Samples()), keep: -1}
}

// SelectSample restricts parsing to the sample at the given index;
// Variant.GenotypeData then holds only that sample.
func (vp *VariantParser) SelectSample(index int) {
	vp.keep = index
}

var errMissingTab = errors.New("missing tabulator in VCF data line")

func (sc *StringScanner) doField() string {
	field, found := sc.readUntilByte('\t')
	if !found {
		sc.setErr(errMissingTab)
	}
	return field
}

func splitList(field string, separator string) []string {
	if field == NoCall || field == "" {
		return nil
	}
	return strings.Split(field, separator)
}

var passList = []utils.Symbol{PASS}

func parseFilter(field string) []utils.Symbol {
	switch field {
	case NoCall, "":
		return nil
	case *PASS:
		return passList
	}
	names := strings.Split(field, ";")
	result := make([]utils.Symbol, len(names))
	for i, name := range names {
		result[i] = utils.Intern(name)
	}
	return result
}

func parseInfo(field string) (info utils.SmallMap) {
	if field == NoCall || field == "" {
		return nil
	}
	for _, entry := range strings.Split(field, ";") {
		if i := strings.IndexByte(entry, '='); i >= 0 {
			info = append(info, utils.SmallMapEntry{Key: utils.Intern(entry[:i]), Value: entry[i+1:]})
		} else {
			info = append(info, utils.SmallMapEntry{Key: utils.Intern(entry), Value: true})
		}
	}
	return info
}

// ParseGT parses a GT value such as 0/1, 1|2, ./. or 1.
func ParseGT(field string) (gt []int32, phased bool, err error) {
	start := 0
	for i := 0; i <= len(field); i++ {
		if i < len(field) && field[i] != '/' && field[i] != '|' {
			continue
		}
		if i < len(field) && field[i] == '|' {
			phased = true
		}
		entry := field[start:i]
		if entry == NoCall {
			gt = append(gt, -1)
		} else {
			index, err := strconv.ParseInt(entry, 10, 32)
			if err != nil {
				return nil, false, fmt.Errorf("invalid GT value %v", field)
			}
			gt = append(gt, int32(index))
		}
		start = i + 1
	}
	return gt, phased, nil
}

func (sc *StringScanner) doGenotype(format []utils.Symbol, field string) (g Genotype) {
	g.Data = make(utils.SmallMap, 0, len(format))
	for j, key := range format {
		var value string
		if field == "" {
			break
		}
		if i := strings.IndexByte(field, ':'); i >= 0 {
			value, field = field[:i], field[i+1:]
		} else {
			value, field = field, ""
		}
		if key == GT {
			gt, phased, err := ParseGT(value)
			if err != nil {
				sc.setErr(err)
				return
			}
			g.GT, g.Phased = gt, phased
			continue
		}
		if value == NoCall {
			g.Data = append(g.Data, utils.SmallMapEntry{Key: format[j]})
		} else {
			g.Data = append(g.Data, utils.SmallMapEntry{Key: format[j], Value: value})
		}
	}
	return g
}

// ParseVariant parses a VCF data line. The scanner reports errors via
// Err.
func (sc *StringScanner) ParseVariant(vp *VariantParser) *Variant {
	var v Variant
	v.Chrom = sc.doField()
	pos := sc.doField()
	if p, err := strconv.ParseInt(pos, 10, 32); err != nil {
		sc.setErr(fmt.Errorf("invalid POS %v in VCF data line", pos))
	} else {
		v.Pos = int32(p)
	}
	v.ID = splitList(sc.doField(), ";")
	v.Ref = sc.doField()
	v.Alt = splitList(sc.doField(), ",")
	if qual := sc.doField(); qual != NoCall {
		if q, err := strconv.ParseFloat(qual, 64); err != nil {
			sc.setErr(fmt.Errorf("invalid QUAL %v in VCF data line", qual))
		} else {
			v.Qual = q
		}
	}
	v.Filter = parseFilter(sc.doField())
	info, more := sc.readUntilByte('\t')
	v.Info = parseInfo(info)
	if sc.err != nil {
		return nil
	}
	if !more || vp.NSamples == 0 {
		return &v
	}
	for _, key := range strings.Split(sc.doField(), ":") {
		v.GenotypeFormat = append(v.GenotypeFormat, utils.Intern(key))
	}
	for i := 0; i < vp.NSamples; i++ {
		field, found := sc.readUntilByte('\t')
		if !found && i < vp.NSamples-1 {
			sc.setErr(fmt.Errorf("expected %v samples in VCF data line", vp.NSamples))
			return nil
		}
		if vp.keep >= 0 && i != vp.keep {
			continue
		}
		v.GenotypeData = append(v.GenotypeData, sc.doGenotype(v.GenotypeFormat, field))
	}
	if sc.err != nil {
		return nil
	}
	return &v
}
