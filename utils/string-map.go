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

package utils

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// A StringMap maps strings to strings.
type StringMap map[string]string

// SetUniqueEntry adds the given key/value pair, unless the key is
// already present. It reports whether the pair was added.
func (record StringMap) SetUniqueEntry(key, value string) bool {
	if _, found := record[key]; found {
		return false
	}
	record[key] = value
	return true
}

// SortedKeys returns the keys of the StringMap in ascending order.
func (record StringMap) SortedKeys() []string {
	keys := maps.Keys(record)
	slices.Sort(keys)
	return keys
}
