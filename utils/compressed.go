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
	"bufio"
	"compress/gzip"
	"io"

	"github.com/exascience/gtconcord/utils/bgzf"
)

type nopCloser struct {
	io.Reader
}

func (nopCloser) Close() error { return nil }

// OpenCompressed looks at the first bytes of the given reader and
// returns a reader for its uncompressed contents. BGZF input is
// decompressed in parallel, other gzip input sequentially, and
// anything else is returned unchanged.
func OpenCompressed(buf *bufio.Reader) (io.ReadCloser, error) {
	if ok, err := bgzf.IsGzip(buf); err != nil {
		if err == io.EOF {
			return nopCloser{buf}, nil
		}
		return nil, err
	} else if !ok {
		return nopCloser{buf}, nil
	}
	if bgzf.IsBgzf(buf) {
		return bgzf.NewReader(buf)
	}
	return gzip.NewReader(buf)
}
