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
	"os"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/apache/arrow/go/v14/arrow/memory"
)

// DetailSchema is the Arrow schema of exported detail metrics.
var DetailSchema = arrow.NewSchema([]arrow.Field{
	{Name: "VARIANT_TYPE", Type: arrow.BinaryTypes.String},
	{Name: "TRUTH_SAMPLE", Type: arrow.BinaryTypes.String},
	{Name: "CALL_SAMPLE", Type: arrow.BinaryTypes.String},
	{Name: "TRUTH_STATE", Type: arrow.BinaryTypes.String},
	{Name: "CALL_STATE", Type: arrow.BinaryTypes.String},
	{Name: "COUNT", Type: arrow.PrimitiveTypes.Int64},
}, nil)

// WriteDetailArrow writes detail metrics as a single record batch in
// Arrow IPC file format. The file footer requires a seekable output.
func WriteDetailArrow(out io.WriteSeeker, rows []DetailMetrics) (err error) {
	pool := memory.NewGoAllocator()
	builder := array.NewRecordBuilder(pool, DetailSchema)
	defer builder.Release()

	variantTypes := builder.Field(0).(*array.StringBuilder)
	truthSamples := builder.Field(1).(*array.StringBuilder)
	callSamples := builder.Field(2).(*array.StringBuilder)
	truthStates := builder.Field(3).(*array.StringBuilder)
	callStates := builder.Field(4).(*array.StringBuilder)
	counts := builder.Field(5).(*array.Int64Builder)
	for _, row := range rows {
		variantTypes.Append(row.VariantType.String())
		truthSamples.Append(row.TruthSample)
		callSamples.Append(row.CallSample)
		truthStates.Append(row.TruthState.String())
		callStates.Append(row.CallState.String())
		counts.Append(row.Count)
	}
	record := builder.NewRecord()
	defer record.Release()

	writer, err := ipc.NewFileWriter(out, ipc.WithSchema(DetailSchema), ipc.WithAllocator(pool))
	if err != nil {
		return err
	}
	defer func() {
		if nerr := writer.Close(); err == nil {
			err = nerr
		}
	}()
	return writer.Write(record)
}

// PrintDetailArrow writes detail metrics to an Arrow IPC file.
func PrintDetailArrow(name string, rows []DetailMetrics) (err error) {
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if nerr := file.Close(); err == nil {
			err = nerr
		}
	}()
	return WriteDetailArrow(file, rows)
}
