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
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"
)

// Extensions of the metrics files written for an output prefix.
const (
	SummaryMetricsExtension     = ".genotype_concordance_summary_metrics"
	DetailMetricsExtension      = ".genotype_concordance_detail_metrics"
	ContingencyMetricsExtension = ".genotype_concordance_contingency_metrics"
	OutputVcfExtension          = ".genotype_concordance.vcf"
)

// Metrics classes, as named in the metrics file headers.
const (
	summaryMetricsClass     = "picard.vcf.GenotypeConcordanceSummaryMetrics"
	detailMetricsClass      = "picard.vcf.GenotypeConcordanceDetailMetrics"
	contingencyMetricsClass = "picard.vcf.GenotypeConcordanceContingencyMetrics"
)

// formatFloat prints at most six decimals, without trailing zeros.
// NaN is printed as ?.
func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return "?"
	}
	b := strconv.AppendFloat(nil, f, 'f', 6, 64)
	for i, c := range b {
		if c == '.' {
			for j := len(b) - 1; j > i; j-- {
				if b[j] != '0' {
					return string(b[:j+1])
				}
			}
			return string(b[:i])
		}
	}
	return string(b)
}

func writeMetricsHeader(out io.Writer, commandLine, class string) {
	fmt.Fprintln(out, "## htsjdk.samtools.metrics.StringHeader")
	fmt.Fprintln(out, "#", commandLine)
	fmt.Fprintln(out, "## htsjdk.samtools.metrics.StringHeader")
	fmt.Fprintln(out, "# Started on:", time.Now().Format("Mon Jan 02 15:04:05 MST 2006"))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "## METRICS CLASS\t"+class)
}

// WriteSummaryMetrics writes summary metrics in Picard metrics format.
func WriteSummaryMetrics(out io.Writer, commandLine string, rows []SummaryMetrics) error {
	w := bufio.NewWriter(out)
	writeMetricsHeader(w, commandLine, summaryMetricsClass)
	fmt.Fprintln(w, "VARIANT_TYPE\tTRUTH_SAMPLE\tCALL_SAMPLE\tHET_SENSITIVITY\tHET_PPV\tHOMVAR_SENSITIVITY\tHOMVAR_PPV\tVAR_SENSITIVITY\tVAR_PPV\tVAR_SPECIFICITY\tGENOTYPE_CONCORDANCE\tNON_REF_GENOTYPE_CONCORDANCE")
	for _, row := range rows {
		fmt.Fprintf(w, "%v\t%v\t%v\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.VariantType, row.TruthSample, row.CallSample,
			formatFloat(row.HetSensitivity), formatFloat(row.HetPPV),
			formatFloat(row.HomVarSensitivity), formatFloat(row.HomVarPPV),
			formatFloat(row.VarSensitivity), formatFloat(row.VarPPV), formatFloat(row.VarSpecificity),
			formatFloat(row.GenotypeConcordance), formatFloat(row.NonRefGenotypeConcordance))
	}
	fmt.Fprintln(w)
	return w.Flush()
}

// WriteDetailMetrics writes detail metrics in Picard metrics format.
func WriteDetailMetrics(out io.Writer, commandLine string, rows []DetailMetrics) error {
	w := bufio.NewWriter(out)
	writeMetricsHeader(w, commandLine, detailMetricsClass)
	fmt.Fprintln(w, "VARIANT_TYPE\tTRUTH_SAMPLE\tCALL_SAMPLE\tTRUTH_STATE\tCALL_STATE\tCOUNT")
	for _, row := range rows {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\t%v\n",
			row.VariantType, row.TruthSample, row.CallSample, row.TruthState, row.CallState, row.Count)
	}
	fmt.Fprintln(w)
	return w.Flush()
}

// WriteContingencyMetrics writes contingency metrics in Picard metrics
// format.
func WriteContingencyMetrics(out io.Writer, commandLine string, rows []ContingencyMetrics) error {
	w := bufio.NewWriter(out)
	writeMetricsHeader(w, commandLine, contingencyMetricsClass)
	fmt.Fprintln(w, "VARIANT_TYPE\tTRUTH_SAMPLE\tCALL_SAMPLE\tTP_COUNT\tTN_COUNT\tFP_COUNT\tFN_COUNT\tEMPTY_COUNT")
	for _, row := range rows {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\t%v\t%v\t%v\n",
			row.VariantType, row.TruthSample, row.CallSample, row.TP, row.TN, row.FP, row.FN, row.Empty)
	}
	fmt.Fprintln(w)
	return w.Flush()
}

func writeFile(name string, write func(io.Writer) error) (err error) {
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if nerr := file.Close(); err == nil {
			err = nerr
		}
	}()
	return write(file)
}

// PrintMetrics writes the summary, detail and contingency metrics
// files for an output prefix.
func PrintMetrics(prefix, commandLine, truthSample, callSample string, allRows bool, counts *Counts) error {
	if err := writeFile(prefix+SummaryMetricsExtension, func(out io.Writer) error {
		return WriteSummaryMetrics(out, commandLine, counts.Summaries(truthSample, callSample))
	}); err != nil {
		return err
	}
	if err := writeFile(prefix+DetailMetricsExtension, func(out io.Writer) error {
		return WriteDetailMetrics(out, commandLine, counts.Details(truthSample, callSample, allRows))
	}); err != nil {
		return err
	}
	return writeFile(prefix+ContingencyMetricsExtension, func(out io.Writer) error {
		return WriteContingencyMetrics(out, commandLine, counts.Contingencies(truthSample, callSample))
	})
}
