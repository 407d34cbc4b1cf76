// Copyright © 2020-2022 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/shenwei356/ampliseq/label"
	"github.com/shenwei356/ampliseq/sintax"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/spf13/cobra"
)

var sintaxCmd = &cobra.Command{
	Use:   "sintax",
	Short: "Assign taxonomy with the SINTAX bootstrap classifier",
	Long: `Assign taxonomy with the SINTAX bootstrap classifier

Builds an 8-mer posting-list index from a reference FASTA (headers
carrying ";tax=d:..,p:..,..;", or supplied via --tax-table) and classifies
each query by bootstrap resampling of shared words.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		timeStart := time.Now()
		defer func() {
			if opt.Verbose {
				log.Infof("elapsed time: %s", time.Since(timeStart))
			}
		}()

		dbFile := getFlagString(cmd, "db")
		queryFile := getFlagString(cmd, "input")
		outFile := getFlagString(cmd, "tabbedout")
		taxTableFile := getFlagString(cmd, "tax-table")
		cutoff := getFlagFloat64(cmd, "cutoff")
		bootIters := getFlagPositiveInt(cmd, "boot-iters")
		summary := getFlagBool(cmd, "summary")

		if dbFile == "" {
			checkError(fmt.Errorf("flag -d/--db needed"))
		}
		if queryFile == "" {
			checkError(fmt.Errorf("flag -i/--input needed"))
		}

		var taxTable map[string]string
		if taxTableFile != "" {
			var err error
			taxTable, err = loadTaxTable(taxTableFile, resolveThreads(opt.NumCPUs))
			checkError(errors.Wrap(err, taxTableFile))
		}

		if opt.Verbose {
			log.Infof("building index from %s", dbFile)
		}

		var refSeqs, refTaxa []string
		fastxReader, err := fastx.NewDefaultReader(dbFile)
		checkError(errors.Wrap(err, dbFile))
		for {
			record, err := fastxReader.Read()
			if err != nil {
				if err == io.EOF {
					break
				}
				checkError(errors.Wrap(err, dbFile))
				break
			}
			id := string(record.ID)
			tax := label.ParseTax(id)
			if tax == "" && taxTable != nil {
				tax = taxTable[id]
			}
			refSeqs = append(refSeqs, string(record.Seq.Seq))
			refTaxa = append(refTaxa, tax)
		}

		idx := sintax.BuildIndex(refSeqs, refTaxa)
		if opt.Verbose {
			log.Infof("%s reference sequences, %d unique taxa indexed", humanize.Comma(int64(idx.NumSeqs())), idx.NumUniqTaxa())
		}

		outfh, gzw, outw, err := outStream(outFile)
		checkError(errors.Wrap(err, outFile))
		defer closeOutStream(outfh, gzw, outw)

		ws := sintax.NewWorkspace(idx)
		qReader, err := fastx.NewDefaultReader(queryFile)
		checkError(errors.Wrap(err, queryFile))

		var nQueries, nClassified int
		var rankPassed []int
		for {
			record, err := qReader.Read()
			if err != nil {
				if err == io.EOF {
					break
				}
				checkError(errors.Wrap(err, queryFile))
				break
			}
			nQueries++
			name := string(record.ID)
			hit := sintax.Classify(string(record.Seq.Seq), idx, ws, sintax.Options{BootIters: bootIters})
			nPassed := writeClassifierLine(outfh, name, hit.Ranks, hit.Confidences, hit.Strand, cutoff)
			if len(hit.Ranks) > 0 {
				nClassified++
			}
			for len(rankPassed) < nPassed {
				rankPassed = append(rankPassed, 0)
			}
			for d := 0; d < nPassed; d++ {
				rankPassed[d]++
			}
		}

		if opt.Verbose {
			log.Infof("%s/%s queries classified", humanize.Comma(int64(nClassified)), humanize.Comma(int64(nQueries)))
		}

		if summary {
			printClassifySummary(nQueries, nClassified, rankPassed)
		}
	},
}

// writeClassifierLine writes one SINTAX/NBC output row:
// name\t<rank(p),rank(p),...>\t<strand>\t<passed-ranks>
// It returns the number of leading ranks whose confidence passed cutoff,
// for the caller's --summary accounting.
func writeClassifierLine(w io.Writer, name string, ranks []string, confs []float64, strand byte, cutoff float64) int {
	if len(ranks) == 0 {
		fmt.Fprintf(w, "%s\t*\t+\t*\n", name)
		return 0
	}

	parts := make([]string, len(ranks))
	for i, r := range ranks {
		parts[i] = fmt.Sprintf("%s(%.2f)", r, confs[i])
	}

	nPassed := 0
	for _, c := range confs {
		if c < cutoff {
			break
		}
		nPassed++
	}
	passed := "*"
	if nPassed > 0 {
		passed = strings.Join(ranks[:nPassed], ",")
	}

	fmt.Fprintf(w, "%s\t%s\t%c\t%s\n", name, strings.Join(parts, ","), strand, passed)
	return nPassed
}

func init() {
	RootCmd.AddCommand(sintaxCmd)

	sintaxCmd.Flags().StringP("db", "d", "", "reference FASTA, taxonomy in \";tax=...;\" headers or --tax-table")
	sintaxCmd.Flags().StringP("input", "i", "", "query FASTA/FASTQ file")
	sintaxCmd.Flags().StringP("tabbedout", "t", "-", "output TSV file")
	sintaxCmd.Flags().String("tax-table", "", "two-column id\\ttax TSV, used when the reference FASTA headers carry no ;tax=;")
	sintaxCmd.Flags().Float64P("cutoff", "c", 0.8, "minimum cumulative confidence for a rank to be reported as passed")
	sintaxCmd.Flags().Int("boot-iters", sintax.DefaultBootIters, "number of bootstrap resampling iterations")
	sintaxCmd.Flags().Bool("summary", false, "print a per-rank classified/unclassified count table to stdout")
}
