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
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/shenwei356/ampliseq/label"
	"github.com/shenwei356/ampliseq/nbc"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/spf13/cobra"
)

var nbcCmd = &cobra.Command{
	Use:   "nbc",
	Short: "Assign taxonomy with a naive Bayesian classifier",
	Long: `Assign taxonomy with a naive Bayesian classifier

Builds a flat taxonomy tree from a reference FASTA (headers carrying
";tax=d:..,p:..,..;", or supplied via --tax-table), then classifies each
query by bootstrapped word-subsampling descent of the tree.

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
		minWords := getFlagPositiveInt(cmd, "min-words")
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
			log.Infof("building taxonomy tree from %s", dbFile)
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

		tree := nbc.BuildIndex(refSeqs, refTaxa)
		if opt.Verbose {
			log.Infof("%s reference sequences indexed", humanize.Comma(int64(tree.NumRefSeqs())))
		}

		outfh, gzw, outw, err := outStream(outFile)
		checkError(errors.Wrap(err, outFile))
		defer closeOutStream(outfh, gzw, outw)

		ws := nbc.NewWorkspace()
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
			hit := nbc.Classify(string(record.Seq.Seq), tree, ws, nbc.Options{BootIters: bootIters, MinWords: minWords})
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

func init() {
	RootCmd.AddCommand(nbcCmd)

	nbcCmd.Flags().StringP("db", "d", "", "reference FASTA, taxonomy in \";tax=...;\" headers or --tax-table")
	nbcCmd.Flags().StringP("input", "i", "", "query FASTA/FASTQ file")
	nbcCmd.Flags().StringP("tabbedout", "t", "-", "output TSV file")
	nbcCmd.Flags().String("tax-table", "", "two-column id\\ttax TSV, used when the reference FASTA headers carry no ;tax=;")
	nbcCmd.Flags().Float64P("cutoff", "c", 0.8, "minimum cumulative confidence for a rank to be reported as passed")
	nbcCmd.Flags().Int("boot-iters", nbc.DefaultBootIters, "number of bootstrap resampling iterations")
	nbcCmd.Flags().Int("min-words", nbc.DefaultMinWords, "minimum number of 8-mers drawn per bootstrap iteration")
	nbcCmd.Flags().Bool("summary", false, "print a per-rank classified/unclassified count table to stdout")
}
