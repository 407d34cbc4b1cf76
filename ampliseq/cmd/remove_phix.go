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
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	colorable "github.com/mattn/go-colorable"
	"github.com/pkg/errors"
	"github.com/shenwei356/ampliseq/kmer"
	"github.com/shenwei356/ampliseq/phix"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/spf13/cobra"
	prettytable "github.com/tatsushid/go-prettytable"
)

var removePhixCmd = &cobra.Command{
	Use:   "remove-phix",
	Short: "Filter PhiX174 spike-in reads out of a FASTQ file",
	Long: `Filter PhiX174 spike-in reads out of a FASTQ file

Single-end by default; --paired-mode governs how a mate pair is treated
when only one mate scores as PhiX: "strict" drops the pair if either
mate matches, "lenient" only drops the pair if both mates match.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		timeStart := time.Now()
		defer func() {
			if opt.Verbose {
				log.Infof("elapsed time: %s", time.Since(timeStart))
			}
		}()

		in1 := getFlagString(cmd, "read1")
		in2 := getFlagString(cmd, "read2")
		out1 := getFlagString(cmd, "output")
		out2 := getFlagString(cmd, "output2")
		reportFile := getFlagString(cmd, "report")
		minID := getFlagFloat64(cmd, "min-id")
		minKmers := getFlagPositiveInt(cmd, "min-kmers")
		pairedMode := getFlagString(cmd, "paired-mode")

		if in1 == "" {
			checkError(fmt.Errorf("flag -1/--read1 needed"))
		}
		paired := in2 != ""
		if paired && out2 == "" {
			checkError(fmt.Errorf("flag -O/--output2 needed when -2/--read2 is given"))
		}
		if pairedMode != "strict" && pairedMode != "lenient" {
			checkError(fmt.Errorf("--paired-mode must be \"strict\" or \"lenient\""))
		}

		r1, err := fastx.NewDefaultReader(in1)
		checkError(errors.Wrap(err, in1))
		var r2 *fastx.Reader
		if paired {
			r2, err = fastx.NewDefaultReader(in2)
			checkError(errors.Wrap(err, in2))
		}

		w1, gzw1, ow1, err := outStream(out1)
		checkError(errors.Wrap(err, out1))
		defer closeOutStream(w1, gzw1, ow1)

		var w2 *bufioWriter
		if paired {
			w2 = mustOutStream(out2)
			defer w2.close()
		}

		ws := kmer.NewWorkspace()
		var nIn, nRemoved int

		for {
			rec1, err1 := r1.Read()
			if err1 != nil {
				if err1 == io.EOF {
					break
				}
				checkError(errors.Wrap(err1, in1))
				break
			}

			isPhix1 := phix.IsPhix(string(rec1.Seq.Seq), minID, minKmers, ws)

			if !paired {
				nIn++
				if isPhix1 {
					nRemoved++
					continue
				}
				w1.Write(rec1.Format(0))
				continue
			}

			rec2, err2 := r2.Read()
			if err2 != nil {
				checkError(errors.Wrap(err2, in2))
				break
			}
			nIn++

			isPhix2 := phix.IsPhix(string(rec2.Seq.Seq), minID, minKmers, ws)

			var drop bool
			if pairedMode == "strict" {
				drop = isPhix1 || isPhix2
			} else {
				drop = isPhix1 && isPhix2
			}

			if drop {
				nRemoved++
				continue
			}
			w1.Write(rec1.Format(0))
			w2.w.Write(rec2.Format(0))
		}

		pct := 0.0
		if nIn > 0 {
			pct = 100 * float64(nRemoved) / float64(nIn)
		}

		if reportFile != "" {
			rfh, rgzw, rw, err := outStream(reportFile)
			checkError(errors.Wrap(err, reportFile))
			fmt.Fprintf(rfh, "reads_in\treads_removed\tpct_removed\n")
			fmt.Fprintf(rfh, "%d\t%d\t%.4f\n", nIn, nRemoved, pct)
			closeOutStream(rfh, rgzw, rw)
		}

		if opt.Verbose {
			tbl, err := prettytable.NewTable(
				prettytable.Column{Header: "reads-in", AlignRight: true},
				prettytable.Column{Header: "reads-removed", AlignRight: true},
				prettytable.Column{Header: "pct-removed", AlignRight: true},
			)
			if err == nil {
				tbl.Separator = "  "
				tbl.AddRow(nIn, nRemoved, fmt.Sprintf("%.2f%%", pct))
				stdout := colorable.NewColorableStdout()
				stdout.Write(tbl.Bytes())
			}
		}

		summary := fmt.Sprintf("reads_in=%d reads_removed=%d pct=%.2f%%", nIn, nRemoved, pct)
		stdout := colorable.NewColorableStdout()
		fmt.Fprintf(stdout, "\x1b[32m%s\x1b[0m\n", summary)
	},
}

// bufioWriter bundles the second-mate output stream so it can be closed
// alongside the first without duplicating outStream's plumbing at each
// call site.
type bufioWriter struct {
	w   io.Writer
	bw  *bufio.Writer
	gzw io.WriteCloser
	f   *os.File
}

func mustOutStream(file string) *bufioWriter {
	bw, gzw, f, err := outStream(file)
	checkError(errors.Wrap(err, file))
	return &bufioWriter{w: bw, bw: bw, gzw: gzw, f: f}
}

func (b *bufioWriter) close() {
	closeOutStream(b.bw, b.gzw, b.f)
}

func init() {
	RootCmd.AddCommand(removePhixCmd)

	removePhixCmd.Flags().StringP("read1", "1", "", "FASTQ read1 file")
	removePhixCmd.Flags().StringP("read2", "2", "", "FASTQ read2 file, for paired-end input")
	removePhixCmd.Flags().StringP("output", "o", "-", "output FASTQ read1 file")
	removePhixCmd.Flags().StringP("output2", "O", "", "output FASTQ read2 file, required with -2/--read2")
	removePhixCmd.Flags().StringP("report", "t", "", "optional TSV report: reads_in, reads_removed, pct_removed")
	removePhixCmd.Flags().Float64("min-id", phix.DefaultMinID, "minimum identity score to call a read PhiX")
	removePhixCmd.Flags().Int("min-kmers", phix.DefaultMinKmers, "minimum valid 8-mers a read needs before it can be called PhiX")
	removePhixCmd.Flags().String("paired-mode", "strict", "\"strict\" drops a pair if either mate matches, \"lenient\" only if both do")
}
