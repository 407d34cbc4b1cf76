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
	"github.com/shenwei356/ampliseq/uchime"
	"github.com/shenwei356/ampliseq/unoise"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/spf13/cobra"
)

var uchime2Cmd = &cobra.Command{
	Use:   "uchime2",
	Short: "Flag chimeric sequences among size-annotated ZOTUs",
	Long: `Flag chimeric sequences among size-annotated ZOTUs

Every sequence is tested as a potential two-parent chimera, using a banded
global alignment crossover scan, against the sequences that precede it in
the input; the scan stops at the first one that is less than --min-skew
times as abundant. The input is not re-sorted by abundance.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		timeStart := time.Now()
		defer func() {
			if opt.Verbose {
				log.Infof("elapsed time: %s", time.Since(timeStart))
			}
		}()

		inFile := getFlagString(cmd, "input")
		outFile := getFlagString(cmd, "output")
		summaryFile := getFlagString(cmd, "tabbedout")
		minSkew := getFlagFloat64(cmd, "min-skew")

		if inFile == "" {
			checkError(fmt.Errorf("flag -i/--input needed"))
		}

		var centroids []unoise.Centroid
		fastxReader, err := fastx.NewDefaultReader(inFile)
		checkError(errors.Wrap(err, inFile))
		for {
			record, err := fastxReader.Read()
			if err != nil {
				if err == io.EOF {
					break
				}
				checkError(errors.Wrap(err, inFile))
				break
			}
			id := string(record.ID)
			size := label.ParseSize(id)
			centroids = append(centroids, unoise.Centroid{
				SeqObj:    unoise.SequenceRecord{ID: id, Seq: string(record.Seq.Seq), Size: size},
				TotalSize: size,
			})
		}

		if opt.Verbose {
			log.Infof("%s sequences loaded, testing at min-skew=%.1f with %d threads",
				humanize.Comma(int64(len(centroids))), minSkew, opt.NumCPUs)
		}

		increment, stop := newProgressBar("scanning for chimeras", len(centroids), opt.Verbose)
		flags := uchime.Detect(centroids, uchime.Options{MinAbSkew: minSkew, Threads: opt.NumCPUs, Progress: increment})
		stop()

		nChimeras := 0
		if outFile != "" {
			outfh, gzw, outw, err := outStream(outFile)
			checkError(errors.Wrap(err, outFile))

			for i, c := range centroids {
				if flags[i] {
					nChimeras++
					continue
				}
				s, err := seq.NewSeq(seq.DNA, []byte(c.SeqObj.Seq))
				checkError(err)
				record, err := fastx.NewRecord(seq.DNA, []byte(c.SeqObj.ID), []byte(c.SeqObj.ID), nil, s.Seq)
				checkError(err)
				outfh.Write(record.Format(70))
			}
			closeOutStream(outfh, gzw, outw)
		} else {
			for _, f := range flags {
				if f {
					nChimeras++
				}
			}
		}

		if summaryFile != "" {
			sfh, sgzw, sw, err := outStream(summaryFile)
			checkError(errors.Wrap(err, summaryFile))
			fmt.Fprintf(sfh, "id\tsize\tstatus\n")
			for i, c := range centroids {
				status := "ok"
				if flags[i] {
					status = "chimera"
				}
				fmt.Fprintf(sfh, "%s\t%d\t%s\n", c.SeqObj.ID, c.TotalSize, status)
			}
			closeOutStream(sfh, sgzw, sw)
		}

		if opt.Verbose {
			log.Infof("%s/%s sequences flagged as chimeric", humanize.Comma(int64(nChimeras)), humanize.Comma(int64(len(centroids))))
		}
	},
}

func init() {
	RootCmd.AddCommand(uchime2Cmd)

	uchime2Cmd.Flags().StringP("input", "i", "", "input FASTA file, size-annotated")
	uchime2Cmd.Flags().StringP("output", "o", "", "output FASTA file of non-chimeric sequences (original headers preserved)")
	uchime2Cmd.Flags().StringP("tabbedout", "t", "", "output TSV report: id, size, status")
	uchime2Cmd.Flags().Float64("min-skew", uchime.DefaultMinAbSkew, "minimum parent/query abundance skew to consider a chimera")
}
