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

var unoise3Cmd = &cobra.Command{
	Use:   "unoise3",
	Short: "Denoise amplicon reads into zero-radius OTUs (ZOTUs)",
	Long: `Denoise amplicon reads into zero-radius OTUs (ZOTUs)

Reads a size-annotated FASTA file (labels carrying ";size=N;"), greedily
absorbs low-abundance sequences into high-abundance centroids within an
edit-distance skew band, and writes the surviving centroids as ZOTUs.

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
		if zotus := getFlagString(cmd, "zotus"); zotus != "" {
			outFile = zotus
		}
		alpha := getFlagFloat64(cmd, "alpha")
		minsize := getFlagPositiveInt(cmd, "minsize")
		dump := getFlagBool(cmd, "dump-params")

		if inFile == "" {
			checkError(fmt.Errorf("flag -i/--input needed"))
		}
		if outFile == "" {
			checkError(fmt.Errorf("flag -o/--output or -z/--zotus needed"))
		}

		if opt.Verbose {
			log.Infof("reading sequences from %s", inFile)
		}

		var seqs []unoise.SequenceRecord
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
			seqs = append(seqs, unoise.SequenceRecord{
				ID:   id,
				Seq:  string(record.Seq.Seq),
				Size: label.ParseSize(id),
			})
		}

		if opt.Verbose {
			log.Infof("%s sequences loaded", humanize.Comma(int64(len(seqs))))
			log.Infof("denoising with alpha=%.2f minsize=%d", alpha, minsize)
		}

		centroids := unoise.Denoise(seqs, unoise.Options{Alpha: alpha, MinSize: minsize})

		increment, stop := newProgressBar("scanning centroids for chimeras", len(centroids), opt.Verbose)
		chimeric := uchime.Detect(centroids, uchime.Options{Threads: opt.NumCPUs, Progress: increment})
		stop()

		outfh, gzw, outw, err := outStream(outFile)
		checkError(errors.Wrap(err, outFile))
		defer closeOutStream(outfh, gzw, outw)

		nZotus := 0
		for i, c := range centroids {
			if chimeric[i] {
				continue
			}
			nZotus++
			zotuID := fmt.Sprintf("Zotu%d", nZotus)
			s, err := seq.NewSeq(seq.DNA, []byte(c.SeqObj.Seq))
			checkError(err)
			record, err := fastx.NewRecord(seq.DNA, []byte(zotuID), []byte(zotuID), nil, s.Seq)
			checkError(err)
			outfh.Write(record.Format(70))
		}

		if opt.Verbose {
			log.Infof("%s/%s centroids written as ZOTUs (%d chimeras filtered)",
				humanize.Comma(int64(nZotus)), humanize.Comma(int64(len(centroids))), len(centroids)-nZotus)
		}

		if dump {
			dumpParams(outFile, map[string]interface{}{
				"alpha":   alpha,
				"minsize": minsize,
				"input":   inFile,
				"zotus":   nZotus,
			})
		}
	},
}

func init() {
	RootCmd.AddCommand(unoise3Cmd)

	unoise3Cmd.Flags().StringP("input", "i", "", "input FASTA file, size-annotated")
	unoise3Cmd.Flags().StringP("output", "o", "-", "output ZOTU FASTA file")
	unoise3Cmd.Flags().StringP("zotus", "z", "", "output ZOTU FASTA file, overrides -o/--output")
	unoise3Cmd.Flags().Float64P("alpha", "a", unoise.DefaultAlpha, "skew coefficient for the greedy absorption band")
	unoise3Cmd.Flags().IntP("minsize", "m", 8, "minimum ;size=N; abundance for a sequence to be clustered; smaller sequences are discarded")
	unoise3Cmd.Flags().Bool("dump-params", false, "write a YAML sidecar with the run's parameters")
}
