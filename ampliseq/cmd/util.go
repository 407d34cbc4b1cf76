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
	"runtime"
	"strings"

	gzip "github.com/klauspost/pgzip"
	colorable "github.com/mattn/go-colorable"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	prettytable "github.com/tatsushid/go-prettytable"
	"github.com/vbauerster/mpb/v5"
	"github.com/vbauerster/mpb/v5/decor"
	"gopkg.in/yaml.v2"
)

// BufferSize is the size of the buffered reader/writer wrapping every file.
var BufferSize = 65536

// Options carries the persistent flags shared by every subcommand.
// NumCPUs is passed through verbatim from -j/--threads: 0 means "auto",
// 1 means sequential, N means a fixed pool size. Components such as
// uchime.Detect give 0 and 1 distinct meanings, so this layer must not
// collapse 0 into 1 before it reaches them.
type Options struct {
	NumCPUs int
	Verbose bool
}

func getOptions(cmd *cobra.Command) *Options {
	return &Options{
		NumCPUs: getFlagNonNegativeInt(cmd, "threads"),
		Verbose: !getFlagBool(cmd, "quiet"),
	}
}

// resolveThreads turns the "0 means auto" convention of -j/--threads
// into a concrete positive worker count, for call sites (like breader's
// buffered reader) that have no auto mode of their own.
func resolveThreads(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// expandPath expands a leading ~ using the user's home directory.
func expandPath(path string) string {
	if path == "" {
		return path
	}
	p, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return p
}

func outStream(file string) (*bufio.Writer, io.WriteCloser, *os.File, error) {
	var w *os.File
	if isStdout(file) {
		w = os.Stdout
	} else {
		var err error
		w, err = os.Create(file)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("fail to write %s: %s", file, err)
		}
	}

	if strings.HasSuffix(file, ".gz") {
		gw, err := gzip.NewWriterLevel(w, gzip.DefaultCompression)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("fail to write %s: %s", file, err)
		}
		return bufio.NewWriterSize(gw, BufferSize), gw, w, nil
	}
	return bufio.NewWriterSize(w, BufferSize), nil, w, nil
}

// closeOutStream flushes bw, closes the gzip writer gzw (if any) so its
// trailer is written, then closes the underlying file f.
func closeOutStream(bw *bufio.Writer, gzw io.WriteCloser, f *os.File) {
	bw.Flush()
	if gzw != nil {
		gzw.Close()
	}
	if f != nil && f != os.Stdout {
		f.Close()
	}
}

// newProgressBar starts an mpb progress bar of n steps under the given
// label, returning an increment callback and a stop function. When
// verbose is false, both are no-ops.
func newProgressBar(label string, n int, verbose bool) (increment func(), stop func()) {
	if !verbose || n == 0 {
		return func() {}, func() {}
	}
	pbs := mpb.New(mpb.WithWidth(64))
	bar := pbs.AddBar(int64(n),
		mpb.BarStyle("[=>-]<+"),
		mpb.PrependDecorators(
			decor.Name(label, decor.WC{W: len(label) + 1, C: decor.DidentRight}),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
		),
	)
	return func() { bar.Increment() }, func() { pbs.Wait() }
}

// printClassifySummary prints a per-rank classified/unclassified count
// table for a sintax/nbc run, in the style of kmcp's ref-info/
// util-db-info summary commands. rankPassed[d] is the number of queries
// whose confidence passed cutoff through rank depth d+1.
func printClassifySummary(nQueries, nClassified int, rankPassed []int) {
	if nQueries == 0 {
		return
	}
	tbl, err := prettytable.NewTable(
		prettytable.Column{Header: "rank"},
		prettytable.Column{Header: "classified", AlignRight: true},
		prettytable.Column{Header: "pct", AlignRight: true},
	)
	if err != nil {
		return
	}
	tbl.Separator = "  "
	nUnclassified := nQueries - nClassified
	tbl.AddRow("total queries", nQueries, "100.00%")
	tbl.AddRow("classified (>=1 rank)", nClassified, fmt.Sprintf("%.2f%%", 100*float64(nClassified)/float64(nQueries)))
	tbl.AddRow("unclassified", nUnclassified, fmt.Sprintf("%.2f%%", 100*float64(nUnclassified)/float64(nQueries)))
	for d, c := range rankPassed {
		tbl.AddRow(fmt.Sprintf("depth %d", d+1), c, fmt.Sprintf("%.2f%%", 100*float64(c)/float64(nQueries)))
	}
	stdout := colorable.NewColorableStdout()
	stdout.Write(tbl.Bytes())
}

// dumpParams writes the run's effective parameters to a YAML sidecar next
// to the output file, e.g. "zotus.fasta" -> "zotus.fasta.params.yaml".
func dumpParams(outFile string, params interface{}) {
	if isStdout(outFile) {
		return
	}
	data, err := yaml.Marshal(params)
	if err != nil {
		log.Warningf("fail to marshal run parameters: %s", err)
		return
	}
	if err := os.WriteFile(outFile+".params.yaml", data, 0644); err != nil {
		log.Warningf("fail to write params sidecar: %s", err)
	}
}
