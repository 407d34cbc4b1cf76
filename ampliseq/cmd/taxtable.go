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
	"strings"

	"github.com/shenwei356/breader"
)

type taxRow struct {
	id  string
	tax string
}

// loadTaxTable reads a two-column "id\ttax" TSV, used when reference
// taxonomy is supplied out-of-band instead of embedded in FASTA headers
// as ";tax=...;".
func loadTaxTable(file string, threads int) (map[string]string, error) {
	fn := func(line string) (interface{}, bool, error) {
		line = strings.TrimRight(line, "\r\n")
		if line == "" || line[0] == '#' {
			return nil, false, nil
		}
		items := strings.SplitN(line, "\t", 2)
		if len(items) != 2 {
			return nil, false, nil
		}
		return taxRow{id: items[0], tax: items[1]}, true, nil
	}

	reader, err := breader.NewBufferedReader(file, threads, 100, fn)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy table %s: %w", file, err)
	}

	m := make(map[string]string, 1024)
	for chunk := range reader.Ch {
		if chunk.Err != nil {
			return nil, chunk.Err
		}
		for _, data := range chunk.Data {
			row := data.(taxRow)
			m[row.id] = row.tax
		}
	}
	return m, nil
}
