// Copyright © 2024 The ampliseq Authors
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

// Package label parses the ";size=N;" and ";tax=...;" annotations
// USEARCH-family tools embed in FASTA header ids.
package label

import "strconv"

// ParseSize extracts the abundance from a ";size=N;" token in id. It
// returns 0 if the token is absent or its value does not parse as a
// non-negative integer -- unparseable annotations are never an error
// at this layer, they simply mean "no known size".
func ParseSize(id string) int {
	tok, ok := findToken(id, "size=")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(tok)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ParseTax extracts the raw ";tax=...;" payload from id, e.g.
// "d:Bacteria,p:Firmicutes,g:Testus". It returns "" if absent.
func ParseTax(id string) string {
	tok, ok := findToken(id, "tax=")
	if !ok {
		return ""
	}
	return tok
}

// findToken scans id for ";<key><value>;" and returns <value>. Every
// annotation, including the first one right after the bare
// identifier, must be preceded by ';' ("id;size=N;" or
// "id;size=N;tax=...;").
func findToken(id, key string) (string, bool) {
	n := len(id)
	klen := len(key)
	for i := 0; i+klen <= n; i++ {
		if id[i] != ';' {
			continue
		}
		start := i + 1
		if start+klen > n || id[start:start+klen] != key {
			continue
		}
		valStart := start + klen
		end := valStart
		for end < n && id[end] != ';' {
			end++
		}
		return id[valStart:end], true
	}
	return "", false
}

// RankStrings splits a raw ";tax=...;" payload on ',' into ordered
// rank strings, e.g. "d:Bacteria,p:Firmicutes" -> ["d:Bacteria",
// "p:Firmicutes"]. Empty entries are dropped.
func RankStrings(tax string) []string {
	if tax == "" {
		return nil
	}
	var ranks []string
	start := 0
	for i := 0; i <= len(tax); i++ {
		if i == len(tax) || tax[i] == ',' {
			if i > start {
				ranks = append(ranks, tax[start:i])
			}
			start = i + 1
		}
	}
	return ranks
}

// RankName returns the rank-name portion of a rank string such as
// "g:Testus" -> "g". If there is no ':' the whole string is the rank
// name (defensive; well-formed inputs always have a colon).
func RankName(rank string) string {
	for i := 0; i < len(rank); i++ {
		if rank[i] == ':' {
			return rank[:i]
		}
	}
	return rank
}
