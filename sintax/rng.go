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

package sintax

// lcg is the linear-congruential generator used to draw the bootstrap
// word subsample. A fresh generator, seeded at 1, is created for each
// strand classification, which makes repeated classification of the
// same query deterministic and thread-safe.
type lcg struct {
	state uint32
}

func newLCG(seed uint32) *lcg {
	return &lcg{state: seed}
}

func (g *lcg) next() uint32 {
	g.state = g.state*1664525 + 1013904223
	return g.state
}

// mwc5 is a 5-lag multiply-with-carry generator used only to break
// ties among equally-voted targets. It is warmed up from the LCG
// stream (10 draws to seed its 5 lag words plus the carry) and then
// run 100 times before first use, so its output is well-mixed and
// uncorrelated with the LCG's own early outputs.
type mwc5 struct {
	q [5]uint32
	c uint32
	i int
}

const mwcMultiplier = 0xFFFFDA61

func newMWC5(seed *lcg) *mwc5 {
	m := &mwc5{}
	for i := 0; i < 5; i++ {
		m.q[i] = seed.next()
	}
	m.c = seed.next() % mwcMultiplier
	seed.next() // 7th LCG draw consumed as part of the 10-step warm-start
	seed.next() // 8th
	seed.next() // 9th
	seed.next() // 10th
	for i := 0; i < 100; i++ {
		m.next()
	}
	return m
}

func (m *mwc5) next() uint32 {
	i := m.i % 5
	t := uint64(mwcMultiplier)*uint64(m.q[i]) + uint64(m.c)
	m.q[i] = uint32(t)
	m.c = uint32(t >> 32)
	m.i++
	return m.q[i]
}

// intn returns a uniform value in [0, n) using g. n must be positive.
func (g *lcg) intn(n int) int {
	return int(g.next() % uint32(n))
}

func (m *mwc5) intn(n int) int {
	return int(m.next() % uint32(n))
}
