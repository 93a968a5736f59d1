// Copyright © 2024-2026 Ben Hall <bhall.lab@gmail.com>
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
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// five subjects from three genomes; genome gC has no subject hit in some tests
func testSubjects() *SubjectCollection {
	c := &SubjectCollection{}
	for _, info := range []SubjectInfo{
		{GenomeID: "gA", Accession: "acc1"},
		{GenomeID: "gA", Accession: "acc2"},
		{GenomeID: "gB", Accession: "acc3"},
		{GenomeID: "gC", Accession: "acc4"},
		{GenomeID: "gB", Accession: "acc5"},
	} {
		c.append(info.GenomeID, info.GenomeID+" "+info.Accession, []byte("ACGT"))
		c.Infos = append(c.Infos, info)
	}
	return c
}

func TestGenomeColumns(t *testing.T) {
	genomes := GenomeColumns(testSubjects())

	want := []string{"gA", "gB", "gC"}
	if len(genomes) != len(want) {
		t.Fatalf("expected %d genomes, got %d", len(want), len(genomes))
	}
	for i, g := range want {
		if genomes[i] != g {
			t.Errorf("column %d: expected %s, got %s", i, g, genomes[i])
		}
	}
}

func TestAggregate(t *testing.T) {
	subjects := testSubjects()

	records := []*AlignmentRecord{
		record(1, 1, 0.9), // gA
		record(1, 3, 0.8), // gB
		record(1, 5, 0.7), // gB
		record(2, 4, 0.6), // gC
	}
	g := GroupByQuery(records, 3, 0.5) // query 3 stays empty

	m, err := Aggregate(g, subjects)
	if err != nil {
		t.Fatal(err)
	}

	// the empty group must not produce a row
	if len(m.QueryIDs) != 2 {
		t.Fatalf("expected 2 retained rows, got %d: %v", len(m.QueryIDs), m.QueryIDs)
	}

	// row sums equal the filtered group sizes
	for i, queryID := range m.QueryIDs {
		sum := floats.Sum(mat.Row(nil, i, m.Counts))
		if int(sum) != len(g.Groups[queryID]) {
			t.Errorf("row %d (query %d): sum %d != group size %d",
				i, queryID, int(sum), len(g.Groups[queryID]))
		}
		if sum == 0 {
			t.Errorf("row %d (query %d): zero row retained", i, queryID)
		}
	}

	// spot-check cells: query 1 has 1 hit in gA, 2 in gB, 0 in gC
	wantRow := []float64{1, 2, 0}
	for j, want := range wantRow {
		if got := m.Counts.At(0, j); got != want {
			t.Errorf("cell (0, %d): expected %.0f, got %.0f", j, want, got)
		}
	}
}

func TestAggregateEmpty(t *testing.T) {
	subjects := testSubjects()
	g := GroupByQuery(nil, 2, 0.5)

	m, err := Aggregate(g, subjects)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.QueryIDs) != 0 || m.Counts != nil {
		t.Errorf("expected an empty matrix, got %d rows", len(m.QueryIDs))
	}
	// column identity is established before any filtering
	if len(m.Genomes) != 3 {
		t.Errorf("expected 3 genome columns for empty groups, got %d", len(m.Genomes))
	}
}

func TestRowOrder(t *testing.T) {
	// rows with breadths [3, 1, 2, 1]: stable ascending sort yields [1 3 2 0]
	m := &PresenceMatrix{
		QueryIDs: []int{1, 2, 3, 4},
		Genomes:  []string{"gA", "gB", "gC"},
		Counts: mat.NewDense(4, 3, []float64{
			1, 1, 1,
			0, 2, 0,
			1, 0, 4,
			5, 0, 0,
		}),
	}

	order := m.RowOrder()
	want := []int{1, 3, 2, 0}
	for i, idx := range want {
		if order[i] != idx {
			t.Fatalf("expected order %v, got %v", want, order)
		}
	}

	// ordering only permutes presentation, never values
	if m.Counts.At(0, 0) != 1 || m.Counts.At(3, 0) != 5 {
		t.Error("RowOrder mutated the matrix")
	}
}
