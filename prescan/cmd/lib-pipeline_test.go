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
	"context"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// stubSearcher replays canned engine results, recording what it was fed.
type stubSearcher struct {
	pairs   []*SeedPair
	records []*AlignmentRecord

	alignedWith []*SeedPair
}

func (s *stubSearcher) Seed(ctx context.Context, queryFile string, subjectFiles []string, k int) ([]*SeedPair, error) {
	return s.pairs, nil
}

func (s *stubSearcher) Align(ctx context.Context, pairs []*SeedPair) ([]*AlignmentRecord, error) {
	s.alignedWith = pairs
	return s.records, nil
}

// Two queries against three genomes with five subjects; four alignment
// records with match_pid 0.6, 0.3, 0.45, 0.8 against threshold 0.4:
// three records survive in two groups of sizes 2 and 1, giving a
// presence matrix of two rows with sums 2 and 1.
func TestPipelineEndToEnd(t *testing.T) {
	queries := &SeqCollection{}
	queries.append("q1", "q1 first query", []byte("ACGTACGTAC"))
	queries.append("q2", "q2 second query", []byte("TTTTGGGGCC"))

	subjects := testSubjects() // five subjects from genomes gA, gB, gC

	engine := &stubSearcher{
		pairs: []*SeedPair{
			{QueryID: 1, SubjectID: 1, Segments: []Segment{{QBegin: 1, QEnd: 4, TBegin: 1, TEnd: 4}}},
			{QueryID: 1, SubjectID: 3, Segments: []Segment{{QBegin: 2, QEnd: 4, TBegin: 2, TEnd: 4}}},
			{QueryID: 1, SubjectID: 4, Segments: []Segment{{QBegin: 1, QEnd: 3, TBegin: 1, TEnd: 3}}},
			{QueryID: 2, SubjectID: 5, Segments: []Segment{{QBegin: 1, QEnd: 4, TBegin: 1, TEnd: 4}}},
		},
		records: []*AlignmentRecord{
			{QueryID: 1, SubjectID: 1, Score: 70, Matches: 60, AlignLen: 100},
			{QueryID: 1, SubjectID: 3, Score: 35, Matches: 30, AlignLen: 100},
			{QueryID: 1, SubjectID: 4, Score: 50, Matches: 45, AlignLen: 100},
			{QueryID: 2, SubjectID: 5, Score: 90, Matches: 80, AlignLen: 100},
		},
	}

	ctx := context.Background()

	pairs, err := engine.Seed(ctx, "queries.fasta", nil, 8)
	if err != nil {
		t.Fatal(err)
	}

	anchored := make([]*SeedPair, len(pairs))
	for i, pair := range pairs {
		anchored[i] = AnchorSeedPair(pair,
			queries.Lengths[pair.QueryID-1],
			subjects.Lengths[pair.SubjectID-1])
	}

	records, err := engine.Align(ctx, anchored)
	if err != nil {
		t.Fatal(err)
	}
	if err = NormalizeAll(records); err != nil {
		t.Fatal(err)
	}

	// the aligner must have been handed anchored pairs
	for i, pair := range engine.alignedWith {
		if len(pair.Segments) != len(engine.pairs[i].Segments)+2 {
			t.Fatalf("pair %d not anchored: %d segments", i, len(pair.Segments))
		}
	}

	groups := GroupByQuery(records, queries.Size(), 0.4)

	var survived int
	for _, rs := range groups.Groups {
		survived += len(rs)
	}
	if survived != 3 {
		t.Fatalf("expected 3 surviving records, got %d", survived)
	}
	if len(groups.Groups[1]) != 2 || len(groups.Groups[2]) != 1 {
		t.Fatalf("expected group sizes 2 and 1, got %d and %d",
			len(groups.Groups[1]), len(groups.Groups[2]))
	}

	matrix, err := Aggregate(groups, subjects)
	if err != nil {
		t.Fatal(err)
	}
	if len(matrix.QueryIDs) != 2 {
		t.Fatalf("expected 2 retained matrix rows, got %d", len(matrix.QueryIDs))
	}

	wantSums := map[int]float64{1: 2, 2: 1}
	for i, queryID := range matrix.QueryIDs {
		sum := floats.Sum(mat.Row(nil, i, matrix.Counts))
		if sum != wantSums[queryID] {
			t.Errorf("row of query %d: expected sum %.0f, got %.0f", queryID, wantSums[queryID], sum)
		}
	}

	// q1 covers gA+gC (breadth 2), q2 covers gB (breadth 1):
	// ascending breadth puts q2's row first
	order := matrix.RowOrder()
	if matrix.QueryIDs[order[0]] != 2 || matrix.QueryIDs[order[1]] != 1 {
		t.Errorf("expected display order [q2 q1], got %v", order)
	}
}

func TestPipelineEmptyInput(t *testing.T) {
	engine := &stubSearcher{}
	subjects := testSubjects()

	pairs, err := engine.Seed(context.Background(), "queries.fasta", nil, 8)
	if err != nil {
		t.Fatal(err)
	}
	records, err := engine.Align(context.Background(), pairs)
	if err != nil {
		t.Fatal(err)
	}
	if err = NormalizeAll(records); err != nil {
		t.Fatal(err)
	}

	groups := GroupByQuery(records, 0, 0.4)
	matrix, err := Aggregate(groups, subjects)
	if err != nil {
		t.Fatal(err)
	}

	if len(matrix.QueryIDs) != 0 {
		t.Errorf("expected no rows for empty input, got %d", len(matrix.QueryIDs))
	}
	if len(matrix.RowOrder()) != 0 {
		t.Error("expected an empty row order for empty input")
	}

	if _, err = SelectRepresentative(groups, queryLabel, &DefaultRepresentativeOptions); err != ErrNoQualifyingGroup {
		t.Errorf("expected ErrNoQualifyingGroup for empty input, got: %v", err)
	}
}
