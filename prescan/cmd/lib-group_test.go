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

import "testing"

func record(queryID, subjectID int, matchPID float64) *AlignmentRecord {
	return &AlignmentRecord{QueryID: queryID, SubjectID: subjectID, MatchPID: matchPID}
}

func TestGroupByQueryOrderAndFiltering(t *testing.T) {
	// query 2 appears first in the stream, so its group comes first
	records := []*AlignmentRecord{
		record(2, 1, 0.9),
		record(1, 2, 0.3),
		record(2, 3, 0.1),
		record(1, 4, 0.5),
		record(2, 5, 0.8),
	}

	g := GroupByQuery(records, 2, 0.4)

	if len(g.Order) != 2 || g.Order[0] != 2 || g.Order[1] != 1 {
		t.Fatalf("expected key order [2 1], got %v", g.Order)
	}

	if n := len(g.Groups[2]); n != 2 {
		t.Errorf("group 2: expected 2 surviving records, got %d", n)
	}
	if n := len(g.Groups[1]); n != 1 {
		t.Errorf("group 1: expected 1 surviving record, got %d", n)
	}

	// filtering removes records but never reassigns them
	for queryID, rs := range g.Groups {
		for _, r := range rs {
			if r.QueryID != queryID {
				t.Errorf("record of query %d filed under query %d", r.QueryID, queryID)
			}
		}
	}

	// surviving records keep their input order
	if g.Groups[2][0].SubjectID != 1 || g.Groups[2][1].SubjectID != 5 {
		t.Errorf("group 2 order broken: %d, %d",
			g.Groups[2][0].SubjectID, g.Groups[2][1].SubjectID)
	}
}

func TestGroupByQueryTotalBeforeFiltering(t *testing.T) {
	records := []*AlignmentRecord{
		record(1, 1, 0.2),
		record(1, 2, 0.9),
		record(2, 3, 0.9),
		record(3, 4, 0.1),
	}

	// threshold 0 keeps everything: the union of group sizes equals the input size
	g := GroupByQuery(records, 3, 0)
	var total int
	for _, rs := range g.Groups {
		total += len(rs)
	}
	if total != len(records) {
		t.Errorf("expected %d records across groups, got %d", len(records), total)
	}
}

func TestGroupByQueryEmptyGroups(t *testing.T) {
	// query 1: all records filtered out; query 3: no records at all.
	// Both must be present as explicit empty groups.
	records := []*AlignmentRecord{
		record(2, 1, 0.9),
		record(1, 2, 0.1),
	}

	g := GroupByQuery(records, 3, 0.5)

	if len(g.Order) != 3 {
		t.Fatalf("expected 3 groups, got %d: %v", len(g.Order), g.Order)
	}

	for _, queryID := range []int{1, 3} {
		rs, ok := g.Groups[queryID]
		if !ok {
			t.Errorf("group %d missing, expected an explicit empty group", queryID)
			continue
		}
		if len(rs) != 0 {
			t.Errorf("group %d: expected an empty group, got %d records", queryID, len(rs))
		}
	}
}

func TestGroupByQueryEmptyInput(t *testing.T) {
	g := GroupByQuery(nil, 0, 0.4)
	if len(g.Order) != 0 || len(g.Groups) != 0 {
		t.Errorf("expected no groups for empty input, got %v", g.Order)
	}
}
