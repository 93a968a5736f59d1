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

// QueryGroups holds, per query, the alignment records surviving the
// identity threshold. Group key order follows the first appearance of
// each query id in the record stream, not numeric order; queries without
// any record are appended afterwards as explicit empty groups, so "no
// data" and "all filtered out" both stay visible for diagnostics.
type QueryGroups struct {
	Order  []int
	Groups map[int][]*AlignmentRecord
}

// GroupByQuery partitions records by query id, retaining within each
// group only records with MatchPID >= threshold. Records keep their
// input order within a group; filtering never reassigns a record to
// another query. numQueries is the size of the query collection, used to
// materialize empty groups for queries the engine reported nothing for.
func GroupByQuery(records []*AlignmentRecord, numQueries int, threshold float64) *QueryGroups {
	g := &QueryGroups{
		Order:  make([]int, 0, numQueries),
		Groups: make(map[int][]*AlignmentRecord, numQueries),
	}

	for _, r := range records {
		rs, ok := g.Groups[r.QueryID]
		if !ok {
			g.Order = append(g.Order, r.QueryID)
			rs = make([]*AlignmentRecord, 0, 8)
		}
		if r.MatchPID >= threshold {
			rs = append(rs, r)
		}
		g.Groups[r.QueryID] = rs
	}

	for id := 1; id <= numQueries; id++ {
		if _, ok := g.Groups[id]; !ok {
			g.Order = append(g.Order, id)
			g.Groups[id] = []*AlignmentRecord{}
		}
	}

	return g
}
