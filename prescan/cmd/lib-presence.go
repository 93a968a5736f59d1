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
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// PresenceMatrix is the query x genome hit-count matrix.
// Rows are the query ids with at least one qualifying hit, in group
// order; columns are the distinct genome ids over *all* subject
// sequences, in first-occurrence order, so column identity is stable
// across runs with different thresholds. Counts is nil when no row
// survived.
type PresenceMatrix struct {
	QueryIDs []int
	Genomes  []string
	Counts   *mat.Dense
}

// GenomeColumns returns the distinct genome ids across all subjects,
// ordered by first occurrence.
func GenomeColumns(subjects *SubjectCollection) []string {
	genomes := make([]string, 0, 64)
	seen := make(map[string]interface{}, 64)
	for _, info := range subjects.Infos {
		if _, ok := seen[info.GenomeID]; !ok {
			seen[info.GenomeID] = struct{}{}
			genomes = append(genomes, info.GenomeID)
		}
	}
	return genomes
}

// Aggregate tabulates, for every query group, the number of surviving
// hits per source genome, then drops rows without any hit. Tabulation is
// a single pass over the records, keyed by (query, genome).
// A subject without a genome id is an upstream precondition violation
// and aborts with ErrMalformedLabel.
func Aggregate(groups *QueryGroups, subjects *SubjectCollection) (*PresenceMatrix, error) {
	m := &PresenceMatrix{
		Genomes: GenomeColumns(subjects),
	}

	col := make(map[string]int, len(m.Genomes))
	for i, g := range m.Genomes {
		col[g] = i
	}

	rows := make([]float64, 0, len(groups.Order)*len(m.Genomes))
	for _, queryID := range groups.Order {
		records := groups.Groups[queryID]
		if len(records) == 0 {
			continue
		}

		row := make([]float64, len(m.Genomes))
		for _, r := range records {
			genomeID := subjects.Infos[r.SubjectID-1].GenomeID
			if genomeID == "" {
				return nil, errors.Wrapf(ErrMalformedLabel,
					"subject %d has no genome id", r.SubjectID)
			}
			row[col[genomeID]]++
		}

		m.QueryIDs = append(m.QueryIDs, queryID)
		rows = append(rows, row...)
	}

	if len(m.QueryIDs) > 0 {
		m.Counts = mat.NewDense(len(m.QueryIDs), len(m.Genomes), rows)
	}

	return m, nil
}

// Breadth returns the number of genomes with at least one hit in row i.
func (m *PresenceMatrix) Breadth(i int) int {
	var n int
	for j := 0; j < len(m.Genomes); j++ {
		if m.Counts.At(i, j) > 0 {
			n++
		}
	}
	return n
}

// RowOrder returns a permutation of the matrix rows, stable-sorted
// ascending by breadth (ties keep the original row order). Only the
// presentation order changes, never the cell values.
func (m *PresenceMatrix) RowOrder() []int {
	order := make([]int, len(m.QueryIDs))
	breadth := make([]int, len(m.QueryIDs))
	for i := range order {
		order[i] = i
		breadth[i] = m.Breadth(i)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return breadth[order[i]] < breadth[order[j]]
	})
	return order
}
