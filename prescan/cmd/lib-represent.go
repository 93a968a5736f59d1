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
	"math/rand"
	"sort"

	"github.com/pkg/errors"
	"github.com/zeebo/wyhash"
	"gonum.org/v1/gonum/stat"
)

// ErrNoQualifyingGroup means no query group satisfies both
// representative-selection predicates. The pipeline may continue without
// a representative display.
var ErrNoQualifyingGroup = errors.New("no query group satisfies the representative criteria")

// RepresentativeOptions are the predicates and sampling parameters of
// representative-group selection.
type RepresentativeOptions struct {
	MinMeanMatchPID float64 // minimum group mean MatchPID
	MinGroupSize    int     // minimum number of records in the group
	SampleSize      int     // sub-sample size for display
	Seed            uint64  // sub-sampling determinism
}

// DefaultRepresentativeOptions are the caller defaults.
var DefaultRepresentativeOptions = RepresentativeOptions{
	MinMeanMatchPID: 0.5,
	MinGroupSize:    10,
	SampleSize:      10,
	Seed:            11,
}

// Representative is the chosen query group and its deterministic
// sub-sample. Sample holds member indexes into Records; member 0, by
// convention the query's own hit, is always first.
type Representative struct {
	QueryID int
	MeanPID float64
	Records []*AlignmentRecord
	Sample  []int
}

// SelectRepresentative picks, in group iteration order, the first query
// group with mean MatchPID >= MinMeanMatchPID and size >= MinGroupSize,
// then sub-samples it for display. Sampling always keeps member 0 and
// draws SampleSize-1 further members uniformly without replacement, from
// a source seeded by Seed mixed with the query label; identical input and
// seed always reproduce the same sample. queryLabel maps a query id to
// its label.
func SelectRepresentative(groups *QueryGroups, queryLabel func(int) string,
	opt *RepresentativeOptions) (*Representative, error) {
	for _, queryID := range groups.Order {
		records := groups.Groups[queryID]
		if len(records) < opt.MinGroupSize {
			continue
		}

		pids := make([]float64, len(records))
		for i, r := range records {
			pids[i] = r.MatchPID
		}
		mean := stat.Mean(pids, nil)
		if mean < opt.MinMeanMatchPID {
			continue
		}

		rng := rand.New(rand.NewSource(
			int64(wyhash.HashString(queryLabel(queryID), opt.Seed))))

		return &Representative{
			QueryID: queryID,
			MeanPID: mean,
			Records: records,
			Sample:  subsample(len(records), opt.SampleSize, rng),
		}, nil
	}

	return nil, ErrNoQualifyingGroup
}

// subsample returns n member indexes out of size: index 0, plus n-1
// drawn uniformly without replacement from the rest, in ascending order.
// All members are kept when the group is not larger than n.
func subsample(size, n int, rng *rand.Rand) []int {
	members := make([]int, 0, n)
	members = append(members, 0)

	if size <= n {
		for i := 1; i < size; i++ {
			members = append(members, i)
		}
		return members
	}

	drawn := rng.Perm(size - 1)[:n-1]
	for i := range drawn {
		drawn[i]++
	}
	sort.Ints(drawn)

	return append(members, drawn...)
}
