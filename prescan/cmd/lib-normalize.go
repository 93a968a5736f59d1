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

import "github.com/pkg/errors"

// ErrDegenerateAlignment means an alignment record reports zero aligned
// columns. Identity fractions are undefined for it; such records must be
// filtered before normalization.
var ErrDegenerateAlignment = errors.New("degenerate alignment with zero aligned columns")

// AlignmentRecord is one pairwise alignment reported by the external
// aligner for an anchored seed pair, plus the two identity fractions
// derived by Normalize.
type AlignmentRecord struct {
	QueryID   int // 1-based index into the query collection
	SubjectID int // 1-based index into the subject collection

	Score    float64 // alignment score, matrix-weighted
	Matches  int     // number of identical columns
	AlignLen int     // number of aligned columns

	// positional bookkeeping, passed through to outputs uninterpreted
	QBegin int
	QEnd   int
	TBegin int
	TEnd   int

	// derived fields
	ScorePID float64 // Score / AlignLen; may exceed 1 under weighted scoring
	MatchPID float64 // Matches / AlignLen; always in [0, 1]
}

// Normalize derives ScorePID and MatchPID in place.
// Records with AlignLen == 0 yield ErrDegenerateAlignment.
func Normalize(r *AlignmentRecord) error {
	if r.AlignLen == 0 {
		return errors.Wrapf(ErrDegenerateAlignment,
			"query %d vs subject %d", r.QueryID, r.SubjectID)
	}

	r.ScorePID = r.Score / float64(r.AlignLen)
	r.MatchPID = float64(r.Matches) / float64(r.AlignLen)
	return nil
}

// NormalizeAll normalizes records in place, stopping at the first
// degenerate record.
func NormalizeAll(records []*AlignmentRecord) error {
	for _, r := range records {
		if err := Normalize(r); err != nil {
			return err
		}
	}
	return nil
}
