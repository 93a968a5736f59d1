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

import "fmt"

// Segment is one local seed-match region between a query and a subject,
// with 1-based coordinates in both sequences.
type Segment struct {
	QBegin int
	QEnd   int
	TBegin int
	TEnd   int
}

func (s Segment) String() string {
	return fmt.Sprintf("q:[%d, %d] vs t:[%d, %d]", s.QBegin, s.QEnd, s.TBegin, s.TEnd)
}

// SeedPair is the ordered seed-match segment list of one query-subject
// pair, as reported by the external seed search engine. Segments are
// assumed to be consistently ordered along both sequences; that is the
// engine's responsibility, not checked here.
type SeedPair struct {
	QueryID   int // 1-based index into the query collection
	SubjectID int // 1-based index into the subject collection
	Segments  []Segment
}

// AnchorSeedPair returns a new SeedPair whose segment list is flanked by
// two synthetic anchors: a zero-width segment at the very start of both
// sequences, and a segment at (queryLen+1, subjectLen+1) past their ends.
// The anchors force the downstream aligner to produce an end-to-end
// (global) alignment instead of a local fragment. The original segments
// keep their relative order between the two anchors.
func AnchorSeedPair(pair *SeedPair, queryLen, subjectLen int) *SeedPair {
	segments := make([]Segment, 0, len(pair.Segments)+2)
	segments = append(segments, Segment{})
	segments = append(segments, pair.Segments...)
	segments = append(segments, Segment{
		QBegin: queryLen + 1,
		QEnd:   queryLen + 1,
		TBegin: subjectLen + 1,
		TEnd:   subjectLen + 1,
	})

	return &SeedPair{
		QueryID:   pair.QueryID,
		SubjectID: pair.SubjectID,
		Segments:  segments,
	}
}
