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
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Searcher is the contract of the external seed-search and alignment
// engine. An empty result set is a valid outcome, not an error.
type Searcher interface {
	// Seed runs the k-mer seed search of the query file against the
	// subject files and returns the seed-match pairs.
	Seed(ctx context.Context, queryFile string, subjectFiles []string, k int) ([]*SeedPair, error)

	// Align aligns the (anchored) seed pairs and returns one alignment
	// record per pair.
	Align(ctx context.Context, pairs []*SeedPair) ([]*AlignmentRecord, error)
}

// ExecSearcher runs an external engine binary. Each call is blocking and
// bounded by Timeout; on timeout or interruption the whole pipeline
// aborts, there is no partial-result recovery.
//
// The engine's contract is tab-delimited:
//
//	seed  output: query, subject, qbegin, qend, tbegin, tend
//	              (consecutive rows of one query-subject pair form
//	              its ordered segment list)
//	align input:  query, subject, qbegin-qend:tbegin-tend,...
//	align output: query, subject, score, matches, alignlen,
//	              qbegin, qend, tbegin, tend
//
// The engine's diagnostic chatter on stderr is captured into a scoped
// buffer and surfaced only when a call fails.
type ExecSearcher struct {
	Path    string
	Timeout time.Duration
}

func (e *ExecSearcher) run(ctx context.Context, stdin io.Reader, args ...string) ([]byte, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.Path, args...)
	cmd.Stdin = stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, "engine %s %s failed: %s",
			e.Path, strings.Join(args, " "), strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// Seed implements Searcher.
func (e *ExecSearcher) Seed(ctx context.Context, queryFile string, subjectFiles []string, k int) ([]*SeedPair, error) {
	args := make([]string, 0, len(subjectFiles)+4)
	args = append(args, "seed", "-k", strconv.Itoa(k), queryFile)
	args = append(args, subjectFiles...)

	out, err := e.run(ctx, nil, args...)
	if err != nil {
		return nil, err
	}
	return parseSeedTable(bytes.NewReader(out))
}

// Align implements Searcher.
func (e *ExecSearcher) Align(ctx context.Context, pairs []*SeedPair) ([]*AlignmentRecord, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	in, err := os.CreateTemp("", "prescan-align-*.tsv")
	if err != nil {
		return nil, errors.Wrap(err, "fail to create engine input file")
	}
	defer os.Remove(in.Name())

	w := bufio.NewWriter(in)
	for _, p := range pairs {
		fmt.Fprintf(w, "%d\t%d\t%s\n", p.QueryID, p.SubjectID, formatSegments(p.Segments))
	}
	if err = w.Flush(); err != nil {
		return nil, errors.Wrap(err, "fail to write engine input file")
	}
	if err = in.Close(); err != nil {
		return nil, errors.Wrap(err, "fail to write engine input file")
	}

	out, err := e.run(ctx, nil, "align", in.Name())
	if err != nil {
		return nil, err
	}
	return parseAlignTable(bytes.NewReader(out))
}

func formatSegments(segments []Segment) string {
	var buf strings.Builder
	for i, s := range segments {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%d-%d:%d-%d", s.QBegin, s.QEnd, s.TBegin, s.TEnd)
	}
	return buf.String()
}

// parseSeedTable reads the seed search output. Consecutive rows sharing
// (query, subject) are collected into one SeedPair, keeping row order.
func parseSeedTable(r io.Reader) ([]*SeedPair, error) {
	pairs := make([]*SeedPair, 0, 128)
	var current *SeedPair

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<20)
	var n int
	for scanner.Scan() {
		n++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 6 {
			return nil, errors.Errorf("seed table line %d: expected 6 columns, got %d", n, len(fields))
		}

		vals := make([]int, 6)
		for i, f := range fields[:6] {
			v, err := strconv.Atoi(f)
			if err != nil {
				return nil, errors.Wrapf(err, "seed table line %d", n)
			}
			vals[i] = v
		}

		if current == nil || current.QueryID != vals[0] || current.SubjectID != vals[1] {
			current = &SeedPair{QueryID: vals[0], SubjectID: vals[1]}
			pairs = append(pairs, current)
		}
		current.Segments = append(current.Segments, Segment{
			QBegin: vals[2], QEnd: vals[3],
			TBegin: vals[4], TEnd: vals[5],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "fail to read seed table")
	}

	return pairs, nil
}

// parseAlignTable reads the 9-column alignment output.
func parseAlignTable(r io.Reader) ([]*AlignmentRecord, error) {
	records := make([]*AlignmentRecord, 0, 128)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<20)
	var n int
	for scanner.Scan() {
		n++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 9 {
			return nil, errors.Errorf("alignment table line %d: expected 9 columns, got %d", n, len(fields))
		}

		rec := &AlignmentRecord{}
		var err error
		if rec.QueryID, err = strconv.Atoi(fields[0]); err != nil {
			return nil, errors.Wrapf(err, "alignment table line %d", n)
		}
		if rec.SubjectID, err = strconv.Atoi(fields[1]); err != nil {
			return nil, errors.Wrapf(err, "alignment table line %d", n)
		}
		if rec.Score, err = strconv.ParseFloat(fields[2], 64); err != nil {
			return nil, errors.Wrapf(err, "alignment table line %d", n)
		}
		if rec.Matches, err = strconv.Atoi(fields[3]); err != nil {
			return nil, errors.Wrapf(err, "alignment table line %d", n)
		}
		if rec.AlignLen, err = strconv.Atoi(fields[4]); err != nil {
			return nil, errors.Wrapf(err, "alignment table line %d", n)
		}
		if rec.QBegin, err = strconv.Atoi(fields[5]); err != nil {
			return nil, errors.Wrapf(err, "alignment table line %d", n)
		}
		if rec.QEnd, err = strconv.Atoi(fields[6]); err != nil {
			return nil, errors.Wrapf(err, "alignment table line %d", n)
		}
		if rec.TBegin, err = strconv.Atoi(fields[7]); err != nil {
			return nil, errors.Wrapf(err, "alignment table line %d", n)
		}
		if rec.TEnd, err = strconv.Atoi(fields[8]); err != nil {
			return nil, errors.Wrapf(err, "alignment table line %d", n)
		}

		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "fail to read alignment table")
	}

	return records, nil
}
