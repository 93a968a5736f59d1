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
	"bytes"
	"fmt"
	"strings"
)

// SaveMatrix writes the presence/absence matrix as TSV, rows in the
// given display order. labels, if not nil, maps genome ids to display
// names for the header.
func SaveMatrix(file string, m *PresenceMatrix, order []int,
	queries *SeqCollection, labels map[string]string, level int) error {
	outfh, gw, w, err := outStream(file, strings.HasSuffix(file, ".gz"), level)
	if err != nil {
		return err
	}
	defer func() {
		outfh.Flush()
		if gw != nil {
			gw.Close()
		}
		w.Close()
	}()

	outfh.WriteString("query")
	for _, g := range m.Genomes {
		if name, ok := labels[g]; ok {
			g = name
		}
		fmt.Fprintf(outfh, "\t%s", g)
	}
	outfh.WriteString("\n")

	for _, i := range order {
		outfh.WriteString(queries.Names[m.QueryIDs[i]-1])
		for j := 0; j < len(m.Genomes); j++ {
			fmt.Fprintf(outfh, "\t%d", int(m.Counts.At(i, j)))
		}
		outfh.WriteString("\n")
	}

	return nil
}

// SaveRowOrder writes the display permutation: rank, query id, breadth.
func SaveRowOrder(file string, m *PresenceMatrix, order []int,
	queries *SeqCollection, level int) error {
	outfh, gw, w, err := outStream(file, strings.HasSuffix(file, ".gz"), level)
	if err != nil {
		return err
	}
	defer func() {
		outfh.Flush()
		if gw != nil {
			gw.Close()
		}
		w.Close()
	}()

	outfh.WriteString("rank\tquery\tbreadth\n")
	for rank, i := range order {
		fmt.Fprintf(outfh, "%d\t%s\t%d\n",
			rank+1, queries.Names[m.QueryIDs[i]-1], m.Breadth(i))
	}

	return nil
}

// SaveSummary writes, per query, the surviving hits reduced to
// (accession, score_pid, match_pid) triples.
func SaveSummary(file string, groups *QueryGroups,
	queries *SeqCollection, subjects *SubjectCollection, level int) error {
	outfh, gw, w, err := outStream(file, strings.HasSuffix(file, ".gz"), level)
	if err != nil {
		return err
	}
	defer func() {
		outfh.Flush()
		if gw != nil {
			gw.Close()
		}
		w.Close()
	}()

	outfh.WriteString("query\taccession\tscore_pid\tmatch_pid\n")
	for _, queryID := range groups.Order {
		for _, r := range groups.Groups[queryID] {
			fmt.Fprintf(outfh, "%s\t%s\t%.4f\t%.4f\n",
				queries.Names[queryID-1],
				subjects.Infos[r.SubjectID-1].Accession,
				r.ScorePID, r.MatchPID)
		}
	}

	return nil
}

// SaveRepresentative writes the sub-sampled members of the chosen group
// as FASTA, for the external multiple-alignment/visualization tool.
func SaveRepresentative(file string, rep *Representative,
	subjects *SubjectCollection, level int) error {
	outfh, gw, w, err := outStream(file, strings.HasSuffix(file, ".gz"), level)
	if err != nil {
		return err
	}
	defer func() {
		outfh.Flush()
		if gw != nil {
			gw.Close()
		}
		w.Close()
	}()

	var buffer *bytes.Buffer
	var wrapped []byte
	for _, i := range rep.Sample {
		r := rep.Records[i]
		info := subjects.Infos[r.SubjectID-1]

		fmt.Fprintf(outfh, ">%s %s match_pid=%.4f\n", info.Accession, info.GenomeID, r.MatchPID)
		wrapped, buffer = wrapByteSlice(subjects.Seqs[r.SubjectID-1], 60, buffer)
		outfh.Write(wrapped)
		outfh.WriteString("\n")
	}

	return nil
}
