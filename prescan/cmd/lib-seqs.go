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
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seqio/fastx"
)

// ErrMalformedLabel means a subject sequence label could not be parsed
// into (genome ID, accession). Aggregation must not proceed with such
// labels, silently dropping them would corrupt the presence counts.
var ErrMalformedLabel = errors.New("malformed sequence label")

// SeqCollection is an ordered collection of sequences with stable,
// 1-based integer identifiers (the position in the collection).
type SeqCollection struct {
	Names   []string // sequence IDs (first word of the header)
	Labels  []string // full headers
	Seqs    [][]byte
	Lengths []int // lengths in residues
}

// Size returns the number of sequences in the collection.
func (c *SeqCollection) Size() int {
	return len(c.Labels)
}

func (c *SeqCollection) append(name, label string, s []byte) {
	c.Names = append(c.Names, name)
	c.Labels = append(c.Labels, label)
	c.Seqs = append(c.Seqs, s)
	c.Lengths = append(c.Lengths, len(s))
}

// SubjectInfo records the origin of one subject sequence.
type SubjectInfo struct {
	GenomeID  string
	Accession string
}

// SubjectCollection is a SeqCollection whose labels have been parsed
// into (genome ID, accession) pairs.
type SubjectCollection struct {
	SeqCollection
	Infos []SubjectInfo
}

// ReadSeqCollection reads all FASTA/FASTQ records of a file (gzip etc.
// are transparently handled) into a SeqCollection, in file order.
func ReadSeqCollection(file string) (*SeqCollection, error) {
	c := &SeqCollection{}

	// an empty file is empty-but-valid input, while the fastx reader
	// treats it as unreadable
	if fi, err := os.Stat(file); err == nil && fi.Size() == 0 {
		return c, nil
	}

	fastxReader, err := fastx.NewReader(nil, file, "")
	if err != nil {
		return nil, errors.Wrapf(err, "fail to read sequence file: %s", file)
	}

	var record *fastx.Record
	for {
		record, err = fastxReader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrapf(err, "fail to read sequence file: %s", file)
		}

		s := make([]byte, len(record.Seq.Seq))
		copy(s, record.Seq.Seq)
		c.append(string(record.ID), string(record.Name), s)
	}
	fastxReader.Close()

	return c, nil
}

// parseSubjectLabel splits a subject header on whitespace; the first two
// tokens are the source genome ID and the accession.
func parseSubjectLabel(label string) (string, string, error) {
	fields := strings.Fields(label)
	if len(fields) < 2 {
		return "", "", errors.Wrapf(ErrMalformedLabel,
			"expected 'genome accession ...', got: %q", label)
	}
	return fields[0], fields[1], nil
}

// ReadSubjects reads the subject sequence files in the given order,
// assigning 1-based identifiers across all files. Every label must parse
// into (genome ID, accession); a malformed label aborts with
// ErrMalformedLabel. onFile, if not nil, is called after each file, e.g.,
// for progress reporting.
func ReadSubjects(files []string, onFile func()) (*SubjectCollection, error) {
	c := &SubjectCollection{}

	for _, file := range files {
		s, err := ReadSeqCollection(file)
		if err != nil {
			return nil, err
		}

		for i, label := range s.Labels {
			genomeID, accession, err := parseSubjectLabel(label)
			if err != nil {
				return nil, errors.Wrapf(err, "file: %s", file)
			}

			c.append(s.Names[i], label, s.Seqs[i])
			c.Infos = append(c.Infos, SubjectInfo{GenomeID: genomeID, Accession: accession})
		}

		if onFile != nil {
			onFile()
		}
	}

	return c, nil
}
