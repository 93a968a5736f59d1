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
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
	"github.com/spf13/cobra"
)

var genomesCmd = &cobra.Command{
	Use:   "genomes",
	Short: "View genome IDs and accessions of subject files",
	Long: `View genome IDs and accessions of subject files

Subject sequence headers must start with two whitespace-delimited tokens:
the source genome ID and the sequence accession.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		seq.ValidateSeq = false

		// ------------------------------

		subjectDir := getFlagString(cmd, "subject-dir")
		if subjectDir == "" && len(args) == 0 {
			checkError(fmt.Errorf("subject files or -S/--subject-dir needed"))
		}

		reFileStr := getFlagString(cmd, "file-regexp")
		reFile, err := regexp.Compile(reFileStr)
		checkError(errors.Wrapf(err, "failed to parse regular expression for matching file: %s", reFileStr))

		outFile := getFlagString(cmd, "out-file")

		// output file handler
		outfh, gw, w, err := outStream(outFile, strings.HasSuffix(outFile, ".gz"), opt.CompressionLevel)
		checkError(err)
		defer func() {
			outfh.Flush()
			if gw != nil {
				gw.Close()
			}
			w.Close()
		}()

		// ---------------------------------------------------------------

		files := args
		if subjectDir != "" {
			files, err = getFileListFromDir(subjectDir, reFile, opt.NumCPUs)
			checkError(errors.Wrapf(err, "walking subject dir: %s", subjectDir))
		}

		subjects, err := ReadSubjects(files, nil)
		checkError(err)

		outfh.WriteString("genome\taccession\tlength\n")
		for i, info := range subjects.Infos {
			fmt.Fprintf(outfh, "%s\t%s\t%d\n", info.GenomeID, info.Accession, subjects.Lengths[i])
		}
	},
}

func init() {
	RootCmd.AddCommand(genomesCmd)

	genomesCmd.Flags().StringP("subject-dir", "S", "",
		formatFlagUsage(`Directory containing subject genome files; alternatively, pass subject files as positional arguments.`))

	genomesCmd.Flags().StringP("file-regexp", "r", `\.(f[aq](st[aq])?|fna)(\.gz)?$`,
		formatFlagUsage(`Regular expression for matching subject sequence files in -S/--subject-dir.`))

	genomesCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports the ".gz" suffix ("-" for stdout).`))

	genomesCmd.SetUsageTemplate(usageTemplate("[-S genomes/ | subject.fasta ...]"))
}
