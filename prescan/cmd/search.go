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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search queries against subject genomes and profile presence/absence",
	Long: `Search queries against subject genomes and profile presence/absence

Attention:
  1. Input should be (gzipped) FASTA files.
  2. Subject sequence headers must start with two whitespace-delimited
     tokens: the source genome ID and the sequence accession.
  3. The seed search and pairwise alignment are performed by an external
     engine binary (--engine); prescan anchors its seed matches for
     global alignment and post-processes its alignment records.

Pipeline:
  1. Seed search of queries against all subject sequences (k-mer length -k).
  2. Seed matches are flanked with synthetic boundary anchors so the
     aligner spans the full length of both sequences.
  3. Per alignment record, two identity fractions are derived:
     score_pid = score/alignment_length, match_pid = matches/alignment_length.
  4. Hits are grouped per query; only hits with match_pid >= -t are kept.
  5. Qualifying hits are tabulated into a query x genome count matrix;
     queries without any hit are dropped, and rows are ordered by breadth
     (number of genomes covered, ascending, stable).
  6. The first group with mean match_pid >= --t2 and >= --n-min hits is
     sub-sampled deterministically (--seed) for multiple alignment.

Output files (per --save, written into --out-dir):
  matrix.tsv          query x genome hit counts, rows in breadth order
  order.tsv           rank, query, breadth
  summary.tsv         query, accession, score_pid, match_pid
  representative.fa   sub-sampled members of the chosen query group

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		seq.ValidateSeq = false

		var fhLog *os.File
		if opt.Log2File {
			fhLog = addLog(opt.LogFile, opt.Verbose)
		}

		verbose := opt.Verbose
		outputLog := opt.Verbose || opt.Log2File

		timeStart := time.Now()
		defer func() {
			if outputLog {
				log.Info()
				log.Infof("elapsed time: %s", time.Since(timeStart))
				log.Info()
			}
			if opt.Log2File {
				fhLog.Close()
			}
		}()

		// ---------------------------------------------------------------
		// options

		configFile := getFlagString(cmd, "config")
		conf, err := LoadConfig(configFile, cmd.Flags().Changed("config"))
		checkError(err)

		if cmd.Flags().Changed("kmer-len") {
			conf.K = getFlagPositiveInt(cmd, "kmer-len")
		}
		if cmd.Flags().Changed("threshold") {
			conf.Threshold = getFlagNonNegativeFloat64(cmd, "threshold")
		}
		if cmd.Flags().Changed("t2") {
			conf.T2 = getFlagNonNegativeFloat64(cmd, "t2")
		}
		if cmd.Flags().Changed("n-min") {
			conf.NMin = getFlagPositiveInt(cmd, "n-min")
		}
		if cmd.Flags().Changed("seed") {
			conf.Seed = getFlagUint64(cmd, "seed")
		}
		if cmd.Flags().Changed("save") {
			conf.Save = getFlagStringSlice(cmd, "save")
		}
		if cmd.Flags().Changed("engine") {
			conf.Engine = getFlagString(cmd, "engine")
		}
		if cmd.Flags().Changed("timeout") {
			conf.Timeout = getFlagNonNegativeInt(cmd, "timeout")
		}

		if conf.Threshold > 1 {
			checkError(fmt.Errorf("the value of flag -t/--threshold (%f) should be in the range of [0, 1]", conf.Threshold))
		}
		if conf.T2 > 1 {
			checkError(fmt.Errorf("the value of flag --t2 (%f) should be in the range of [0, 1]", conf.T2))
		}
		for _, artifact := range conf.Save {
			switch artifact {
			case "matrix", "order", "summary", "representative":
			default:
				checkError(fmt.Errorf("unknown artifact in save list: %s", artifact))
			}
		}

		queryFile := getFlagString(cmd, "query")
		if queryFile == "" {
			checkError(fmt.Errorf("flag -q/--query needed"))
		}

		subjectDir := getFlagString(cmd, "subject-dir")
		if subjectDir == "" && len(args) == 0 {
			checkError(fmt.Errorf("subject files or -S/--subject-dir needed"))
		}

		reFileStr := getFlagString(cmd, "file-regexp")
		reFile, err := regexp.Compile(reFileStr)
		checkError(errors.Wrapf(err, "failed to parse regular expression for matching file: %s", reFileStr))

		outDir := getFlagString(cmd, "out-dir")
		force := getFlagBool(cmd, "force")

		genomeLabelsFile := getFlagString(cmd, "genome-labels")
		var genomeLabels map[string]string
		if genomeLabelsFile != "" {
			genomeLabels, err = readKVs(genomeLabelsFile, false)
			checkError(errors.Wrapf(err, "failed to read genome label file: %s", genomeLabelsFile))
		}

		// ---------------------------------------------------------------

		if outputLog {
			log.Infof("prescan v%s", VERSION)
			log.Info("  https://github.com/bhall-lab/prescan")
			log.Info()
		}

		// ---------------------------------------------------------------
		// input files

		if outputLog {
			log.Info("checking input files ...")
		}

		subjectFiles := args
		if subjectDir != "" {
			subjectFiles, err = getFileListFromDir(subjectDir, reFile, opt.NumCPUs)
			checkError(errors.Wrapf(err, "walking subject dir: %s", subjectDir))
		}

		if outputLog {
			log.Infof("  query file: %s", queryFile)
			log.Infof("  %d subject file(s) given", len(subjectFiles))
		}

		// ---------------------------------------------------------------
		// loading sequences

		queries, err := ReadSeqCollection(queryFile)
		checkError(err)

		if outputLog {
			log.Infof("%s query sequence(s) loaded", humanize.Comma(int64(queries.Size())))
		}

		var pbs *mpb.Progress
		var bar *mpb.Bar
		var onFile func()
		if verbose && len(subjectFiles) > 0 {
			pbs = mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
			bar = pbs.AddBar(int64(len(subjectFiles)),
				mpb.PrependDecorators(
					decor.Name("loaded genome files: ", decor.WC{W: len("loaded genome files: "), C: decor.DindentRight}),
					decor.Name("", decor.WCSyncSpaceR),
					decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
				),
				mpb.AppendDecorators(
					decor.OnComplete(decor.Percentage(decor.WC{W: 5}), ". done"),
				),
			)
			onFile = func() { bar.Increment() }
		}

		subjects, err := ReadSubjects(subjectFiles, onFile)
		if pbs != nil {
			pbs.Wait()
		}
		checkError(err)

		if outputLog {
			log.Infof("%s subject sequence(s) loaded from %d genome(s)",
				humanize.Comma(int64(subjects.Size())), len(GenomeColumns(subjects)))
		}

		// ---------------------------------------------------------------
		// seed search and anchored alignment (external engine)

		searcher := &ExecSearcher{
			Path:    conf.Engine,
			Timeout: time.Duration(conf.Timeout) * time.Second,
		}
		ctx := context.Background()

		var pairs []*SeedPair
		var records []*AlignmentRecord

		// zero queries or subjects is an empty-but-valid input,
		// every downstream stage handles empty data.
		if queries.Size() > 0 && subjects.Size() > 0 {
			if outputLog {
				log.Info()
				log.Infof("seed searching with k=%d ...", conf.K)
			}

			pairs, err = searcher.Seed(ctx, queryFile, subjectFiles, conf.K)
			checkError(err)

			if outputLog {
				log.Infof("  %s seed pair(s) found", humanize.Comma(int64(len(pairs))))
			}

			anchored := make([]*SeedPair, len(pairs))
			for i, pair := range pairs {
				anchored[i] = AnchorSeedPair(pair,
					queries.Lengths[pair.QueryID-1],
					subjects.Lengths[pair.SubjectID-1])
			}

			if outputLog {
				log.Infof("aligning %s anchored pair(s) ...", humanize.Comma(int64(len(anchored))))
			}

			records, err = searcher.Align(ctx, anchored)
			checkError(err)

			checkError(NormalizeAll(records))

			if outputLog && len(records) > 0 {
				pids := make([]float64, len(records))
				for i, r := range records {
					pids[i] = r.MatchPID
				}
				mean, stdev := MeanStdev(pids)
				log.Infof("  %s alignment record(s), match_pid %.4f ± %.4f",
					humanize.Comma(int64(len(records))), mean, stdev)
			}
		} else if outputLog {
			log.Info()
			log.Info("empty input, skipping engine calls")
		}

		// ---------------------------------------------------------------
		// filtering, grouping and aggregation

		groups := GroupByQuery(records, queries.Size(), conf.Threshold)

		matrix, err := Aggregate(groups, subjects)
		checkError(err)
		order := matrix.RowOrder()

		if outputLog {
			log.Info()
			log.Infof("%d of %d query group(s) retained at match_pid >= %.4f",
				len(matrix.QueryIDs), queries.Size(), conf.Threshold)
		}

		ropt := &RepresentativeOptions{
			MinMeanMatchPID: conf.T2,
			MinGroupSize:    conf.NMin,
			SampleSize:      DefaultRepresentativeOptions.SampleSize,
			Seed:            conf.Seed,
		}
		rep, err := SelectRepresentative(groups, func(id int) string {
			return queries.Labels[id-1]
		}, ropt)
		if err != nil {
			if err == ErrNoQualifyingGroup {
				// recoverable: the run completes without a representative display
				log.Warningf("%s (mean match_pid >= %.4f, size >= %d)",
					err, conf.T2, conf.NMin)
			} else {
				checkError(err)
			}
		} else if outputLog {
			log.Infof("representative group: query %s, %d hit(s), mean match_pid %.4f, sampled %d",
				queries.Names[rep.QueryID-1], len(rep.Records), rep.MeanPID, len(rep.Sample))
		}

		// ---------------------------------------------------------------
		// saving artifacts

		makeOutDir(outDir, force, "out-dir", verbose)

		for _, artifact := range conf.Save {
			switch artifact {
			case "matrix":
				checkError(SaveMatrix(filepath.Join(outDir, "matrix.tsv"),
					matrix, order, queries, genomeLabels, opt.CompressionLevel))
			case "order":
				checkError(SaveRowOrder(filepath.Join(outDir, "order.tsv"),
					matrix, order, queries, opt.CompressionLevel))
			case "summary":
				checkError(SaveSummary(filepath.Join(outDir, "summary.tsv"),
					groups, queries, subjects, opt.CompressionLevel))
			case "representative":
				if rep == nil {
					continue
				}
				checkError(SaveRepresentative(filepath.Join(outDir, "representative.fa"),
					rep, subjects, opt.CompressionLevel))
			}
		}

		if outputLog {
			log.Infof("results saved to: %s", outDir)
		}
	},
}

func init() {
	RootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringP("query", "q", "",
		formatFlagUsage(`Query sequence file (FASTA, can be gzipped).`))

	searchCmd.Flags().StringP("subject-dir", "S", "",
		formatFlagUsage(`Directory containing subject genome files. Directory and symlinks are followed recursively; alternatively, pass subject files as positional arguments.`))

	searchCmd.Flags().StringP("file-regexp", "r", `\.(f[aq](st[aq])?|fna)(\.gz)?$`,
		formatFlagUsage(`Regular expression for matching subject sequence files in -S/--subject-dir.`))

	searchCmd.Flags().StringP("config", "c", DefaultConfigFile(),
		formatFlagUsage(`Config file (TOML). Command line flags override it.`))

	searchCmd.Flags().IntP("kmer-len", "k", 8,
		formatFlagUsage(`K-mer length of the seed search: the sensitivity/speed tradeoff.`))

	searchCmd.Flags().Float64P("threshold", "t", 0.4,
		formatFlagUsage(`Minimum match_pid (fraction of identical aligned columns) of a retained hit, in the range of [0, 1].`))

	searchCmd.Flags().Float64P("t2", "", 0.5,
		formatFlagUsage(`Minimum group mean match_pid of the representative query group.`))

	searchCmd.Flags().IntP("n-min", "", 10,
		formatFlagUsage(`Minimum size of the representative query group.`))

	searchCmd.Flags().Uint64P("seed", "", 11,
		formatFlagUsage(`Seed of the deterministic sub-sampling of the representative group.`))

	searchCmd.Flags().StringSliceP("save", "s", []string{"matrix", "order", "summary", "representative"},
		formatFlagUsage(`Artifacts to save: matrix, order, summary, representative.`))

	searchCmd.Flags().StringP("engine", "", "seedalign",
		formatFlagUsage(`Path of the external seed search and alignment engine binary.`))

	searchCmd.Flags().IntP("timeout", "", 600,
		formatFlagUsage(`Timeout of one engine call in seconds (0 for no bound).`))

	searchCmd.Flags().StringP("out-dir", "O", "prescan.out",
		formatFlagUsage(`Output directory.`))

	searchCmd.Flags().BoolP("force", "", false,
		formatFlagUsage(`Overwrite existing output directory.`))

	searchCmd.Flags().StringP("genome-labels", "G", "",
		formatFlagUsage(`Two-column tab-delimited file mapping genome IDs to display names in the matrix header.`))

	searchCmd.SetUsageTemplate(usageTemplate("-q query.fasta [-S genomes/ | subject.fasta ...] [-O prescan.out]"))
}
