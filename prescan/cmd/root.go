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
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// VERSION of prescan
const VERSION = "0.3.0"

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "prescan",
	Short: "presence/absence profiling of sequence similarity searches",
	Long: fmt.Sprintf(`prescan: presence/absence profiling of sequence similarity searches

Version: v%s

Documents: https://github.com/bhall-lab/prescan

prescan post-processes the output of an external k-mer seed search and
pairwise alignment engine. It anchors seed matches so the aligner performs
end-to-end (global) alignment, normalizes alignment scores into identity
fractions, filters and groups hits per query, and summarizes qualifying
hits into a query x genome presence/absence matrix. A qualifying query
group is deterministically sub-sampled for downstream multiple alignment
and visualization.

`, VERSION),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().IntP("threads", "j", 4,
		"number of CPU cores to use (0 for all available cores)")
	RootCmd.PersistentFlags().BoolP("quiet", "", false,
		"do not print any verbose information, you can write them to a file with --log")
	RootCmd.PersistentFlags().StringP("log", "", "",
		"log file")

	RootCmd.CompletionOptions.DisableDefaultCmd = true
	RootCmd.SetUsageTemplate(usageTemplate(""))
}

func usageTemplate(s string) string {
	return fmt.Sprintf(`Usage:{{if .Runnable}}
  {{.CommandPath}} %s{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}

Available Commands:{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsagesWrapped 110 | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsagesWrapped 110 | trimTrailingWhitespaces}}{{end}}{{if .HasHelpSubCommands}}

Additional help topics:{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .CommandPath .CommandPathPadding}} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`, s)
}

// formatFlagUsage wraps long flag usages so cobra renders them readably.
func formatFlagUsage(usage string) string {
	width := 76
	if len(usage) <= width {
		return usage
	}

	var buf strings.Builder
	var n int
	for i, word := range strings.Fields(usage) {
		if i > 0 {
			if n+len(word)+1 > width {
				buf.WriteString("\n")
				n = 0
			} else {
				buf.WriteString(" ")
				n++
			}
		}
		buf.WriteString(word)
		n += len(word)
	}
	return buf.String()
}
