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
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// Config is the named-option list controlling a prescan run. Every field
// can be overridden by a command line flag.
type Config struct {
	K         int     `toml:"k"`         // k-mer length: search sensitivity/speed tradeoff
	Threshold float64 `toml:"threshold"` // minimum MatchPID retained per hit
	T2        float64 `toml:"t2"`        // minimum group mean MatchPID for the representative
	NMin      int     `toml:"n-min"`     // minimum group size for the representative
	Seed      uint64  `toml:"seed"`      // sub-sampling determinism

	Save []string `toml:"save"` // artifacts to persist: matrix, order, summary, representative

	Engine  string `toml:"engine"`  // path of the external seed/align engine binary
	Timeout int    `toml:"timeout"` // engine call timeout in seconds, 0 for none
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		K:         8,
		Threshold: 0.4,
		T2:        0.5,
		NMin:      10,
		Seed:      11,
		Save:      []string{"matrix", "order", "summary", "representative"},
		Engine:    "seedalign",
		Timeout:   600,
	}
}

// DefaultConfigFile is the per-user config location.
func DefaultConfigFile() string {
	home, err := homedir.Dir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".prescan.toml")
}

// LoadConfig reads a TOML config file on top of the defaults.
// A missing default config file is not an error.
func LoadConfig(file string, mustExist bool) (*Config, error) {
	conf := DefaultConfig()

	if file == "" {
		return conf, nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return conf, nil
		}
		return nil, errors.Wrapf(err, "fail to read config file: %s", file)
	}

	if err = toml.Unmarshal(data, conf); err != nil {
		return nil, errors.Wrapf(err, "fail to parse config file: %s", file)
	}
	return conf, nil
}
