// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package config loads merge3's on-disk defaults: the line-matcher
// algorithm, merge strategy, conflict style, and marker labels a caller
// gets when it doesn't specify them explicitly. Adapted from the
// teacher's modules/zeta/config (TOML via BurntSushi/toml, atomic
// rewrite-then-rename encode), narrowed to the handful of settings this
// core actually has an opinion about.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/antgroup/merge3/diff"
	"github.com/antgroup/merge3/diff3"
)

var ErrInvalidArgument = errors.New("config: invalid argument")

// Diff mirrors the teacher's [diff] table, narrowed to the one setting
// this core reads: which Line Matcher backs an unqualified merge call.
type Diff struct {
	Algorithm string `toml:"algorithm,omitempty"`
}

// Merge mirrors the teacher's [merge] table: default strategy, conflict
// style, and marker labels.
type Merge struct {
	Strategy    string `toml:"strategy,omitempty"`
	Style       string `toml:"style,omitempty"`
	LabelBase   string `toml:"label-base,omitempty"`
	LabelOurs   string `toml:"label-ours,omitempty"`
	LabelTheirs string `toml:"label-theirs,omitempty"`
	// Driver, if set, is a shell-style command line (may reference the
	// %O/%A/%B placeholders) naming an external merge tool to use instead
	// of the built-in Diff3 Merger.
	Driver string `toml:"driver,omitempty"`
}

// Config is the top-level document; additional tables may be added
// without breaking existing files since BurntSushi/toml ignores unknown
// keys by default.
type Config struct {
	Diff  Diff  `toml:"diff,omitempty"`
	Merge Merge `toml:"merge,omitempty"`
}

// Overwrite applies any non-empty field from co onto c, the way the
// teacher's per-section Overwrite methods layer a local config file over
// a global one.
func (c *Config) Overwrite(co *Config) {
	if co.Diff.Algorithm != "" {
		c.Diff.Algorithm = co.Diff.Algorithm
	}
	if co.Merge.Strategy != "" {
		c.Merge.Strategy = co.Merge.Strategy
	}
	if co.Merge.Style != "" {
		c.Merge.Style = co.Merge.Style
	}
	if co.Merge.LabelBase != "" {
		c.Merge.LabelBase = co.Merge.LabelBase
	}
	if co.Merge.LabelOurs != "" {
		c.Merge.LabelOurs = co.Merge.LabelOurs
	}
	if co.Merge.LabelTheirs != "" {
		c.Merge.LabelTheirs = co.Merge.LabelTheirs
	}
	if co.Merge.Driver != "" {
		c.Merge.Driver = co.Merge.Driver
	}
}

// Algorithm resolves the configured diff variant, defaulting to
// Unspecified (which diff.Compute itself normalizes to Histogram) when
// the file doesn't set one.
func (c *Config) Algorithm() diff.Algorithm {
	return diff.ParseAlgorithm(c.Diff.Algorithm)
}

// Strategy resolves the configured merge strategy, defaulting to "ort"
// when unset or unrecognized — config-file typos fail soft here since a
// bad CLI/API-supplied strategy is what §6 wants rejected loudly, not a
// bad default file.
func (c *Config) Strategy() diff3.Strategy {
	s := diff3.ParseStrategy(c.Merge.Strategy)
	if s == diff3.StrategyInvalid {
		return diff3.StrategyOrt
	}
	return s
}

func (c *Config) Style() diff3.Style {
	return diff3.ParseStyle(c.Merge.Style)
}

func (c *Config) Labels() diff3.Labels {
	return diff3.Labels{Base: c.Merge.LabelBase, A: c.Merge.LabelOurs, B: c.Merge.LabelTheirs}
}

// ExternalDriver parses the configured merge.driver command line, if any.
// ok is false when no driver is configured, in which case the built-in
// Diff3 Merger should be used instead.
func (c *Config) ExternalDriver() (driver diff3.ExternalDriver, ok bool, err error) {
	if c.Merge.Driver == "" {
		return diff3.ExternalDriver{}, false, nil
	}
	driver, err = diff3.NewExternalDriver(c.Merge.Driver, 0)
	if err != nil {
		return diff3.ExternalDriver{}, false, err
	}
	return driver, true, nil
}

// Load decodes a TOML config file at path. A missing file is not an
// error: Load returns the zero Config, which resolves to every default.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return &cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: decoding %s: %w", path, err)
	}
	return &cfg, nil
}

// Save atomically writes cfg to path: encode to a temp file in the same
// directory, then rename over the destination, so a concurrent reader
// never observes a half-written file.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return ErrInvalidArgument
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".merge3-%d.toml", time.Now().UnixNano()))
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := toml.NewEncoder(f)
	enc.Indent = ""
	encErr := enc.Encode(cfg)
	closeErr := f.Close()
	if encErr != nil {
		_ = os.Remove(tmp)
		return encErr
	}
	if closeErr != nil {
		_ = os.Remove(tmp)
		return closeErr
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
