// merge3 is a command-line front end for the Diff3 Merger: a pure
// three-way text merge over stdin/file arguments, with no repository or
// object-store dependency (merge-base and merge-tree are core library
// operations meant to be wired into a host's own commit graph and object
// store; this CLI only exercises the file-merge path directly, the way
// `git merge-file` does, since a generic merge3 binary has no graph of
// its own to walk).
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"

	"github.com/antgroup/merge3/config"
	"github.com/antgroup/merge3/diff3"
)

var version = "dev"

type versionFlag string

func (versionFlag) Decode(ctx *kong.DecodeContext) error { return nil }
func (versionFlag) IsBool() bool                         { return true }
func (v versionFlag) BeforeApply(app *kong.Kong) error {
	fmt.Fprintln(app.Stdout, version)
	app.Exit(0)
	return nil
}

type globals struct {
	Verbose bool   `short:"v" help:"Enable verbose logging"`
	Config  string `name:"config" default:"merge3.toml" help:"Path to a TOML config file of defaults (merge3.toml-style); missing is not an error"`
}

type mergeFileCmd struct {
	Stdout        bool     `name:"stdout" short:"p" help:"Write the merged result to standard output"`
	DiffAlgorithm string   `name:"diff-algorithm" help:"Line matcher: myers|histogram|ndiff (overrides config)"`
	Strategy      string   `name:"strategy" help:"Merge strategy: ort|ort-ours|ort-theirs|resolve|resolve-ours|resolve-theirs|recursive (overrides config)"`
	Diff3         bool     `name:"diff3" help:"Always show the base text in conflict markup (default)"`
	Minimal       bool     `name:"minimal" help:"Hide the base text in conflict markup"`
	Zdiff3        bool     `name:"zdiff3" help:"Use zealous diff3 conflict markup"`
	LabelOurs     string   `name:"label-ours" help:"Override the A-side marker label"`
	LabelBase     string   `name:"label-base" help:"Override the base marker label"`
	LabelTheirs   string   `name:"label-theirs" help:"Override the B-side marker label"`
	Driver        string   `name:"driver" help:"Shell command line of an external merge tool, in place of the built-in merger"`
	Files         []string `arg:"" name:"file" help:"<ours> <base> <theirs>"`
}

// Run layers this command's explicit flags over merge3.toml's defaults the
// way the teacher's commands layer a local config over a global one
// (config.Config.Overwrite): an unset flag falls through to the config
// file's value, which itself falls through to config's own hard defaults.
func (c *mergeFileCmd) Run(g *globals) error {
	if len(c.Files) != 3 {
		return fmt.Errorf("merge-file: expected exactly 3 files (ours base theirs), got %d", len(c.Files))
	}
	if g.Verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load(g.Config)
	if err != nil {
		return err
	}
	cfg.Overwrite(&config.Config{
		Diff: config.Diff{Algorithm: c.DiffAlgorithm},
		Merge: config.Merge{
			Strategy:    c.Strategy,
			LabelBase:   c.LabelBase,
			LabelOurs:   c.LabelOurs,
			LabelTheirs: c.LabelTheirs,
			Driver:      c.Driver,
		},
	})

	if c.Strategy != "" && diff3.ParseStrategy(c.Strategy) == diff3.StrategyInvalid {
		return fmt.Errorf("merge-file: unknown strategy %q", c.Strategy)
	}
	algo := cfg.Algorithm()
	strategy := cfg.Strategy()
	style := cfg.Style()
	switch {
	case c.Minimal:
		style = diff3.StyleMinimal
	case c.Zdiff3:
		style = diff3.StyleZealousDiff3
	case c.Diff3:
		style = diff3.StyleDiff3
	}

	oursPath, basePath, theirsPath := c.Files[0], c.Files[1], c.Files[2]
	ours, err := readFile(oursPath)
	if err != nil {
		return err
	}
	base, err := readFile(basePath)
	if err != nil {
		return err
	}
	theirs, err := readFile(theirsPath)
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"algorithm": algo.String(),
		"strategy":  strategy.String(),
		"style":     style.String(),
	}).Debug("merge-file: starting merge")

	var result diff3.Result
	if driver, ok, derr := cfg.ExternalDriver(); derr != nil {
		return derr
	} else if ok {
		text, conflicted, rerr := driver.Run(context.Background(), base, ours, theirs)
		if rerr != nil {
			return rerr
		}
		result = diff3.Result{Text: text}
		if conflicted {
			result.Conflicts = []diff3.ConflictRange{{}}
		}
	} else {
		result = diff3.MergeText(base, ours, theirs, diff3.Options{
			Algorithm: algo,
			Strategy:  strategy,
			Style:     style,
			Labels:    cfg.Labels(),
		})
	}

	if c.Stdout {
		if _, err := io.WriteString(os.Stdout, result.Text); err != nil {
			return err
		}
	} else {
		if err := os.WriteFile(oursPath, []byte(result.Text), 0o644); err != nil {
			return err
		}
	}

	if result.HasConflicts() {
		logrus.Warnf("merge-file: %d conflicting region(s)", len(result.Conflicts))
		os.Exit(1)
	}
	return nil
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("merge-file: reading %s: %w", path, err)
	}
	return string(data), nil
}

type cli struct {
	globals
	Version   versionFlag  `name:"version" help:"Print version and exit"`
	MergeFile mergeFileCmd `cmd:"" name:"merge-file" help:"Three-way merge of three text files"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var c cli
	kctx := kong.Parse(&c,
		kong.Name("merge3"),
		kong.Description("Git-compatible recursive three-way merge core."),
		kong.UsageOnError(),
		kong.Bind(&c.globals),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	kctx.FatalIfErrorf(kctx.Run(&c.globals))
}
