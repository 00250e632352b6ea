// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package diff3

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
)

const (
	stderrBufferLimit = 8 * 1024
	stderrBufferGroup = 512
)

// limitedStderr caps how much of a subprocess's stderr gets retained, the
// way command.LimitStderr does for the teacher's process wrapper — a
// runaway external driver shouldn't be able to exhaust memory just because
// it won't stop writing to stderr.
type limitedStderr struct {
	*strings.Builder
	limit int
}

func newLimitedStderr() *limitedStderr {
	b := &strings.Builder{}
	b.Grow(stderrBufferGroup)
	return &limitedStderr{Builder: b, limit: stderrBufferLimit}
}

func (w *limitedStderr) Write(p []byte) (int, error) {
	n := len(p)
	if w.limit <= 0 {
		return n, nil
	}
	if len(p) > w.limit {
		p = p[:w.limit]
	}
	w.limit -= len(p)
	_, err := w.Builder.Write(p)
	return n, err
}

// ExternalDriver shells out to a third-party merge tool (e.g. `git
// merge-file`, `diff3`) instead of using the built-in Line Matcher and
// chunk walk. It is an alternative MergeText path for sites that need
// byte-for-byte compatibility with an existing external tool's conflict
// resolution, rather than this package's own algorithm.
type ExternalDriver struct {
	// Path is the executable to run; Args may reference the placeholders
	// %A, %O, %B which are substituted with temp-file paths holding the
	// respective side's content.
	Path string
	Args []string
	// Timeout bounds how long the subprocess may run; zero means no
	// timeout.
	Timeout time.Duration
}

// NewExternalDriver parses a single shell-style command line — the form
// a merge3.toml `merge.driver` setting holds, mirroring git's
// `mergetool.<name>.cmd` — into an ExternalDriver. The first token is the
// executable; the rest become Args, still carrying any %O/%A/%B
// placeholders for Run to substitute.
func NewExternalDriver(commandLine string, timeout time.Duration) (ExternalDriver, error) {
	fields, err := shellquote.Split(commandLine)
	if err != nil {
		return ExternalDriver{}, fmt.Errorf("external merge driver: parsing %q: %w", commandLine, err)
	}
	if len(fields) == 0 {
		return ExternalDriver{}, fmt.Errorf("external merge driver: empty command line")
	}
	return ExternalDriver{Path: fields[0], Args: fields[1:], Timeout: timeout}, nil
}

// Run executes the external driver over o/a/b and returns its stdout
// (the merged content, conflicts marked up however the external tool
// chooses) plus whether it reported a conflict via a non-zero exit status
// (the convention `git merge-file`/`diff3` both follow).
func (d ExternalDriver) Run(ctx context.Context, o, a, b string) (text string, conflicted bool, err error) {
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	oFile, err := writeTemp("o-*", o)
	if err != nil {
		return "", false, err
	}
	defer os.Remove(oFile)
	aFile, err := writeTemp("a-*", a)
	if err != nil {
		return "", false, err
	}
	defer os.Remove(aFile)
	bFile, err := writeTemp("b-*", b)
	if err != nil {
		return "", false, err
	}
	defer os.Remove(bFile)

	args := make([]string, len(d.Args))
	replacer := strings.NewReplacer("%O", oFile, "%A", aFile, "%B", bFile)
	for i, a := range d.Args {
		args[i] = replacer.Replace(a)
	}

	cmd := exec.CommandContext(ctx, d.Path, args...)
	var stdout bytes.Buffer
	stderr := newLimitedStderr()
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	runErr := cmd.Run()
	if runErr == nil {
		return stdout.String(), false, nil
	}
	var exitErr *exec.ExitError
	if errorsAsExitError(runErr, &exitErr) {
		// A positive exit status from merge-file/diff3 conventionally
		// signals "merged with conflicts", not failure; only an
		// unexpected (negative/signal) status is a real error.
		if exitErr.ExitCode() > 0 {
			return stdout.String(), true, nil
		}
	}
	return "", false, fmt.Errorf("external merge driver %q: %w: %s", d.Path, runErr, stderr.String())
}

func writeTemp(pattern, content string) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func errorsAsExitError(err error, target **exec.ExitError) bool {
	if ee, ok := err.(*exec.ExitError); ok {
		*target = ee
		return true
	}
	return false
}
