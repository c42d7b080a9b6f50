// Package kernel runs a notebook's code cells in one interpreter session.
//
// Each session holds a fresh yaegi interpreter, so bindings made by one
// cell are visible to every later cell, mirroring interactive notebook
// semantics. Lines prefixed with "!" are shell escapes executed as
// subprocesses in the notebook's working directory; on cancellation the
// whole process group is killed, not abandoned.
package kernel

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/taigrr/nbcheck/internal/cache"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// Session is a single-notebook execution context. Not safe for
// concurrent use; cells run strictly in order.
type Session struct {
	interp    *interp.Interpreter
	out       *bytes.Buffer
	workdir   string
	artifacts *cache.Cache
	ctx       context.Context
}

// NewSession creates a fresh interpreter session. The artifact cache
// may be nil; when present it is exposed to interpreted cells as the
// nbcache package (Fetch, Dir).
func NewSession(workdir string, artifacts *cache.Cache) (*Session, error) {
	s := &Session{
		out:       &bytes.Buffer{},
		workdir:   workdir,
		artifacts: artifacts,
		ctx:       context.Background(),
	}

	s.interp = interp.New(interp.Options{
		GoPath: os.Getenv("GOPATH"),
		Stdout: s.out,
		Stderr: s.out,
	})
	if err := s.interp.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("failed to load stdlib symbols: %w", err)
	}
	if artifacts != nil {
		if err := s.interp.Use(s.cacheExports()); err != nil {
			return nil, fmt.Errorf("failed to expose cache bindings: %w", err)
		}
	}

	return s, nil
}

// cacheExports binds the session's cache handle into the interpreter so
// cells can call nbcache.Fetch(url) without reaching for hidden globals.
func (s *Session) cacheExports() interp.Exports {
	fetch := func(url string) (string, error) {
		return s.artifacts.Fetch(s.ctx, url)
	}
	return interp.Exports{
		"nbcache/nbcache": {
			"Fetch": reflect.ValueOf(fetch),
			"Dir":   reflect.ValueOf(s.artifacts.Dir),
		},
	}
}

// ExecCell executes one code cell and returns its combined output.
// Interpreter state persists across calls; a returned error means the
// cell raised and the notebook must stop.
func (s *Session) ExecCell(ctx context.Context, source string) (string, error) {
	s.ctx = ctx
	s.out.Reset()

	var goChunk []string
	flush := func() error {
		if len(goChunk) == 0 {
			return nil
		}
		chunk := strings.Join(goChunk, "\n")
		goChunk = nil
		return s.evalGo(ctx, chunk)
	}

	for line := range strings.Lines(source) {
		trimmed := strings.TrimSpace(line)
		if bang, ok := strings.CutPrefix(trimmed, "!"); ok {
			if err := flush(); err != nil {
				return s.out.String(), err
			}
			if err := s.runShell(ctx, bang); err != nil {
				return s.out.String(), err
			}
			continue
		}
		goChunk = append(goChunk, strings.TrimRight(line, "\n"))
	}
	if err := flush(); err != nil {
		return s.out.String(), err
	}

	return s.out.String(), nil
}

// evalGo evaluates a Go snippet, converting interpreter panics into errors.
func (s *Session) evalGo(ctx context.Context, src string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cell panicked: %v", r)
		}
	}()

	if _, err := s.interp.EvalWithContext(ctx, src); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return ctx.Err()
}

// runShell executes one "!" escape line as a subprocess.
func (s *Session) runShell(ctx context.Context, cmdline string) error {
	cmdline = strings.TrimSpace(cmdline)
	if cmdline == "" {
		return nil
	}

	cmd := shellCommand(ctx, cmdline)
	cmd.Dir = s.workdir
	cmd.Stdout = s.out
	cmd.Stderr = s.out
	cmd.Env = os.Environ()
	if s.artifacts != nil {
		cmd.Env = append(cmd.Env, "NBCHECK_CACHE_DIR="+s.artifacts.Dir())
	}
	setProcGroup(cmd)
	cmd.Cancel = func() error { return killProcGroup(cmd) }
	cmd.WaitDelay = 3 * time.Second

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("shell command failed: %s - %w", cmdline, err)
	}
	return ctx.Err()
}
