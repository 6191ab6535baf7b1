package backend

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/convsuite/convsuite/internal/execx"
)

type recordedCall struct {
	exe   string
	args  []string
	stdin string
}

// fakeRunner scripts process outcomes for backend tests.
type fakeRunner struct {
	calls   []recordedCall
	handler func(exe string, args []string) (*execx.Result, error)
	starter func(exe string, args []string) (execx.Process, error)
}

func (r *fakeRunner) Run(ctx context.Context, exe string, args []string, timeout time.Duration) (*execx.Result, error) {
	r.calls = append(r.calls, recordedCall{exe: exe, args: args})
	if r.handler != nil {
		return r.handler(exe, args)
	}
	return &execx.Result{}, nil
}

func (r *fakeRunner) RunInput(ctx context.Context, exe string, args []string, stdin string, timeout time.Duration) (*execx.Result, error) {
	r.calls = append(r.calls, recordedCall{exe: exe, args: args, stdin: stdin})
	if r.handler != nil {
		return r.handler(exe, args)
	}
	return &execx.Result{}, nil
}

func (r *fakeRunner) Start(ctx context.Context, exe string, args []string) (execx.Process, error) {
	r.calls = append(r.calls, recordedCall{exe: exe, args: args})
	if r.starter != nil {
		return r.starter(exe, args)
	}
	return &fakeProcess{}, nil
}

type fakeProcess struct {
	stderr  string
	waitErr error
}

func (p *fakeProcess) Stderr() io.Reader { return strings.NewReader(p.stderr) }

func (p *fakeProcess) Wait() error { return p.waitErr }
