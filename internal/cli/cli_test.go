// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package cli

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"strings"
	"testing"

	"go.astrophena.name/minewire/internal/testutil"
)

func testEnv() (*Env, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &Env{
		Getenv: func(string) string { return "" },
		Stdin:  strings.NewReader(""),
		Stdout: &stdout,
		Stderr: &stderr,
	}, &stdout, &stderr
}

func TestRunVersionFlag(t *testing.T) {
	t.Parallel()

	env, _, stderr := testEnv()
	env.Args = []string{"-version"}

	err := Run(context.Background(), AppFunc(func(context.Context, *Env) error {
		t.Error("app must not run")
		return nil
	}), env)
	if !errors.Is(err, ErrExitVersion) {
		t.Fatalf("want %v, got %v", ErrExitVersion, err)
	}
	if stderr.Len() == 0 {
		t.Error("version info must be printed to stderr")
	}
}

func TestRunPassesArgs(t *testing.T) {
	t.Parallel()

	env, _, _ := testEnv()
	env.Args = []string{"fetch", "extra"}

	var got []string
	err := Run(context.Background(), AppFunc(func(_ context.Context, env *Env) error {
		got = env.Args
		return nil
	}), env)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, got, []string{"fetch", "extra"})
}

func TestRunUnknownFlag(t *testing.T) {
	t.Parallel()

	env, _, stderr := testEnv()
	env.Args = []string{"-frobnicate"}

	if err := Run(context.Background(), AppFunc(func(context.Context, *Env) error {
		t.Error("app must not run")
		return nil
	}), env); err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(stderr.String(), "frobnicate") {
		t.Errorf("stderr must mention the unknown flag, got: %q", stderr.String())
	}
}

func TestRunAppFlags(t *testing.T) {
	t.Parallel()

	env, _, _ := testEnv()
	env.Args = []string{"-name", "miner", "run"}

	app := &flagApp{}
	if err := Run(context.Background(), app, env); err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, app.name, "miner")
	testutil.AssertEqual(t, app.args, []string{"run"})
}

type flagApp struct {
	name string
	args []string
}

func (a *flagApp) Flags(fs *flag.FlagSet) {
	fs.StringVar(&a.name, "name", "", "Name to greet.")
}

func (a *flagApp) Run(_ context.Context, env *Env) error {
	a.args = env.Args
	return nil
}

func TestRunPropagatesAppError(t *testing.T) {
	t.Parallel()

	env, _, _ := testEnv()
	wantErr := errors.New("boom")

	err := Run(context.Background(), AppFunc(func(context.Context, *Env) error {
		return wantErr
	}), env)
	if !errors.Is(err, wantErr) {
		t.Fatalf("want %v, got %v", wantErr, err)
	}
}
