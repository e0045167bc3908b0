package main

import (
	"context"
	"io"
	"os"
	"testing"

	"rsc.io/script"
	"rsc.io/script/scripttest"
)

// TestScripts drives every testdata/script/*.txt file as an end-to-end CLI
// session: each script line runs the real command tree in-process against a
// throwaway workspace under $WORK, the way a translator would chain commands
// from a shell, asserting on stdout/stderr text.
func TestScripts(t *testing.T) {
	engine := &script.Engine{
		Cmds:  scripttest.DefaultCmds(),
		Conds: scripttest.DefaultConds(),
	}
	engine.Cmds["cattrans"] = cattransScriptCmd()

	scripttest.Test(t, context.Background(), engine, nil, "testdata/script/*.txt")
}

// cattransScriptCmd executes the cattrans command tree in-process for one
// script line. Subcommands print through os.Stdout/os.Stderr directly, so the
// process-level streams are swapped for pipes around each invocation; SetOut/
// SetErr alone would miss everything but cobra's own messages. The root
// persistent flags (--db, --json, --actor, --log-file, --memory) are reset to
// the same defaults before every invocation; subcommand flag variables are
// not reset and keep whatever an earlier line set. Whatever the script's own
// arguments set (typically
// --db $WORK/ws.db, shared across the whole script so state persists the way
// it would across real shell invocations against the same file) applies on
// top.
func cattransScriptCmd() script.Cmd {
	return script.Command(
		script.CmdUsage{
			Summary: "run the cattrans CLI in-process",
			Args:    "args...",
		},
		func(s *script.State, args ...string) (script.WaitFunc, error) {
			flagDB, flagJSON, flagActor, flagLogFile = "", false, "test-actor", ""
			flagInMem = false

			outR, outW, err := os.Pipe()
			if err != nil {
				return nil, err
			}
			errR, errW, err := os.Pipe()
			if err != nil {
				outR.Close()
				outW.Close()
				return nil, err
			}

			oldStdout, oldStderr := os.Stdout, os.Stderr
			os.Stdout, os.Stderr = outW, errW
			rootCmd.SetOut(outW)
			rootCmd.SetErr(errW)
			rootCmd.SetArgs(args)
			runErr := rootCmd.ExecuteContext(s.Context())
			os.Stdout, os.Stderr = oldStdout, oldStderr

			outW.Close()
			errW.Close()
			stdout, _ := io.ReadAll(outR)
			stderr, _ := io.ReadAll(errR)
			outR.Close()
			errR.Close()

			return func(*script.State) (string, string, error) {
				return string(stdout), string(stderr), runErr
			}, nil
		},
	)
}
