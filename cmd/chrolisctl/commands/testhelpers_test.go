package commands

import (
	"bytes"
	"context"
	"regexp"
	"testing"

	"github.com/pterm/pterm"

	"github.com/jmylchreest/chrolisd/pkg/client"
)

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// execute runs the root command with c installed as the daemon client and
// returns its output with ANSI codes stripped.
func execute(t *testing.T, c client.ClientInterface, args ...string) (string, error) {
	t.Helper()
	oldPrintColor := pterm.PrintColor
	pterm.PrintColor = false
	t.Cleanup(func() { pterm.PrintColor = oldPrintColor })

	var out bytes.Buffer
	root := NewRootCommand(nil, BuildInfo{Version: "1.0.0", Commit: "abc", BuildDate: "2026-01-01"}, "127.0.0.1:9124")
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	ctx := context.Background()
	if c != nil {
		ctx = context.WithValue(ctx, ClientContextKey, c)
	}
	err := root.ExecuteContext(ctx)
	return ansiRegex.ReplaceAllString(out.String(), ""), err
}
