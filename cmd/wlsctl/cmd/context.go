package cmd

import (
	"github.com/spf13/cobra"

	"github.com/epam/wlsctl/cmd/wlsctl/util"
)

type ContextKey string

// CmdContext carries command outcome back to Execute.
type CmdContext struct {
	ExitCode int
}

var contextKey = ContextKey("cmd")

func cmdContext(cmd *cobra.Command) *CmdContext {
	if ctx := cmd.Context(); ctx != nil {
		if cmdCtx, ok := ctx.Value(contextKey).(*CmdContext); ok && cmdCtx != nil {
			return cmdCtx
		}
	}
	util.Warn("No command context detected")
	return nil
}

func setExitCode(cmd *cobra.Command, code int) {
	if cmdCtx := cmdContext(cmd); cmdCtx != nil {
		cmdCtx.ExitCode = code
	}
}
