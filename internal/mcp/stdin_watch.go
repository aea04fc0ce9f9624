package mcp

import (
	"context"
	"os"
	"time"

	"gauntlet/internal/logging"
)

// WatchParent monitors for parent process death in a background goroutine.
// When the parent PID changes (the MCP client disconnected or restarted),
// it calls cancelFn to trigger graceful shutdown. This prevents zombie MCP
// server processes from accumulating.
//
// This must NOT read from stdin — the SDK's StdioTransport owns stdin
// exclusively, and stealing bytes here would corrupt the JSON-RPC stream.
//
// The goroutine exits when ctx is canceled or parent death is detected.
func WatchParent(ctx context.Context, cancelFn context.CancelFunc) {
	ppid := os.Getppid()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
				if os.Getppid() != ppid {
					logging.New("mcp").Warn("parent process died, initiating shutdown", "was_pid", ppid)
					cancelFn()
					return
				}
			}
		}
	}()
}
