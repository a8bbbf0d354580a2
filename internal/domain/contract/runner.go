package contract

import "context"

// CommandRunner executes control-plane tooling on the hosting server, either
// locally or over SSH.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
	FileExists(ctx context.Context, path string) (bool, error)
}
