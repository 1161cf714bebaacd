package stack

import (
	"context"
	"errors"
)

// StatusRunning is the orchestrator status string for a healthy service.
const StatusRunning = "running"

// ErrServiceNotFound is returned by ServiceStatus when the orchestrator has
// no container for the requested service.
var ErrServiceNotFound = errors.New("service not found")

// Orchestrator is the external collaborator managing the pipeline's
// container stack. Implementations exist for docker compose and for
// containerd (nerdctl-managed stacks).
type Orchestrator interface {
	// Ping verifies the orchestrator daemon is reachable.
	Ping(ctx context.Context) error

	// ServiceStatus returns the status string for the named service, or
	// ErrServiceNotFound when no container exists for it.
	ServiceStatus(ctx context.Context, name string) (string, error)
}
