package stack

import (
	"context"
	"fmt"

	"github.com/containerd/containerd"
	"github.com/containerd/containerd/errdefs"
	"github.com/containerd/containerd/namespaces"
)

const (
	// DefaultNamespace is the containerd namespace nerdctl compose uses.
	DefaultNamespace = "default"

	// DefaultSocketPath is the default containerd socket
	DefaultSocketPath = "/run/containerd/containerd.sock"
)

// ContainerdOrchestrator queries service status straight from containerd,
// for hosts where the stack runs under nerdctl compose instead of docker.
type ContainerdOrchestrator struct {
	client     *containerd.Client
	namespace  string
	namePrefix string
}

// NewContainerdOrchestrator connects to the containerd socket.
func NewContainerdOrchestrator(socketPath, namespace, namePrefix string) (*ContainerdOrchestrator, error) {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}

	client, err := containerd.New(socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to containerd: %w", err)
	}

	return &ContainerdOrchestrator{
		client:     client,
		namespace:  namespace,
		namePrefix: namePrefix,
	}, nil
}

// Close closes the containerd client connection.
func (o *ContainerdOrchestrator) Close() error {
	if o.client != nil {
		return o.client.Close()
	}
	return nil
}

// Ping verifies the containerd daemon is serving.
func (o *ContainerdOrchestrator) Ping(ctx context.Context) error {
	ctx = namespaces.WithNamespace(ctx, o.namespace)
	if _, err := o.client.Version(ctx); err != nil {
		return fmt.Errorf("containerd not accessible: %w", err)
	}
	return nil
}

// ServiceStatus loads the container backing the named service and returns
// its task status. A container without a task is created but not running.
func (o *ContainerdOrchestrator) ServiceStatus(ctx context.Context, name string) (string, error) {
	ctx = namespaces.WithNamespace(ctx, o.namespace)

	container, err := o.client.LoadContainer(ctx, o.namePrefix+name+"-1")
	if err != nil {
		if errdefs.IsNotFound(err) {
			return "", fmt.Errorf("%w: %s", ErrServiceNotFound, name)
		}
		return "", fmt.Errorf("failed to load container for %s: %w", name, err)
	}

	task, err := container.Task(ctx, nil)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return "created", nil
		}
		return "", fmt.Errorf("failed to get task for %s: %w", name, err)
	}

	status, err := task.Status(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get task status for %s: %w", name, err)
	}
	return string(status.Status), nil
}
