package stack

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ComposeOrchestrator drives the pipeline stack through the docker CLI.
// Compose has no Go client, so lifecycle operations shell out the same way
// an operator would.
type ComposeOrchestrator struct {
	// ComposeFile is the path to the stack's docker-compose.yml.
	ComposeFile string

	// NamePrefix is the compose project prefix; a service "redis" maps to
	// the container "<prefix>redis-1".
	NamePrefix string

	// Timeout bounds every docker invocation (default 30s for lifecycle,
	// applied uniformly).
	Timeout time.Duration
}

// NewComposeOrchestrator creates a docker-compose backed orchestrator.
func NewComposeOrchestrator(composeFile, namePrefix string) *ComposeOrchestrator {
	return &ComposeOrchestrator{
		ComposeFile: composeFile,
		NamePrefix:  namePrefix,
		Timeout:     30 * time.Second,
	}
}

func (c *ComposeOrchestrator) run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "docker", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), fmt.Errorf("docker %s: %w: %s",
			strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Ping checks that the docker daemon is reachable.
func (c *ComposeOrchestrator) Ping(ctx context.Context) error {
	if _, err := c.run(ctx, "info", "--format", "{{.ServerVersion}}"); err != nil {
		return fmt.Errorf("docker daemon not accessible: %w", err)
	}
	return nil
}

// ServiceStatus inspects the container backing the named compose service.
func (c *ComposeOrchestrator) ServiceStatus(ctx context.Context, name string) (string, error) {
	container := c.containerName(name)
	out, err := c.run(ctx, "inspect", "--format", "{{.State.Status}}", container)
	if err != nil {
		if strings.Contains(err.Error(), "No such object") {
			return "", fmt.Errorf("%w: %s", ErrServiceNotFound, name)
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Build builds the stack images.
func (c *ComposeOrchestrator) Build(ctx context.Context) error {
	_, err := c.run(ctx, "compose", "-f", c.ComposeFile, "build")
	return err
}

// Up starts the stack detached.
func (c *ComposeOrchestrator) Up(ctx context.Context) error {
	_, err := c.run(ctx, "compose", "-f", c.ComposeFile, "up", "-d")
	return err
}

// Down stops and removes the stack.
func (c *ComposeOrchestrator) Down(ctx context.Context) error {
	_, err := c.run(ctx, "compose", "-f", c.ComposeFile, "down")
	return err
}

func (c *ComposeOrchestrator) containerName(service string) string {
	return c.NamePrefix + service + "-1"
}
