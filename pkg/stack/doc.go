// Package stack manages and probes the pipeline's container stack through
// an Orchestrator collaborator. Two backends are provided: docker compose
// via the docker CLI, and containerd for nerdctl-managed stacks.
package stack
