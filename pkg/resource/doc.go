// Package resource converts raw CPU/RAM utilization into the discrete
// throttling level consumed by every producer-side component of the
// pipeline. Sampling is non-blocking and the level is a pure function of
// the latest sample and the configured limits.
package resource
