// Package retry provides the exponential-backoff executor shared by every
// network-facing probe. The backoff schedule is part of the probe contract;
// call sites parameterize attempts and initial delay but never reimplement
// the loop.
package retry
