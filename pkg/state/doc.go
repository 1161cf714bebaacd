/*
Package state implements the shared observation store at the center of the
sentinel control loop.

Every probe family (resource controller, connectivity set, stack probe,
queue sampler) runs independently and only writes; the metrics exporter and
checkpoint writer only read. No probe reads another probe's raw sensor data
directly.

	┌──────────┐  ┌──────────────┐  ┌───────────┐  ┌─────────┐
	│ resource │  │ connectivity │  │   stack   │  │  queue  │
	└────┬─────┘  └──────┬───────┘  └─────┬─────┘  └────┬────┘
	     │    Set        │     Set        │   Set       │ Set
	     ▼               ▼                ▼             ▼
	┌─────────────────────────────────────────────────────────┐
	│                    state.Store                          │
	└──────────────┬──────────────────────────┬───────────────┘
	               │ Snapshot                 │ Snapshot
	               ▼                          ▼
	        ┌─────────────┐           ┌──────────────┐
	        │   metrics   │           │  checkpoint  │
	        └─────────────┘           └──────────────┘

The store guarantees per-key atomicity only. Consumers must tolerate
cross-key skew, e.g. a throttling level computed one tick apart from the
CPU reading that produced it.
*/
package state
