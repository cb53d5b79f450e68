/*
Core implements the hot-path runner in front of the execution engine.

# Module
  - feed queue: SPSC of market ticks, written by exactly one feed goroutine
  - command queue: MPSC of order commands, written by any number of strategy goroutines
  - scratch arena: per-cycle storage for tick coalescing, rewound every step
  - engine: applies coalesced top-of-book updates, then executes commands in arrival order

# Cycle
 1. reset the arena
 2. drain up to Batch ticks into arena scratch
 3. keep the latest tick per symbol and apply it to the engine
 4. drain up to Batch commands and report each outcome

# Backpressure
  - PushTick and Submit never block; a full queue returns false and counts a drop
*/
package core
