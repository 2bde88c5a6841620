package cubeconnector

import "log/slog"

// work item kinds for Connector.taskWork (spec section 3, "taskWork").
const (
	taskSavePairingID uint = iota
	taskSavePairingMRU
	taskRecyclePairings
	numWorkItems
)

// triggerTask is a non-blocking send to taskWake, a channel with a
// buffer of one, so the ISR-equivalent path never blocks on it (mirrors
// Tasks::trigger in the original firmware, which is fire-and-forget).
// Nothing in this module receives from taskWake: Task runs only when a
// caller invokes it, which cmd/cubeconnectord does on a fixed ticker.
func (c *Connector) triggerTask() {
	select {
	case c.taskWake <- struct{}{}:
	default:
	}
}

// Task runs the deferred work dispatcher (spec section 4.6). It must be
// invoked from a context with no suspension-point restrictions: unlike
// the radio-transport callbacks, it may block on persistent writes.
//
// Both taskWork and recycleQueue use atomic bit ops from either context,
// so Task's clear-then-execute loop is safe to run concurrently with
// ISR-side atomicMark calls; any bit set during Task's own execution is
// simply picked up on this call's next loop iteration or the next
// invocation of Task (spec section 5: "the task context uses the same
// atomic primitives so flags set during the task's own execution are
// re-examined on the next wake").
func (c *Connector) Task() {
	for {
		index, ok := c.taskWork.clearFirst()
		if !ok {
			return
		}

		switch index {
		case taskSavePairingID:
			if err := c.store.SavePairingID(c.savedPairingID); err != nil {
				c.logger.Warn("save pairing ID record failed", slog.String("error", err.Error()))
			}

		case taskSavePairingMRU:
			if err := c.store.SavePairingMRU(c.savedPairingMRU); err != nil {
				c.logger.Warn("save pairing MRU record failed", slog.String("error", err.Error()))
			}

		case taskRecyclePairings:
			for {
				slot, ok := c.recycleQueue.clearFirst()
				if !ok {
					break
				}
				if err := c.store.DeleteCube(int(slot)); err != nil {
					c.logger.Warn("delete cube record failed",
						slog.Int("pairing_slot", int(slot)),
						slog.String("error", err.Error()),
					)
				}
			}
		}
	}
}
