// Package demo is a single root task that exercises the track authority
// end to end at boot: it asks for a route across the loaded graph, reserves
// the whole thing atomically, and logs every step. There is no such task
// in the original -- TrainSpeed/TrainReverse there is driven by a human at
// the operator console -- but spec.md's boot sequence needs something
// runtime-observable once the servers are up, so this stands in for that
// first manual command. Grounded on the teacher's own cmd/ smoke-test
// tasks (see sparkos/cmd/selftest) for the shape of a single-shot task
// that logs its own progress and then exits.
package demo

import (
	"fmt"

	"trainctl/kernel"
	"trainctl/servers/logger"
	"trainctl/track"
)

const trainID int32 = 1

// Run walks enter_a -> exit_a (falling back to the first/last declared
// node if a topology does not use those names), reserving the entire path
// in a single atomic TryReserve call and releasing it once done. A failed
// reservation must never leave any node in path half-held (Testable
// Property #5), which is exactly what calling TryReserve once with the
// full path, instead of looping node-by-node, guarantees.
func Run(authority, loggerServer kernel.TaskID, graph *track.Graph) func(*kernel.Handle) {
	return func(h *kernel.Handle) {
		from, to := endpoints(graph)

		route, ok := track.GetPath(h, authority, from, to, false, nil)
		if !ok {
			logger.Log(h, loggerServer, fmt.Sprintf("demo: no path from %d to %d", from, to))
			h.Exit()
			return
		}

		logger.Log(h, loggerServer, fmt.Sprintf("demo: path %v (length %d)", route.Path, route.Length))

		res, ok := track.TryReserve(h, authority, trainID, route.Path)
		if !ok || !res.Granted {
			logger.Log(h, loggerServer, "demo: reservation refused")
			h.Exit()
			return
		}
		logger.Log(h, loggerServer, fmt.Sprintf("demo: reserved entire path (%d)", res.ReservedLength))

		track.Unreserve(h, authority, trainID, route.Path)
		logger.Log(h, loggerServer, "demo: run complete")
		h.Exit()
	}
}

func endpoints(graph *track.Graph) (int16, int16) {
	from, ok := graph.NodeByName("enter_a")
	if !ok {
		from = 0
	}
	to, ok := graph.NodeByName("exit_a")
	if !ok {
		to = int16(graph.Len() - 1)
	}
	return from, to
}
