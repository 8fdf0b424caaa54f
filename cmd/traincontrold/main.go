// Command traincontrold boots the kernel and every server this repository
// defines: name, clock (plus its tick notifier), the two UART channels
// (plus their receive notifiers), the train controller, the logger, and
// the track reservation authority. Grounded on the teacher's own
// cmd/ boot-tool style (see cmd/mktea, cmd/mkflash for flag parsing
// conventions) and on sparkos/services/appmgr's capability-wiring-at-boot
// shape, adapted here to this kernel's task-id wiring instead of
// capabilities.
package main

import (
	"context"
	"flag"
	"log"

	"trainctl/config"
	"trainctl/hal"
	"trainctl/kernel"
	"trainctl/servers/clock"
	"trainctl/servers/demo"
	"trainctl/servers/logger"
	"trainctl/servers/name"
	"trainctl/servers/traincontroller"
	"trainctl/servers/uart"
	"trainctl/track"
)

// system is everything boot needs to hand back to the platform-specific
// run loop (host_run.go's window, tinygo_run.go's bare dispatch).
type system struct {
	k         *kernel.Kernel
	graph     *track.Graph
	authority kernel.TaskID
	nameSrv   kernel.TaskID
}

func parseTopology() config.TopologyID {
	topo := flag.String("topology", "a", "track topology to load: a or b")
	flag.Parse()
	if *topo == "b" {
		return config.TopologyB
	}
	return config.TopologyA
}

func boot() *system {
	sys, err := config.LoadSystem()
	if err != nil {
		log.Fatalf("traincontrold: config: %v", err)
	}

	graph, err := config.LoadTopology(parseTopology())
	if err != nil {
		log.Fatalf("traincontrold: topology: %v", err)
	}

	h := hal.New()

	k := kernel.New(kernel.Config{
		MaxTasks:      sys.Kernel.MaxTasks,
		NumPriorities: sys.Kernel.NumPriorities,
		InboxCapacity: sys.Kernel.InboxCapacity,
	})

	// Forward every HAL tick to the kernel as a timer interrupt, which is
	// what wakes the clock notifier task.
	go func() {
		for range h.Time().Ticks() {
			k.Interrupt(kernel.Interrupt{Event: kernel.EventTimerTick})
		}
	}()

	// Priority 3 (lowest urgency): registries and logging, never on any
	// latency-sensitive path.
	logSrv := logger.New(h.Logger())
	loggerID := k.Boot(3, logSrv.Run)

	nameSrv := name.New(sys.Kernel.MaxTasks)
	nameID := k.Boot(3, nameSrv.Run)

	// Priority 2: request-serving servers.
	clockSrv := clock.New()
	clockID := k.Boot(2, clockSrv.Run)
	k.Boot(0, clock.Notifier(clockID))

	consoleTX := uart.NewTransmitter(0, h.Serial(hal.ChannelConsole))
	k.Boot(2, consoleTX.Run)

	consoleRX := uart.NewReceiver(0, h.Serial(hal.ChannelConsole))
	consoleRXID := k.Boot(2, consoleRX.Run)
	k.Boot(0, uart.ReceiveNotifier(0, consoleRXID))
	consoleRX.StartPump(k)

	trainTX := uart.NewTransmitter(1, h.Serial(hal.ChannelTrain))
	trainTXID := k.Boot(2, trainTX.Run)

	trainRX := uart.NewReceiver(1, h.Serial(hal.ChannelTrain))
	trainRXID := k.Boot(2, trainRX.Run)
	k.Boot(0, uart.ReceiveNotifier(1, trainRXID))
	trainRX.StartPump(k)

	tc := traincontroller.New(trainTXID)
	tcID := k.Boot(2, tc.Run)

	// Priority 1: the track authority sits above ordinary request servers
	// since switch/reservation decisions gate every moving train.
	authority := track.NewAuthority(graph, tcID, sys.Track.SafetyLookaheadHops)
	authID := k.Boot(1, authority.Run)

	k.Boot(3, demo.Run(authID, loggerID, graph))

	return &system{k: k, graph: graph, authority: authID, nameSrv: nameID}
}

func (s *system) run(ctx context.Context) {
	s.k.Run(ctx)
}
