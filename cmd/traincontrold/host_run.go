//go:build !tinygo

package main

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"trainctl/hal"
	"trainctl/kernel"
	"trainctl/proto"
	"trainctl/track"
)

func main() {
	s := boot()

	visual := hal.NewVisualizer(s.graph)
	s.k.Boot(3, visualizerSubscriber(visual, s.authority))

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		s.run(ctx)
		return nil
	})

	// ebiten.RunGame must run on the main goroutine; the dispatcher runs
	// independently under the errgroup above.
	if err := visual.RunWindow(); err != nil {
		log.Printf("traincontrold: visualizer: %v", err)
	}

	if err := g.Wait(); err != nil {
		log.Printf("traincontrold: %v", err)
	}
}

// visualizerSubscriber subscribes to the track authority's switch-change
// feed and forwards every notification into the visualizer. It never
// issues a second SWITCH_SUBSCRIBE: the authority treats subscription as
// a standing registration and pushes every subsequent change directly
// (track/authority.go's publish), so this task's whole job after the
// initial handshake is to Receive forever.
func visualizerSubscriber(v *hal.Visualizer, authority kernel.TaskID) func(*kernel.Handle) {
	return func(h *kernel.Handle) {
		self := int32(h.MyTid())
		sub := proto.TrackRequest{Kind: proto.KindTrackSwitchSubscribe, TrainID: self}
		h.Send(authority, sub.Encode(), make([]byte, 8))

		buf := make([]byte, kernel.MaxMessageBytes)
		for {
			from, n := h.Receive(buf)
			reply, ok := proto.DecodeTrackReply(buf[:n])
			h.Reply(from, nil)
			if !ok || len(reply.Path) == 0 {
				continue
			}
			v.Update(reply.Path[0], track.SwitchDir(reply.State))
		}
	}
}
