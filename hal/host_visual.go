//go:build !tinygo

package hal

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"trainctl/internal/buildinfo"
	"trainctl/track"
)

// Visualizer paints live switch/reservation state over a track.Graph's
// node layout, the host-only analogue of the teacher's
// hal.host_framebuffer.go + hal.RunWindow: here the "framebuffer" is drawn
// straight from track state instead of an OS-owned pixel buffer, since
// this repository has no terminal UI to mirror (spec.md explicitly places
// the terminal renderer out of scope).
type Visualizer struct {
	graph *track.Graph

	mu        sync.Mutex
	switchDir map[int16]track.SwitchDir
	reserved  map[int16]int32
}

// NewVisualizer builds a visualizer over graph. State is empty until
// Update is called by the subscriber task cmd/traincontrold boots alongside
// the track authority (host_run.go's visualizerSubscriber).
func NewVisualizer(graph *track.Graph) *Visualizer {
	return &Visualizer{
		graph:     graph,
		switchDir: make(map[int16]track.SwitchDir),
		reserved:  make(map[int16]int32),
	}
}

// Update records a new switch position. Safe to call from any goroutine;
// the subscriber task calls this once per SWITCH_SUBSCRIBE notification.
func (v *Visualizer) Update(node int16, dir track.SwitchDir) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.switchDir[node] = dir
}

// SetReserved records node's current owning train, or track.NoTrain to
// clear it.
func (v *Visualizer) SetReserved(node int16, train int32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if train < 0 {
		delete(v.reserved, node)
		return
	}
	v.reserved[node] = train
}

// RunWindow opens a desktop window rendering the graph and blocks until it
// is closed. Layout is a simple force-free grid: nodes are placed in
// declaration order, which is enough to see reservation and switch-state
// changes live even though it is not a to-scale track diagram.
func (v *Visualizer) RunWindow() error {
	ebiten.SetWindowTitle("trainctl track monitor (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(960, 640)
	ebiten.SetTPS(30)
	return ebiten.RunGame(&visualGame{v: v})
}

type visualGame struct {
	v *Visualizer
}

func (g *visualGame) Update() error { return nil }

const (
	nodeRadius = 10
	colStride  = 90
	rowStride  = 70
	rowWidth   = 9
)

func (g *visualGame) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{18, 18, 22, 255})

	g.v.mu.Lock()
	defer g.v.mu.Unlock()

	for i, n := range g.v.graph.Nodes {
		x := float32(40 + (i%rowWidth)*colStride)
		y := float32(40 + (i/rowWidth)*rowStride)

		clr := nodeColor(n, g.v.reserved[n.ID])
		vector.DrawFilledCircle(screen, x, y, nodeRadius, clr, true)
		ebitenutil.DebugPrintAt(screen, n.Name, int(x)-nodeRadius, int(y)+nodeRadius+2)

		if n.Kind == track.KindSwitch {
			dir, ok := g.v.switchDir[n.ID]
			label := "?"
			if ok {
				label = fmt.Sprintf("%d", dir)
			}
			ebitenutil.DebugPrintAt(screen, "sw:"+label, int(x)-nodeRadius, int(y)-nodeRadius-14)
		}
	}
}

func nodeColor(n track.Node, owner int32) color.RGBA {
	switch {
	case owner != 0 && owner >= 0:
		return color.RGBA{220, 70, 70, 255}
	case n.Kind == track.KindSwitch:
		return color.RGBA{220, 190, 60, 255}
	case n.Kind == track.KindMerge:
		return color.RGBA{120, 160, 220, 255}
	default:
		return color.RGBA{90, 200, 120, 255}
	}
}

func (g *visualGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return 960, 640
}
