package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/jwebster45206/story-graph/pkg/narrative"
	"github.com/jwebster45206/story-graph/pkg/pather"
	"github.com/jwebster45206/story-graph/pkg/presenter"
)

const (
	trackMin     = -8.0
	trackMax     = 8.0
	playerStride = 1.0
	listenRadius = 2.5
	walkSpeed    = 3.0 // units per second
)

// speaker remembers the last clip it was told to play.
type speaker struct {
	clip    string
	playing string
	plays   int
}

func (s *speaker) SetClip(cue string) { s.clip = cue }

func (s *speaker) Play() {
	s.playing = s.clip
	s.plays++
}

type lamp struct {
	color narrative.Color
}

func (l *lamp) Color() narrative.Color     { return l.color }
func (l *lamp) SetColor(c narrative.Color) { l.color = c }

type panel struct {
	text    string
	changed bool
}

func (p *panel) SetText(text string) {
	p.text = text
	p.changed = true
}

// walker moves in a straight line toward its destination at a fixed speed.
type walker struct {
	pos   pather.Vec3
	dest  pather.Vec3
	speed float64
}

func (w *walker) Position() pather.Vec3        { return w.pos }
func (w *walker) Destination() pather.Vec3     { return w.dest }
func (w *walker) SetDestination(d pather.Vec3) { w.dest = d }

func (w *walker) step(dt time.Duration) {
	remaining := w.pos.Distance(w.dest)
	stride := w.speed * dt.Seconds()
	if remaining <= stride {
		w.pos = w.dest
		return
	}
	f := stride / remaining
	w.pos = pather.Vec3{
		X: w.pos.X + (w.dest.X-w.pos.X)*f,
		Y: w.pos.Y + (w.dest.Y-w.pos.Y)*f,
		Z: w.pos.Z + (w.dest.Z-w.pos.Z)*f,
	}
}

// world is the console's stand-in for a scene: the player's voice, one light,
// the text panel and a listener walking a patrol route.
type world struct {
	voice    speaker
	npcVoice speaker
	light    lamp
	text     panel

	player pather.Vec3
	npc    *walker
	route  *pather.Pather
	radius float64
}

func newWorld(route []pather.Vec3, base narrative.Color) *world {
	npc := &walker{speed: walkSpeed}
	if len(route) > 0 {
		npc.pos = route[0]
		npc.dest = route[0]
	}
	return &world{
		light:  lamp{color: base},
		npc:    npc,
		route:  pather.New(npc, route),
		radius: listenRadius,
	}
}

func (w *world) handles() presenter.Handles {
	return presenter.Handles{
		Audio:     &w.voice,
		Light:     &w.light,
		Text:      &w.text,
		Proximity: w,
	}
}

// InteractableInRange implements presenter.Proximity.
func (w *world) InteractableInRange() (presenter.AudioSource, bool) {
	if w.player.Distance(w.npc.pos) > w.radius {
		return nil, false
	}
	return &w.npcVoice, true
}

func (w *world) inRange() bool {
	_, ok := w.InteractableInRange()
	return ok
}

func (w *world) movePlayer(dx float64) {
	w.player.X = min(max(w.player.X+dx, trackMin), trackMax)
}

func (w *world) update(dt time.Duration) {
	w.npc.step(dt)
	w.route.Tick(dt)
}

// track draws the player (@) and listener (N) on a one-line strip.
func (w *world) track(width int) string {
	if width < 3 {
		width = 3
	}
	cells := []rune(strings.Repeat("·", width))
	cells[trackCell(w.npc.pos.X, width)] = 'N'
	cells[trackCell(w.player.X, width)] = '@'
	return fmt.Sprintf("[%s]", string(cells))
}

func trackCell(x float64, width int) int {
	f := (x - trackMin) / (trackMax - trackMin)
	i := int(f*float64(width-1) + 0.5)
	return min(max(i, 0), width-1)
}

// hexColor renders c as #rrggbb, clamping each channel to [0,1].
func hexColor(c narrative.Color) string {
	channel := func(v float32) int {
		return int(min(max(v, 0), 1)*255 + 0.5)
	}
	return fmt.Sprintf("#%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B))
}
