// Package presenter applies narrative traversal results to host-owned
// audio, light and text handles. The host calls Tick once per input frame.
package presenter

import (
	"log/slog"

	"github.com/jwebster45206/story-graph/pkg/narrative"
)

// AudioSource plays one clip at a time.
type AudioSource interface {
	SetClip(cue string)
	Play()
}

// Light is the scene light the story tints.
type Light interface {
	Color() narrative.Color
	SetColor(narrative.Color)
}

// TextDisplay shows the current node's text.
type TextDisplay interface {
	SetText(string)
}

// Proximity finds an interactable listener near the player, if any.
type Proximity interface {
	InteractableInRange() (AudioSource, bool)
}

// Handles are borrowed from the host; the controller never owns them.
// Proximity may be nil when the host has no interactables.
type Handles struct {
	Audio     AudioSource
	Light     Light
	Text      TextDisplay
	Proximity Proximity
}

// Controller drives a Traversal from discrete inputs.
type Controller struct {
	traversal *narrative.Traversal
	handles   Handles
	logger    *slog.Logger
}

// NewController shows the opening text and returns the controller.
func NewController(t *narrative.Traversal, handles Handles, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		traversal: t,
		handles:   handles,
		logger:    logger,
	}
	c.handles.Text.SetText(t.TextOfCurrent())
	return c
}

// Traversal exposes the underlying traversal for read-only queries.
func (c *Controller) Traversal() *narrative.Traversal {
	return c.traversal
}

// Tick handles at most one of the pressed symbols: the first one in declared
// action order. Unrecognized symbols are ignored. It returns the symbol it
// acted on, or "" when nothing was pressed.
func (c *Controller) Tick(pressed []string) (string, narrative.Outcome) {
	if len(pressed) == 0 {
		return "", narrative.NoTransition
	}
	down := make(map[string]bool, len(pressed))
	for _, p := range pressed {
		down[p] = true
	}
	for _, symbol := range c.traversal.Actions() {
		if !down[symbol] {
			continue
		}
		out, err := c.HandleInput(symbol)
		if err != nil {
			c.logger.Warn("Input rejected", "action", symbol, "error", err)
		}
		return symbol, out
	}
	return "", narrative.NoTransition
}

// HandleInput advances the traversal and, on a transition, plays the new
// node's cue, lets a nearby listener respond, tints the light and updates
// the text.
func (c *Controller) HandleInput(symbol string) (narrative.Outcome, error) {
	from := c.traversal.CurrentIndex()
	out, err := c.traversal.Advance(symbol)
	if err != nil {
		return out, err
	}
	if out == narrative.NoTransition {
		c.logger.Debug("No transition from terminal node", "node", from, "action", symbol)
		return out, nil
	}

	c.logger.Debug("Advanced", "from", from, "to", c.traversal.CurrentIndex(), "action", symbol)

	c.updateClip()
	c.harmonize()
	c.updateLighting()
	c.handles.Text.SetText(c.traversal.TextOfCurrent())
	return out, nil
}

func (c *Controller) updateClip() {
	if c.handles.Audio == nil {
		return
	}
	cue, _ := c.traversal.AudioCueOfCurrent()
	c.handles.Audio.SetClip(cue)
	c.handles.Audio.Play()
}

func (c *Controller) harmonize() {
	if c.handles.Proximity == nil {
		return
	}
	source, ok := c.handles.Proximity.InteractableInRange()
	if !ok {
		return
	}
	if source == nil {
		c.logger.Warn("Interactable in range has no audio source")
		return
	}
	cue, ok := c.traversal.ResponseCueFor()
	if !ok {
		return
	}
	source.SetClip(cue)
	source.Play()
}

func (c *Controller) updateLighting() {
	if c.handles.Light == nil {
		return
	}
	c.handles.Light.SetColor(c.handles.Light.Color().Add(c.traversal.LightDeltaOfCurrent()))
}
