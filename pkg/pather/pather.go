// Package pather cycles an agent through a fixed list of waypoints, pausing
// at each one before heading to the next.
package pather

import (
	"math"
	"time"
)

const (
	DefaultAcceptableDistance = 0.25
	DefaultWaitTime           = time.Second
)

// Vec3 is a point in world space.
type Vec3 struct {
	X, Y, Z float64
}

// Distance is the euclidean distance between v and o.
func (v Vec3) Distance(o Vec3) float64 {
	dx, dy, dz := v.X-o.X, v.Y-o.Y, v.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Agent is the host's navigation agent. Pathfinding itself is the host's job.
type Agent interface {
	Position() Vec3
	Destination() Vec3
	SetDestination(Vec3)
}

// Pather drives an Agent around Waypoints in order, wrapping at the end.
type Pather struct {
	Waypoints          []Vec3
	AcceptableDistance float64
	WaitTime           time.Duration

	agent   Agent
	waiting time.Duration
	index   int
}

// New returns a Pather with the default distance and wait time.
func New(agent Agent, waypoints []Vec3) *Pather {
	return &Pather{
		Waypoints:          waypoints,
		AcceptableDistance: DefaultAcceptableDistance,
		WaitTime:           DefaultWaitTime,
		agent:              agent,
	}
}

// Index is the waypoint the agent is currently heading to.
func (p *Pather) Index() int {
	return p.index
}

// Tick advances the wait timer by dt and, once the agent has waited long
// enough at its destination, sends it to the next waypoint. It reports
// whether a new destination was set.
func (p *Pather) Tick(dt time.Duration) bool {
	if len(p.Waypoints) == 0 {
		return false
	}

	if p.inAcceptableDistance() {
		p.waiting += dt
	}
	if p.waiting < p.WaitTime {
		return false
	}

	p.index = (p.index + 1) % len(p.Waypoints)
	p.agent.SetDestination(p.Waypoints[p.index])
	p.waiting = 0
	return true
}

func (p *Pather) inAcceptableDistance() bool {
	return p.agent.Position().Distance(p.agent.Destination()) <= p.AcceptableDistance
}
