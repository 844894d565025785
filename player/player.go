package player

import "time"

// DefaultInterval is how often one more character of the response is revealed.
const DefaultInterval = 20 * time.Millisecond

// Phase is the reveal state of a player.
type Phase int

const (
	// Idle: no content to reveal (empty content, or a generation in flight).
	Idle Phase = iota
	// Revealing: a prefix of the content is visible and growing.
	Revealing
	// Done: the full content is visible.
	Done
)

// Player replays an already-complete response string one character at a time.
// It owns no timer itself; the caller schedules ticks at Interval() and feeds
// them back through Advance, tagged with the sequence number the tick was
// scheduled under. A restart bumps the sequence, so ticks from a superseded
// reveal are rejected and at most one tick chain is ever live.
type Player struct {
	content  []rune
	raw      string
	pos      int
	phase    Phase
	seq      int
	interval time.Duration
}

// New returns an idle player with the default reveal interval.
func New() *Player {
	return NewWithInterval(DefaultInterval)
}

// NewWithInterval returns an idle player revealing one rune every interval.
func NewWithInterval(interval time.Duration) *Player {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Player{interval: interval}
}

// Interval is the cadence the caller should schedule ticks at.
func (p *Player) Interval() time.Duration {
	return p.interval
}

// Set updates the player's input: the response content and whether a
// generation is still in flight. It returns true when a new reveal was
// started, meaning the caller must schedule the first tick for Seq().
//
// A reveal starts only when content is non-empty and generating is false.
// Setting the same content again after playback completed is a no-op, so
// redundant updates do not restart finished playback. Any other change
// cancels the in-flight reveal before the new state takes effect.
func (p *Player) Set(content string, generating bool) bool {
	if generating || content == "" {
		if p.phase != Idle || p.raw != "" {
			p.seq++
		}
		p.content = nil
		p.raw = ""
		p.pos = 0
		p.phase = Idle
		return false
	}

	if content == p.raw {
		return false
	}

	p.seq++
	p.raw = content
	p.content = []rune(content)
	p.pos = 0
	p.phase = Revealing
	return true
}

// Seq identifies the current reveal. Ticks scheduled for an older sequence
// are stale and must not advance the player.
func (p *Player) Seq() int {
	return p.seq
}

// Advance reveals one more character. It returns true when the caller should
// schedule another tick for the same sequence; false means the tick was stale
// or the reveal just finished.
func (p *Player) Advance(seq int) bool {
	if seq != p.seq || p.phase != Revealing {
		return false
	}
	p.pos++
	if p.pos >= len(p.content) {
		p.pos = len(p.content)
		p.phase = Done
		return false
	}
	return true
}

// View returns the currently visible prefix of the content.
func (p *Player) View() string {
	return string(p.content[:p.pos])
}

// Typing reports whether the typing cursor should be shown: true from
// activation until the full string has been revealed.
func (p *Player) Typing() bool {
	return p.phase == Revealing
}

// PhaseNow returns the current reveal phase.
func (p *Player) PhaseNow() Phase {
	return p.phase
}

// Content returns the full content the player was last set to.
func (p *Player) Content() string {
	return p.raw
}
