package player_test

import (
	"testing"
	"time"

	"promptbox/player"
)

// drive feeds ticks for the current sequence until the player stops asking
// for more, returning the number of ticks delivered.
func drive(p *player.Player) int {
	seq := p.Seq()
	n := 0
	for {
		n++
		if !p.Advance(seq) {
			return n
		}
	}
}

func TestPlayer_RevealsFullContent(t *testing.T) {
	p := player.New()
	if !p.Set("hello", false) {
		t.Fatal("expected reveal to start")
	}
	if p.View() != "" {
		t.Errorf("displayed text should reset to empty on activation, got %q", p.View())
	}
	if !p.Typing() {
		t.Error("typing cursor should be on during reveal")
	}

	ticks := drive(p)

	if ticks != 5 {
		t.Errorf("revealed %q in %d ticks, want 5", "hello", ticks)
	}
	if p.View() != "hello" {
		t.Errorf("displayed text = %q, want %q", p.View(), "hello")
	}
	if p.Typing() {
		t.Error("typing cursor should be off after completion")
	}
	if p.PhaseNow() != player.Done {
		t.Errorf("phase = %v, want Done", p.PhaseNow())
	}
}

func TestPlayer_PartialPrefix(t *testing.T) {
	p := player.New()
	p.Set("hello", false)

	seq := p.Seq()
	p.Advance(seq)
	p.Advance(seq)

	if got := p.View(); got != "he" {
		t.Errorf("after 2 ticks displayed %q, want %q", got, "he")
	}
	if !p.Typing() {
		t.Error("reveal still in progress, typing should be true")
	}
}

func TestPlayer_NoActivationWhileGenerating(t *testing.T) {
	p := player.New()
	if p.Set("hello", true) {
		t.Error("reveal must not start while a generation is in flight")
	}
	if p.PhaseNow() != player.Idle {
		t.Errorf("phase = %v, want Idle", p.PhaseNow())
	}

	if p.Set("", false) {
		t.Error("reveal must not start on empty content")
	}
}

func TestPlayer_RestartCancelsOldReveal(t *testing.T) {
	p := player.New()
	p.Set("old content", false)
	oldSeq := p.Seq()
	p.Advance(oldSeq)
	p.Advance(oldSeq)

	if !p.Set("new", false) {
		t.Fatal("expected restart on new content")
	}
	if p.View() != "" {
		t.Errorf("restart must begin from empty, got %q", p.View())
	}

	// Ticks from the cancelled reveal are stale and must not move the player.
	if p.Advance(oldSeq) {
		t.Error("stale tick was accepted")
	}
	if p.View() != "" {
		t.Errorf("stale tick mutated displayed text: %q", p.View())
	}

	drive(p)
	if p.View() != "new" {
		t.Errorf("displayed text = %q, want %q", p.View(), "new")
	}
}

func TestPlayer_SameContentAfterCompletionDoesNotRestart(t *testing.T) {
	p := player.New()
	p.Set("hello", false)
	drive(p)

	if p.Set("hello", false) {
		t.Error("re-setting identical content after completion must not restart playback")
	}
	if p.View() != "hello" {
		t.Errorf("displayed text = %q, want %q", p.View(), "hello")
	}
	if p.PhaseNow() != player.Done {
		t.Errorf("phase = %v, want Done", p.PhaseNow())
	}
}

func TestPlayer_GeneratingResetsToIdle(t *testing.T) {
	p := player.New()
	p.Set("hello", false)
	seq := p.Seq()
	p.Advance(seq)

	p.Set("hello", true)

	if p.PhaseNow() != player.Idle {
		t.Errorf("phase = %v, want Idle", p.PhaseNow())
	}
	if p.Advance(seq) {
		t.Error("tick from before the reset was accepted")
	}
	if p.View() != "" {
		t.Errorf("displayed text = %q, want empty", p.View())
	}
}

func TestPlayer_UnicodeContent(t *testing.T) {
	p := player.New()
	p.Set("héllo wörld", false)

	ticks := drive(p)

	if want := len([]rune("héllo wörld")); ticks != want {
		t.Errorf("revealed in %d ticks, want %d (one per rune)", ticks, want)
	}
	if p.View() != "héllo wörld" {
		t.Errorf("displayed text = %q", p.View())
	}
}

func TestNewWithInterval(t *testing.T) {
	p := player.NewWithInterval(15 * time.Millisecond)
	if p.Interval() != 15*time.Millisecond {
		t.Errorf("interval = %v, want 15ms", p.Interval())
	}

	p = player.NewWithInterval(0)
	if p.Interval() != player.DefaultInterval {
		t.Errorf("non-positive interval should fall back to default, got %v", p.Interval())
	}
}
