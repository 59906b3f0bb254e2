package player

import (
	"sync"
)

// StubEmbed is an in-memory Embed for tests and for running without a real
// video provider. It records every command it receives.
type StubEmbed struct {
	mu       sync.Mutex
	playing  bool
	muted    bool
	volume   int
	rate     float64
	position float64
	duration float64
	calls    []string
	index    int
	shuffle  bool
	loop     bool
}

// NewStubEmbed creates a stub reporting the given duration.
func NewStubEmbed(durationSeconds float64) *StubEmbed {
	return &StubEmbed{volume: 100, rate: 1, duration: durationSeconds}
}

func (e *StubEmbed) record(call string) {
	e.calls = append(e.calls, call)
}

// Calls returns the commands received so far, in order.
func (e *StubEmbed) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.calls))
	copy(out, e.calls)
	return out
}

// AdvanceTo moves the simulated playhead.
func (e *StubEmbed) AdvanceTo(seconds float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position = seconds
}

func (e *StubEmbed) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playing = true
	e.record("play")
}

func (e *StubEmbed) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playing = false
	e.record("pause")
}

func (e *StubEmbed) SeekTo(seconds float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position = seconds
	e.record("seek")
}

func (e *StubEmbed) SetVolume(volume int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volume = volume
	e.record("volume")
}

func (e *StubEmbed) Mute() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.muted = true
	e.record("mute")
}

func (e *StubEmbed) Unmute() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.muted = false
	e.record("unmute")
}

func (e *StubEmbed) SetRate(rate float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rate = rate
	e.record("rate")
}

func (e *StubEmbed) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

func (e *StubEmbed) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

func (e *StubEmbed) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playing = false
	e.record("destroy")
}

func (e *StubEmbed) Next() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.index++
	e.record("next")
}

func (e *StubEmbed) Previous() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index > 0 {
		e.index--
	}
	e.record("previous")
}

func (e *StubEmbed) SetShuffle(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shuffle = on
	e.record("shuffle")
}

func (e *StubEmbed) SetLoop(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loop = on
	e.record("loop")
}
