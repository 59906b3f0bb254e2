// Package player wraps one opaque embedded video widget per playback
// session. The Controller owns the transport state (play/pause, position,
// volume, rate, fullscreen, playlist flags), applies user input
// optimistically before forwarding it to the embed, and polls the embed's
// native position on a fixed interval while playing.
package player

import (
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Rates are the selectable playback rates.
var Rates = []float64{0.5, 0.75, 1, 1.25, 1.5, 2}

// ValidRate reports whether r is a selectable playback rate.
func ValidRate(r float64) bool {
	for _, v := range Rates {
		if v == r {
			return true
		}
	}
	return false
}

// IsPlaylist detects a playlist id by the provider's id-prefix convention.
func IsPlaylist(mediaID string) bool {
	return strings.HasPrefix(mediaID, "PL")
}

// Embed is the opaque remote player. Commands are fire-and-forget; the
// widget reports back through the controller's Handle* methods and the
// position reads.
type Embed interface {
	Play()
	Pause()
	SeekTo(seconds float64)
	SetVolume(volume int)
	Mute()
	Unmute()
	SetRate(rate float64)
	CurrentTime() float64
	Duration() float64
	Destroy()
}

// PlaylistEmbed is implemented by embeds that host a playlist.
type PlaylistEmbed interface {
	Embed
	Next()
	Previous()
	SetShuffle(on bool)
	SetLoop(on bool)
}

// Status is the controller's lifecycle state.
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusPlaying Status = "playing"
	StatusPaused  Status = "paused"
	StatusEnded   Status = "ended"
	StatusErrored Status = "errored"
	StatusClosed  Status = "closed"
)

// State is a read-only snapshot of the transport state.
type State struct {
	Status     Status
	MediaID    string
	Playlist   bool
	Current    float64
	Duration   float64
	Volume     int
	Muted      bool
	Rate       float64
	Fullscreen bool
	Shuffle    bool
	Loop       bool
}

const (
	defaultPollInterval = 500 * time.Millisecond
	defaultReadyTimeout = 10 * time.Second
	unmuteVolume        = 50
	skipSeconds         = 10
)

// Config configures one playback session.
type Config struct {
	MediaID      string
	Autoplay     bool
	PollInterval time.Duration // defaults to 500ms
	ReadyTimeout time.Duration // defaults to 10s
	OnTick       func(currentSec, durationSec float64)
	OnTimeout    func() // fired when the embed never signals ready
	Logger       *slog.Logger
}

// Controller drives one embed. All methods are safe after Close: commands
// against a closed or errored session are dropped.
type Controller struct {
	embed Embed
	cfg   Config
	log   *slog.Logger

	mu         sync.Mutex
	state      State
	stopPoll   chan struct{}
	readyTimer *time.Timer
}

// New creates a controller in the loading state and arms the ready timeout.
// The embed is expected to call HandleReady once its player is usable.
func New(embed Embed, cfg Config) *Controller {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = defaultReadyTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	c := &Controller{
		embed: embed,
		cfg:   cfg,
		log:   log,
		state: State{
			Status:   StatusLoading,
			MediaID:  cfg.MediaID,
			Playlist: IsPlaylist(cfg.MediaID),
			Volume:   100,
			Rate:     1,
		},
	}
	c.readyTimer = time.AfterFunc(cfg.ReadyTimeout, c.readyTimedOut)
	return c
}

// State returns a snapshot of the current transport state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// HandleReady marks the embed usable and honors the autoplay flag.
func (c *Controller) HandleReady() {
	c.mu.Lock()
	if c.state.Status != StatusLoading {
		c.mu.Unlock()
		return
	}
	c.readyTimer.Stop()
	c.state.Status = StatusReady
	c.state.Duration = c.embed.Duration()
	autoplay := c.cfg.Autoplay
	c.mu.Unlock()

	if autoplay {
		c.Play()
	}
}

// HandleEnded records that the embed finished playback.
func (c *Controller) HandleEnded() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.terminal() {
		return
	}
	c.state.Status = StatusEnded
	c.state.Current = c.state.Duration
	c.haltPolling()
}

func (c *Controller) readyTimedOut() {
	c.mu.Lock()
	if c.state.Status != StatusLoading {
		c.mu.Unlock()
		return
	}
	c.state.Status = StatusErrored
	c.mu.Unlock()

	c.log.Warn("embed never signalled ready", "media_id", c.cfg.MediaID, "timeout", c.cfg.ReadyTimeout)
	if c.cfg.OnTimeout != nil {
		c.cfg.OnTimeout()
	}
}

// Play starts playback and the position poll.
func (c *Controller) Play() {
	c.mu.Lock()
	if c.terminal() || c.state.Status == StatusLoading {
		c.mu.Unlock()
		return
	}
	c.state.Status = StatusPlaying
	c.startPolling()
	c.mu.Unlock()

	c.embed.Play()
}

// Pause stops playback and the position poll.
func (c *Controller) Pause() {
	c.mu.Lock()
	if c.state.Status != StatusPlaying {
		c.mu.Unlock()
		return
	}
	c.state.Status = StatusPaused
	c.haltPolling()
	c.mu.Unlock()

	c.embed.Pause()
}

// TogglePlay flips between playing and paused.
func (c *Controller) TogglePlay() {
	if c.State().Status == StatusPlaying {
		c.Pause()
	} else {
		c.Play()
	}
}

// SeekTo jumps to an absolute position, clamped to the known duration.
func (c *Controller) SeekTo(seconds float64) {
	c.mu.Lock()
	if c.terminal() {
		c.mu.Unlock()
		return
	}
	seconds = clamp(seconds, 0, c.state.Duration)
	c.state.Current = seconds
	c.mu.Unlock()

	c.embed.SeekTo(seconds)
}

// Skip seeks relative to the current position.
func (c *Controller) Skip(deltaSeconds float64) {
	c.SeekTo(c.State().Current + deltaSeconds)
}

// SetVolume applies a 0-100 volume. Dragging to zero auto-mutes; raising a
// muted volume unmutes.
func (c *Controller) SetVolume(volume int) {
	c.mu.Lock()
	if c.terminal() {
		c.mu.Unlock()
		return
	}
	volume = int(clamp(float64(volume), 0, 100))
	c.state.Volume = volume
	mute := volume == 0
	unmute := volume > 0 && c.state.Muted
	c.state.Muted = mute
	c.mu.Unlock()

	c.embed.SetVolume(volume)
	if mute {
		c.embed.Mute()
	} else if unmute {
		c.embed.Unmute()
	}
}

// ToggleMute flips the muted flag. Unmuting from a zero-volume drag
// restores a nonzero volume so sound actually returns.
func (c *Controller) ToggleMute() {
	c.mu.Lock()
	if c.terminal() {
		c.mu.Unlock()
		return
	}
	if c.state.Muted {
		c.state.Muted = false
		restored := false
		if c.state.Volume == 0 {
			c.state.Volume = unmuteVolume
			restored = true
		}
		volume := c.state.Volume
		c.mu.Unlock()

		c.embed.Unmute()
		if restored {
			c.embed.SetVolume(volume)
		}
		return
	}
	c.state.Muted = true
	c.mu.Unlock()

	c.embed.Mute()
}

// SetRate applies a playback rate; rates outside Rates are dropped.
func (c *Controller) SetRate(rate float64) {
	if !ValidRate(rate) {
		return
	}
	c.mu.Lock()
	if c.terminal() {
		c.mu.Unlock()
		return
	}
	c.state.Rate = rate
	c.mu.Unlock()

	c.embed.SetRate(rate)
}

// ToggleFullscreen flips the fullscreen flag.
func (c *Controller) ToggleFullscreen() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.terminal() {
		return
	}
	c.state.Fullscreen = !c.state.Fullscreen
}

// Next advances the playlist. No-op for a single video.
func (c *Controller) Next() {
	if pl, ok := c.playlistEmbed(); ok {
		pl.Next()
	}
}

// Previous rewinds the playlist. No-op for a single video.
func (c *Controller) Previous() {
	if pl, ok := c.playlistEmbed(); ok {
		pl.Previous()
	}
}

// ToggleShuffle flips shuffle mode. No-op for a single video.
func (c *Controller) ToggleShuffle() {
	pl, ok := c.playlistEmbed()
	if !ok {
		return
	}
	c.mu.Lock()
	c.state.Shuffle = !c.state.Shuffle
	on := c.state.Shuffle
	c.mu.Unlock()
	pl.SetShuffle(on)
}

// ToggleLoop flips loop mode. No-op for a single video.
func (c *Controller) ToggleLoop() {
	pl, ok := c.playlistEmbed()
	if !ok {
		return
	}
	c.mu.Lock()
	c.state.Loop = !c.state.Loop
	on := c.state.Loop
	c.mu.Unlock()
	pl.SetLoop(on)
}

// Close tears the session down: the poll stops unconditionally, the ready
// timer is disarmed and the embed is destroyed. Idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.state.Status == StatusClosed {
		c.mu.Unlock()
		return
	}
	c.state.Status = StatusClosed
	c.readyTimer.Stop()
	c.haltPolling()
	c.mu.Unlock()

	c.embed.Destroy()
}

func (c *Controller) playlistEmbed() (PlaylistEmbed, bool) {
	c.mu.Lock()
	playlist := c.state.Playlist
	terminal := c.terminal()
	c.mu.Unlock()
	if !playlist || terminal {
		return nil, false
	}
	pl, ok := c.embed.(PlaylistEmbed)
	return pl, ok
}

// terminal reports whether the session stopped accepting commands.
// Callers must hold mu.
func (c *Controller) terminal() bool {
	return c.state.Status == StatusClosed || c.state.Status == StatusErrored
}

// startPolling launches the position poll. Callers must hold mu.
func (c *Controller) startPolling() {
	if c.stopPoll != nil {
		return
	}
	stop := make(chan struct{})
	c.stopPoll = stop

	go func() {
		ticker := time.NewTicker(c.cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.pollOnce(stop)
			}
		}
	}()
}

// haltPolling stops the position poll. Callers must hold mu.
func (c *Controller) haltPolling() {
	if c.stopPoll != nil {
		close(c.stopPoll)
		c.stopPoll = nil
	}
}

// pollOnce reads the embed position on one poll tick. OnTick runs under the
// controller lock so a tick can never land after Close or Pause returns;
// the callback must not call back into the controller.
func (c *Controller) pollOnce(stop chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// A stale tick racing a stop must not touch state.
	if c.stopPoll != stop || c.state.Status != StatusPlaying {
		return
	}
	c.state.Current = c.embed.CurrentTime()
	c.state.Duration = c.embed.Duration()

	if c.cfg.OnTick != nil {
		c.cfg.OnTick(c.state.Current, c.state.Duration)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}
