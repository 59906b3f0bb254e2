package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/polyhub/studyhub/internal/player"
)

// durationSeconds parses the catalog's "mm:ss" / "hh:mm:ss" duration labels.
// Unparseable labels yield 0; the embed reports the real duration once ready.
func durationSeconds(label string) float64 {
	parts := strings.Split(label, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return float64(total)
}

type openPlayerRequest struct {
	VideoID  string `json:"video_id"`
	Autoplay bool   `json:"autoplay"`
}

type playerStateView struct {
	Status     string  `json:"status"`
	MediaID    string  `json:"media_id"`
	Playlist   bool    `json:"playlist"`
	Current    float64 `json:"current"`
	Duration   float64 `json:"duration"`
	Volume     int     `json:"volume"`
	Muted      bool    `json:"muted"`
	Rate       float64 `json:"rate"`
	Fullscreen bool    `json:"fullscreen"`
	Shuffle    bool    `json:"shuffle"`
	Loop       bool    `json:"loop"`
}

func viewPlayerState(st player.State) playerStateView {
	return playerStateView{
		Status:     string(st.Status),
		MediaID:    st.MediaID,
		Playlist:   st.Playlist,
		Current:    st.Current,
		Duration:   st.Duration,
		Volume:     st.Volume,
		Muted:      st.Muted,
		Rate:       st.Rate,
		Fullscreen: st.Fullscreen,
		Shuffle:    st.Shuffle,
		Loop:       st.Loop,
	}
}

// handleOpenPlayer resolves a catalog video and starts a playback session
// for it. Opening while a player is already active replaces it.
func (s *Server) handleOpenPlayer(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req openPlayerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	vid, _, found := s.cat.VideoByID(req.VideoID)
	if !found {
		writeError(w, http.StatusNotFound, "video not found")
		return
	}

	embed := player.NewStubEmbed(durationSeconds(vid.Duration))
	ctrl := player.New(embed, player.Config{
		MediaID:  vid.VideoID,
		Autoplay: req.Autoplay,
		Logger:   s.log,
	})
	ctrl.HandleReady()

	sess.mu.Lock()
	if sess.player != nil {
		sess.player.Close()
	}
	sess.player = ctrl
	sess.mu.Unlock()

	writeJSON(w, http.StatusCreated, viewPlayerState(ctrl.State()))
}

func (sess *session) currentPlayer() *player.Controller {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.player
}

func (s *Server) handlePlayerState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	ctrl := sess.currentPlayer()
	if ctrl == nil {
		writeError(w, http.StatusNotFound, "no active player")
		return
	}
	writeJSON(w, http.StatusOK, viewPlayerState(ctrl.State()))
}

type playerCommandRequest struct {
	Command string  `json:"command"`
	Seconds float64 `json:"seconds,omitempty"`
	Volume  int     `json:"volume,omitempty"`
	Rate    float64 `json:"rate,omitempty"`
	Key     string  `json:"key,omitempty"`
	Typing  bool    `json:"typing,omitempty"`
}

func (s *Server) handlePlayerCommand(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	ctrl := sess.currentPlayer()
	if ctrl == nil {
		writeError(w, http.StatusNotFound, "no active player")
		return
	}
	var req playerCommandRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	switch req.Command {
	case "play":
		ctrl.Play()
	case "pause":
		ctrl.Pause()
	case "toggle":
		ctrl.TogglePlay()
	case "seek":
		ctrl.SeekTo(req.Seconds)
	case "skip":
		ctrl.Skip(req.Seconds)
	case "volume":
		ctrl.SetVolume(req.Volume)
	case "mute":
		ctrl.ToggleMute()
	case "rate":
		if !player.ValidRate(req.Rate) {
			writeError(w, http.StatusBadRequest, "unsupported playback rate")
			return
		}
		ctrl.SetRate(req.Rate)
	case "fullscreen":
		ctrl.ToggleFullscreen()
	case "next":
		ctrl.Next()
	case "previous":
		ctrl.Previous()
	case "shuffle":
		ctrl.ToggleShuffle()
	case "loop":
		ctrl.ToggleLoop()
	case "key":
		ctrl.HandleKey(req.Key, req.Typing)
	default:
		writeError(w, http.StatusBadRequest, "unknown command")
		return
	}
	writeJSON(w, http.StatusOK, viewPlayerState(ctrl.State()))
}

func (s *Server) handleClosePlayer(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	ctrl := sess.player
	sess.player = nil
	sess.mu.Unlock()
	if ctrl == nil {
		writeError(w, http.StatusNotFound, "no active player")
		return
	}
	ctrl.Close()
	w.WriteHeader(http.StatusNoContent)
}
