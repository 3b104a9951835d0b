// Package audio plays synthesized cues for session events.
package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/brensch/demonsnake/session"
)

// SampleRate is the speaker rate of every cue.
const SampleRate = beep.SampleRate(44100)

// Player starts a streamer. It must return without waiting for playback.
type Player interface {
	Play(beep.Streamer)
}

// Sink turns events into sounds. Pursuer substeps are silent; every other
// event kind has a cue.
type Sink struct {
	player Player
	rate   beep.SampleRate
	volume float64

	mu    sync.Mutex
	muted bool
}

var _ session.NotificationSink = (*Sink)(nil)

// NewSink plays through player at the given linear volume in (0, 1].
func NewSink(player Player, vol float64) *Sink {
	if vol <= 0 || vol > 1 {
		vol = 1
	}
	return &Sink{player: player, rate: SampleRate, volume: vol}
}

// SetMuted toggles output without dropping the sink.
func (s *Sink) SetMuted(m bool) {
	s.mu.Lock()
	s.muted = m
	s.mu.Unlock()
}

func (s *Sink) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

func (s *Sink) Notify(ev session.Event) {
	if s.Muted() {
		return
	}
	if cue := Cue(ev, s.rate); cue != nil {
		s.player.Play(volume(cue, s.volume))
	}
}

// Cue is the sound for ev, or nil for silent events.
func Cue(ev session.Event, rate beep.SampleRate) beep.Streamer {
	switch ev.Kind {
	case session.EventFoodEaten:
		return foodSound(ev.DemonActive, rate)
	case session.EventDemonMove:
		return demonSound(rate)
	case session.EventGameLost:
		return lostSound(rate)
	case session.EventGameWon:
		return wonSound(rate)
	case session.EventGameQuit:
		return quitSound(rate)
	}
	return nil
}

// Speaker mixes cues onto the default output device.
type Speaker struct {
	mixer *beep.Mixer
}

var (
	speakerOnce sync.Once
	speakerErr  error
	speakerDev  *Speaker
)

// OpenSpeaker initialises the output device once per process.
func OpenSpeaker() (*Speaker, error) {
	speakerOnce.Do(func() {
		if err := speaker.Init(SampleRate, SampleRate.N(50*time.Millisecond)); err != nil {
			speakerErr = fmt.Errorf("init speaker: %w", err)
			return
		}
		speakerDev = &Speaker{mixer: &beep.Mixer{}}
		speaker.Play(speakerDev.mixer)
	})
	return speakerDev, speakerErr
}

func (sp *Speaker) Play(s beep.Streamer) {
	speaker.Lock()
	sp.mixer.Add(s)
	speaker.Unlock()
}

// Close silences pending cues.
func (sp *Speaker) Close() {
	speaker.Lock()
	sp.mixer.Clear()
	speaker.Unlock()
}
