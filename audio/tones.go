package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// Wave is an oscillator shape.
type Wave int

const (
	WaveSine Wave = iota
	WaveSquare
	WaveSaw
)

type oscillator struct {
	freq     float64
	phase    float64
	duration int
	position int
	wave     Wave
	rate     beep.SampleRate
}

// NewOscillator streams a fixed-length tone.
func NewOscillator(freq float64, duration time.Duration, wave Wave, rate beep.SampleRate) beep.Streamer {
	return &oscillator{
		freq:     freq,
		duration: rate.N(duration),
		wave:     wave,
		rate:     rate,
	}
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.position >= o.duration {
			return i, i > 0
		}

		var val float64
		switch o.wave {
		case WaveSine:
			val = math.Sin(2 * math.Pi * o.phase)
		case WaveSquare:
			val = 1
			if o.phase >= 0.5 {
				val = -1
			}
		case WaveSaw:
			val = 2 * (o.phase - 0.5)
		}
		samples[i][0] = val
		samples[i][1] = val

		o.phase += o.freq / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.position++
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

// sweep is a sine whose frequency glides linearly from one pitch to another.
type sweep struct {
	from, to float64
	phase    float64
	duration int
	position int
	rate     beep.SampleRate
}

func newSweep(from, to float64, duration time.Duration, rate beep.SampleRate) beep.Streamer {
	return &sweep{from: from, to: to, duration: rate.N(duration), rate: rate}
}

func (s *sweep) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if s.position >= s.duration {
			return i, i > 0
		}
		frac := float64(s.position) / float64(s.duration)
		val := math.Sin(2 * math.Pi * s.phase)
		samples[i][0] = val
		samples[i][1] = val

		s.phase += (s.from + (s.to-s.from)*frac) / float64(s.rate)
		s.phase -= math.Floor(s.phase)
		s.position++
	}
	return len(samples), true
}

func (s *sweep) Err() error { return nil }

// envelope fades a stream in over attack and out over release.
type envelope struct {
	streamer beep.Streamer
	position int
	attack   int
	release  int
	total    int
}

func newEnvelope(s beep.Streamer, duration, attack, release time.Duration, rate beep.SampleRate) beep.Streamer {
	return &envelope{
		streamer: s,
		attack:   rate.N(attack),
		release:  rate.N(release),
		total:    rate.N(duration),
	}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		if e.position >= e.total {
			return i, i > 0
		}
		vol := 1.0
		if e.attack > 0 && e.position < e.attack {
			vol = float64(e.position) / float64(e.attack)
		}
		if left := e.total - e.position; e.release > 0 && left < e.release {
			vol = math.Min(vol, float64(left)/float64(e.release))
		}
		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// volume scales linearly; 0 is silent.
func volume(s beep.Streamer, v float64) beep.Streamer {
	if v <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(v)}
}

func note(freq float64, d time.Duration, wave Wave, rate beep.SampleRate) beep.Streamer {
	release := d / 2
	return newEnvelope(NewOscillator(freq, d, wave, rate), d, 5*time.Millisecond, release, rate)
}

// foodSound is a rising chirp, pitched down and doubled while the demons hunt.
func foodSound(demonActive bool, rate beep.SampleRate) beep.Streamer {
	d := 90 * time.Millisecond
	if demonActive {
		return beep.Seq(
			newEnvelope(newSweep(440, 660, d, rate), d, 5*time.Millisecond, 30*time.Millisecond, rate),
			newEnvelope(newSweep(440, 660, d, rate), d, 5*time.Millisecond, 30*time.Millisecond, rate),
		)
	}
	return newEnvelope(newSweep(660, 1320, d, rate), d, 5*time.Millisecond, 40*time.Millisecond, rate)
}

func demonSound(rate beep.SampleRate) beep.Streamer {
	return volume(note(70, 45*time.Millisecond, WaveSquare, rate), 0.35)
}

func lostSound(rate beep.SampleRate) beep.Streamer {
	d := 600 * time.Millisecond
	return newEnvelope(newSweep(440, 80, d, rate), d, 10*time.Millisecond, 300*time.Millisecond, rate)
}

func wonSound(rate beep.SampleRate) beep.Streamer {
	// C major arpeggio.
	return beep.Seq(
		note(523.25, 120*time.Millisecond, WaveSine, rate),
		note(659.25, 120*time.Millisecond, WaveSine, rate),
		note(783.99, 120*time.Millisecond, WaveSine, rate),
		note(1046.5, 300*time.Millisecond, WaveSine, rate),
	)
}

func quitSound(rate beep.SampleRate) beep.Streamer {
	return volume(note(330, 80*time.Millisecond, WaveSaw, rate), 0.5)
}
