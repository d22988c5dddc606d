// Package audio is the host beeper. The core only reports whether the beep
// should be active; this package keeps a sine tone running through the
// speaker and gates it on that flag.
package audio

import (
	"fmt"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/generators"
	"github.com/faiface/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)
const toneHz = 440

// Beeper plays a continuous tone while active.
type Beeper struct {
	ctrl *beep.Ctrl
}

// NewBeeper initializes the speaker and starts a paused tone stream.
func NewBeeper() (*Beeper, error) {
	tone, err := generators.SinTone(sampleRate, toneHz)
	if err != nil {
		return nil, fmt.Errorf("error generating tone: %v", err)
	}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("error initializing speaker: %v", err)
	}
	ctrl := &beep.Ctrl{Streamer: tone, Paused: true}
	speaker.Play(ctrl)
	return &Beeper{ctrl: ctrl}, nil
}

// SetActive unpauses or pauses the tone. Safe to call every frame.
func (b *Beeper) SetActive(active bool) {
	speaker.Lock()
	b.ctrl.Paused = !active
	speaker.Unlock()
}

// Close silences the speaker.
func (b *Beeper) Close() {
	speaker.Clear()
}
