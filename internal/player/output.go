package player

import (
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Output is the audio sink the analysis graph plays into.
type Output interface {
	Init(rate beep.SampleRate, bufferSize int) error
	Play(s beep.Streamer)
	Lock()
	Unlock()
	Close()
}

// Speaker returns the system audio output.
func Speaker() Output { return speakerOutput{} }

type speakerOutput struct{}

func (speakerOutput) Init(rate beep.SampleRate, bufferSize int) error {
	return speaker.Init(rate, bufferSize)
}
func (speakerOutput) Play(s beep.Streamer) { speaker.Play(s) }
func (speakerOutput) Lock()                { speaker.Lock() }
func (speakerOutput) Unlock()              { speaker.Unlock() }
func (speakerOutput) Close()               { speaker.Close() }

// NullOutput discards audio. Nothing is pulled from the graph unless Pump
// is called or the output was created with a clock.
type NullOutput struct {
	mu       sync.Mutex
	streamer beep.Streamer
	initErr  error
	inits    int
	rate     beep.SampleRate
	stop     chan struct{}
}

// NewNullOutput creates a silent output driven manually through Pump.
func NewNullOutput() *NullOutput {
	return &NullOutput{}
}

// NewClockedNullOutput creates a silent output that consumes samples in
// real time, for running without an audio device.
func NewClockedNullOutput(tick time.Duration) *NullOutput {
	o := &NullOutput{stop: make(chan struct{})}
	go func() {
		ticker := time.NewTicker(tick)
		defer ticker.Stop()
		for {
			select {
			case <-o.stop:
				return
			case <-ticker.C:
				o.mu.Lock()
				rate := o.rate
				o.mu.Unlock()
				if rate > 0 {
					o.Pump(rate.N(tick))
				}
			}
		}
	}()
	return o
}

// FailInit makes the next Init calls return err.
func (o *NullOutput) FailInit(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.initErr = err
}

func (o *NullOutput) Init(rate beep.SampleRate, _ int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inits++
	if o.initErr != nil {
		return o.initErr
	}
	o.rate = rate
	return nil
}

// Inits returns the number of Init calls.
func (o *NullOutput) Inits() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inits
}

func (o *NullOutput) Play(s beep.Streamer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.streamer = s
}

// Pump pulls n samples from the playing streamer, holding the output
// lock like a real device callback does.
func (o *NullOutput) Pump(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.streamer == nil || n <= 0 {
		return
	}
	buf := make([][2]float64, 512)
	for n > 0 {
		chunk := min(n, len(buf))
		o.streamer.Stream(buf[:chunk])
		n -= chunk
	}
}

func (o *NullOutput) Lock()   { o.mu.Lock() }
func (o *NullOutput) Unlock() { o.mu.Unlock() }

func (o *NullOutput) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.streamer = nil
	if o.stop != nil {
		close(o.stop)
		o.stop = nil
	}
}
