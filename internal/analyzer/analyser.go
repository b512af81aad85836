// Package analyzer turns the direct backend's output samples into
// frequency snapshots for visualization.
package analyzer

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	DefaultFFTSize   = 2048
	DefaultBands     = 128
	DefaultSmoothing = 0.8

	minFreq = 20.0
	maxFreq = 20000.0
	// dB window mapped to 0-255.
	minDB = -60.0
	// Share of each neighbour's energy added to a band.
	spread = 0.3
)

// Analyser computes log-spaced band magnitudes (0-255) from mono samples.
type Analyser struct {
	mu         sync.Mutex
	size       int
	bands      int
	smoothing  float64
	sampleRate int

	fft      *fourier.FFT
	window   []float64
	windowed []float64
	raw      []float64
	spreadB  []float64
	smoothed []float64
	counts   []int
	bandOf   []int // FFT bin -> band, -1 outside the audible range
}

// New creates an analyser. size must be a power of two; zero values pick
// the defaults.
func New(sampleRate, size, bands int, smoothing float64) *Analyser {
	if size <= 0 || size&(size-1) != 0 {
		size = DefaultFFTSize
	}
	if bands <= 0 {
		bands = DefaultBands
	}
	if smoothing < 0 || smoothing >= 1 {
		smoothing = DefaultSmoothing
	}

	// Hann window
	window := make([]float64, size)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1)))
	}

	a := &Analyser{
		size:       size,
		bands:      bands,
		smoothing:  smoothing,
		sampleRate: sampleRate,
		fft:        fourier.NewFFT(size),
		window:     window,
		windowed:   make([]float64, size),
		raw:        make([]float64, bands),
		spreadB:    make([]float64, bands),
		smoothed:   make([]float64, bands),
		counts:     make([]int, bands),
		bandOf:     make([]int, size/2),
	}
	a.mapBins()
	return a
}

// mapBins assigns each FFT bin below Nyquist to a log-spaced band.
func (a *Analyser) mapBins() {
	top := math.Min(maxFreq, float64(a.sampleRate)/2)
	logMin := math.Log10(minFreq)
	logRange := math.Log10(top) - logMin
	freqPerBin := float64(a.sampleRate) / float64(a.size)

	for bin := range a.bandOf {
		freq := float64(bin) * freqPerBin
		if bin == 0 || freq < minFreq || freq > top {
			a.bandOf[bin] = -1
			continue
		}
		band := int((math.Log10(freq) - logMin) / logRange * float64(a.bands))
		a.bandOf[bin] = max(0, min(band, a.bands-1))
	}
}

// Size returns the number of samples consumed per analysis.
func (a *Analyser) Size() int { return a.size }

// Bands returns the snapshot length.
func (a *Analyser) Bands() int { return a.bands }

// Analyse computes one snapshot from the most recent samples. Fewer than
// Size samples are zero-padded at the front.
func (a *Analyser) Analyse(samples []float64) []uint8 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(samples) > a.size {
		samples = samples[len(samples)-a.size:]
	}
	pad := a.size - len(samples)
	for i := range a.windowed {
		v := 0.0
		if i >= pad {
			v = samples[i-pad]
		}
		a.windowed[i] = v * a.window[i]
	}

	coeffs := a.fft.Coefficients(nil, a.windowed)

	clear(a.raw)
	clear(a.counts)
	for bin, band := range a.bandOf {
		if band < 0 {
			continue
		}
		c := coeffs[bin]
		magnitude := math.Hypot(real(c), imag(c))
		db := 20 * math.Log10(magnitude/float64(a.size)+1e-10)
		a.raw[band] += clamp255((db - minDB) / -minDB * 255)
		a.counts[band]++
	}
	for i := range a.raw {
		if a.counts[i] > 0 {
			a.raw[i] /= float64(a.counts[i])
		}
	}

	// Bands with no FFT bin of their own borrow from their neighbours.
	for i := range a.raw {
		v := a.raw[i]
		if i > 0 {
			v += a.raw[i-1] * spread
		}
		if i < len(a.raw)-1 {
			v += a.raw[i+1] * spread
		}
		a.spreadB[i] = clamp255(v)
	}

	out := make([]uint8, a.bands)
	for i := range a.smoothed {
		a.smoothed[i] = a.smoothing*a.smoothed[i] + (1-a.smoothing)*a.spreadB[i]
		out[i] = uint8(clamp255(a.smoothed[i]))
	}
	return out
}

// Reset clears the temporal smoothing state.
func (a *Analyser) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.smoothed)
}

func clamp255(v float64) float64 {
	return math.Max(0, math.Min(255, v))
}
