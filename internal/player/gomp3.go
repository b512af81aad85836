package player

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/llehouerou/go-mp3"
)

// mp3Streamer adapts an llehouerou/go-mp3 decoder to beep. The decoder
// always produces 16-bit stereo PCM.
type mp3Streamer struct {
	decoder *mp3.Decoder
	err     error
	buf     []byte
}

const mp3FrameBytes = 4 // two 16-bit channels

// decodeMP3 starts decoding r. The caller keeps ownership of r.
func decodeMP3(r io.ReadSeeker) (beep.StreamSeekCloser, beep.Format, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, beep.Format{}, err
	}
	rate := decoder.SampleRate()
	if rate == 0 {
		return nil, beep.Format{}, errors.New("mp3: invalid sample rate")
	}
	format := beep.Format{
		SampleRate:  beep.SampleRate(rate),
		NumChannels: 2,
		Precision:   2,
	}
	return &mp3Streamer{decoder: decoder, buf: make([]byte, 8192)}, format, nil
}

func (d *mp3Streamer) Stream(samples [][2]float64) (int, bool) {
	if d.err != nil {
		return 0, false
	}
	need := len(samples) * mp3FrameBytes
	if len(d.buf) < need {
		d.buf = make([]byte, need)
	}

	read, err := io.ReadFull(d.decoder, d.buf[:need])
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		d.err = err
		return 0, false
	}
	n := read / mp3FrameBytes
	if n == 0 {
		return 0, false
	}
	for i := range n {
		off := i * mp3FrameBytes
		left := int16(binary.LittleEndian.Uint16(d.buf[off:]))    //nolint:gosec // PCM sample
		right := int16(binary.LittleEndian.Uint16(d.buf[off+2:])) //nolint:gosec // PCM sample
		samples[i][0] = float64(left) / 32768
		samples[i][1] = float64(right) / 32768
	}
	return n, true
}

func (d *mp3Streamer) Err() error { return d.err }

func (d *mp3Streamer) Len() int {
	return max(int(d.decoder.SampleCount()), 0)
}

func (d *mp3Streamer) Position() int {
	return int(d.decoder.SamplePosition())
}

func (d *mp3Streamer) Seek(p int) error {
	p = min(max(p, 0), d.Len())
	if err := d.decoder.SeekToSample(int64(p)); err != nil {
		return err
	}
	d.err = nil
	return nil
}

// Close is a no-op; closingStreamer closes the source.
func (d *mp3Streamer) Close() error { return nil }
