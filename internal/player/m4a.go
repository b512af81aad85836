package player

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/llehouerou/alac"
	"github.com/llehouerou/go-faad2"
	"github.com/llehouerou/go-m4a"
)

// alacFrameSize is the ALAC default frames per packet.
const alacFrameSize = 4096

// m4aStreamer decodes AAC or ALAC packets from an MP4 container. Output
// is always stereo; mono is duplicated.
type m4aStreamer struct {
	container *m4a.Reader
	codec     m4a.CodecType
	aac       *faad2.Decoder
	alac      *alac.Alac

	channels int
	bits     int
	total    int
	next     int // packet index
	err      error

	pending [][2]float64
	offset  int
}

// decodeM4A starts decoding r. The caller keeps ownership of r.
func decodeM4A(r io.ReadSeeker) (beep.StreamSeekCloser, beep.Format, error) {
	mp4, err := m4a.Open(r)
	if err != nil {
		return nil, beep.Format{}, err
	}

	rate := int(mp4.SampleRate())
	s := &m4aStreamer{
		container: mp4,
		codec:     mp4.Codec(),
		channels:  int(mp4.Channels()),
		bits:      int(mp4.SampleSize()),
		total:     int(mp4.Duration().Seconds() * float64(rate)),
	}
	format := beep.Format{SampleRate: beep.SampleRate(rate), NumChannels: 2, Precision: 2}

	switch s.codec {
	case m4a.CodecAAC:
		ctx := context.Background()
		dec, err := faad2.NewDecoder(ctx)
		if err != nil {
			return nil, beep.Format{}, err
		}
		if err := dec.Init(ctx, mp4.CodecConfig()); err != nil {
			dec.Close(ctx)
			return nil, beep.Format{}, err
		}
		s.aac = dec
	case m4a.CodecALAC:
		dec, err := alac.NewWithConfig(alac.Config{
			SampleRate:  rate,
			SampleSize:  s.bits,
			NumChannels: s.channels,
			FrameSize:   alacFrameSize,
		})
		if err != nil {
			return nil, beep.Format{}, err
		}
		s.alac = dec
		if s.bits == 24 {
			format.Precision = 3
		}
	default:
		return nil, beep.Format{}, errors.New("m4a: unsupported codec")
	}
	return s, format, nil
}

func (s *m4aStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.err != nil {
		return 0, false
	}
	n := 0
	for n < len(samples) {
		if s.offset < len(s.pending) {
			c := copy(samples[n:], s.pending[s.offset:])
			s.offset += c
			n += c
			continue
		}
		if s.next >= s.container.SampleCount() {
			break
		}
		if err := s.decodePacket(); err != nil {
			s.err = err
			break
		}
	}
	return n, n > 0
}

func (s *m4aStreamer) decodePacket() error {
	packet, err := s.container.ReadSample(s.next)
	if err != nil {
		return err
	}
	s.next++
	s.offset = 0

	if s.aac != nil {
		pcm, err := s.aac.Decode(context.Background(), packet)
		if err != nil {
			return err
		}
		s.pending = int16Frames(pcm, s.channels)
		return nil
	}
	s.pending = alacFrames(s.alac.Decode(packet), s.channels, s.bits)
	return nil
}

// int16Frames converts interleaved 16-bit PCM to stereo frames.
func int16Frames(pcm []int16, channels int) [][2]float64 {
	channels = max(channels, 1)
	frames := make([][2]float64, len(pcm)/channels)
	for i := range frames {
		left := float64(pcm[i*channels]) / 32768
		right := left
		if channels > 1 {
			right = float64(pcm[i*channels+1]) / 32768
		}
		frames[i] = [2]float64{left, right}
	}
	return frames
}

// alacFrames converts little-endian 16 or 24-bit PCM bytes to stereo
// frames.
func alacFrames(data []byte, channels, bits int) [][2]float64 {
	channels = max(channels, 1)
	width := 2
	scale := 32768.0
	if bits == 24 {
		width, scale = 3, 8388608
	}
	sample := func(b []byte) float64 {
		if width == 2 {
			return float64(int16(uint16(b[0])|uint16(b[1])<<8)) / scale
		}
		v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		if v&0x800000 != 0 {
			v |= ^0xFFFFFF
		}
		return float64(v) / scale
	}

	stride := width * channels
	frames := make([][2]float64, len(data)/stride)
	for i := range frames {
		base := data[i*stride:]
		left := sample(base)
		right := left
		if channels > 1 {
			right = sample(base[width:])
		}
		frames[i] = [2]float64{left, right}
	}
	return frames
}

func (s *m4aStreamer) Err() error { return s.err }

func (s *m4aStreamer) Len() int { return s.total }

func (s *m4aStreamer) Position() int {
	at := s.container.SampleTime(s.next)
	return int(at.Seconds() * float64(s.container.SampleRate()))
}

func (s *m4aStreamer) Seek(p int) error {
	p = min(max(p, 0), s.total)
	at := time.Duration(float64(p) / float64(s.container.SampleRate()) * float64(time.Second))
	s.next = s.container.SeekToTime(at)
	s.pending, s.offset, s.err = nil, 0, nil
	return nil
}

// Close releases the AAC decoder. The caller closes the reader.
func (s *m4aStreamer) Close() error {
	if s.aac != nil {
		s.aac.Close(context.Background())
	}
	return nil
}
