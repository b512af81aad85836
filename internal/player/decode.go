package player

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// maxDownloadSize bounds how much of a remote media file is buffered.
const maxDownloadSize = 512 << 20

type container int

const (
	containerUnknown container = iota
	containerMP3
	containerFLAC
	containerVorbis
	containerWAV
	containerM4A
)

// memFile is a seekable in-memory copy of a downloaded media file.
type memFile struct{ *bytes.Reader }

func (memFile) Close() error { return nil }

// openSource opens a local path, a file:// URL or an http(s) URL.
// Remote bodies are buffered so the decoders can seek.
func openSource(ctx context.Context, client *http.Client, locator string) (io.ReadSeekCloser, container, error) {
	u, err := url.Parse(locator)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Plain path (a one-letter scheme is a Windows drive).
		f, err := os.Open(locator)
		if err != nil {
			return nil, containerUnknown, err
		}
		return f, containerFromExt(locator), nil
	}

	switch u.Scheme {
	case "file":
		f, err := os.Open(u.Path)
		if err != nil {
			return nil, containerUnknown, err
		}
		return f, containerFromExt(u.Path), nil
	case "http", "https":
	default:
		return nil, containerUnknown, fmt.Errorf("%w: scheme %q", ErrUnsupportedSource, u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, containerUnknown, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, containerUnknown, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, containerUnknown, fmt.Errorf("fetch %s: HTTP %d", u.Redacted(), resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize+1))
	if err != nil {
		return nil, containerUnknown, fmt.Errorf("fetch %s: %w", u.Redacted(), err)
	}
	if len(data) > maxDownloadSize {
		return nil, containerUnknown, fmt.Errorf("fetch %s: body larger than %d bytes", u.Redacted(), maxDownloadSize)
	}

	hint := containerFromMIME(resp.Header.Get("Content-Type"))
	if hint == containerUnknown {
		hint = containerFromExt(u.Path)
	}
	return memFile{bytes.NewReader(data)}, hint, nil
}

func containerFromExt(p string) container {
	switch strings.ToLower(path.Ext(p)) {
	case ".mp3":
		return containerMP3
	case ".flac":
		return containerFLAC
	case ".ogg", ".oga":
		return containerVorbis
	case ".wav":
		return containerWAV
	case ".m4a", ".mp4", ".alac":
		return containerM4A
	default:
		return containerUnknown
	}
}

func containerFromMIME(contentType string) container {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return containerUnknown
	}
	switch mt {
	case "audio/mpeg", "audio/mp3":
		return containerMP3
	case "audio/flac", "audio/x-flac":
		return containerFLAC
	case "audio/ogg", "audio/vorbis", "application/ogg":
		return containerVorbis
	case "audio/wav", "audio/x-wav", "audio/wave":
		return containerWAV
	case "audio/mp4", "audio/x-m4a", "audio/m4a":
		return containerM4A
	default:
		return containerUnknown
	}
}

// sniff identifies the container from the first bytes, skipping an ID3v2
// tag if present (some taggers prepend one to FLAC files). It leaves r
// positioned where the decoder should start.
func sniff(r io.ReadSeeker, hint container) (container, error) {
	header := make([]byte, 12)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return containerUnknown, err
	}
	header = header[:n]

	var offset int64
	if n >= 10 && string(header[0:3]) == "ID3" {
		// ID3v2 size is a syncsafe integer in bytes 6-9.
		size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])
		offset = 10 + size
		if _, err := r.Seek(offset, io.SeekStart); err != nil {
			return containerUnknown, err
		}
		next := make([]byte, 4)
		if _, err := io.ReadFull(r, next); err == nil && string(next) == "fLaC" {
			_, err := r.Seek(offset, io.SeekStart)
			return containerFLAC, err
		}
		_, err := r.Seek(0, io.SeekStart)
		return containerMP3, err
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return containerUnknown, err
	}

	switch {
	case bytes.HasPrefix(header, []byte("fLaC")):
		return containerFLAC, nil
	case bytes.HasPrefix(header, []byte("OggS")):
		return containerVorbis, nil
	case n >= 12 && string(header[0:4]) == "RIFF" && string(header[8:12]) == "WAVE":
		return containerWAV, nil
	case n >= 8 && string(header[4:8]) == "ftyp":
		return containerM4A, nil
	case n >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0:
		return containerMP3, nil
	}
	return hint, nil
}

// closingStreamer closes the underlying file together with the decoder.
type closingStreamer struct {
	beep.StreamSeekCloser
	file io.Closer
}

func (s closingStreamer) Close() error {
	err := s.StreamSeekCloser.Close()
	if cerr := s.file.Close(); err == nil && !errors.Is(cerr, os.ErrClosed) {
		err = cerr
	}
	return err
}

// decode picks a decoder for rsc. On error rsc is closed.
func decode(rsc io.ReadSeekCloser, hint container) (beep.StreamSeekCloser, beep.Format, error) {
	kind, err := sniff(rsc, hint)
	if err != nil {
		rsc.Close()
		return nil, beep.Format{}, err
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch kind {
	case containerMP3:
		streamer, format, err = decodeMP3(rsc)
	case containerFLAC:
		streamer, format, err = flac.Decode(rsc)
	case containerVorbis:
		streamer, format, err = vorbis.Decode(rsc)
	case containerWAV:
		streamer, format, err = wav.Decode(rsc)
	case containerM4A:
		streamer, format, err = decodeM4A(rsc)
	default:
		err = fmt.Errorf("%w: unknown audio container", ErrUnsupportedSource)
	}
	if err != nil {
		rsc.Close()
		return nil, beep.Format{}, err
	}
	return closingStreamer{StreamSeekCloser: streamer, file: rsc}, format, nil
}
