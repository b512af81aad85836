// Package mpv drives an mpv process over its JSON IPC socket. It is the
// remote player behind the embed backend: mpv resolves streaming video ids
// through its ytdl hook and plays audio only.
package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/drift/internal/player"
)

// ErrClosed is returned for commands issued after Close.
var ErrClosed = errors.New("mpv: connection closed")

const watchURL = "https://www.youtube.com/watch?v="

// Config describes how to start mpv.
type Config struct {
	Path       string // executable, default "mpv"
	SocketPath string // IPC socket, default in the temp dir
	YtdlFormat string // --ytdl-format value, default "bestaudio/best"
}

type request struct {
	Command   []any `json:"command"`
	RequestID int   `json:"request_id"`
}

type message struct {
	RequestID int             `json:"request_id"`
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
	Event     string          `json:"event"`
	Reason    string          `json:"reason"`
	FileError string          `json:"file_error"`
	EntryID   int             `json:"playlist_entry_id"`
}

// Client is a connection to one mpv instance.
type Client struct {
	logger zerolog.Logger
	cmd    *exec.Cmd
	conn   net.Conn

	writeMu sync.Mutex
	enc     *json.Encoder

	mu      sync.Mutex
	nextID  int
	pending map[int]chan message
	loading chan error
	entry   int // playlist entry of the current file
	closed  bool

	ended chan struct{}
	done  chan struct{}
}

// Start launches mpv in idle mode and connects to its socket.
func Start(ctx context.Context, cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.Path == "" {
		cfg.Path = "mpv"
	}
	if cfg.SocketPath == "" {
		cfg.SocketPath = filepath.Join(os.TempDir(), fmt.Sprintf("drift-mpv-%d.sock", os.Getpid()))
	}
	if cfg.YtdlFormat == "" {
		cfg.YtdlFormat = "bestaudio/best"
	}
	_ = os.Remove(cfg.SocketPath)

	cmd := exec.Command(cfg.Path,
		"--idle=yes",
		"--no-video",
		"--no-terminal",
		"--input-ipc-server="+cfg.SocketPath,
		"--ytdl-format="+cfg.YtdlFormat,
	)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start mpv: %w", err)
	}

	conn, err := dialRetry(ctx, cfg.SocketPath)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}

	c := newClient(conn, logger)
	c.cmd = cmd
	logger.Debug().Str("socket", cfg.SocketPath).Int("pid", cmd.Process.Pid).Msg("mpv started")
	return c, nil
}

// Dial connects to an already running mpv.
func Dial(ctx context.Context, socketPath string, logger zerolog.Logger) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect mpv: %w", err)
	}
	return newClient(conn, logger), nil
}

// dialRetry waits for mpv to create its socket.
func dialRetry(ctx context.Context, socketPath string) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var d net.Dialer
	for {
		conn, err := d.DialContext(ctx, "unix", socketPath)
		if err == nil {
			return conn, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect mpv: %w", err)
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func newClient(conn net.Conn, logger zerolog.Logger) *Client {
	c := &Client{
		logger:  logger,
		conn:    conn,
		enc:     json.NewEncoder(conn),
		pending: make(map[int]chan message),
		ended:   make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *Client) readLoop() {
	defer close(c.done)
	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var msg message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			c.logger.Debug().Err(err).Msg("mpv: bad message")
			continue
		}
		if msg.Event != "" {
			c.handleEvent(msg)
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[msg.RequestID]
		delete(c.pending, msg.RequestID)
		c.mu.Unlock()
		if ok {
			ch <- msg
		}
	}

	c.mu.Lock()
	c.closed = true
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.mu.Unlock()
}

func (c *Client) handleEvent(msg message) {
	switch msg.Event {
	case "start-file":
		c.mu.Lock()
		c.entry = msg.EntryID
		c.mu.Unlock()
	case "file-loaded":
		c.finishLoad(nil)
	case "end-file":
		switch msg.Reason {
		case "eof":
			if c.staleEnd(msg.EntryID) {
				c.logger.Debug().Int("entry", msg.EntryID).Msg("mpv: dropping end of previous file")
				return
			}
			select {
			case c.ended <- struct{}{}:
			default:
			}
		case "error":
			c.finishLoad(fmt.Errorf("mpv: %s", msg.FileError))
		}
	}
}

// staleEnd reports whether an eof belongs to a file other than the one
// loaded last: a load is still pending, or the entry ids differ.
func (c *Client) staleEnd(entry int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading != nil {
		return true
	}
	return entry != 0 && c.entry != 0 && entry != c.entry
}

func (c *Client) finishLoad(err error) {
	c.mu.Lock()
	ch := c.loading
	c.loading = nil
	c.mu.Unlock()
	if ch != nil {
		ch <- err
	}
}

// command sends one IPC command and waits for its reply.
func (c *Client) command(ctx context.Context, args ...any) (json.RawMessage, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.nextID++
	id := c.nextID
	ch := make(chan message, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	err := c.enc.Encode(request{Command: args, RequestID: id})
	c.writeMu.Unlock()
	if err != nil {
		c.forget(id)
		return nil, fmt.Errorf("mpv %v: %w", args[0], err)
	}

	select {
	case msg, ok := <-ch:
		if !ok {
			return nil, ErrClosed
		}
		if msg.Error != "" && msg.Error != "success" {
			return nil, fmt.Errorf("mpv %v: %s", args[0], msg.Error)
		}
		return msg.Data, nil
	case <-ctx.Done():
		c.forget(id)
		return nil, ctx.Err()
	}
}

func (c *Client) forget(id int) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// commandTimeout bounds the short property commands.
const commandTimeout = 2 * time.Second

func (c *Client) quick(args ...any) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	return c.command(ctx, args...)
}

func (c *Client) seconds(property string) (time.Duration, error) {
	data, err := c.quick("get_property", property)
	if err != nil {
		return 0, err
	}
	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil {
		return 0, fmt.Errorf("mpv %s: %w", property, err)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// Load replaces the current file with the video and waits until mpv has
// opened it. Playback stays paused.
func (c *Client) Load(ctx context.Context, videoID string) error {
	wait := make(chan error, 1)
	c.mu.Lock()
	c.loading = wait
	c.mu.Unlock()

	if _, err := c.quick("set_property", "pause", true); err != nil {
		return err
	}
	if _, err := c.command(ctx, "loadfile", watchURL+videoID, "replace"); err != nil {
		return err
	}

	select {
	case err := <-wait:
		return err
	case <-ctx.Done():
		c.mu.Lock()
		if c.loading == wait {
			c.loading = nil
		}
		c.mu.Unlock()
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}
}

func (c *Client) Play() error {
	_, err := c.quick("set_property", "pause", false)
	return err
}

func (c *Client) Pause() error {
	_, err := c.quick("set_property", "pause", true)
	return err
}

func (c *Client) Seek(position time.Duration) error {
	_, err := c.quick("seek", position.Seconds(), "absolute")
	return err
}

func (c *Client) SetVolume(level int) error {
	_, err := c.quick("set_property", "volume", level)
	return err
}

func (c *Client) Position() (time.Duration, error) {
	return c.seconds("time-pos")
}

func (c *Client) Duration() (time.Duration, error) {
	return c.seconds("duration")
}

func (c *Client) Ended() <-chan struct{} { return c.ended }

func (c *Client) Stop() error {
	_, err := c.quick("stop")
	return err
}

// Close quits mpv if this client started it and closes the connection.
func (c *Client) Close() error {
	if c.cmd != nil {
		_, _ = c.quick("quit")
	}
	err := c.conn.Close()
	<-c.done
	if c.cmd != nil {
		if werr := c.cmd.Wait(); werr != nil {
			c.logger.Debug().Err(werr).Msg("mpv exited")
		}
	}
	return err
}

var _ player.Remote = (*Client)(nil)
