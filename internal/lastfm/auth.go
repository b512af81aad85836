package lastfm

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"time"
)

// AuthCallbackPort is where the local authorization callback listens by
// default. It must match the callback registered for the API key.
const AuthCallbackPort = 9847

const callbackPage = `<!DOCTYPE html>
<html>
<head><title>drift · Last.fm</title></head>
<body style="font-family: sans-serif; text-align: center; padding: 50px;">
<h1>%s</h1>
<p>%s</p>
</body>
</html>`

// AuthServer receives the token Last.fm appends to the callback URL once
// the user approves the app.
type AuthServer struct {
	server   *http.Server
	listener net.Listener
	tokens   chan string
	done     chan struct{}
}

// StartAuthServer listens on addr, 127.0.0.1:AuthCallbackPort when empty.
func StartAuthServer(addr string) (*AuthServer, error) {
	if addr == "" {
		addr = fmt.Sprintf("127.0.0.1:%d", AuthCallbackPort)
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	as := &AuthServer{
		listener: listener,
		tokens:   make(chan string, 1),
		done:     make(chan struct{}),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", as.callback)
	as.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		defer close(as.done)
		_ = as.server.Serve(listener)
	}()
	return as, nil
}

func (as *AuthServer) callback(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if token == "" {
		fmt.Fprintf(w, callbackPage, "Authorization failed", "No token received, run drift lastfm login again.")
	} else {
		fmt.Fprintf(w, callbackPage, "Authorized", "You can close this window and return to drift.")
	}
	select {
	case as.tokens <- token:
	default:
	}
}

// CallbackURL is the URL to pass as the auth callback.
func (as *AuthServer) CallbackURL() string {
	return "http://" + as.listener.Addr().String() + "/callback"
}

// WaitToken returns the first callback token, or "" when timeout or ctx
// ends first.
func (as *AuthServer) WaitToken(ctx context.Context, timeout time.Duration) string {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case token := <-as.tokens:
		return token
	case <-timer.C:
	case <-ctx.Done():
	}
	return ""
}

// Shutdown stops the server and waits for it to exit.
func (as *AuthServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = as.server.Shutdown(ctx)
	<-as.done
}

// OpenBrowser opens url with the platform's default handler.
func OpenBrowser(url string) error {
	name, args, err := browserCommand(runtime.GOOS, url)
	if err != nil {
		return err
	}
	return exec.Command(name, args...).Start()
}

func browserCommand(goos, url string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", []string{url}, nil
	case "windows":
		return "cmd", []string{"/c", "start", url}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{url}, nil
	}
	return "", nil, fmt.Errorf("unsupported platform: %s", goos)
}
