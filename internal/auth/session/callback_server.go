package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/clipvault/clipvault/internal/constant"
)

// CallbackServer is the short-lived loopback HTTP listener that receives the
// OAuth redirect. It captures the full callback URL and hands it back to the
// login flow; parsing and state validation happen in the session manager.
type CallbackServer struct {
	server     *http.Server
	port       int
	resultChan chan string
	errorChan  chan error
	mu         sync.Mutex
	running    bool
}

// NewCallbackServer creates a callback server listening on the given
// loopback port.
func NewCallbackServer(port int) *CallbackServer {
	return &CallbackServer{
		port:       port,
		resultChan: make(chan string, 1),
		errorChan:  make(chan error, 1),
	}
}

// Start begins listening for the OAuth redirect.
func (s *CallbackServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("callback server is already running")
	}
	if !s.portAvailable() {
		return fmt.Errorf("port %d is already in use", s.port)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(constant.CallbackPath, s.handleCallback)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	s.running = true

	srv := s.server
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errorChan <- fmt.Errorf("callback server failed: %w", err)
		}
	}()

	return nil
}

// Stop gracefully shuts the listener down.
func (s *CallbackServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.server == nil {
		return nil
	}

	log.Debug("stopping OAuth callback server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := s.server.Shutdown(shutdownCtx)
	s.running = false
	s.server = nil
	return err
}

// Wait blocks until the redirect arrives, the server fails, or ctx is done.
// Context cancellation is a user cancellation, not an error.
func (s *CallbackServer) Wait(ctx context.Context) (string, error) {
	select {
	case callbackURL := <-s.resultChan:
		return callbackURL, nil
	case err := <-s.errorChan:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// handleCallback captures the redirect URL and answers with a minimal page
// the user can close.
func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if query.Get("error") != "" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = fmt.Fprint(w, "<html><body><h2>Login failed</h2><p>You can close this window and return to clipvault.</p></body></html>")
	} else {
		_, _ = fmt.Fprint(w, "<html><body><h2>Login complete</h2><p>You can close this window and return to clipvault.</p></body></html>")
	}

	callbackURL := fmt.Sprintf("http://127.0.0.1:%d%s", s.port, r.URL.String())
	select {
	case s.resultChan <- callbackURL:
	default:
		// A second hit on the callback is ignored; the first result won.
	}
}

func (s *CallbackServer) portAvailable() bool {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", s.port))
	if err != nil {
		return false
	}
	_ = ln.Close()
	return true
}
