package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()
	return port
}

func TestCallbackServer_CapturesRedirect(t *testing.T) {
	port := freePort(t)
	server := NewCallbackServer(port)
	if err := server.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer func() {
		_ = server.Stop(context.Background())
	}()

	go func() {
		// Give the listener a moment to come up, then simulate the redirect.
		time.Sleep(50 * time.Millisecond)
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/auth/callback?code=ABC&state=S1", port))
		if err == nil {
			_ = resp.Body.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	callbackURL, err := server.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	want := fmt.Sprintf("http://127.0.0.1:%d/auth/callback?code=ABC&state=S1", port)
	if callbackURL != want {
		t.Errorf("callback URL = %q, want %q", callbackURL, want)
	}
}

func TestCallbackServer_WaitCancelled(t *testing.T) {
	port := freePort(t)
	server := NewCallbackServer(port)
	if err := server.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer func() {
		_ = server.Stop(context.Background())
	}()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := server.Wait(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}

func TestCallbackServer_PortInUse(t *testing.T) {
	port := freePort(t)
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		t.Fatalf("failed to occupy port: %v", err)
	}
	defer func() {
		_ = ln.Close()
	}()

	server := NewCallbackServer(port)
	if err = server.Start(); err == nil {
		_ = server.Stop(context.Background())
		t.Error("Start() on an occupied port succeeded, want error")
	}
}
