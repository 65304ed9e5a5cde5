package main

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/rs/zerolog"

	"github.com/fieldwork/backoffice-api/internal/pkg/config"
)

type fakeServer struct {
	startErr error
	stopped  chan struct{}
	shutdown bool
}

func (f *fakeServer) Start(string) error {
	if f.startErr != nil {
		return f.startErr
	}
	<-f.stopped
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(context.Context) error {
	f.shutdown = true
	close(f.stopped)
	return nil
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	srv := &fakeServer{stopped: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := serve(ctx, srv, ":0", zerolog.Nop()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !srv.shutdown {
		t.Fatalf("expected Shutdown to be called")
	}
}

func TestServe_StartFailure(t *testing.T) {
	boom := errors.New("address in use")
	srv := &fakeServer{startErr: boom, stopped: make(chan struct{})}

	err := serve(context.Background(), srv, ":0", zerolog.Nop())
	if !errors.Is(err, boom) {
		t.Fatalf("expected start error, got %v", err)
	}
}

func TestLoggerOptions_ProductionIsJSON(t *testing.T) {
	cases := []struct {
		env        string
		pretty     bool
		wantPretty bool
	}{
		{"development", true, true},
		{"development", false, false},
		{"production", true, false},
	}
	for _, tc := range cases {
		opts := loggerOptions(&config.Config{Env: tc.env, LogPretty: tc.pretty, LogLevel: "debug"})
		if opts.Pretty != tc.wantPretty {
			t.Errorf("env=%s pretty=%v: got Pretty=%v", tc.env, tc.pretty, opts.Pretty)
		}
		if opts.Env != tc.env || opts.Level != "debug" || opts.Service == "" {
			t.Errorf("unexpected options %+v", opts)
		}
	}
}
