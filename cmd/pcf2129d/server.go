package main

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/netutil"

	"github.com/ajanata/rtcdrivers/mqttpub"
)

// Status is the reply to GET /status.
type Status struct {
	State       string        `json:"state"`
	Interrupted bool          `json:"interrupted"`
	Ticks       uint64        `json:"ticks"`
	Last        *mqttpub.Tick `json:"last,omitempty"`
	Error       string        `json:"error,omitempty"`
}

func (d *daemon) status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()

	st := Status{
		State:       d.dev.State().String(),
		Interrupted: d.dev.IsInterrupted(),
		Ticks:       d.ticks,
	}
	if d.last != nil {
		tick := mqttpub.NewTick(*d.last)
		st.Last = &tick
	}
	if d.lastErr != nil {
		st.Error = d.lastErr.Error()
	}
	return st
}

func (d *daemon) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		err := json.NewEncoder(w).Encode(d.status())
		if err != nil {
			d.msg.Printf("could not encode status: %+v", err)
		}
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// serve runs an HTTP server on ln, accepting at most maxConns connections
// at once, until ctx is done.
func serve(ctx context.Context, ln net.Listener, maxConns int, h http.Handler) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	err := srv.Serve(netutil.LimitListener(ln, maxConns))
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
