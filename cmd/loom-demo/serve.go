package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/loomui/loom/pkg/storage"
)

func serveCmd() *cobra.Command {
	var (
		addr string
		ttl  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the demo server",
		Long: `Start the demo server.

Endpoints:
  GET  /healthz          liveness probe
  GET  /metrics          prometheus metrics for storage operations
  GET  /state/{key}      read a stored value
  PUT  /state/{key}      write a value and broadcast it to live clients
  GET  /live             WebSocket; receives every state change as JSON`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, ttl)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "Address to listen on")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "TTL for stored values (0 = no expiry)")

	return cmd
}

// stateChange is the message broadcast to live clients.
type stateChange struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// hub fans state changes out to connected WebSocket clients.
type hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan stateChange
	logger  *slog.Logger
}

func newHub(logger *slog.Logger) *hub {
	return &hub{
		clients: make(map[*websocket.Conn]chan stateChange),
		logger:  logger,
	}
}

func (h *hub) add(conn *websocket.Conn) chan stateChange {
	ch := make(chan stateChange, 16)
	h.mu.Lock()
	h.clients[conn] = ch
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("client connected", "clients", n)
	return ch
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if ch, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(ch)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("client disconnected", "clients", n)
}

func (h *hub) broadcast(change stateChange) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		select {
		case ch <- change:
		default:
			// Slow client; drop it rather than block everyone.
			delete(h.clients, conn)
			close(ch)
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		delete(h.clients, conn)
		close(ch)
		conn.Close()
	}
}

func runServe(addr string, ttl time.Duration) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	registry := prometheus.NewRegistry()
	backend := storage.Trace(storage.Instrument(
		storage.NewMemoryBackend(),
		storage.WithRegistry(registry),
	))
	defer backend.Close()

	h := newHub(logger)
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Get("/state/{key}", func(w http.ResponseWriter, req *http.Request) {
		key := chi.URLParam(req, "key")
		data, err := backend.Get(req.Context(), key)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if data == nil {
			http.NotFound(w, req)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	r.Put("/state/{key}", func(w http.ResponseWriter, req *http.Request) {
		key := chi.URLParam(req, "key")
		body, err := io.ReadAll(io.LimitReader(req.Body, 1<<20))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if !json.Valid(body) {
			http.Error(w, "body must be JSON", http.StatusBadRequest)
			return
		}
		if err := backend.Set(req.Context(), key, body, ttl); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.broadcast(stateChange{Key: key, Value: body, UpdatedAt: time.Now()})
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/live", func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", "error", err)
			return
		}
		ch := h.add(conn)
		defer h.remove(conn)
		defer conn.Close()

		// Writer: one goroutine per connection drains its channel.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for change := range ch {
				if err := conn.WriteJSON(change); err != nil {
					return
				}
			}
		}()

		// Reader: clients may push changes of their own.
		for {
			var change stateChange
			if err := conn.ReadJSON(&change); err != nil {
				break
			}
			if change.Key == "" || !json.Valid(change.Value) {
				continue
			}
			change.UpdatedAt = time.Now()
			if err := backend.Set(req.Context(), change.Key, change.Value, ttl); err != nil {
				logger.Warn("store failed", "key", change.Key, "error", err)
				continue
			}
			h.broadcast(change)
		}
		<-done
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	h.closeAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
