package app

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/relabs-tech/lsm9ds0_imu/internal/config"
	"github.com/relabs-tech/lsm9ds0_imu/internal/imu"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local tool, any origin
	},
}

// WebServer serves the latest sample over HTTP and streams new ones over a
// websocket.
type WebServer struct {
	cache     *SampleCache
	logger    *zap.SugaredLogger
	staticDir string
}

// NewWebServer returns a server reading from cache. Files under staticDir,
// when it exists, are served at /.
func NewWebServer(cache *SampleCache, staticDir string, logger *zap.SugaredLogger) *WebServer {
	return &WebServer{cache: cache, logger: logger, staticDir: staticDir}
}

// Handler returns the HTTP routes.
func (s *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/imu", s.handleLatest)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/ws", s.handleStream)
	if s.staticDir != "" {
		if fi, err := os.Stat(s.staticDir); err == nil && fi.IsDir() {
			mux.Handle("/", http.FileServer(http.Dir(s.staticDir)))
		}
	}
	return mux
}

func (s *WebServer) handleLatest(w http.ResponseWriter, r *http.Request) {
	sample, ok := s.cache.Latest()
	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Sample-Age-Ms", strconv.FormatInt(s.cache.Age().Milliseconds(), 10))
	if err := json.NewEncoder(w).Encode(sample); err != nil {
		s.logger.Warnw("json encode error", "error", err)
	}
}

func (s *WebServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.cache.Status()); err != nil {
		s.logger.Warnw("json encode error", "error", err)
	}
}

// handleStream sends the latest sample on connect and then every new one.
func (s *WebServer) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("websocket upgrade error", "error", err)
		return
	}
	defer conn.Close()

	samples, cancel := s.cache.Watch(16)
	defer cancel()

	// reader goroutine only notices the client going away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	if latest, ok := s.cache.Latest(); ok {
		if err := conn.WriteJSON(latest); err != nil {
			return
		}
	}

	for {
		select {
		case <-gone:
			return
		case sample := <-samples:
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(sample); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					s.logger.Warnw("websocket write error", "error", err)
				}
				return
			}
		}
	}
}

// RunWeb subscribes to the producer's topics and serves them until ctx is
// cancelled.
func RunWeb(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) error {
	cache := NewSampleCache()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDWeb, logger, nil)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := subscribeSamples(client, cfg.TopicIMU, logger, func(s imu.Sample) {
		cache.Store(s)
	}); err != nil {
		return err
	}
	if err := subscribeJSON(client, cfg.TopicStatus, logger, cache.SetStatus); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.WebServerPort),
		Handler:           NewWebServer(cache, "web", logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Infow("web server listening", "addr", srv.Addr)
	return serveUntilDone(ctx, srv, logger)
}

// serveUntilDone runs srv until ctx is cancelled and then shuts it down.
func serveUntilDone(ctx context.Context, srv *http.Server, logger *zap.SugaredLogger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("http shutdown", "error", err)
	}
	return nil
}
