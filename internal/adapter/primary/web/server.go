package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"pc-volume-bridge/internal/domain"
	"pc-volume-bridge/internal/logging"
	"pc-volume-bridge/internal/usecase"
)

// Server is a primary adapter that exposes a small HTTP API + UI.
// It depends on the use case (primary port).
type Server struct {
	usecase usecase.VolumeUseCase
	server  *http.Server
	log     *logging.Logger
}

// NewServer creates the HTTP server bound to addr.
func NewServer(uc usecase.VolumeUseCase, addr string, log *logging.Logger) *Server {
	mux := http.NewServeMux()
	srv := &Server{usecase: uc, log: log.With("http")}
	mux.HandleFunc("/api/state", srv.handleState)
	mux.HandleFunc("/api/adjust", srv.handleAdjust)
	mux.HandleFunc("/", srv.handleRoot)

	srv.server = &http.Server{
		Addr:              addr,
		Handler:           srv.loggingMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start blocks and serves HTTP traffic.
func (s *Server) Start() error {
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>PC Volume Bridge</title>
    <style>
        body { font-family: sans-serif; max-width: 600px; margin: 50px auto; padding: 20px; }
        h1 { color: #333; }
        .info { background: #f0f0f0; padding: 15px; border-radius: 5px; margin: 20px 0; }
        button { background: #007bff; color: white; border: none; padding: 10px 20px; border-radius: 5px; cursor: pointer; }
        button:hover { background: #0056b3; }
        input { padding: 8px; margin: 5px; }
        label { display: inline-block; width: 150px; }
    </style>
</head>
<body>
    <h1>PC Volume Bridge</h1>
    <div class="info" id="status">Loading...</div>
    <div>
        <label>Volume (0-100):</label>
        <input type="range" id="volume" min="0" max="100" onchange="setState({volume: parseInt(this.value)})">
    </div>
    <div>
        <label>Muted:</label>
        <input type="checkbox" id="muted" onchange="setState({muted: this.checked})">
    </div>
    <div style="margin-top: 20px;">
        <button onclick="adjust(-5)">-5%</button>
        <button onclick="adjust(5)">+5%</button>
    </div>
    <script>
        function render(data) {
            document.getElementById('volume').value = data.volume;
            document.getElementById('muted').checked = data.muted;
            document.getElementById('status').innerHTML = 'Volume: ' + data.volume + '%' + (data.muted ? ' (muted)' : '');
        }

        async function loadStatus() {
            const res = await fetch('/api/state');
            if (res.ok) render(await res.json());
        }

        async function setState(payload) {
            await fetch('/api/state', {
                method: 'PUT',
                headers: {'Content-Type': 'application/json'},
                body: JSON.stringify(payload)
            });
            await loadStatus();
        }

        async function adjust(delta) {
            await fetch('/api/adjust', {
                method: 'POST',
                headers: {'Content-Type': 'application/json'},
                body: JSON.stringify({delta: delta})
            });
            await loadStatus();
        }

        loadStatus();
        setInterval(loadStatus, 3000);
    </script>
</body>
</html>`))
}

type stateView struct {
	Volume int  `json:"volume"`
	Muted  bool `json:"muted"`
}

type statePayload struct {
	Volume *int  `json:"volume"`
	Muted  *bool `json:"muted"`
}

type adjustPayload struct {
	Delta int `json:"delta"`
}

type adjustView struct {
	Target int `json:"target"`
	stateView
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.respondState(w, r, http.StatusOK)
	case http.MethodPut:
		var req statePayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		if req.Volume == nil && req.Muted == nil {
			http.Error(w, "volume or muted is required", http.StatusBadRequest)
			return
		}
		if req.Volume != nil {
			if err := s.usecase.SetVolume(r.Context(), *req.Volume); err != nil {
				s.respondError(w, err)
				return
			}
		}
		if req.Muted != nil {
			if err := s.usecase.SetMuted(r.Context(), *req.Muted); err != nil {
				s.respondError(w, err)
				return
			}
		}
		s.respondState(w, r, http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleAdjust(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req adjustPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Delta == 0 || req.Delta < -100 || req.Delta > 100 {
		http.Error(w, "delta must be between -100 and 100 and not zero", http.StatusBadRequest)
		return
	}
	target, err := s.usecase.Adjust(r.Context(), req.Delta)
	if err != nil {
		s.respondError(w, err)
		return
	}
	volume, muted, err := s.usecase.State(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, adjustView{Target: target, stateView: stateView{Volume: volume, Muted: muted}})
}

func (s *Server) respondState(w http.ResponseWriter, r *http.Request, status int) {
	volume, muted, err := s.usecase.State(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, status, stateView{Volume: volume, Muted: muted})
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidConfig):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrAudioIO):
		s.log.Errorf("%v", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		s.log.Errorf("%v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Warnf("encode JSON: %v", err)
	}
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debugf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
