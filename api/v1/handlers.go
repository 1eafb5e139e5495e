package v1

import (
	"bufio"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/TRIBUI106/czGDriveDownloader/internal/data"
	"github.com/TRIBUI106/czGDriveDownloader/internal/service"
)

type BatchHandler struct {
	l   *slog.Logger
	svc service.Batch
}

type submitBody struct {
	Links []string `json:"links"`
}

type rwLogger struct {
	http.ResponseWriter
	status int
	bytes  int
	err    error
}

func (w *rwLogger) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *rwLogger) SetErr(err error) {
	w.err = err
}

func (w *rwLogger) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Hijack exposes the underlying Hijacker so the events endpoint can upgrade
// to a WebSocket through the logging wrapper.
func (w *rwLogger) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	return hj.Hijack()
}

func (w *rwLogger) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

type errorSetter interface {
	SetErr(error)
}

func markErr(w http.ResponseWriter, err error) {
	if es, ok := w.(errorSetter); ok {
		es.SetErr(err)
	}
}

// context keys
type ctxKeySubmit struct{}

func NewBatchHandler(l *slog.Logger, svc service.Batch) *BatchHandler {
	return &BatchHandler{l: l, svc: svc}
}

// AddBatch accepts a set of share links and responds 202 with the batch
// snapshot; the download work continues in the background.
func (h *BatchHandler) AddBatch(w http.ResponseWriter, r *http.Request) {
	v := r.Context().Value(ctxKeySubmit{})
	body, ok := v.(submitBody)
	if !ok {
		markErr(w, ErrBatchCtx)
		http.Error(w, ErrBatchCtx.Error(), http.StatusInternalServerError)
		return
	}

	b, err := h.svc.Submit(r.Context(), body.Links)
	if err != nil {
		if errors.Is(err, data.ErrNoLinks) {
			markErr(w, err)
			http.Error(w, ErrLinksRequired.Error(), http.StatusBadRequest)
			return
		}
		markErr(w, err)
		http.Error(w, "failed to submit batch", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = b.ToJSON(w)
}

func (h *BatchHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.svc.List(r.Context())
	if err != nil {
		markErr(w, err)
		http.Error(w, "failed to list batches", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = batches.ToJSON(w)
}

func (h *BatchHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	b, err := h.svc.Get(r.Context(), id)
	if err != nil {
		markErr(w, err)
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = b.ToJSON(w)
}

func (h *BatchHandler) ListBatchTasks(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	tasks, err := h.svc.Tasks(r.Context(), id)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			markErr(w, err)
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		markErr(w, err)
		http.Error(w, "failed to list tasks", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = tasks.ToJSON(w)
}

func (h *BatchHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.svc.AllTasks(r.Context())
	if err != nil {
		markErr(w, err)
		http.Error(w, "failed to list tasks", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = tasks.ToJSON(w)
}

func (h *BatchHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	task, err := h.svc.GetTask(r.Context(), id)
	if err != nil {
		markErr(w, err)
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = task.ToJSON(w)
}

// DeleteTask removes a finished task from history. The files it produced are
// left on disk.
func (h *BatchHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.svc.DeleteTask(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, data.ErrNotFound):
			markErr(w, err)
			http.Error(w, "Not Found", http.StatusNotFound)
		case errors.Is(err, data.ErrBadStatus):
			markErr(w, err)
			http.Error(w, "task is not finished", http.StatusConflict)
		default:
			markErr(w, err)
			http.Error(w, "failed to delete task", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BatchHandler) Log(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()
		rw := &rwLogger{ResponseWriter: w}
		next.ServeHTTP(rw, r)
		if rw.status == 0 {
			rw.status = http.StatusOK
		}
		timeElapsed := time.Since(startTime)
		hErr := rw.err
		if hErr != nil {
			h.l.Error(hErr.Error(),
				"method", r.Method,
				"url", r.URL.Path,
				"status", rw.status,
				"remote", r.RemoteAddr,
				"ua", r.UserAgent(),
				"dur_ms", timeElapsed.Milliseconds(),
				"bytes", rw.bytes)
			return
		}

		h.l.Info("", "method", r.Method,
			"url", r.URL.Path,
			"status", rw.status,
			"remote", r.RemoteAddr,
			"ua", r.UserAgent(),
			"dur_ms", timeElapsed.Milliseconds(),
			"bytes", rw.bytes)
	})
}
