package dashboard

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/merchantpulse/merchantpulse-backend/api/responses"
	"github.com/merchantpulse/merchantpulse-backend/internal/dashboard/snapshot"
	apperrors "github.com/merchantpulse/merchantpulse-backend/pkg/errors"
	"github.com/merchantpulse/merchantpulse-backend/pkg/logger"
)

const streamHeartbeat = 15 * time.Second

// Stream pushes snapshot updates to the client as server-sent events.
// The current snapshot is sent immediately, then one event per change,
// with comment heartbeats keeping idle connections open.
func Stream(service Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(ctx, logg, w,
				apperrors.New(apperrors.CodeStream, "streaming unsupported by connection"))
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		// Updates are delivered from the store's notifier goroutine; the
		// buffered channel keeps a slow client from blocking it. A dropped
		// update is fine, the next one carries the full snapshot anyway.
		updates := make(chan snapshot.MetricSnapshot, 4)
		unsubscribe := service.Subscribe(func(snap snapshot.MetricSnapshot) {
			select {
			case updates <- snap:
			default:
			}
		})
		defer unsubscribe()

		if err := writeSnapshotEvent(w, service.Snapshot()); err != nil {
			return
		}
		flusher.Flush()

		heartbeat := time.NewTicker(streamHeartbeat)
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-updates:
				if err := writeSnapshotEvent(w, snap); err != nil {
					logg.Warn(ctx, "stream write failed, closing")
					return
				}
				flusher.Flush()
			case <-heartbeat.C:
				if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

func writeSnapshotEvent(w http.ResponseWriter, snap snapshot.MetricSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", payload)
	return err
}
