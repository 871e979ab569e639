package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"village-registry-system/pkg/middleware"
	"village-registry-system/pkg/response"
	"village-registry-system/services/registry-service/models"
	"village-registry-system/services/registry-service/session"
)

// HeartbeatInterval keeps idle event streams open through proxies.
var HeartbeatInterval = 25 * time.Second

// streamSnapshots writes every snapshot obs delivers as a server-sent
// "snapshot" event until the client goes away or obs ends.
func streamSnapshots[T models.Record](h *Handler, w http.ResponseWriter, r *http.Request, obs *session.Observer[T]) {
	defer obs.Close()

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.Error(w, http.StatusInternalServerError, "Streaming unsupported", "")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: connected\ndata: %s\n\n", `{"type":"connected","message":"Connection established"}`)
	flusher.Flush()

	traceID := middleware.GetTraceID(r)
	h.log.Info("[INFO] stream opened", zap.String("trace_id", traceID), zap.String("path", r.URL.Path))
	defer h.log.Info("[INFO] stream closed", zap.String("trace_id", traceID))

	heartbeat := time.NewTicker(HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case snap, ok := <-obs.Updates():
			if !ok {
				if err := obs.Err(); err != nil {
					data, _ := json.Marshal(map[string]string{"message": session.Message(err)})
					fmt.Fprintf(w, "event: error\ndata: %s\n\n", data)
					flusher.Flush()
				}
				return
			}
			data, err := json.Marshal(snap)
			if err != nil {
				h.log.Warn("[WARN] failed to encode snapshot", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
