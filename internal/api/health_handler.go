package api

import (
	"context"
	"net/http"

	"judgecore/internal/models"
	"judgecore/pkg/types"
)

// WorkerMonitor reports on remote workers; only the redis execution mode has one.
type WorkerMonitor interface {
	GetActiveWorkers(ctx context.Context) ([]models.WorkerStatus, error)
	GetQueueLength(ctx context.Context) (int64, error)
}

type HealthResponse struct {
	Status        string `json:"status"`
	ActiveWorkers *int   `json:"active_workers,omitempty"`
	QueueLength   *int64 `json:"queue_length,omitempty"`
}

func healthHandler(monitor WorkerMonitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{Status: "OK"}
		if monitor != nil {
			workers, err := monitor.GetActiveWorkers(r.Context())
			if err != nil {
				RespondWithError(w, r, types.External(err, "failed to list workers"))
				return
			}
			length, err := monitor.GetQueueLength(r.Context())
			if err != nil {
				RespondWithError(w, r, types.External(err, "failed to read queue length"))
				return
			}
			active := len(workers)
			resp.ActiveWorkers = &active
			resp.QueueLength = &length
		}
		RespondWithJSON(w, http.StatusOK, resp)
	}
}
