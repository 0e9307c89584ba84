package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/roteiro-app/travel-planner-api/internal/app/notify"
	"github.com/roteiro-app/travel-planner-api/internal/platform/scheduler"
)

// TriggerNotify runs the reminder dispatch now, under the same lock as the daily job.
func (s *Server) TriggerNotify(w http.ResponseWriter, r *http.Request) {
	if _, ok := caller(w, r); !ok {
		return
	}
	if s.Notify == nil || s.Jobs == nil {
		writeError(w, r, http.StatusServiceUnavailable, "notifications are not configured")
		return
	}
	var sum notify.Summary
	err := s.Jobs.RunOnce(r.Context(), notify.JobName, func(ctx context.Context) error {
		var err error
		sum, err = s.Notify.Dispatch(ctx)
		return err
	})
	if errors.Is(err, scheduler.ErrBusy) {
		writeError(w, r, http.StatusConflict, "notification run already in progress")
		return
	}
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
