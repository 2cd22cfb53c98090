package handler

import (
	"context"
	"net/http"
	"time"

	"watchparty/internal/pkg/resp"
)

// stateTimeout bounds how long /state waits for the event loop.
const stateTimeout = 2 * time.Second

// HandleState reports the current path, view and polling state.
func HandleState(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), stateTimeout)
		defer cancel()

		state, err := deps.App.Snapshot(ctx)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, state)
	}
}
