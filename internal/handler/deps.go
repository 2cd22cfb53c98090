package handler

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"watchparty/internal/app/chat"
	"watchparty/internal/configs"
)

// StateSource reports the client state. *chat.App implements it.
type StateSource interface {
	Snapshot(ctx context.Context) (chat.State, error)
}

type AppDeps struct {
	App      StateSource
	Config   *configs.AppConfig
	Gatherer prometheus.Gatherer
}
