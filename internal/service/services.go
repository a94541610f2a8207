// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daniil Levchenko

package service

import (
	"github.com/dlevch/simplenote/internal/adapter"
	"github.com/dlevch/simplenote/internal/config"
	"github.com/dlevch/simplenote/internal/logger"
	"github.com/dlevch/simplenote/internal/store"
)

type Services struct {
	Auth    AuthService
	Notes   NoteService
	SyncJob SyncJob
}

// NewServices wires the service layer in its fixed construction order: the
// auth service is built first and installed as the adapter's token source,
// so that by the time the note service issues its first request the 401
// refresh path is already in place.
func NewServices(localStore *store.Storages, serverAdapter adapter.ServerAdapter, cfg config.Sync, logger *logger.Logger) *Services {
	authSvc := NewAuthService(localStore, serverAdapter, logger)
	serverAdapter.SetTokenSource(authSvc)

	noteSvc := NewNoteService(localStore, serverAdapter, cfg.PageSize, logger)

	return &Services{
		Auth:    authSvc,
		Notes:   noteSvc,
		SyncJob: NewSyncJob(noteSvc, localStore.Session, cfg.Interval, logger),
	}
}
