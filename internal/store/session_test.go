// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daniil Levchenko

package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dlevch/simplenote/internal/logger"
	"github.com/dlevch/simplenote/models"
)

func newSessionMock(t *testing.T) (sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return mock, db
}

func sessionRows(pairs map[string]string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"key", "value"})
	for k, v := range pairs {
		rows.AddRow(k, v)
	}
	return rows
}

func newLoadedSessionRepo(t *testing.T, mock sqlmock.Sqlmock, db *sql.DB, pairs map[string]string) SessionRepository {
	t.Helper()

	mock.ExpectQuery("SELECT key, value").WillReturnRows(sessionRows(pairs))

	repo, err := NewSessionRepository(&DB{DB: db, logger: logger.Nop()}, logger.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return repo
}

func TestNewSessionRepository_LoadsPersistedSnapshot(t *testing.T) {
	mock, db := newSessionMock(t)
	defer db.Close()

	repo := newLoadedSessionRepo(t, mock, db, map[string]string{
		"access_token":  "acc",
		"refresh_token": "ref",
		"user_id":       "7",
		"username":      "alice",
	})

	session := repo.Session()
	if session.AccessToken != "acc" || session.RefreshToken != "ref" {
		t.Errorf("tokens not restored: %+v", session)
	}
	if session.UserID != 7 || session.Username != "alice" {
		t.Errorf("owner not restored: %+v", session)
	}
	if !session.IsLoggedIn() {
		t.Error("expected restored session to be logged in")
	}
}

func TestNewSessionRepository_EmptyTable(t *testing.T) {
	mock, db := newSessionMock(t)
	defer db.Close()

	repo := newLoadedSessionRepo(t, mock, db, nil)

	if repo.Session().IsLoggedIn() {
		t.Error("expected empty session")
	}
}

func TestNewSessionRepository_MalformedUserIDSkipped(t *testing.T) {
	mock, db := newSessionMock(t)
	defer db.Close()

	repo := newLoadedSessionRepo(t, mock, db, map[string]string{
		"access_token": "acc",
		"user_id":      "not-a-number",
	})

	session := repo.Session()
	if session.UserID != 0 {
		t.Errorf("expected user id to stay 0, got %d", session.UserID)
	}
	if session.AccessToken != "acc" {
		t.Errorf("valid fields must survive a malformed one: %+v", session)
	}
}

func TestNewSessionRepository_LoadError(t *testing.T) {
	mock, db := newSessionMock(t)
	defer db.Close()

	mock.ExpectQuery("SELECT key, value").WillReturnError(errors.New("corrupt"))

	if _, err := NewSessionRepository(&DB{DB: db, logger: logger.Nop()}, logger.Nop()); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestSaveTokens_PersistsAndPublishes(t *testing.T) {
	mock, db := newSessionMock(t)
	defer db.Close()

	repo := newLoadedSessionRepo(t, mock, db, map[string]string{"username": "alice"})

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO session").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO session").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	snapshots, cancel := repo.Watch()
	defer cancel()
	<-snapshots // replayed current snapshot

	if err := repo.SaveTokens(context.Background(), "acc", "ref"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	session := repo.Session()
	if session.AccessToken != "acc" || session.RefreshToken != "ref" {
		t.Errorf("snapshot not updated: %+v", session)
	}
	if session.Username != "alice" {
		t.Errorf("unrelated fields must survive: %+v", session)
	}

	select {
	case published := <-snapshots:
		if published.AccessToken != "acc" {
			t.Errorf("published stale snapshot: %+v", published)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot published after SaveTokens")
	}
}

func TestSaveTokens_RollsBackOnError(t *testing.T) {
	mock, db := newSessionMock(t)
	defer db.Close()

	repo := newLoadedSessionRepo(t, mock, db, nil)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO session").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	if err := repo.SaveTokens(context.Background(), "acc", "ref"); err == nil {
		t.Fatal("expected error, got nil")
	}

	// The observable snapshot must not change when the commit failed.
	if repo.Session().AccessToken != "" {
		t.Errorf("snapshot updated despite failed transaction: %+v", repo.Session())
	}
}

func TestSaveUserInfo(t *testing.T) {
	mock, db := newSessionMock(t)
	defer db.Close()

	repo := newLoadedSessionRepo(t, mock, db, map[string]string{"access_token": "acc"})

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO session").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO session").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.SaveUserInfo(context.Background(), 7, "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	session := repo.Session()
	if session.UserID != 7 || session.Username != "alice" {
		t.Errorf("owner not saved: %+v", session)
	}
	if session.AccessToken != "acc" {
		t.Errorf("tokens must survive owner update: %+v", session)
	}
}

func TestClearAll(t *testing.T) {
	mock, db := newSessionMock(t)
	defer db.Close()

	repo := newLoadedSessionRepo(t, mock, db, map[string]string{
		"access_token":  "acc",
		"refresh_token": "ref",
	})

	mock.ExpectExec("DELETE FROM session").
		WillReturnResult(sqlmock.NewResult(0, 2))

	if err := repo.ClearAll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.Session() != (models.AuthSession{}) {
		t.Errorf("expected empty snapshot, got %+v", repo.Session())
	}
}

func TestWatch_ReplaysCurrentSnapshot(t *testing.T) {
	mock, db := newSessionMock(t)
	defer db.Close()

	repo := newLoadedSessionRepo(t, mock, db, map[string]string{"access_token": "acc"})

	snapshots, cancel := repo.Watch()
	defer cancel()

	select {
	case snapshot := <-snapshots:
		if snapshot.AccessToken != "acc" {
			t.Errorf("expected replay of current snapshot, got %+v", snapshot)
		}
	case <-time.After(time.Second):
		t.Fatal("no replayed snapshot")
	}
}
