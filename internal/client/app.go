// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daniil Levchenko

package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/dlevch/simplenote/internal/logger"
	"github.com/dlevch/simplenote/internal/service"
	"github.com/dlevch/simplenote/models"
)

const timeLayout = "2006-01-02 15:04"

type App struct {
	services *service.Services
	logger   *logger.Logger

	in  *bufio.Scanner
	out io.Writer
}

// NewApp builds the interactive client around the given streams. Production
// callers pass os.Stdin/os.Stdout; tests pass buffers.
func NewApp(services *service.Services, in io.Reader, out io.Writer, log *logger.Logger) *App {
	return &App{
		services: services,
		logger:   log,
		in:       bufio.NewScanner(in),
		out:      out,
	}
}

// Run implements Client. It restores a persisted session, performs an
// initial sync, starts the background sync job, and enters the command loop
// until quit or EOF.
func (a *App) Run() error {
	ctx := context.Background()

	a.restoreSession(ctx)

	a.services.SyncJob.Start(ctx)
	defer a.services.SyncJob.Stop()

	loggedIn, cancelWatch := a.services.Auth.WatchLoggedIn(ctx)
	defer cancelWatch()
	go a.watchSessionLoss(loggedIn)

	a.printf("type 'help' for the command list\n")

	for {
		a.printf("> ")
		line, ok := a.readLine()
		if !ok {
			return nil
		}
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		command, args := fields[0], fields[1:]

		if command == "quit" || command == "exit" {
			return nil
		}
		a.dispatch(ctx, command, args)
	}
}

func (a *App) restoreSession(ctx context.Context) {
	err := a.services.Auth.RestoreSession(ctx)
	switch {
	case err == nil:
		a.printf("logged in as %s\n", a.services.Auth.Session().Username)
		if syncErr := a.services.Notes.RefreshNotes(ctx); syncErr != nil {
			a.printf("offline: sync skipped (%v)\n", syncErr)
		}
	case errors.Is(err, service.ErrNotLoggedIn):
		a.printf("not logged in\n")
	case errors.Is(err, service.ErrReauthRequired):
		a.printf("session expired, please log in again\n")
	default:
		a.logger.Warn().Err(err).Msg("session restore failed")
		a.printf("could not restore session: %v\n", err)
	}
}

// watchSessionLoss announces a forced logout, e.g. when a background refresh
// is rejected by the server. The first emission is the replayed current
// state and carries no transition.
func (a *App) watchSessionLoss(loggedIn <-chan bool) {
	first := true
	for state := range loggedIn {
		if first {
			first = false
			continue
		}
		if !state {
			a.printf("\nsession expired, please log in again\n> ")
		}
	}
}

func (a *App) dispatch(ctx context.Context, command string, args []string) {
	var err error

	switch command {
	case "help":
		a.printHelp()
	case "register":
		err = a.cmdRegister(ctx)
	case "login":
		err = a.cmdLogin(ctx)
	case "logout":
		err = a.services.Auth.Logout(ctx)
	case "whoami":
		err = a.cmdWhoami(ctx)
	case "passwd":
		err = a.cmdChangePassword(ctx)
	case "list":
		err = a.cmdList(ctx)
	case "search":
		err = a.cmdSearch(ctx, args)
	case "show":
		err = a.cmdShow(ctx, args)
	case "add":
		err = a.cmdAdd(ctx)
	case "edit":
		err = a.cmdEdit(ctx, args)
	case "retitle":
		err = a.cmdRetitle(ctx, args)
	case "rm":
		err = a.cmdRemove(ctx, args)
	case "sync":
		err = a.services.Notes.RefreshNotes(ctx)
	default:
		a.printf("unknown command %q, type 'help'\n", command)
	}

	if err != nil {
		a.printf("error: %v\n", err)
	}
}

func (a *App) cmdRegister(ctx context.Context) error {
	req := models.RegisterRequest{}
	req.Username = a.prompt("username: ")
	req.Email = a.prompt("email: ")
	req.FirstName = a.prompt("first name: ")
	req.LastName = a.prompt("last name: ")
	req.Password = a.promptPassword("password: ")

	resp, err := a.services.Auth.Register(ctx, req)
	if err != nil {
		return err
	}

	a.printf("registered %s, now log in\n", resp.Username)
	return nil
}

func (a *App) cmdLogin(ctx context.Context) error {
	username := a.prompt("username: ")
	password := a.promptPassword("password: ")

	if err := a.services.Auth.Login(ctx, username, password); err != nil {
		return err
	}
	a.printf("logged in as %s\n", a.services.Auth.Session().Username)

	if err := a.services.Notes.RefreshNotes(ctx); err != nil {
		a.printf("offline: sync skipped (%v)\n", err)
	}
	return nil
}

func (a *App) cmdWhoami(ctx context.Context) error {
	user, err := a.services.Auth.CurrentUser(ctx)
	if err != nil {
		return err
	}

	a.printf("%s (%s %s, %s)\n", user.Username, user.FirstName, user.LastName, user.Email)
	return nil
}

func (a *App) cmdChangePassword(ctx context.Context) error {
	oldPassword := a.promptPassword("current password: ")
	newPassword := a.promptPassword("new password: ")

	if err := a.services.Auth.ChangePassword(ctx, oldPassword, newPassword); err != nil {
		return err
	}

	a.printf("password changed\n")
	return nil
}

func (a *App) cmdList(ctx context.Context) error {
	notes, err := a.services.Notes.GetAllNotes(ctx)
	if err != nil {
		return err
	}

	a.printNoteList(notes)
	return nil
}

func (a *App) cmdSearch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: search <query>")
	}

	notes, err := a.services.Notes.SearchNotes(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	a.printNoteList(notes)
	return nil
}

func (a *App) cmdShow(ctx context.Context, args []string) error {
	id, err := parseID(args, "show")
	if err != nil {
		return err
	}

	note, err := a.services.Notes.GetNote(ctx, id)
	if err != nil {
		return err
	}

	a.printf("#%d %s\n", note.ID, note.Title)
	if note.CreatorUsername != "" {
		a.printf("by %s (%s)\n", note.CreatorName, note.CreatorUsername)
	}
	a.printf("updated %s\n\n%s\n", note.UpdatedAt.Local().Format(timeLayout), note.Description)
	return nil
}

func (a *App) cmdAdd(ctx context.Context) error {
	title := a.prompt("title: ")
	description := a.prompt("text: ")

	note, err := a.services.Notes.CreateNote(ctx, title, description)
	if err != nil {
		return err
	}

	if note.IsLocalOnly() {
		a.printf("saved offline as #%d, will upload on next sync\n", note.ID)
	} else {
		a.printf("created #%d\n", note.ID)
	}
	return nil
}

func (a *App) cmdEdit(ctx context.Context, args []string) error {
	id, err := parseID(args, "edit")
	if err != nil {
		return err
	}

	title := a.prompt("title: ")
	description := a.prompt("text: ")

	note, err := a.services.Notes.UpdateNote(ctx, id, title, description)
	if err != nil {
		return err
	}

	a.printSaved(note)
	return nil
}

func (a *App) cmdRetitle(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: retitle <id> <title>")
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("bad note id %q", args[0])
	}

	note, err := a.services.Notes.RetitleNote(ctx, id, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}

	a.printSaved(note)
	return nil
}

func (a *App) cmdRemove(ctx context.Context, args []string) error {
	id, err := parseID(args, "rm")
	if err != nil {
		return err
	}

	if err = a.services.Notes.DeleteNote(ctx, id); err != nil {
		return err
	}

	a.printf("deleted #%d\n", id)
	return nil
}

func (a *App) printSaved(note models.Note) {
	if note.IsSynced {
		a.printf("saved #%d\n", note.ID)
	} else {
		a.printf("saved #%d locally, will upload on next sync\n", note.ID)
	}
}

func (a *App) printNoteList(notes []models.Note) {
	if len(notes) == 0 {
		a.printf("no notes\n")
		return
	}

	for _, note := range notes {
		marker := " "
		if !note.IsSynced {
			marker = "*"
		}
		a.printf("%s %6d  %s  %s\n", marker, note.ID, note.UpdatedAt.Local().Format(timeLayout), note.Title)
	}
}

func (a *App) printHelp() {
	a.printf(`commands:
  register            create a new account
  login               log in
  logout              log out (local notes are kept)
  whoami              show the current user
  passwd              change the account password
  list                list all notes
  search <query>      search notes by title or text
  show <id>           show one note
  add                 create a note
  edit <id>           replace title and text of a note
  retitle <id> <t>    change only the title
  rm <id>             delete a note
  sync                push local changes and pull the server state
  quit                exit
`)
}

func (a *App) prompt(label string) string {
	a.printf("%s", label)
	line, _ := a.readLine()
	return strings.TrimSpace(line)
}

// promptPassword reads without echo when attached to a terminal and falls
// back to a plain line read otherwise (tests, pipes).
func (a *App) promptPassword(label string) string {
	a.printf("%s", label)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		password, err := term.ReadPassword(fd)
		a.printf("\n")
		if err == nil {
			return string(password)
		}
		a.logger.Warn().Err(err).Msg("terminal password read failed, falling back to plain read")
	}

	line, _ := a.readLine()
	return strings.TrimSpace(line)
}

func (a *App) readLine() (string, bool) {
	if !a.in.Scan() {
		return "", false
	}
	return a.in.Text(), true
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func parseID(args []string, usage string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: %s <id>", usage)
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad note id %q", args[0])
	}

	return id, nil
}
