/*
Package shell is the interactive command line of the client.

Each input line is one command. Commands that change what is shown go through the
App, which renders the result; the shell itself only prints command errors and help.
*/
package shell

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"watchparty/internal/app/chat"
	"watchparty/internal/pkg/errs"
	"watchparty/internal/pkg/logx"
)

// Controller is what the shell drives. *chat.App implements it.
type Controller interface {
	Open(ctx context.Context, path string) error
	Back(ctx context.Context) (bool, error)
	Forward(ctx context.Context) (bool, error)
	Reload(ctx context.Context) error
	Login(ctx context.Context, userName, password string) error
	Signup(ctx context.Context) error
	Logout(ctx context.Context) error
	ListRooms(ctx context.Context) error
	CreateRoom(ctx context.Context) (int, error)
	PostMessage(ctx context.Context, body string) error
	RenameRoom(ctx context.Context, name string) error
	UpdateUserName(ctx context.Context, name string) error
	UpdatePassword(ctx context.Context, password, repeat string) error
	Snapshot(ctx context.Context) (chat.State, error)
}

// Printer receives the shell's own output.
type Printer interface {
	Printf(format string, args ...any)
}

// errQuit ends the read loop.
var errQuit = errors.New("quit")

const helpText = `Commands:
  open <path>                 go to a path (/, /login, /profile, /room/<id>)
  back | forward | reload     move in history or resolve the current path again
  login <name> <password>     sign in
  signup                      create an anonymous account
  logout                      sign out
  rooms                       list rooms
  create                      create a room and open it
  say <text>                  post a message to the open room
  rename <name>               rename the open room
  name <new name>             change your user name
  password <new> <repeat>     change your password
  where                       show the current path, view and polling state
  help                        show this help
  quit                        exit
`

// Shell reads commands and dispatches them to a Controller.
type Shell struct {
	ctrl   Controller
	out    Printer
	logger zerolog.Logger
}

// New creates a Shell.
func New(ctrl Controller, out Printer) *Shell {
	return &Shell{
		ctrl:   ctrl,
		out:    out,
		logger: logx.Component("shell"),
	}
}

// Run reads commands from in until EOF, "quit" or ctx is done.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		err := s.Exec(ctx, scanner.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if errors.Is(err, chat.ErrStopped) {
			return nil
		}
		s.report(err)
	}

	return scanner.Err()
}

// Exec runs one command line.
func (s *Shell) Exec(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	s.logger.Debug().Str("command", cmd).Msg("Executing command.")

	switch strings.ToLower(cmd) {
	case "open", "go":
		if rest == "" {
			return usage("open <path>")
		}
		return s.ctrl.Open(ctx, rest)

	case "back":
		moved, err := s.ctrl.Back(ctx)
		if err == nil && !moved {
			s.out.Printf("Already at the first page.\n")
		}
		return err

	case "forward":
		moved, err := s.ctrl.Forward(ctx)
		if err == nil && !moved {
			s.out.Printf("Already at the last page.\n")
		}
		return err

	case "reload":
		return s.ctrl.Reload(ctx)

	case "login":
		if len(args) < 2 {
			return usage("login <name> <password>")
		}
		// Generated user names contain spaces; the password is the last word.
		password := args[len(args)-1]
		name := strings.Join(args[:len(args)-1], " ")
		return s.ctrl.Login(ctx, name, password)

	case "signup":
		return s.ctrl.Signup(ctx)

	case "logout":
		return s.ctrl.Logout(ctx)

	case "rooms":
		return s.ctrl.ListRooms(ctx)

	case "create":
		_, err := s.ctrl.CreateRoom(ctx)
		return err

	case "say":
		if rest == "" {
			return usage("say <text>")
		}
		return s.ctrl.PostMessage(ctx, rest)

	case "rename":
		if rest == "" {
			return usage("rename <name>")
		}
		return s.ctrl.RenameRoom(ctx, rest)

	case "name":
		if rest == "" {
			return usage("name <new name>")
		}
		return s.ctrl.UpdateUserName(ctx, rest)

	case "password":
		if len(args) != 2 {
			return usage("password <new> <repeat>")
		}
		return s.ctrl.UpdatePassword(ctx, args[0], args[1])

	case "where":
		st, err := s.ctrl.Snapshot(ctx)
		if err != nil {
			return err
		}
		s.out.Printf("path=%s view=%s logged_in=%t polling=%t", st.Path, st.View, st.LoggedIn, st.Polling)
		if st.Polling {
			s.out.Printf(" poll_room=%d", st.PollRoom)
		}
		s.out.Printf("\n")
		return nil

	case "help", "?":
		s.out.Printf("%s", helpText)
		return nil

	case "quit", "exit":
		return errQuit

	default:
		return errs.NewError(errs.ErrInvalidParams, errors.New("unknown command "+cmd))
	}
}

// report prints err unless it was already rendered by the App.
func (s *Shell) report(err error) {
	if err == nil || errs.Is(err, errs.ErrAuthenticationFailed) {
		return
	}

	var usageErr usageError
	if errors.As(err, &usageErr) {
		s.out.Printf("usage: %s\n", string(usageErr))
		return
	}

	if errs.Is(err, errs.ErrInvalidParams) {
		var ce *errs.CustomError
		if errors.As(err, &ce) && ce.Cause != nil {
			s.out.Printf("! %v. Type `help` for the list of commands.\n", ce.Cause)
			return
		}
	}

	s.out.Printf("! %s\n", errs.UserMessage(err))
}

type usageError string

func (u usageError) Error() string { return "usage: " + string(u) }

func usage(s string) error { return usageError(s) }
