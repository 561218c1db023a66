package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Status(ctx context.Context) error
	Submit(ctx context.Context, key string) error
	Name(ctx context.Context, name string) error
	Avatar(ctx context.Context, path string) error
	History(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: login, help, exit"
	helpLoggedIn  = "Available commands: status, submit <key>, name <display name>, avatar <file|->, history, logout, help, exit"
)

// runREPL reads commands from reader until EOF or exit/quit and writes
// prompts and messages to w. Handler errors are printed and the loop
// continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	say := func(args ...any) { fmt.Fprintln(w, args...) }

	for {
		fmt.Fprintf(w, "bounty %s> ", statusFn())

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), cmd))

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				say(helpLoggedIn)
			} else {
				say(helpLoggedOut)
			}

		case "login":
			cmdErr = a.Login(ctx)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "status":
			cmdErr = a.Status(ctx)

		case "submit":
			if rest == "" {
				say("Usage: submit <key>")
				continue
			}
			cmdErr = a.Submit(ctx, rest)

		case "name":
			if rest == "" {
				say("Usage: name <display name>")
				continue
			}
			cmdErr = a.Name(ctx, rest)

		case "avatar":
			if rest == "" {
				say("Usage: avatar <file> | avatar -")
				continue
			}
			cmdErr = a.Avatar(ctx, rest)

		case "history":
			cmdErr = a.History(ctx)

		case "exit", "quit":
			say("Bye!")
			return

		default:
			say("Unknown command:", cmd)
		}

		if cmdErr != nil {
			say("Error:", describe(cmdErr))
		}
	}
}
