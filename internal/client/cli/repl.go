package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Sync(ctx context.Context) error
	Resync(ctx context.Context) error
	Status(ctx context.Context) error
	List(ctx context.Context, table string) error
	AddLocation(ctx context.Context) error
	AddCrop(ctx context.Context) error
	AddRecord(ctx context.Context) error
	AddPhoto(ctx context.Context, recordID, path string) error
	Delete(ctx context.Context, table, id string) error
}

const (
	helpAnonymous = "Available commands: register, login, list, add-location, add-crop, add-record, add-photo, delete, status, exit"
	helpLoggedIn  = "Available commands: sync, resync, list, add-location, add-crop, add-record, add-photo, delete, status, logout, exit"
)

// runREPL reads commands from scanner until EOF or "exit".
//
// Local editing (list, add-*, delete, status) works without a session; sync
// needs one. Handlers report their own errors, so returned errors are only
// printed here and never stop the loop.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("gk %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpAnonymous)
			}

		case "register":
			err = a.Register(ctx)

		case "login":
			err = a.Login(ctx)

		case "logout":
			err = a.Logout(ctx)

		case "sync":
			if !a.isLoggedIn() {
				printlnFn("Please login first")
				continue
			}
			err = a.Sync(ctx)

		case "resync":
			if !a.isLoggedIn() {
				printlnFn("Please login first")
				continue
			}
			err = a.Resync(ctx)

		case "status":
			err = a.Status(ctx)

		case "l", "list":
			if len(args) != 1 {
				printlnFn("Usage: list <table>")
				continue
			}
			err = a.List(ctx, args[0])

		case "add-location":
			err = a.AddLocation(ctx)

		case "add-crop":
			err = a.AddCrop(ctx)

		case "add-record":
			err = a.AddRecord(ctx)

		case "add-photo":
			if len(args) != 2 {
				printlnFn("Usage: add-photo <record_id> <path>")
				continue
			}
			err = a.AddPhoto(ctx, args[0], args[1])

		case "delete":
			if len(args) != 2 {
				printlnFn("Usage: delete <table> <id>")
				continue
			}
			err = a.Delete(ctx, args[0], args[1])

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}
