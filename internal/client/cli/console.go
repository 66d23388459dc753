package cli

import (
	"context"
	"errors"
	"io"
	"strings"
)

const consoleHelp = `Commands:
  get <db> <value>                 Show a value
  set <db> <value> <text> [type]   Write a value (type: auto, string, int, float, bool, json)
  delete <db>                      Delete a database on every peer
  dbs                              List open databases
  status                           Show connection state
  help                             Show this help
  quit                             Leave the console`

// runConsole reads commands until quit or end of input. Updates from other
// peers keep arriving while it waits for input.
func (c *Cli) runConsole(ctx context.Context) error {
	c.io.Println("syncstore console, type help for commands")
	c.keepConnected(ctx)
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := c.io.ReadInput("> ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		quit, err := c.execute(ctx, strings.Fields(line))
		if err != nil {
			c.io.Printf("Error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

func (c *Cli) execute(ctx context.Context, args []string) (bool, error) {
	if len(args) == 0 {
		return false, nil
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "get":
		if len(rest) != 2 {
			return false, errors.New("usage: get <db> <value>")
		}
		return false, c.runGet(ctx, rest[0], rest[1])
	case "set":
		if len(rest) < 3 || len(rest) > 4 {
			return false, errors.New("usage: set <db> <value> <text> [type]")
		}
		typ := TypeAuto
		if len(rest) == 4 {
			typ = rest[3]
		}
		return false, c.runSet(ctx, rest[0], rest[1], rest[2], typ)
	case "delete":
		if len(rest) != 1 {
			return false, errors.New("usage: delete <db>")
		}
		return false, c.runDelete(ctx, rest[0])
	case "dbs":
		for _, id := range c.orch.Databases() {
			c.io.Println(id)
		}
	case "status":
		c.printStatus()
	case "help":
		c.io.Println(consoleHelp)
	case "quit", "exit":
		return true, nil
	default:
		return false, errors.New("unknown command " + cmd + ", type help")
	}
	return false, nil
}

func (c *Cli) printStatus() {
	if !c.orch.Connected() {
		c.io.Println("Status: offline")
		return
	}
	c.io.Printf("Status: connected\nPeer: %s\nSession: %s\n", c.orch.PeerID(), c.orch.SessionID())
}
