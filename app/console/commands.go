package console

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"

	"github.com/hashchaind/hashchaind/domain/consensus/model/externalapi"
	"github.com/hashchaind/hashchaind/domain/consensus/utils/consensushashing"
	"github.com/hashchaind/hashchaind/domain/consensus/utils/pow"
	"github.com/pkg/errors"
)

const (
	exitCommandName = "exit"

	defaultLogLength = 4
)

type command struct {
	usage       string
	description string
	run         func(c *Console, ctx context.Context, args []string) error
}

var commandsByName map[string]*command

func init() {
	commandsByName = map[string]*command{
		"connect": {"connect <host> <port>", "Connect to a peer and exchange canonical chains", runConnect},
		"status":  {"status", "Show the number of peers and blocks, and the head", runStatus},
		"log":     {"log [count]", "Show the newest blocks of the canonical chain (default 4)", runLog},
		"create":  {"create <data...>", "Mine a block carrying the given words and broadcast it", runCreate},
		"offline": {"offline", "Stop broadcasting newly created blocks", runOffline},
		"online":  {"online", "Resume broadcasting newly created blocks", runOnline},
		"help":    {"help", "Show this list", runHelp},
	}
}

func runConnect(c *Console, _ context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: connect <host> <port>")
	}
	port, err := strconv.ParseUint(args[1], 10, 16)
	if err != nil {
		return errors.Errorf("invalid port %q", args[1])
	}

	address := net.JoinHostPort(args[0], strconv.FormatUint(port, 10))
	err = c.network.Connect(address)
	if err != nil {
		return err
	}
	c.printf("Connected to %s\n", address)
	return nil
}

func runStatus(c *Console, _ context.Context, _ []string) error {
	c.printf("%d peers, %d blocks, at block %s\n", c.network.ConnectionCount(), c.ledger.BlockCount(), c.ledger.Head())
	if pending := c.ledger.PendingCount(); pending > 0 {
		c.printf("%d blocks are waiting for their parent\n", pending)
	}
	if c.protocol.IsOffline() {
		c.println("Offline: new blocks are not broadcast")
	}
	if hashesTried := pow.HashesTried(); hashesTried > 0 {
		c.printf("%d hashes tried while mining\n", hashesTried)
	}
	return nil
}

func runLog(c *Console, _ context.Context, args []string) error {
	length := defaultLogLength
	if len(args) > 1 {
		return errors.New("usage: log [count]")
	}
	if len(args) == 1 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil || parsed < 0 {
			return errors.Errorf("invalid count %q", args[0])
		}
		length = parsed
	}

	it := c.ledger.CanonicalIterator()
	for index := 0; it.Next(); index++ {
		if index == length {
			c.println("[more]")
			return nil
		}
		c.println(FormatBlock(it.Get()))
	}
	if it.Err() != nil {
		return it.Err()
	}
	c.println("[end]")
	return nil
}

func runCreate(c *Console, ctx context.Context, args []string) error {
	data := strings.Join(args, " ")
	block, err := c.protocol.WriteAndBroadcast(ctx, []byte(data))
	if block != nil {
		c.printf("Created block %s\n", consensushashing.BlockHash(block))
	}
	return err
}

func runOffline(c *Console, _ context.Context, _ []string) error {
	c.protocol.SetOffline(true)
	c.println("Offline: new blocks are not broadcast")
	return nil
}

func runOnline(c *Console, _ context.Context, _ []string) error {
	c.protocol.SetOffline(false)
	c.println("Online")
	return nil
}

func runHelp(c *Console, _ context.Context, _ []string) error {
	names := make([]string, 0, len(commandsByName))
	for name := range commandsByName {
		names = append(names, name)
	}
	sort.Strings(names)

	c.println("Commands:")
	for _, name := range names {
		command := commandsByName[name]
		c.printf("  %-24s%s\n", command.usage, command.description)
	}
	c.printf("  %-24s%s\n", exitCommandName, "Shut the node down")
	return nil
}

// FormatBlock renders a block as its hash and verification status, followed
// by its payload on an indented line.
func FormatBlock(block *externalapi.DomainBlock) string {
	status := "Unverified"
	if pow.IsVerified(block) {
		status = "Verified"
	}
	return fmt.Sprintf("%s %s\n  %q", consensushashing.BlockHash(block), status, block.Payload.Trimmed())
}
