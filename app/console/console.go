package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashchaind/hashchaind/domain/consensus/model/externalapi"
	"github.com/hashchaind/hashchaind/domain/ledger"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

const prompt = "> "

// Ledger is the part of the ledger the console reads.
type Ledger interface {
	Head() *externalapi.DomainHash
	BlockCount() int
	PendingCount() int
	CanonicalIterator() *ledger.ChainIterator
}

// Network is the part of the network the console controls.
type Network interface {
	Connect(address string) error
	ConnectionCount() int
}

// Protocol creates and propagates blocks.
type Protocol interface {
	WriteAndBroadcast(ctx context.Context, data []byte) (*externalapi.DomainBlock, error)
	SetOffline(isOffline bool)
	IsOffline() bool
}

type lineReader interface {
	ReadLine() (string, error)
}

// Console reads commands line by line and runs them against the node.
type Console struct {
	ledger   Ledger
	network  Network
	protocol Protocol

	lines lineReader
	out   io.Writer
}

// New returns a Console reading commands from in and writing to out.
func New(l Ledger, network Network, protocol Protocol, in io.Reader, out io.Writer) *Console {
	return &Console{
		ledger:   l,
		network:  network,
		protocol: protocol,
		lines:    &plainLineReader{scanner: bufio.NewScanner(in), out: out},
		out:      out,
	}
}

// IsTerminal returns whether file is a terminal.
func IsTerminal(file *os.File) bool {
	return term.IsTerminal(int(file.Fd()))
}

// NewTerminal returns a Console with line editing and history over the
// terminal behind stdin and stdout. The terminal is put in raw mode until the
// returned restore function is called.
//
// Anything else printed while the console runs should go through Output so
// that it does not garble the line being edited.
func NewTerminal(l Ledger, network Network, protocol Protocol, stdin, stdout *os.File) (
	console *Console, restore func() error, err error) {

	fd := int(stdin.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, nil, errors.Wrap(err, "error putting the terminal in raw mode")
	}

	terminal := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{stdin, stdout}, prompt)

	console = &Console{
		ledger:   l,
		network:  network,
		protocol: protocol,
		lines:    terminal,
		out:      terminal,
	}
	restore = func() error {
		return term.Restore(fd, state)
	}
	return console, restore, nil
}

// Output returns the writer the console prints to.
func (c *Console) Output() io.Writer {
	return c.out
}

// Run reads and runs commands until the input ends, the exit command is
// given, or reading fails. ctx bounds long running commands.
func (c *Console) Run(ctx context.Context) error {
	for {
		line, err := c.lines.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return errors.Wrap(err, "error reading a command")
		}

		if c.execute(ctx, line) {
			return nil
		}
	}
}

// execute runs a single command line, and returns whether the console
// should exit.
func (c *Console) execute(ctx context.Context, line string) bool {
	words := strings.Fields(line)
	if len(words) == 0 {
		return false
	}
	name, args := words[0], words[1:]
	if name == exitCommandName {
		return true
	}

	command, ok := commandsByName[name]
	if !ok {
		c.println("Invalid command")
		return false
	}

	log.Debugf("Running command %q", line)
	err := command.run(c, ctx, args)
	if err != nil {
		c.printf("Error: %s\n", err)
	}
	return false
}

func (c *Console) println(a ...interface{}) {
	_, _ = fmt.Fprintln(c.out, a...)
}

func (c *Console) printf(format string, a ...interface{}) {
	_, _ = fmt.Fprintf(c.out, format, a...)
}

type plainLineReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func (r *plainLineReader) ReadLine() (string, error) {
	_, _ = fmt.Fprint(r.out, prompt)
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}
