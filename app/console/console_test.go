package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/hashchaind/hashchaind/domain/consensus/model/externalapi"
	"github.com/hashchaind/hashchaind/domain/consensus/utils/consensushashing"
	"github.com/hashchaind/hashchaind/domain/ledger"
	"github.com/pkg/errors"
)

type fakeNetwork struct {
	connected []string
}

func (n *fakeNetwork) Connect(address string) error {
	if strings.HasPrefix(address, "unreachable") {
		return errors.Errorf("could not connect to %s", address)
	}
	n.connected = append(n.connected, address)
	return nil
}

func (n *fakeNetwork) ConnectionCount() int {
	return len(n.connected)
}

type fakeProtocol struct {
	ledger    *ledger.Ledger
	isOffline bool
	created   []*externalapi.DomainBlock
}

func (p *fakeProtocol) WriteAndBroadcast(ctx context.Context, data []byte) (*externalapi.DomainBlock, error) {
	block, err := p.ledger.WriteWithContext(ctx, data)
	if err != nil {
		return nil, err
	}
	p.created = append(p.created, block)
	return block, nil
}

func (p *fakeProtocol) SetOffline(isOffline bool) {
	p.isOffline = isOffline
}

func (p *fakeProtocol) IsOffline() bool {
	return p.isOffline
}

type testConsole struct {
	ledger   *ledger.Ledger
	network  *fakeNetwork
	protocol *fakeProtocol
}

func newTestConsole(t *testing.T) *testConsole {
	l, err := ledger.New()
	if err != nil {
		t.Fatalf("ledger.New: %+v", err)
	}
	t.Cleanup(func() {
		_ = l.Close()
	})
	return &testConsole{
		ledger:   l,
		network:  &fakeNetwork{},
		protocol: &fakeProtocol{ledger: l},
	}
}

// run runs the given input through a new console and returns its output.
func (tc *testConsole) run(t *testing.T, input string) string {
	out := &bytes.Buffer{}
	console := New(tc.ledger, tc.network, tc.protocol, strings.NewReader(input), out)
	err := console.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %+v", err)
	}
	return out.String()
}

func assertContains(t *testing.T, output string, expected ...string) {
	for _, s := range expected {
		if !strings.Contains(output, s) {
			t.Errorf("output does not contain %q:\n%s", s, output)
		}
	}
}

func TestCreateAndLog(t *testing.T) {
	tc := newTestConsole(t)

	output := tc.run(t, "create hello   world\ncreate second\nlog\n")
	if len(tc.protocol.created) != 2 {
		t.Fatalf("expected 2 created blocks, got %d", len(tc.protocol.created))
	}
	first, second := tc.protocol.created[0], tc.protocol.created[1]
	if string(first.Payload.Trimmed()) != "hello world" {
		t.Fatalf("words were not joined by single spaces: %q", first.Payload.Trimmed())
	}

	secondHash := consensushashing.BlockHash(second).String()
	firstHash := consensushashing.BlockHash(first).String()
	assertContains(t, output,
		"Created block "+firstHash,
		secondHash+" Verified\n  \"second\"\n"+firstHash+" Verified\n  \"hello world\"\n[end]\n")

	output = tc.run(t, "log 1\n")
	assertContains(t, output, secondHash+" Verified\n  \"second\"\n[more]\n")
	if strings.Contains(output, firstHash) {
		t.Errorf("log 1 printed more than one block:\n%s", output)
	}

	output = tc.run(t, "log 2\n")
	assertContains(t, output, "[end]")

	output = tc.run(t, "log -1\nlog x\nlog 1 2\n")
	if strings.Count(output, "Error:") != 3 {
		t.Errorf("expected 3 errors for bad log arguments:\n%s", output)
	}
}

func TestLogOnEmptyLedger(t *testing.T) {
	tc := newTestConsole(t)

	output := tc.run(t, "log\n")
	if output != "> [end]\n> " {
		t.Fatalf("unexpected output %q", output)
	}
}

func TestStatus(t *testing.T) {
	tc := newTestConsole(t)

	output := tc.run(t, "status\n")
	assertContains(t, output, "0 peers, 0 blocks, at block "+externalapi.GenesisHash.String())

	output = tc.run(t, "connect 127.0.0.1 3334\ncreate block\noffline\nstatus\n")
	assertContains(t, output,
		"Connected to 127.0.0.1:3334",
		"1 peers, 1 blocks, at block "+tc.ledger.Head().String(),
		"Offline: new blocks are not broadcast",
		"hashes tried while mining")
	if !tc.protocol.isOffline {
		t.Fatalf("offline did not take effect")
	}

	tc.run(t, "online\n")
	if tc.protocol.isOffline {
		t.Fatalf("online did not take effect")
	}
}

func TestConnect(t *testing.T) {
	tc := newTestConsole(t)

	output := tc.run(t, "connect ::1 3334\nconnect localhost\nconnect localhost port\nconnect unreachable 1\n")
	if len(tc.network.connected) != 1 || tc.network.connected[0] != "[::1]:3334" {
		t.Fatalf("unexpected connections %v", tc.network.connected)
	}
	if strings.Count(output, "Error:") != 3 {
		t.Errorf("expected 3 errors:\n%s", output)
	}
}

func TestInvalidAndExit(t *testing.T) {
	tc := newTestConsole(t)

	output := tc.run(t, "\n   \nbogus\nhelp\nexit\ncreate never\n")
	if strings.Count(output, "Invalid command") != 1 {
		t.Errorf("expected a single Invalid command:\n%s", output)
	}
	assertContains(t, output, "connect <host> <port>", "log [count]", "exit")
	if len(tc.protocol.created) != 0 {
		t.Fatalf("a command after exit was run")
	}
}
