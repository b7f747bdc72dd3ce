package node

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/blitz/cli"
	"go.dedis.ch/blitz/internal/testing/fake"
)

func TestSocket_Scenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), SocketName)

	inj := NewInjector()
	inj.Inject(&fakeInitializer{name: "auction"})

	daemon := newDaemon(path, inj, actions{
		"node status": fakeAction{},
		"node fail":   fakeAction{err: fake.GetError()},
	})

	require.NoError(t, daemon.Listen())
	defer daemon.Close()

	stat, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), stat.Mode().Perm())

	out := new(bytes.Buffer)
	client := socketClient{path: path, out: out, dial: net.DialTimeout}

	err = client.Send("node status", FlagSet{"account": "alice"})
	require.NoError(t, err)
	require.Equal(t, "account alice of auction\n", out.String())

	err = client.Send("node fail", nil)
	require.EqualError(t, err, fake.Err("action 'node fail' failed"))

	err = client.Send("node unknown", nil)
	require.EqualError(t, err, "unknown action 'node unknown'")

	// A probe closes the connection without a request.
	conn, err := net.Dial("unix", path)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	conn, err = net.Dial("unix", path)
	require.NoError(t, err)

	_, err = conn.Write([]byte("{]"))
	require.NoError(t, err)

	var rep reply
	require.NoError(t, json.NewDecoder(conn).Decode(&rep))
	require.Contains(t, rep.Err, "malformed request: ")
	conn.Close()
}

func TestSocketClient_Send_Failures(t *testing.T) {
	client := socketClient{
		dial: func(string, string, time.Duration) (net.Conn, error) {
			return nil, fake.GetError()
		},
	}

	err := client.Send("node status", nil)
	require.EqualError(t, err, fake.Err("failed to reach the node"))

	client.dial = func(string, string, time.Duration) (net.Conn, error) {
		return badConn{}, nil
	}

	err = client.Send("node status", nil)
	require.EqualError(t, err, fake.Err("failed to send request"))

	client.dial = func(string, string, time.Duration) (net.Conn, error) {
		return badConn{writable: true}, nil
	}

	err = client.Send("node status", nil)
	require.EqualError(t, err, fake.Err("failed to read reply"))
}

func TestSocketDaemon_StaleSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), SocketName)
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0600))

	daemon := newDaemon(path, NewInjector(), actions{})
	require.NoError(t, daemon.Listen())
	require.NoError(t, daemon.Close())
}

func TestSocketDaemon_Listen_Failures(t *testing.T) {
	dir := t.TempDir()

	// A folder in place of the socket cannot be removed while not empty.
	path := filepath.Join(dir, SocketName)
	require.NoError(t, os.MkdirAll(filepath.Join(path, "child"), 0700))

	daemon := newDaemon(path, NewInjector(), actions{})
	err := daemon.Listen()
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to remove stale socket: ")

	daemon = newDaemon(filepath.Join(dir, "other.sock"), NewInjector(), actions{})
	daemon.listen = func(string, string) (net.Listener, error) {
		return nil, fake.GetError()
	}

	err = daemon.Listen()
	require.EqualError(t, err, fake.Err("failed to bind socket"))

	shared := filepath.Join(dir, "shared")
	require.NoError(t, os.Mkdir(shared, 0700))
	require.NoError(t, os.Chmod(shared, 0750))

	daemon = newDaemon(filepath.Join(shared, SocketName), NewInjector(), actions{})
	err = daemon.Listen()
	require.EqualError(t, err, "socket folder "+shared+" is accessible to other users (-rwxr-x---)")
	require.NoFileExists(t, filepath.Join(shared, SocketName))

	daemon = newDaemon(filepath.Join(dir, "missing", SocketName), NewInjector(), actions{})
	err = daemon.Listen()
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read socket folder: ")
}

func TestSocketDaemon_AcceptError(t *testing.T) {
	logs := &fake.LogBuffer{}

	daemon := newDaemon(filepath.Join(t.TempDir(), SocketName), NewInjector(), actions{})
	daemon.logger = logs.Logger()

	require.NoError(t, daemon.Listen())

	// Closing the listener behind the daemon looks like a failure.
	daemon.listener.Close()
	daemon.wg.Wait()

	require.Contains(t, logs.Messages(), "daemon stopped accepting connections")
	require.NoError(t, daemon.Close())
}

func TestReplyWriter_Write(t *testing.T) {
	buf := new(bytes.Buffer)
	w := replyWriter{enc: json.NewEncoder(buf)}

	n, err := fmt.Fprint(w, "http://127.0.0.1:8080")
	require.NoError(t, err)
	require.Equal(t, 21, n)
	require.Equal(t, `{"Out":"http://127.0.0.1:8080"}`+"\n", buf.String())

	w = replyWriter{enc: json.NewEncoder(badConn{})}
	_, err = w.Write([]byte("a"))
	require.EqualError(t, err, fake.Err("failed to write reply"))
}

func TestSocketFactory(t *testing.T) {
	out := new(bytes.Buffer)
	factory := socketFactory{injector: NewInjector(), actions: actions{}, out: out}
	flags := FlagSet{ConfigFlag: "/tmp/blitz"}

	client, err := factory.ClientFromContext(flags)
	require.NoError(t, err)
	require.Equal(t, "/tmp/blitz/daemon.sock", client.(socketClient).path)
	require.Equal(t, out, client.(socketClient).out)

	daemon, err := factory.DaemonFromContext(flags)
	require.NoError(t, err)
	require.Equal(t, "/tmp/blitz/daemon.sock", daemon.(*socketDaemon).path)
	require.Equal(t, ioTimeout, daemon.(*socketDaemon).timeout)
}

// -----------------------------------------------------------------------------
// Utility functions

func newDaemon(path string, inj Injector, a actions) *socketDaemon {
	return &socketDaemon{
		logger:   zerolog.Nop(),
		path:     path,
		injector: inj,
		actions:  a,
		timeout:  time.Second,
		listen:   net.Listen,
		closing:  make(chan struct{}),
	}
}

func waitSocket(t *testing.T, path string) {
	for i := 0; i < 100; i++ {
		_, err := os.Stat(path)
		if err == nil {
			return
		}

		time.Sleep(50 * time.Millisecond)
	}

	t.Fatalf("socket %s not found", path)
}

type fakeInitializer struct {
	name    string
	err     error
	errStop error
	calls   *fake.Recorder
}

func (i *fakeInitializer) record(event string) {
	if i.calls != nil {
		i.calls.Record(event + " " + i.name)
	}
}

func (i *fakeInitializer) SetCommands(builder Builder) {
	i.record("commands")

	cmd := builder.SetCommand("node")

	sub := cmd.SetSubCommand("status")
	sub.SetFlags(cli.StringFlag{Name: "account"})
	sub.SetAction(builder.MakeAction("node status", fakeAction{}))

	sub = cmd.SetSubCommand("fail")
	sub.SetAction(builder.MakeAction("node fail", fakeAction{err: fake.GetError()}))
}

func (i *fakeInitializer) OnStart(flags cli.Flags, inj Injector) error {
	i.record("start")
	inj.Inject(i)

	return i.err
}

func (i *fakeInitializer) OnStop(Injector) error {
	i.record("stop")

	return i.errStop
}

// fakeAction prints the account flag and the name of the running component.
type fakeAction struct {
	err error
}

func (a fakeAction) Execute(ctx Context) error {
	if a.err != nil {
		return a.err
	}

	var component *fakeInitializer

	err := ctx.Injector.Resolve(&component)
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out, "account %s of %s\n", ctx.Flags.String("account"), component.name)

	return nil
}

type fakeClient struct {
	calls *fake.Recorder
	err   error
}

func (c fakeClient) Send(action string, flags FlagSet) error {
	if c.calls != nil {
		c.calls.Record(action, flags)
	}

	return c.err
}

type fakeDaemon struct {
	err error
}

func (d fakeDaemon) Listen() error {
	return d.err
}

func (d fakeDaemon) Close() error {
	return nil
}

type fakeFactory struct {
	calls     *fake.Recorder
	err       error
	errSend   error
	errListen error
}

func (f fakeFactory) ClientFromContext(cli.Flags) (Client, error) {
	return fakeClient{calls: f.calls, err: f.errSend}, f.err
}

func (f fakeFactory) DaemonFromContext(cli.Flags) (Daemon, error) {
	return fakeDaemon{err: f.errListen}, f.err
}

// badConn fails to write unless writable, and always fails to read.
type badConn struct {
	net.Conn
	writable bool
}

func (c badConn) Write(data []byte) (int, error) {
	if c.writable {
		return len(data), nil
	}

	return 0, fake.GetError()
}

func (c badConn) Read([]byte) (int, error) {
	return 0, fake.GetError()
}

func (c badConn) Close() error {
	return nil
}
