package node

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.dedis.ch/blitz"
	"go.dedis.ch/blitz/cli"
	"golang.org/x/xerrors"
)

// SocketName is the name of the socket of a running node in its
// configuration folder.
const SocketName = "daemon.sock"

const ioTimeout = 30 * time.Second

// request is the first and only message of the CLI on a connection.
type request struct {
	Action string
	Flags  FlagSet
}

// reply is a message of the node. An action produces one reply per write on
// its output, and a final reply with an error if it fails.
type reply struct {
	Out string `json:",omitempty"`
	Err string `json:",omitempty"`
}

type dialFunc func(network, addr string, timeout time.Duration) (net.Conn, error)

// socketClient sends an action over a new connection to the socket and copies
// the replies to the output until the node closes the connection.
//
// - implements node.Client
type socketClient struct {
	path string
	out  io.Writer
	dial dialFunc
}

// Send implements node.Client.
func (c socketClient) Send(action string, flags FlagSet) error {
	conn, err := c.dial("unix", c.path, ioTimeout)
	if err != nil {
		return xerrors.Errorf("failed to reach the node: %v", err)
	}

	defer conn.Close()

	err = json.NewEncoder(conn).Encode(request{Action: action, Flags: flags})
	if err != nil {
		return xerrors.Errorf("failed to send request: %v", err)
	}

	dec := json.NewDecoder(conn)

	for {
		var rep reply

		err = dec.Decode(&rep)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return xerrors.Errorf("failed to read reply: %v", err)
		}

		if rep.Err != "" {
			return xerrors.New(rep.Err)
		}

		fmt.Fprint(c.out, rep.Out)
	}
}

// socketDaemon serves the actions on a UNIX socket. Only the owner of the node
// process can connect to it.
//
// - implements node.Daemon
type socketDaemon struct {
	wg sync.WaitGroup

	logger   zerolog.Logger
	path     string
	injector Injector
	actions  actions
	timeout  time.Duration
	listen   func(network, addr string) (net.Listener, error)

	closing  chan struct{}
	listener net.Listener
}

// Listen implements node.Daemon. A socket left behind by a node that did not
// stop properly is replaced. The folder of the socket must be private, as the
// socket is reachable with the permissions of the umask until it is
// restricted.
func (d *socketDaemon) Listen() error {
	dir := filepath.Dir(d.path)

	info, err := os.Stat(dir)
	if err != nil {
		return xerrors.Errorf("failed to read socket folder: %v", err)
	}

	if info.Mode().Perm()&0077 != 0 {
		return xerrors.Errorf("socket folder %s is accessible to other users (%v)",
			dir, info.Mode().Perm())
	}

	err = os.Remove(d.path)
	if err != nil && !os.IsNotExist(err) {
		return xerrors.Errorf("failed to remove stale socket: %v", err)
	}

	d.listener, err = d.listen("unix", d.path)
	if err != nil {
		return xerrors.Errorf("failed to bind socket: %v", err)
	}

	err = os.Chmod(d.path, 0600)
	if err != nil {
		d.listener.Close()
		return xerrors.Errorf("failed to restrict socket: %v", err)
	}

	d.wg.Add(1)
	go d.acceptLoop()

	d.logger.Debug().Msg("daemon is listening")

	return nil
}

func (d *socketDaemon) acceptLoop() {
	defer d.wg.Done()

	for {
		conn, err := d.listener.Accept()
		if err != nil {
			select {
			case <-d.closing:
			default:
				d.logger.Err(err).Msg("daemon stopped accepting connections")
			}
			return
		}

		d.wg.Add(1)
		go func() {
			defer d.wg.Done()

			d.serve(conn)
		}()
	}
}

func (d *socketDaemon) serve(conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(d.timeout))

	var req request

	err := json.NewDecoder(conn).Decode(&req)
	if err == io.EOF {
		// The connection was only opened to probe the daemon.
		return
	}
	if err != nil {
		d.fail(conn, xerrors.Errorf("malformed request: %v", err))
		return
	}

	d.logger.Debug().
		Str("action", req.Action).
		Interface("flags", req.Flags).
		Msg("executing action")

	tmpl, found := d.actions[req.Action]
	if !found {
		d.fail(conn, xerrors.Errorf("unknown action '%s'", req.Action))
		return
	}

	if req.Flags == nil {
		req.Flags = FlagSet{}
	}

	ctx := Context{
		Injector: d.injector,
		Flags:    req.Flags,
		Out:      replyWriter{enc: json.NewEncoder(conn)},
	}

	err = tmpl.Execute(ctx)
	if err != nil {
		d.fail(conn, xerrors.Errorf("action '%s' failed: %v", req.Action, err))
	}
}

func (d *socketDaemon) fail(conn net.Conn, err error) {
	d.logger.Debug().Err(err).Msg("action refused")

	err = json.NewEncoder(conn).Encode(reply{Err: err.Error()})
	if err != nil {
		d.logger.Warn().Err(err).Msg("failed to send error")
	}
}

// Close implements node.Daemon. It waits for the actions in progress.
func (d *socketDaemon) Close() error {
	close(d.closing)

	if d.listener != nil {
		d.listener.Close()
	}

	d.wg.Wait()

	return nil
}

// replyWriter turns each write of an action into a reply.
//
// - implements io.Writer
type replyWriter struct {
	enc *json.Encoder
}

// Write implements io.Writer.
func (w replyWriter) Write(data []byte) (int, error) {
	err := w.enc.Encode(reply{Out: string(data)})
	if err != nil {
		return 0, xerrors.Errorf("failed to write reply: %v", err)
	}

	return len(data), nil
}

// actions maps the name of an action to its template.
type actions map[string]ActionTemplate

// socketFactory places the socket in the configuration folder.
//
// - implements node.DaemonFactory
type socketFactory struct {
	injector Injector
	actions  actions
	out      io.Writer
}

// ClientFromContext implements node.DaemonFactory.
func (f socketFactory) ClientFromContext(flags cli.Flags) (Client, error) {
	client := socketClient{
		path: socketPath(flags),
		out:  f.out,
		dial: net.DialTimeout,
	}

	return client, nil
}

// DaemonFromContext implements node.DaemonFactory.
func (f socketFactory) DaemonFromContext(flags cli.Flags) (Daemon, error) {
	path := socketPath(flags)

	daemon := &socketDaemon{
		logger:   blitz.Logger.With().Str("socket", path).Logger(),
		path:     path,
		injector: f.injector,
		actions:  f.actions,
		timeout:  ioTimeout,
		listen:   net.Listen,
		closing:  make(chan struct{}),
	}

	return daemon, nil
}

func socketPath(flags cli.Flags) string {
	return filepath.Join(flags.String(ConfigFlag), SocketName)
}
