// Package controller implements the initializer of the HTTP proxy of a node.
// It starts the server when the node starts and serves the Prometheus
// collectors of the module.
package controller

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.dedis.ch/blitz"
	"go.dedis.ch/blitz/cli"
	"go.dedis.ch/blitz/cli/node"
	"go.dedis.ch/blitz/config"
	"go.dedis.ch/blitz/proxy"
	"go.dedis.ch/blitz/proxy/http"
	"golang.org/x/xerrors"
)

// controller is an initializer that creates, starts and injects the HTTP
// proxy.
//
// - implements node.Initializer
type controller struct {
	proxyFac func(addr string, origins ...string) proxy.Proxy
}

// NewController returns a new initializer for the HTTP proxy.
func NewController() node.Initializer {
	return controller{
		proxyFac: func(addr string, origins ...string) proxy.Proxy {
			return http.NewServer(addr, origins...)
		},
	}
}

// SetCommands implements node.Initializer. It sets the flags of the server
// and a command to print its address.
func (c controller) SetCommands(builder node.Builder) {
	builder.SetStartFlags(
		cli.StringFlag{
			Name:  config.ListenFlag,
			Usage: "address of the HTTP server",
			Env:   "BLITZ_LISTEN",
		},
		cli.StringSliceFlag{
			Name:  config.OriginsFlag,
			Usage: "origins allowed by the CORS policy",
		},
		cli.StringFlag{
			Name:  config.MetricsFlag,
			Usage: "path of the Prometheus handler",
		},
	)

	cmd := builder.SetCommand("proxy")
	cmd.SetDescription("inspect the HTTP server of the node")

	sub := cmd.SetSubCommand("addr")
	sub.SetDescription("print the address of the HTTP server")
	sub.SetAction(builder.MakeAction("proxy addr", addrAction{}))
}

// OnStart implements node.Initializer. It starts the server.
func (c controller) OnStart(flags cli.Flags, inj node.Injector) error {
	cfg, err := config.Load(flags)
	if err != nil {
		return xerrors.Errorf("failed to load config: %v", err)
	}

	srv := c.proxyFac(cfg.Listen, cfg.Origins...)

	if cfg.Metrics != "" {
		registry := prometheus.NewRegistry()

		for _, collector := range blitz.PromCollectors {
			err = registry.Register(collector)
			if err != nil {
				return xerrors.Errorf("failed to register collector: %v", err)
			}
		}

		srv.RegisterHandler(cfg.Metrics, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	err = srv.Listen()
	if err != nil {
		return xerrors.Errorf("failed to start proxy: %v", err)
	}

	inj.Inject(srv)

	return nil
}

// OnStop implements node.Initializer. It stops the server.
func (c controller) OnStop(inj node.Injector) error {
	var srv proxy.Proxy

	err := inj.Resolve(&srv)
	if err != nil {
		return xerrors.Errorf("failed to resolve proxy: %v", err)
	}

	err = srv.Close()
	if err != nil {
		return xerrors.Errorf("failed to stop proxy: %v", err)
	}

	return nil
}

// addrAction is an action to print the address of the server.
//
// - implements node.ActionTemplate
type addrAction struct{}

// Execute implements node.ActionTemplate.
func (addrAction) Execute(ctx node.Context) error {
	var srv proxy.Proxy

	err := ctx.Injector.Resolve(&srv)
	if err != nil {
		return xerrors.Errorf("failed to resolve proxy: %v", err)
	}

	fmt.Fprintf(ctx.Out, "http://%s\n", srv.GetAddr())

	return nil
}
