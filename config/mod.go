// Package config loads the configuration of a node. The values are read from
// the YAML file in the configuration folder of the node, then overridden by
// the flags that are set on the command line.
//
//	listen: 127.0.0.1:8080
//	origins:
//	  - https://blitz.example
//	metrics: /metrics
//	database: blitz.db
//	bucket: blitz
//	history: 5
//	key: private.key
//	asset: BLITZ
//
// Relative paths are resolved against the configuration folder.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"go.dedis.ch/blitz/cli"
	"go.dedis.ch/blitz/cli/node"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

// FileName is the name of the configuration file in the configuration folder.
const FileName = "node.yaml"

// Names of the flags that override the configuration file.
const (
	ListenFlag   = "listen"
	OriginsFlag  = "origins"
	MetricsFlag  = "metrics"
	DatabaseFlag = "database"
	BucketFlag   = "bucket"
	HistoryFlag  = "history"
	KeyFlag      = "key"
	AssetFlag    = "asset"
)

// Node is the configuration of a node.
type Node struct {
	// Listen is the address of the HTTP server.
	Listen string `yaml:"listen"`

	// Origins are the origins allowed by the CORS policy. Any origin is
	// allowed when empty.
	Origins []string `yaml:"origins"`

	// Metrics is the path of the Prometheus handler. It is disabled when
	// empty.
	Metrics string `yaml:"metrics"`

	Database string `yaml:"database"`
	Bucket   string `yaml:"bucket"`

	// History is the number of closed auctions kept. Zero keeps all of them.
	History int `yaml:"history"`

	// Key is the path to the private key of the node, created on the first
	// start.
	Key string `yaml:"key"`

	// Asset is the name of the payment asset used when the node initializes
	// the auction.
	Asset string `yaml:"asset"`
}

// Default returns the configuration used when neither the file nor the flags
// set a value.
func Default() Node {
	return Node{
		Listen:   "127.0.0.1:8080",
		Metrics:  "/metrics",
		Database: "blitz.db",
		Bucket:   "blitz",
		History:  5,
		Key:      "private.key",
		Asset:    "BLITZ",
	}
}

// Load returns the configuration of the node from the configuration folder
// and the flags.
func Load(flags cli.Flags) (Node, error) {
	cfg := Default()

	dir := flags.String(node.ConfigFlag)

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil && !os.IsNotExist(err) {
		return cfg, xerrors.Errorf("failed to read config: %v", err)
	}

	if err == nil {
		err = yaml.UnmarshalStrict(data, &cfg)
		if err != nil {
			return cfg, xerrors.Errorf("failed to unmarshal config: %v", err)
		}
	}

	err = cfg.override(flags)
	if err != nil {
		return cfg, err
	}

	if cfg.History < 0 {
		return cfg, xerrors.Errorf("invalid history capacity: %d", cfg.History)
	}

	cfg.Database = resolve(dir, cfg.Database)
	cfg.Key = resolve(dir, cfg.Key)

	return cfg, nil
}

// Save writes the configuration into the configuration folder.
func Save(dir string, cfg Node) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return xerrors.Errorf("failed to marshal config: %v", err)
	}

	err = os.WriteFile(filepath.Join(dir, FileName), data, 0600)
	if err != nil {
		return xerrors.Errorf("failed to write config: %v", err)
	}

	return nil
}

func (cfg *Node) override(flags cli.Flags) error {
	setString(&cfg.Listen, flags.String(ListenFlag))
	setString(&cfg.Metrics, flags.String(MetricsFlag))
	setString(&cfg.Database, flags.String(DatabaseFlag))
	setString(&cfg.Bucket, flags.String(BucketFlag))
	setString(&cfg.Key, flags.String(KeyFlag))
	setString(&cfg.Asset, flags.String(AssetFlag))

	origins := flags.StringSlice(OriginsFlag)
	if len(origins) > 0 {
		cfg.Origins = origins
	}

	history := flags.String(HistoryFlag)
	if history != "" {
		value, err := strconv.Atoi(history)
		if err != nil {
			return xerrors.Errorf("malformed history capacity: %v", err)
		}

		cfg.History = value
	}

	return nil
}

func setString(field *string, value string) {
	if value != "" {
		*field = value
	}
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(dir, path)
}
