package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kailas-cloud/colladmin/internal/config"
	logpkg "github.com/kailas-cloud/colladmin/internal/logger"
	"github.com/kailas-cloud/colladmin/internal/repository/items"
	"github.com/kailas-cloud/colladmin/internal/usecase/browse"
	"github.com/kailas-cloud/colladmin/internal/usecase/inference"
)

// app is the composition root shared by every command.
type app struct {
	stdout io.Writer
	stderr io.Writer

	// flags
	env        string
	configPath string
	backendURL string
	token      string
	logLevel   string
	trace      bool

	cfg    config.Config
	logger *zap.Logger
	sink   *logpkg.Sink
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "colladmin",
		Short:        "Admin core for arbitrary record collections",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.init(cmd.Name() == "serve")
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.env, "env", config.GetEnv(), "environment: local, dev, prod")
	flags.StringVar(&a.configPath, "config", "", "config file (default config/<env>.yaml)")
	flags.StringVar(&a.backendURL, "backend", "", "backend base URL, overrides backend.base_url")
	flags.StringVar(&a.token, "token", "", "bearer token, overrides backend.token")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.BoolVar(&a.trace, "trace", false, "dump the buffered debug log when a command fails")

	root.AddCommand(
		newServeCmd(a),
		newDescribeCmd(a),
		newListCmd(a),
		newGetCmd(a),
		newCreateCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newVersionCmd(a),
	)
	return root
}

// init loads config and builds the logger. Terminal commands log warnings
// and up to stderr; the sink keeps everything down to debug.
func (a *app) init(server bool) error {
	var (
		cfg config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFile(a.configPath)
	} else {
		cfg, err = config.Load(a.env)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.backendURL != "" {
		cfg.Backend.BaseURL = a.backendURL
	}
	if a.token != "" {
		cfg.Backend.Token = a.token
	}
	a.cfg = cfg

	level := cfg.Logging.Level
	if !server {
		level = zapcore.WarnLevel.String()
	}
	if a.logLevel != "" {
		level = a.logLevel
	}
	base, err := logpkg.NewLogger(a.env, level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	a.sink = logpkg.NewSink(zapcore.DebugLevel)
	a.sink.Init(cfg.Logging.SinkSize)
	a.logger = logpkg.WithSink(base, a.sink)
	return nil
}

// client builds the data access facade client from config.
func (a *app) client() (*items.Client, error) {
	c, err := items.NewClient(a.cfg.Backend.BaseURL,
		items.WithTimeout(a.cfg.Backend.Timeout()),
		items.WithToken(a.cfg.Backend.Token),
		items.WithLogger(a.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}
	return c, nil
}

// session builds a collection browser. Fields that defaulted to text are
// collected into fallbacks.
func (a *app) session(p items.Pagination, fallbacks *[]string) (*browse.Session, *items.Client, error) {
	c, err := a.client()
	if err != nil {
		return nil, nil, err
	}
	infer := inference.New(a.logger).WithFallbackHook(func(_, name string) {
		if fallbacks != nil {
			*fallbacks = append(*fallbacks, name)
		}
	})
	s := browse.New(
		func(name string) browse.Source { return items.New(c, name) },
		browse.WithLogger(a.logger),
		browse.WithPagination(p),
		browse.WithInference(infer),
	)
	return s, c, nil
}
