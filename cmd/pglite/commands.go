package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/loykin/pglite"
)

// serverFlags mirror the Config fields a CLI user actually overrides.
type serverFlags struct {
	ConfigPath string
	Timeout    time.Duration
	SocketPath string
	WorkDir    string
	Cleanup    bool
	LogLevel   string
	LogFile    string
	Extensions []string
}

func (f *serverFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.ConfigPath, "config", "c", "", "TOML config file")
	fs.DurationVar(&f.Timeout, "timeout", 0, "startup timeout (default 30s)")
	fs.StringVar(&f.SocketPath, "socket", "", "unix socket path (default: private temp dir)")
	fs.StringVar(&f.WorkDir, "workdir", "", "workspace directory (default: temp dir)")
	fs.BoolVar(&f.Cleanup, "cleanup", true, "remove the socket file on exit")
	fs.StringVar(&f.LogLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&f.LogFile, "log-file", "", "write logs to this rotating file instead of stdout")
	fs.StringSliceVar(&f.Extensions, "extensions", nil, "PGlite extensions to enable (e.g. pgvector)")
}

// buildConfig loads the file config when given and applies flag overrides.
func buildConfig(f *serverFlags, flagSet interface{ Changed(string) bool }) (*pglite.Config, error) {
	var c *pglite.Config
	var err error
	if f.ConfigPath != "" {
		c, err = pglite.LoadConfig(f.ConfigPath)
		if err != nil {
			return nil, err
		}
	} else {
		c = pglite.DefaultConfig()
	}
	if f.Timeout > 0 {
		c.Timeout = f.Timeout
	}
	if f.SocketPath != "" {
		c.SocketPath = f.SocketPath
	}
	if f.WorkDir != "" {
		c.WorkDir = f.WorkDir
	}
	if flagSet.Changed("cleanup") {
		c.CleanupOnExit = f.Cleanup
	}
	if f.LogLevel != "" {
		c.LogLevel = f.LogLevel
	}
	if f.LogFile != "" {
		c.LogFile = f.LogFile
	}
	if len(f.Extensions) > 0 {
		c.Extensions = f.Extensions
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func newUpCmd() *cobra.Command {
	var flags serverFlags
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Start the server, print connection info, run until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildConfig(&flags, cmd.Flags())
			if err != nil {
				return err
			}
			mgr := pglite.New(c)
			if err := mgr.Start(); err != nil {
				return err
			}
			defer mgr.Stop()
			if !mgr.WaitForReady(15, time.Second) {
				return fmt.Errorf("server started but never became ready")
			}
			dsn, err := mgr.DSN()
			if err != nil {
				return err
			}
			url, err := mgr.ConnectionString()
			if err != nil {
				return err
			}
			uri, err := mgr.URI()
			if err != nil {
				return err
			}
			cmd.Printf("dsn: %s\n", dsn)
			cmd.Printf("url: %s\n", url)
			cmd.Printf("uri: %s\n", uri)
			cmd.Println("press Ctrl-C to stop")

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newDSNCmd() *cobra.Command {
	var flags serverFlags
	cmd := &cobra.Command{
		Use:   "dsn",
		Short: "Print the connection strings a config would produce",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildConfig(&flags, cmd.Flags())
			if err != nil {
				return err
			}
			cmd.Printf("dsn: %s\n", c.DSN())
			cmd.Printf("url: %s\n", c.ConnectionString())
			cmd.Printf("uri: %s\n", c.URI())
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
