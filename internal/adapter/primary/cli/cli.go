package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/google/shlex"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"pc-volume-bridge/internal/adapter/primary/homekit"
	"pc-volume-bridge/internal/adapter/primary/web"
	"pc-volume-bridge/internal/adapter/secondary/repository"
	"pc-volume-bridge/internal/adapter/secondary/volume"
	"pc-volume-bridge/internal/logging"
	"pc-volume-bridge/internal/usecase"
)

var (
	cfgPath     string
	verbosity   int
	logLevel    string
	backendFlag string
)

// NewRootCmd creates the root CLI command.
// This is the primary adapter that translates CLI inputs to use case calls.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pc-volume-bridge",
		Short:         "Expose the computer's output volume to HomeKit",
		Long:          "HomeKit bridge that shows the system volume and mute state as speaker, fan, lightbulb and button services",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", repository.DefaultPath(), "path of the configuration file (.yaml, .json or .toml)")
	cmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (-v, -vv, ... up to 4)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (error|warn|info|debug|trace)")
	cmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "audio backend (osascript|pactl|memory); overrides the config file")
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		logging.SetVerbosity(verbosity)
		if logLevel != "" {
			level, _, err := logging.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logging.SetLevel(level)
		}
		return nil
	}

	cmd.AddCommand(
		newServeCmd(),
		newVolumeCmd(),
		newMuteCmd(),
		newAdjustCmd(),
		newConfigCmd(),
		newShellCmd(),
	)

	return cmd
}

// Execute runs the root command and reports errors on stderr.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// app is everything a command needs to talk to the audio system.
type app struct {
	settings  repository.Settings
	log       *logging.Logger
	bridge    *homekit.Bridge
	accessory *usecase.Accessory
}

func loadSettings() (repository.Settings, error) {
	repo, err := repository.NewFileRepository(cfgPath)
	if err != nil {
		return repository.Settings{}, err
	}
	settings, err := repo.Load()
	if err != nil {
		return repository.Settings{}, fmt.Errorf("load %s: %w", cfgPath, err)
	}
	if backendFlag != "" {
		settings.Backend = backendFlag
	}
	if settings.Debug && logging.CurrentLevel() < logging.LevelDebug {
		logging.SetLevel(logging.LevelDebug)
	}
	return settings, nil
}

func newApp(ctx context.Context) (*app, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	controller, err := volume.New(settings.Backend)
	if err != nil {
		return nil, err
	}

	log := logging.New(settings.Accessory.Name)
	bridge := homekit.NewBridge(settings.Accessory, log)
	acc, err := usecase.NewAccessory(ctx, settings.Accessory, usecase.Dependencies{
		Factory:    bridge,
		Controller: controller,
		Logger:     log,
	})
	if err != nil {
		return nil, err
	}
	return &app{settings: settings, log: log, bridge: bridge, accessory: acc}, nil
}

func newServeCmd() *cobra.Command {
	var (
		httpAddr string
		pin      string
		hapAddr  string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Publish the accessory to HomeKit (and the optional HTTP API)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := newApp(ctx)
			if err != nil {
				return err
			}
			opts := homekit.Options{
				Pin:       rt.settings.Bridge.Pin,
				Addr:      rt.settings.Bridge.Addr,
				StorePath: rt.settings.Bridge.StorePath,
			}
			if cmd.Flags().Changed("pin") {
				opts.Pin = pin
			}
			if cmd.Flags().Changed("hap-addr") {
				opts.Addr = hapAddr
			}
			addr := rt.settings.HTTPAddr
			if cmd.Flags().Changed("http") {
				addr = httpAddr
			}

			rt.accessory.Start(ctx)
			defer rt.accessory.Stop()

			if addr != "" {
				srv := web.NewServer(rt.accessory, addr, rt.log)
				fmt.Fprintf(cmd.OutOrStdout(), "HTTP API running at http://%s\n", addr)
				go func() {
					if err := srv.Start(); err != nil {
						rt.log.Errorf("HTTP server: %v", err)
					}
				}()
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s published to HomeKit, pin %s\n", rt.settings.Accessory.Name, opts.Pin)
			logging.Infof("Serving %d service(s)", len(rt.accessory.Services()))
			return rt.bridge.Serve(ctx, opts)
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http", "", "address of the HTTP API, e.g. 127.0.0.1:7070 (empty disables it)")
	cmd.Flags().StringVar(&pin, "pin", repository.DefaultPin, "HomeKit setup code (8 digits)")
	cmd.Flags().StringVar(&hapAddr, "hap-addr", "", "HomeKit listen address, e.g. :51826")
	return cmd
}

func newVolumeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "volume",
		Short: "Read or change the output volume",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Print the volume as HomeKit shows it",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				rt, err := newApp(cmd.Context())
				if err != nil {
					return err
				}
				v, _, err := rt.accessory.State(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\n", v)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <0-100>",
			Short: "Set the volume on the HomeKit scale",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("volume must be a number: %w", err)
				}
				rt, err := newApp(cmd.Context())
				if err != nil {
					return err
				}
				if err := rt.accessory.SetVolume(cmd.Context(), v); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "volume set to %d%%\n", v)
				return nil
			},
		},
	)
	return cmd
}

func newMuteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mute",
		Short: "Read or change the mute state",
	}
	set := func(muted bool) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			rt, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			if err := rt.accessory.SetMuted(cmd.Context(), muted); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "muted: %t\n", muted)
			return nil
		}
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Print whether output is muted",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				rt, err := newApp(cmd.Context())
				if err != nil {
					return err
				}
				_, muted, err := rt.accessory.State(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "muted: %t\n", muted)
				return nil
			},
		},
		&cobra.Command{Use: "on", Short: "Mute output", Args: cobra.NoArgs, RunE: set(true)},
		&cobra.Command{Use: "off", Short: "Unmute output", Args: cobra.NoArgs, RunE: set(false)},
	)
	return cmd
}

func newAdjustCmd() *cobra.Command {
	var delta int
	cmd := &cobra.Command{
		Use:       "adjust <up|down>",
		Short:     "Nudge the volume like the increase/decrease buttons",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			step := rt.settings.Accessory.Nudge.Delta
			if cmd.Flags().Changed("delta") {
				step = delta
			}
			if step <= 0 || step > 100 {
				return fmt.Errorf("--delta must be between 1 and 100, got %d", step)
			}
			switch args[0] {
			case "up":
			case "down":
				step = -step
			default:
				return fmt.Errorf("direction must be up or down, got %q", args[0])
			}
			v, err := rt.accessory.Adjust(cmd.Context(), step)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "volume adjusted to %d%%\n", v)
			return nil
		},
	}
	cmd.Flags().IntVar(&delta, "delta", 0, "step in percent (default: switchVolumeDelta from the config)")
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate the configuration",
	}
	cmd.AddCommand(newConfigGetCmd(), newConfigValidateCmd(), newConfigInitCmd())
	return cmd
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Print the effective configuration (YAML)",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			out, err := repository.Encode(settings, "effective.yaml")
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			if _, err := volume.New(settings.Backend); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d service(s), %s)\n",
				cfgPath, len(settings.Accessory.Services), settings.Accessory.Algorithm)
			return nil
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	var (
		force bool
		name  string
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(cfgPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
			}
			repo, err := repository.NewFileRepository(cfgPath)
			if err != nil {
				return err
			}
			settings := repository.DefaultSettings()
			if name != "" {
				settings.Accessory.Name = name
			}
			if err := repo.Save(settings); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", cfgPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.Flags().StringVar(&name, "name", "", "accessory name")
	return cmd
}

func newShellCmd() *cobra.Command {
	var prompt string
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive shell for the other commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractiveShell(prompt)
		},
	}
	cmd.Flags().StringVar(&prompt, "prompt", "volume> ", "shell prompt")
	return cmd
}

func runInteractiveShell(prompt string) error {
	historyFile := filepath.Join(os.TempDir(), "pc-volume-bridge-shell.history")
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	session := shellSession{config: cfgPath, backend: backendFlag}
	sessionVerbosity := verbosity
	fmt.Println("Interactive shell. Type 'help' for examples, 'exit' to quit.")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			fmt.Println()
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch line {
		case "exit", "quit":
			fmt.Println("Bye!")
			return nil
		case "help":
			printShellHelp()
			continue
		}
		tokens, err := shlex.Split(line)
		if err != nil {
			fmt.Printf("Parse error: %v\n", err)
			continue
		}
		if len(tokens) == 0 {
			continue
		}
		if tokens[0] == "log" {
			if err := handleShellLog(tokens[1:], &sessionVerbosity); err != nil {
				fmt.Printf("log: %v\n", err)
			}
			continue
		}
		if tokens[0] == "shell" {
			fmt.Println("Already in the shell. Enter another command or 'exit'.")
			continue
		}

		session.verbosity = sessionVerbosity
		if err := executeArgs(tokens, session); err != nil {
			fmt.Printf("command error: %v\n", err)
		}
	}
}

// shellSession carries the persistent flags of the shell invocation into
// each command, since NewRootCmd resets them to their defaults.
type shellSession struct {
	config    string
	backend   string
	verbosity int
}

func executeArgs(args []string, session shellSession) error {
	if len(args) == 0 {
		return nil
	}
	root := NewRootCmd()
	flags := root.PersistentFlags()
	_ = flags.Set("config", session.config)
	if session.backend != "" {
		_ = flags.Set("backend", session.backend)
	}
	if session.verbosity > 0 {
		_ = flags.Set("verbose", strconv.Itoa(session.verbosity))
	}
	root.SetArgs(args)
	return root.Execute()
}

func handleShellLog(args []string, sessionVerbosity *int) error {
	fs := pflag.NewFlagSet("log", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var vcount int
	var level string
	var show bool
	fs.CountVarP(&vcount, "verbose", "v", "Increase verbosity (-v... up to 4)")
	fs.StringVar(&level, "level", "", "level (error|warn|info|debug|trace)")
	fs.BoolVarP(&show, "show", "s", false, "show the current level")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch {
	case show && vcount == 0 && level == "":
		fmt.Printf("log level: %s (-v x%d)\n", logging.LevelName(), logging.Verbosity())
		return nil
	case level != "":
		_, count, err := logging.ParseLevel(level)
		if err != nil {
			return err
		}
		*sessionVerbosity = count
	case vcount > 0:
		*sessionVerbosity = vcount
	default:
		fmt.Printf("log level: %s (-v x%d)\n", logging.LevelName(), logging.Verbosity())
		return nil
	}

	verbosity = *sessionVerbosity
	logging.SetVerbosity(*sessionVerbosity)
	fmt.Printf("log level set to %s (-v x%d)\n", logging.LevelName(), logging.Verbosity())
	return nil
}

func printShellHelp() {
	fmt.Println(`Examples:
  serve --http 127.0.0.1:7070   # publish to HomeKit with the HTTP API
  volume get                    # print the volume
  volume set 40                 # set the volume
  mute on | mute off            # change the mute state
  adjust up --delta 10          # nudge the volume
  config get                    # print the effective configuration
  config validate               # check the configuration file
  log -vv                       # more verbose logging
  log --show                    # print the current log level
  exit / quit                   # leave the shell`)
}
