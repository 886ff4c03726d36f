package revlink

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arthur-debert/revlink/internal/version"
	"github.com/arthur-debert/revlink/pkg/config"
	"github.com/arthur-debert/revlink/pkg/deploy"
	"github.com/arthur-debert/revlink/pkg/filesystem"
	"github.com/arthur-debert/revlink/pkg/manifest"
	"github.com/arthur-debert/revlink/pkg/paths"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	initTemplateFormatting()

	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "revlink",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.setupLogging(cmd)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf(MsgErrNoCommand)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		DisableAutoGenTag: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.CountVarP(&opts.verbosity, "verbose", "v", MsgFlagVerbose)
	flags.StringVarP(&opts.configFile, "config", "c", "", MsgFlagConfig)
	flags.StringVar(&opts.root, "root", "", MsgFlagRoot)
	flags.StringVar(&opts.live, "live", "", MsgFlagLive)
	flags.StringVarP(&opts.output, "output", "o", "auto", MsgFlagOutput)
	flags.BoolVar(&opts.logJSON, "log-json", false, MsgFlagLogJSON)

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "COMMANDS:"})
	rootCmd.AddGroup(&cobra.Group{ID: "misc", Title: "MISC:"})
	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	rootCmd.AddCommand(newUpdateCmd(opts))
	rootCmd.AddCommand(newWatchCmd(opts))
	rootCmd.AddCommand(newStatusCmd(opts))
	rootCmd.AddCommand(newCheckCmd(opts))
	rootCmd.AddCommand(newGenConfigCmd(opts))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func newUpdateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "update",
		Short:   MsgUpdateShort,
		Long:    MsgUpdateLong,
		Example: MsgUpdateExample,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.renderer(cmd)
			if err != nil {
				return err
			}
			env, err := opts.load()
			if err != nil {
				return err
			}
			mgr, err := env.manager()
			if err != nil {
				return err
			}

			updateErr := mgr.Update(cmd.Context())
			report := mgr.Report()
			if err := r.RenderResult(&report); err != nil {
				return err
			}
			return updateErr
		},
	}
}

func newWatchCmd(opts *globalOptions) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:     "watch",
		Short:   MsgWatchShort,
		Long:    MsgWatchLong,
		Example: MsgWatchExample,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.renderer(cmd)
			if err != nil {
				return err
			}
			env, err := opts.load()
			if err != nil {
				return err
			}
			mgr, err := env.manager()
			if err != nil {
				return err
			}
			if interval <= 0 {
				interval = env.cfg.Interval
			}

			ctx := cmd.Context()
			runner := deploy.NewRunner(mgr, interval)

			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)
			defer signal.Stop(hup)
			go func() {
				for {
					select {
					case <-hup:
						log.Info().Msg("SIGHUP received, running an update cycle")
						runner.Trigger()
					case <-ctx.Done():
						return
					}
				}
			}()

			_ = r.RenderMessage(fmt.Sprintf(MsgWatchStarted, interval))
			if err := runner.Run(ctx); err != nil {
				return err
			}
			return r.RenderMessage(MsgWatchStopped)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, MsgFlagInterval)
	return cmd
}

func newStatusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Short:   MsgStatusShort,
		Example: MsgStatusExample,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.renderer(cmd)
			if err != nil {
				return err
			}
			env, err := opts.load()
			if err != nil {
				return err
			}

			inv, err := deploy.Inspect(filesystem.NewOS(), env.paths.ContentRoot(), env.paths.LivePath())
			if err != nil {
				return err
			}
			return r.RenderResult(inv)
		},
	}
}

func newCheckCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "check [manifest|-]",
		Short:   MsgCheckShort,
		Long:    MsgCheckLong,
		Example: MsgCheckExample,
		GroupID: "core",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.renderer(cmd)
			if err != nil {
				return err
			}

			rc, err := openManifest(cmd, opts, args)
			if err != nil {
				return err
			}
			defer rc.Close()

			check, err := manifest.CheckManifest(rc)
			if err != nil {
				return fmt.Errorf(MsgErrReadManifest, err)
			}
			if err := r.RenderResult(check); err != nil {
				return err
			}
			return check.Err()
		},
	}
}

// openManifest reads a file, stdin for "-", or the configured source.
func openManifest(cmd *cobra.Command, opts *globalOptions, args []string) (io.ReadCloser, error) {
	if len(args) == 1 {
		if args[0] == "-" {
			return io.NopCloser(cmd.InOrStdin()), nil
		}
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf(MsgErrReadManifest, err)
		}
		return f, nil
	}

	env, err := opts.load()
	if err != nil {
		return nil, err
	}
	src, err := env.source()
	if err != nil {
		return nil, err
	}
	rc, err := src.ManifestStream(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf(MsgErrReadManifest, err)
	}
	return rc, nil
}

func newGenConfigCmd(opts *globalOptions) *cobra.Command {
	var write, force bool

	cmd := &cobra.Command{
		Use:     "gen-config",
		Short:   MsgGenConfigShort,
		Long:    MsgGenConfigLong,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			content := config.GenerateConfigContent()
			if !write {
				_, err := fmt.Fprint(cmd.OutOrStdout(), content)
				return err
			}

			path := opts.configFile
			if path == "" {
				p, err := paths.New("", "")
				if err != nil {
					return fmt.Errorf(MsgErrInitPaths, err)
				}
				path = p.ConfigFile()
			}
			if err := config.WriteConfigFile(afero.NewOsFs(), path, force); err != nil {
				return err
			}

			r, err := opts.renderer(cmd)
			if err != nil {
				return err
			}
			return r.RenderMessage(fmt.Sprintf(MsgConfigWritten, path))
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, MsgFlagWrite)
	cmd.Flags().BoolVarP(&force, "force", "f", false, MsgFlagForce)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), MsgVersionFormat, version.Version, version.Commit, version.Date)
			return err
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		GroupID:               "misc",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return GenerateCompletion(cmd.Root(), args[0], cmd.OutOrStdout())
		},
	}
}

// GenerateCompletion writes the completion script for shell.
func GenerateCompletion(root *cobra.Command, shell string, w io.Writer) error {
	switch shell {
	case "bash":
		return root.GenBashCompletionV2(w, true)
	case "zsh":
		return root.GenZshCompletion(w)
	case "fish":
		return root.GenFishCompletion(w, true)
	case "powershell":
		return root.GenPowerShellCompletionWithDesc(w)
	default:
		return fmt.Errorf(MsgUnknownShellType, shell)
	}
}
