package revlink

import (
	"fmt"

	"github.com/arthur-debert/revlink/pkg/archive"
	"github.com/arthur-debert/revlink/pkg/config"
	"github.com/arthur-debert/revlink/pkg/deploy"
	"github.com/arthur-debert/revlink/pkg/logging"
	"github.com/arthur-debert/revlink/pkg/paths"
	"github.com/arthur-debert/revlink/pkg/source"
	"github.com/arthur-debert/revlink/pkg/types"
	"github.com/arthur-debert/revlink/pkg/ui"
	"github.com/spf13/cobra"
)

// globalOptions holds the persistent flags.
type globalOptions struct {
	verbosity  int
	configFile string
	root       string
	live       string
	output     string
	logJSON    bool
}

// setupLogging sends logs to the command's stderr and the state directory.
func (o *globalOptions) setupLogging(cmd *cobra.Command) {
	logFile := ""
	if p, err := paths.New("", ""); err == nil {
		logFile = p.LogFilePath()
	}
	logging.Setup(logging.Options{
		Verbosity: o.verbosity,
		LogFile:   logFile,
		Console:   cmd.ErrOrStderr(),
		JSON:      o.logJSON,
	})
}

// environment is the resolved configuration a command runs against.
type environment struct {
	cfg   *config.Config
	paths paths.Paths
}

// load resolves configuration with flags taking precedence over the
// environment and the config file.
func (o *globalOptions) load() (*environment, error) {
	defaults, err := paths.New("", "")
	if err != nil {
		return nil, fmt.Errorf(MsgErrInitPaths, err)
	}

	overrides := map[string]interface{}{}
	if o.root != "" {
		overrides["root"] = o.root
	}
	if o.live != "" {
		overrides["live_path"] = o.live
	}

	cfg, err := config.Load(config.LoadOptions{
		ConfigFile:        o.configFile,
		DefaultConfigFile: defaults.ConfigFile(),
		Overrides:         overrides,
	})
	if err != nil {
		return nil, err
	}

	p, err := paths.New(cfg.Root, cfg.LivePath)
	if err != nil {
		return nil, fmt.Errorf(MsgErrInitPaths, err)
	}

	logger := logging.WithFields(map[string]interface{}{
		"root":   p.ContentRoot(),
		"live":   p.LivePath(),
		"source": cfg.Source.Kind,
	})
	logger.Debug().Msg("Configuration resolved")
	return &environment{cfg: cfg, paths: p}, nil
}

func (e *environment) source() (types.ContentSource, error) {
	return source.New(source.Options{
		Kind:     e.cfg.Source.Kind,
		Dir:      paths.ExpandHome(e.cfg.Source.Dir),
		URL:      e.cfg.Source.URL,
		Manifest: e.cfg.Source.Manifest,
		Timeout:  e.cfg.Source.Timeout,
		Verify:   e.cfg.Source.Verify,
	})
}

func (e *environment) manager() (*deploy.Manager, error) {
	opts := deploy.Options{
		Root:     e.paths.ContentRoot(),
		LivePath: e.paths.LivePath(),
		Extractor: archive.NewExtractor(
			archive.WithMaxFiles(e.cfg.Archive.MaxFiles),
			archive.WithMaxBytes(e.cfg.Archive.MaxBytes),
		),
	}

	if e.cfg.LocalContentDir != "" {
		opts.LocalContentDir = paths.ExpandHome(e.cfg.LocalContentDir)
	} else {
		src, err := e.source()
		if err != nil {
			return nil, err
		}
		opts.Source = src
	}
	return deploy.New(opts)
}

func (o *globalOptions) renderer(cmd *cobra.Command) (ui.Renderer, error) {
	format, err := ui.ParseFormat(o.output)
	if err != nil {
		return nil, fmt.Errorf(MsgErrOutputFormat, err)
	}
	return ui.NewRenderer(format, cmd.OutOrStdout())
}
