package revlink

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "Deploy versioned content behind an atomic live link"
	MsgUpdateShort     = "Run one update cycle"
	MsgWatchShort      = "Run update cycles on an interval"
	MsgStatusShort     = "Show revisions on disk and the live target"
	MsgCheckShort      = "Validate a manifest without deploying it"
	MsgGenConfigShort  = "Print or write the default configuration"
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"

	MsgCheckLong = "Parse a manifest and report dropped lines and the live revision.\n\n" +
		"With no argument the manifest is read from the configured source; \"-\" reads stdin."
	MsgGenConfigLong = "Print the default configuration with every value commented out.\n\n" +
		"With --write the file is saved to the user config path unless it already exists."

	// Examples
	MsgUpdateExample = `  revlink update
  revlink update --root /srv/content -o json`
	MsgWatchExample = `  revlink watch
  revlink watch --interval 30s`
	MsgCheckExample = `  revlink check
  revlink check ./config.txt
  curl -s https://cdn.example.com/content/config.txt | revlink check -`
	MsgStatusExample = `  revlink status
  revlink status -o yaml`

	// Status messages
	MsgWatchStarted     = "Watching for updates every %s (Ctrl-C to stop)"
	MsgWatchStopped     = "Stopped"
	MsgConfigWritten    = "Wrote default configuration to %s"
	MsgVersionFormat    = "revlink version %s\n  commit: %s\n  built:  %s\n"
	MsgUnknownShellType = "unsupported shell type %q"

	// Error messages
	MsgErrNoCommand    = "no command specified"
	MsgErrInitPaths    = "failed to initialize paths: %w"
	MsgErrOutputFormat = "invalid --output: %w"
	MsgErrReadManifest = "failed to read manifest: %w"

	// Flag descriptions
	MsgFlagVerbose  = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig   = "Config file (default $XDG_CONFIG_HOME/revlink/config.toml)"
	MsgFlagRoot     = "Content root revisions are materialized under"
	MsgFlagLive     = "Path of the live link (default <root>/live)"
	MsgFlagOutput   = "Output format: auto, term, text, json, yaml or toml"
	MsgFlagInterval = "Time between cycles (default from config)"
	MsgFlagWrite    = "Write to the user config file instead of stdout"
	MsgFlagForce    = "Overwrite an existing config file"
	MsgFlagLogJSON  = "Write logs as JSON lines instead of the console format"
)

var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/update-long.txt
	msgUpdateLongRaw string
	MsgUpdateLong    = strings.TrimSpace(msgUpdateLongRaw)

	//go:embed msgs/watch-long.txt
	msgWatchLongRaw string
	MsgWatchLong    = strings.TrimSpace(msgWatchLongRaw)

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)
)
