// Package paths provides centralized path handling for revlink.
//
// It resolves the content root, the live pointer and the XDG directories
// the tool reads its configuration from and writes its log to.
//
// # Environment Variables
//
//   - REVLINK_DATA_DIR: Override XDG data directory (default: $XDG_DATA_HOME/revlink)
//   - REVLINK_CONFIG_DIR: Override XDG config directory (default: $XDG_CONFIG_HOME/revlink)
//   - REVLINK_STATE_DIR: Override XDG state directory (default: $XDG_STATE_HOME/revlink)
//
// # Layout
//
//   - Content root: <data>/content unless configured
//   - Live pointer: <content root>/live unless configured
//   - Config file: <config>/config.toml
//   - Log file: <state>/revlink.log
//
// # Usage
//
//	p, err := paths.New("", "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	root := p.ContentRoot() // /home/user/.local/share/revlink/content
//	live := p.LivePath()    // /home/user/.local/share/revlink/content/live
package paths
