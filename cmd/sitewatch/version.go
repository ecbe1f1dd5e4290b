package main

import (
	"fmt"
	rdebug "runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.version=v1.2.3".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build info",
	Run: func(cmd *cobra.Command, args []string) {
		info, _ := rdebug.ReadBuildInfo()
		fmt.Fprintln(cmd.OutOrStdout(), versionString(version, info))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// versionString renders "sitewatch <version> (<revision>[-dirty], <vcs time>, <go version>)",
// leaving out whatever the build did not record.
func versionString(v string, info *rdebug.BuildInfo) string {
	if info == nil {
		return "sitewatch " + v
	}

	var rev, built string
	dirty := false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
			if len(rev) > 12 {
				rev = rev[:12]
			}
		case "vcs.time":
			built = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev != "" && dirty {
		rev += "-dirty"
	}

	var parts []string
	for _, p := range []string{rev, built, info.GoVersion} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "sitewatch " + v
	}
	return fmt.Sprintf("sitewatch %s (%s)", v, strings.Join(parts, ", "))
}
