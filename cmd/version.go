// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set via -ldflags. GitCommit and BuildDate fall back to the VCS stamp
// embedded by the go toolchain.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	rootCmd.AddCommand(versionCmd)

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("LandingPress {{.Version}}\n")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := VersionInfo()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "LandingPress %s\n", info["version"])
		fmt.Fprintf(out, "  Git commit: %s\n", info["git_commit"])
		fmt.Fprintf(out, "  Built:      %s\n", info["build_date"])
		fmt.Fprintf(out, "  Go version: %s\n", info["go_version"])
		fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", info["os"], info["arch"])
	},
}

// VersionInfo returns structured version information.
func VersionInfo() map[string]string {
	commit, built := GitCommit, BuildDate
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch {
			case s.Key == "vcs.revision" && commit == "unknown":
				commit = s.Value
			case s.Key == "vcs.time" && built == "unknown":
				built = s.Value
			}
		}
	}
	return map[string]string{
		"version":    Version,
		"git_commit": commit,
		"build_date": built,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
	}
}
