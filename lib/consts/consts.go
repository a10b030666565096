// Package consts houses some constants needed across a11yscan.
package consts

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version contains the current semantic version of a11yscan.
const Version = "0.1.0"

// FullVersion returns the version with the build details.
func FullVersion() string {
	goVersionArch := fmt.Sprintf("%s, %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if commit := commitID(); commit != "" {
		return fmt.Sprintf("%s (commit/%s, %s)", Version, commit, goVersionArch)
	}
	return fmt.Sprintf("%s (%s)", Version, goVersionArch)
}

// VersionDetails returns the structured details about the version.
func VersionDetails() map[string]string {
	details := map[string]string{
		"version":    "v" + Version,
		"go_version": runtime.Version(),
		"go_os":      runtime.GOOS,
		"go_arch":    runtime.GOARCH,
	}
	if commit := commitID(); commit != "" {
		details["commit"] = commit
	}
	return details
}

func commitID() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var commit string
	dirty := false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if len(s.Value) > 10 {
				commit = s.Value[:10]
			} else {
				commit = s.Value
			}
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if commit != "" && dirty {
		commit += "-dirty"
	}
	return commit
}

// Banner returns the ASCII-art banner with the a11yscan logo.
func Banner() string {
	return `
         _ _
   __ _ / / |_   _ ___  ___ __ _ _ __
  / _' || | | | | / __|/ __/ _' | '_ \
 | (_| || | | |_| \__ \ (_| (_| | | | |
  \__,_||_|_|\__, |___/\___\__,_|_| |_|
             |___/`
}
