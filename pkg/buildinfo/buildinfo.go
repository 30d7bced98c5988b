// Package buildinfo populates infomem records from the build environment:
// environment variables, the git working tree, and the running Go toolchain.
// It is meant to be called from build tooling (a go:generate step, a Makefile
// target, or the infomem CLI), not from the decoder side.
package buildinfo

import (
	"fmt"
	"os"
	"os/exec"
	"path"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/ssargent/infomem/pkg/codec"
)

// Environment variables consulted by Generate. The INFOMEM_* variables win
// over values derived from the Go build info.
const (
	EnvAppName        = "INFOMEM_APP_NAME"
	EnvAppVersion     = "INFOMEM_APP_VERSION"
	EnvBackendVersion = "INFOMEM_BACKEND_VERSION"
)

// Options selects which record fields Generate populates. The zero value
// populates nothing; AllOptions enables everything. Explicit booleans rather
// than hidden defaults so a build script states exactly what it embeds.
type Options struct {
	AppName          bool
	AppVersion       bool
	AppGit           bool
	AppDate          bool
	ToolchainVersion bool
	ToolchainBackend bool
	ToolchainGit     bool
	ToolchainHost    bool
	ToolchainChannel bool
}

// AllOptions returns an Options with every field enabled.
func AllOptions() Options {
	return Options{
		AppName:          true,
		AppVersion:       true,
		AppGit:           true,
		AppDate:          true,
		ToolchainVersion: true,
		ToolchainBackend: true,
		ToolchainGit:     true,
		ToolchainHost:    true,
		ToolchainChannel: true,
	}
}

// Generate builds a record from the build environment according to opts.
//
// App fields come from the INFOMEM_APP_NAME / INFOMEM_APP_VERSION environment
// variables, falling back to the main module's build info. The app git field
// runs `git describe --always --dirty --tags`; like the rest of the git
// ecosystem tooling this never fails the build, it records "unknown" instead.
// Toolchain fields come from the running Go toolchain.
func Generate(opts Options) (*codec.Record, error) {
	r := codec.NewRecord()

	if opts.AppName {
		name, err := appName()
		if err != nil {
			return nil, err
		}
		s := codec.Owned(name)
		r.App.Name = &s
	}

	if opts.AppVersion {
		v, err := appVersion()
		if err != nil {
			return nil, err
		}
		r.App.Version = v
	}

	if opts.AppGit {
		s := codec.Owned(gitDescribe())
		r.App.Git = &s
	}

	if opts.AppDate {
		now := time.Now()
		r.App.BuildDate = &now
	}

	if opts.ToolchainVersion || opts.ToolchainChannel {
		version, channel := toolchain(runtime.Version())
		if opts.ToolchainVersion {
			r.Toolchain.Version = version
		}
		if opts.ToolchainChannel {
			r.Toolchain.Channel = channel
		}
	}

	if opts.ToolchainBackend {
		if raw := os.Getenv(EnvBackendVersion); raw != "" {
			v, err := codec.ParseSemVer(raw)
			if err != nil {
				return nil, fmt.Errorf("parsing %s: %w", EnvBackendVersion, err)
			}
			r.Toolchain.BackendVersion = &v
		}
	}

	if opts.ToolchainGit {
		if rev := toolchainRevision(); rev != "" {
			s := codec.Owned(rev)
			r.Toolchain.Git = &s
		}
	}

	if opts.ToolchainHost {
		s := codec.Owned(runtime.GOOS + "/" + runtime.GOARCH)
		r.Toolchain.Host = &s
	}

	return r, nil
}

func appName() (string, error) {
	if name := os.Getenv(EnvAppName); name != "" {
		return name, nil
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Path != "" {
		return path.Base(bi.Main.Path), nil
	}
	return "", fmt.Errorf("app name unavailable: set %s", EnvAppName)
}

func appVersion() (*codec.SemVer, error) {
	raw := os.Getenv(EnvAppVersion)
	if raw == "" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			raw = strings.TrimPrefix(bi.Main.Version, "v")
		}
	}
	if raw == "" || raw == "(devel)" {
		return nil, fmt.Errorf("app version unavailable: set %s", EnvAppVersion)
	}
	v, err := codec.ParseSemVer(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing app version: %w", err)
	}
	return &v, nil
}

// gitDescribe captures the working tree description, or "unknown" when the
// command fails or the tree is not a git checkout.
func gitDescribe() string {
	out, err := exec.Command("git", "describe", "--always", "--dirty", "--tags").Output()
	if err != nil {
		return "unknown"
	}
	desc := strings.TrimSpace(string(out))
	if desc == "" {
		return "unknown"
	}
	return desc
}

// toolchain parses a runtime.Version() string. Release toolchains look like
// "go1.23.4" or "go1.23" and map to the stable channel; development builds
// start with "devel" and map to the dev channel with no version.
func toolchain(raw string) (*codec.SemVer, *codec.Channel) {
	if strings.HasPrefix(raw, "devel") {
		ch := codec.ChannelDev
		return nil, &ch
	}

	trimmed := strings.TrimPrefix(raw, "go")
	if trimmed == raw {
		return nil, nil
	}
	// Strip release-candidate / beta suffixes: "1.23rc1" parses as 1.23
	// on the beta channel.
	ch := codec.ChannelStable
	for _, pre := range []string{"rc", "beta"} {
		if i := strings.Index(trimmed, pre); i >= 0 {
			trimmed = trimmed[:i]
			ch = codec.ChannelBeta
			break
		}
	}
	if strings.Count(trimmed, ".") == 1 {
		trimmed += ".0"
	}
	v, err := codec.ParseSemVer(trimmed)
	if err != nil {
		return nil, nil
	}
	return &v, &ch
}

// toolchainRevision reports the VCS revision of the toolchain if the build
// info carries one.
func toolchainRevision() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" {
			if len(s.Value) > 12 {
				return s.Value[:12]
			}
			return s.Value
		}
	}
	return ""
}
