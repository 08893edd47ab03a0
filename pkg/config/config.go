package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"modernc.org/libqbe"
)

type Warning int

const (
	WarnUnreachableCode Warning = iota
	WarnUnusedValue
	WarnExtra
	WarnPedantic
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

type Config struct {
	Warnings       map[Warning]Info
	WarningMap     map[string]Warning
	BackendName    string
	BackendTarget  string
	WordSize       int
	StackAlignment int
	// Log receives informational messages; nil discards them.
	Log io.Writer
}

func NewConfig() *Config {
	cfg := &Config{
		Warnings:       make(map[Warning]Info),
		WarningMap:     make(map[string]Warning),
		BackendName:    "x86_64",
		BackendTarget:  "amd64_sysv",
		WordSize:       8,
		StackAlignment: 16,
	}

	warnings := map[Warning]Info{
		WarnUnreachableCode: {"unreachable-code", true, "Warn about statements that follow a 'return'."},
		WarnUnusedValue:     {"unused-value", false, "Warn about expression statements whose value is discarded."},
		WarnExtra:           {"extra", true, "Enable extra miscellaneous warnings."},
		WarnPedantic:        {"pedantic", false, "Issue every warning the compiler knows about."},
	}

	cfg.Warnings = warnings
	for wt, info := range warnings {
		cfg.WarningMap[info.Name] = wt
	}
	return cfg
}

// Infof writes a progress line to Log.
func (c *Config) Infof(format string, args ...any) {
	if c.Log == nil {
		return
	}
	fmt.Fprintf(c.Log, "toycc: info: "+format+"\n", args...)
}

// SetTarget selects the backend from a "-t" value. Accepted forms are
// "x86_64", "qbe" (host QBE target) and "qbe/<qbe-target>".
func (c *Config) SetTarget(goos, goarch, target string) error {
	backend, qbeTarget, _ := strings.Cut(target, "/")
	if backend == "" {
		backend = "x86_64"
	}

	switch backend {
	case "x86_64", "amd64":
		c.BackendName, c.BackendTarget = "x86_64", "amd64_sysv"
	case "qbe":
		c.BackendName = "qbe"
		if qbeTarget == "" {
			c.BackendTarget = libqbe.DefaultTarget(goos, goarch)
			c.Infof("no QBE target specified, defaulting to host target '%s'", c.BackendTarget)
		} else {
			c.BackendTarget = qbeTarget
			c.Infof("using specified QBE target '%s'", c.BackendTarget)
		}
	default:
		return fmt.Errorf("unsupported target '%s'. Supported: 'x86_64', 'qbe', 'qbe/<target>'", target)
	}

	switch c.BackendTarget {
	case "amd64_sysv", "amd64_apple", "arm64", "arm64_apple", "rv64":
		c.WordSize, c.StackAlignment = 8, 16
	default:
		fmt.Fprintf(os.Stderr, "toycc: warning: unrecognized or unsupported QBE target '%s'.\n", c.BackendTarget)
		fmt.Fprintf(os.Stderr, "toycc: warning: defaulting to 64-bit properties. Compilation may fail.\n")
		c.WordSize, c.StackAlignment = 8, 16
	}
	return nil
}

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
	if wt == WarnPedantic && enabled {
		for i := Warning(0); i < WarnCount; i++ {
			info := c.Warnings[i]
			info.Enabled = true
			c.Warnings[i] = info
		}
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

// ApplyFlag handles a single warning flag such as "-Wall", "-Wno-extra" or
// "-Wunused-value". Unknown names are reported as an error.
func (c *Config) ApplyFlag(flag string) error {
	trimmed := strings.TrimPrefix(flag, "-")
	if !strings.HasPrefix(trimmed, "W") {
		return fmt.Errorf("not a warning flag: %s", flag)
	}
	name := strings.TrimPrefix(trimmed, "W")
	enable := true
	if strings.HasPrefix(name, "no-") {
		name = strings.TrimPrefix(name, "no-")
		enable = false
	}

	if name == "all" {
		for i := Warning(0); i < WarnCount; i++ {
			if i != WarnPedantic {
				c.SetWarning(i, enable)
			}
		}
		return nil
	}

	w, ok := c.WarningMap[name]
	if !ok {
		return fmt.Errorf("unknown warning '%s'", name)
	}
	c.SetWarning(w, enable)
	return nil
}

// FrameSize rounds the storage for n word-sized locals up to the stack
// alignment of the target.
func (c *Config) FrameSize(n int) int {
	size := n * c.WordSize
	if c.StackAlignment <= 1 {
		return size
	}
	return (size + c.StackAlignment - 1) / c.StackAlignment * c.StackAlignment
}
