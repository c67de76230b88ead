// Package config loads the project configuration file stagetrack.cue.
//
// Every field is optional. Absent fields keep the values of Default, and a
// missing file yields Default unchanged.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileName is the configuration file looked up at the project root.
const FileName = "stagetrack.cue"

// Config is the resolved project configuration.
type Config struct {
	ConfigVersion string
	// InternalsFile is the internals store, relative to the project root.
	InternalsFile string
	Dirs          Dirs
	Tool          Tool
	Stage         Stage
	Slurm         Slurm
	Lua           LuaSandbox
}

// Dirs holds the base directories of derived paths.
type Dirs struct {
	Outs   string
	Params string
	Nodes  string
}

// Tool configures the external pipeline tool.
type Tool struct {
	Program          string
	TimeoutMs        int
	KillProcessGroup bool
	Capture          Capture
	Env              map[string]string
}

// Timeout returns the configured timeout, zero when unlimited.
func (t Tool) Timeout() time.Duration {
	return time.Duration(t.TimeoutMs) * time.Millisecond
}

// Capture controls how the tool's output is surfaced.
type Capture struct {
	// Stdout and Stderr forward the tool output to the caller's streams.
	Stdout   bool
	Stderr   bool
	MaxBytes int
}

// Stage configures the command the tool runs for each stage.
type Stage struct {
	// Program is the stage executable. Empty means the running binary.
	Program string
}

// Slurm configures the optional srun prefix.
type Slurm struct {
	N int
}

// LuaSandbox bounds the list --where predicate.
type LuaSandbox struct {
	TimeoutMs        int
	InstructionLimit int
	Libs             LuaLibs
}

// LuaLibs selects the standard libraries opened in the sandbox.
type LuaLibs struct {
	Base   bool
	Table  bool
	String bool
	Math   bool
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		ConfigVersion: CurrentConfigVersion,
		InternalsFile: filepath.Join("config", "internals.json"),
		Dirs:          Dirs{Outs: "outs", Params: "params", Nodes: "nodes"},
		Tool: Tool{
			Program:          "dvc",
			KillProcessGroup: true,
			Capture:          Capture{Stdout: true, Stderr: true, MaxBytes: 64 * 1024},
		},
		Slurm: Slurm{N: 1},
		Lua: LuaSandbox{
			TimeoutMs:        200,
			InstructionLimit: 100000,
			Libs:             LuaLibs{Base: true, Table: true, String: true, Math: true},
		},
	}
}

// Load reads the configuration at path. A missing file yields Default.
func Load(path string) (Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	v, err := compileCUE(path)
	if err != nil {
		return Config{}, err
	}
	c := Default()
	if err := parseVersion(v, &c); err != nil {
		return Config{}, err
	}
	parseStoreSection(v, &c)
	if err := parseToolSection(v, &c.Tool); err != nil {
		return Config{}, err
	}
	parseStageSection(v, &c)
	if err := parseLuaSandboxSection(v, &c.Lua); err != nil {
		return Config{}, err
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadDir reads FileName in dir.
func LoadDir(dir string) (Config, error) {
	return Load(filepath.Join(dir, FileName))
}

func (c Config) validate() error {
	if c.InternalsFile == "" {
		return errors.New("invalid value for internalsFile: must not be empty")
	}
	dirs := []struct{ name, dir string }{
		{"dirs.outs", c.Dirs.Outs}, {"dirs.params", c.Dirs.Params}, {"dirs.nodes", c.Dirs.Nodes},
	}
	for _, d := range dirs {
		if d.dir == "" || filepath.IsAbs(d.dir) {
			return fmt.Errorf("invalid value for %s: must be a relative path", d.name)
		}
	}
	if c.Tool.Program == "" {
		return errors.New("invalid value for tool.program: must not be empty")
	}
	if c.Tool.TimeoutMs < 0 {
		return errors.New("invalid value for tool.timeoutMs: must be >= 0")
	}
	if c.Slurm.N < 1 {
		return errors.New("invalid value for slurm.n: must be >= 1")
	}
	return nil
}
