package config

import (
	"fmt"

	"cuelang.org/go/cue"
)

func parseVersion(v cue.Value, c *Config) error {
	if err := requireStringField(v, "configVersion"); err != nil {
		return err
	}
	lookupString(v, "configVersion", &c.ConfigVersion)
	return checkConfigVersion(c.ConfigVersion)
}

// parseStoreSection extracts internalsFile and dirs.*.
func parseStoreSection(v cue.Value, c *Config) {
	lookupString(v, "internalsFile", &c.InternalsFile)
	dv := v.LookupPath(cue.ParsePath("dirs"))
	if !dv.Exists() {
		return
	}
	lookupString(dv, "outs", &c.Dirs.Outs)
	lookupString(dv, "params", &c.Dirs.Params)
	lookupString(dv, "nodes", &c.Dirs.Nodes)
}

// parseToolSection extracts optional tool.* fields.
func parseToolSection(v cue.Value, t *Tool) error {
	tv := v.LookupPath(cue.ParsePath("tool"))
	if !tv.Exists() {
		return nil
	}
	lookupString(tv, "program", &t.Program)
	lookupInt(tv, "timeoutMs", &t.TimeoutMs)
	lookupBool(tv, "killProcessGroup", &t.KillProcessGroup)
	if cv := tv.LookupPath(cue.ParsePath("capture")); cv.Exists() {
		lookupBool(cv, "stdout", &t.Capture.Stdout)
		lookupBool(cv, "stderr", &t.Capture.Stderr)
		lookupInt(cv, "maxBytes", &t.Capture.MaxBytes)
	}
	ev := tv.LookupPath(cue.ParsePath("env"))
	if !ev.Exists() {
		return nil
	}
	if ev.Kind() != cue.StructKind {
		return fmt.Errorf("invalid type for field: tool.env (expected struct)")
	}
	env := map[string]string{}
	if err := ev.Decode(&env); err != nil {
		return fmt.Errorf("invalid value for tool.env: %v", err)
	}
	t.Env = env
	return nil
}

// parseStageSection extracts stage.program and slurm.n.
func parseStageSection(v cue.Value, c *Config) {
	if sv := v.LookupPath(cue.ParsePath("stage")); sv.Exists() {
		lookupString(sv, "program", &c.Stage.Program)
	}
	if sv := v.LookupPath(cue.ParsePath("slurm")); sv.Exists() {
		lookupInt(sv, "n", &c.Slurm.N)
	}
}

// parseLuaSandboxSection extracts optional lua sandbox settings.
func parseLuaSandboxSection(v cue.Value, s *LuaSandbox) error {
	lv := v.LookupPath(cue.ParsePath("lua"))
	if !lv.Exists() {
		return nil
	}
	lookupInt(lv, "timeoutMs", &s.TimeoutMs)
	lookupInt(lv, "instructionLimit", &s.InstructionLimit)
	if s.TimeoutMs < 0 || s.InstructionLimit < 0 {
		return fmt.Errorf("invalid value for lua limits: must be >= 0")
	}
	libs := lv.LookupPath(cue.ParsePath("libs"))
	if !libs.Exists() {
		return nil
	}
	lookupBool(libs, "base", &s.Libs.Base)
	lookupBool(libs, "table", &s.Libs.Table)
	lookupBool(libs, "string", &s.Libs.String)
	lookupBool(libs, "math", &s.Libs.Math)
	return nil
}
