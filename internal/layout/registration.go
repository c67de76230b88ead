package layout

import "strconv"

// Registration is one `run` invocation of the external tool.
type Registration struct {
	Stage         string
	Force         bool
	Exec          bool
	AlwaysChanged bool
	// Slurm, when positive, submits the stage command through `srun -n Slurm`.
	Slurm   int
	Options []string
	Command []string
}

// Argv returns the tool arguments. The stage command comes last because the
// tool treats everything after it as part of the command.
func (r Registration) Argv() []string {
	argv := []string{"run", "-n", r.Stage}
	if r.Force {
		argv = append(argv, "--force")
	}
	if !r.Exec {
		argv = append(argv, "--no-exec")
	}
	if r.AlwaysChanged {
		argv = append(argv, "--always-changed")
	}
	argv = append(argv, r.Options...)
	if r.Slurm > 0 {
		argv = append(argv, "srun", "-n", strconv.Itoa(r.Slurm))
	}
	return append(argv, r.Command...)
}
