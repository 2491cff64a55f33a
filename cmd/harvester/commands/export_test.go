package commands

import "io"

// SetArgs sets the arguments for the command.
func (a *App) SetArgs(args []string) {
	a.cmd.SetArgs(args)
}

// WithOutput sets the writers for progress lines and logs.
func WithOutput(out, errOut io.Writer) Options {
	return func(o *options) {
		o.out = out
		o.errOut = errOut
	}
}

// WithRunID makes every run use id as its run identifier.
func WithRunID(id string) Options {
	return func(o *options) {
		o.newID = func() string { return id }
	}
}
