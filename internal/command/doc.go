// Package command runs external programs synchronously for the packaging harness.
//
// A Runner is bound to one program name. Every call blocks until the child
// process exits and is normalized into an Outcome:
//
//   - the program could not be launched: Outcome.LaunchErr is set and the
//     error is returned to the caller unmodified;
//   - the program exited non-zero: Run returns an *ExitError carrying the
//     program name, the status and the captured streams;
//   - the program exited zero: Run returns stdout with trailing whitespace
//     trimmed.
//
// The child environment is the ambient environment overlaid with SLS_DEBUG=t
// and, when CI is set, LC_ALL/LANG forced to C.UTF-8. Per-call overlays are
// applied last.
//
// # Usage
//
//	tools := command.NewToolchain(command.DefaultPrograms(), logger)
//	artifact, err := tools.Npm.Run([]string{"pack", "../.."})
//	if err != nil {
//	    return err
//	}
//
// No timeout is applied to children: a hung process blocks its caller.
package command
