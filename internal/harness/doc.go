// Package harness runs packaging scenarios against the serverless CLI with
// guaranteed cleanup between cases.
//
// A Lifecycle wraps every case:
//
//	setup     evict the user cache directory
//	body      run external commands, inspect the extracted artifact
//	teardown  purge fixture paths, `git checkout serverless.yml`,
//	          restore the working directory, remove "tests/base with a space"
//
// Teardown is deferred, so it runs after a normal return, a returned error,
// a recorded assertion failure, t.FailNow or a panic. Teardown errors are
// joined onto the case error rather than hidden.
//
// # Scenario Format
//
// Scenarios are YAML files checked against an embedded CUE schema:
//
//	name: py3-zip
//	description: "py3.6 can package flask with zip option"
//	python_version: 3
//	options:
//	  zip: true
//	extract_dir: puck
//	assertions:
//	  - type: entry_present
//	    entry: .requirements.zip
//	  - type: entry_absent
//	    entry: flask
//	  - type: glob_empty
//	    pattern: "**/*.pyc"
//
// # Assertion Types
//
//   - entry_present: the extracted directory lists the entry
//   - entry_absent: the extracted directory does not list the entry
//   - glob_empty: no path below the extracted directory matches the pattern
//
// # Usage
//
// From a Go test:
//
//	lc, err := harness.New(harness.Options{})
//	require.NoError(t, err)
//	lc.Test(t, scenario.Description, scenario.Body())
//
// From the CLI, RunScenario records failures in a Result instead of a
// *testing.T.
//
// Cases run strictly one at a time: the working directory and the cache
// directory are process-wide state.
package harness
