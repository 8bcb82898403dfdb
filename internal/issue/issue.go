// SPDX-License-Identifier: MPL-2.0

// Package issue holds the user-facing error surface: ActionableError for
// structured operation/resource/suggestion messages, and a small catalog of
// rendered markdown cards for the operational failures users hit most often.
package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ConfigLoadFailedId Id = iota + 1
	StackfileNotFoundId
	StackfileParseErrorId
	ProgramNotFoundId
	ServiceAlreadyRunningId
	ServiceNotRegisteredId
	LogDirNotWritableId
)

type MarkdownMsg string

type Issue struct {
	id    Id          // ID used to look up the issue
	mdMsg MarkdownMsg // markdown text rendered to the terminal
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) Render(stylePath string) (string, error) {
	return render(string(i.mdMsg), stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Configuration could not be loaded

Your config file exists but could not be parsed or validated.

## Things you can try:
- Check the error above for the offending field
- Validate the file with the cue command-line tool
- Regenerate a default config:
~~~
$ stackup config init --force
~~~`,
	}

	stackfileNotFoundIssue = &Issue{
		id: StackfileNotFoundId,
		mdMsg: `
# No stackfile found

We searched from the current directory up to the filesystem root without
finding a ` + "`stackfile.cue`" + `.

## Things you can try:
- Create a starter manifest in your project directory:
~~~
$ stackup init
~~~
- Or rely on the built-in worker/server defaults:
~~~
$ stackup up
~~~`,
	}

	stackfileParseErrorIssue = &Issue{
		id: StackfileParseErrorId,
		mdMsg: `
# Failed to parse stackfile

Your stackfile contains syntax errors or invalid configuration.

## Common issues:
- Invalid CUE syntax (missing quotes, braces)
- Unknown field names
- A service without a ` + "`program`" + `

## Example of a valid service:
~~~cue
services: [{
	name:    "worker"
	program: "celery"
	args: ["-A", "app.celery", "worker", "-c", "1"]
}]
~~~`,
	}

	programNotFoundIssue = &Issue{
		id: ProgramNotFoundId,
		mdMsg: `
# Program not found

The external program this service launches is not on your PATH.

## Things you can try:
- Install the tool, or activate the runtime environment that provides it
- Point ` + "`runtime_env`" + ` in your config file at the project virtualenv:
~~~cue
runtime_env: ".venv"
~~~
- Override the program in your stackfile's service entry`,
	}

	serviceAlreadyRunningIssue = &Issue{
		id: ServiceAlreadyRunningId,
		mdMsg: `
# Service already running

A detached instance of this service is registered and its process is alive.

## Things you can try:
- Inspect it:
~~~
$ stackup status
~~~
- Stop it first:
~~~
$ stackup stop <name>
~~~`,
	}

	serviceNotRegisteredIssue = &Issue{
		id: ServiceNotRegisteredId,
		mdMsg: `
# Service not registered

No detached instance of this service is recorded in the state registry.
Foreground runs are not registered; only ` + "`--detach`" + ` launches are.

## Things you can try:
- List what is registered:
~~~
$ stackup status
~~~`,
	}

	logDirNotWritableIssue = &Issue{
		id: LogDirNotWritableId,
		mdMsg: `
# Log directory not writable

The log directory could not be created or opened for appending.

## Things you can try:
- Check permissions on the configured ` + "`log_dir`" + `
- Point logs somewhere writable in your config file:
~~~cue
log_dir: "/tmp/stackup-logs"
~~~`,
	}

	catalog = []*Issue{
		configLoadFailedIssue,
		stackfileNotFoundIssue,
		stackfileParseErrorIssue,
		programNotFoundIssue,
		serviceAlreadyRunningIssue,
		serviceNotRegisteredIssue,
		logDirNotWritableIssue,
	}
)

// Get returns the catalog issue with the given id, or nil when unknown.
func Get(id Id) *Issue {
	idx := slices.IndexFunc(catalog, func(i *Issue) bool { return i.id == id })
	if idx < 0 {
		return nil
	}
	return catalog[idx]
}
