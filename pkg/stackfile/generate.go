// SPDX-License-Identifier: MPL-2.0

package stackfile

// StarterManifest is the stackfile written by `stackup init`. It spells out
// the two built-in services with their default invocations so projects have
// something concrete to edit.
const StarterManifest = `// stackfile.cue — dev-stack service manifest.
//
// The "worker" and "server" entries below mirror the built-in defaults;
// delete them to fall back to global config, or edit them to override.

description: "Local development stack"

env: {
	// files: ["./.env?"]          // '?' marks the file as optional
	// vars: { APP_ENV: "development" }
}

services: [
	{
		name:        "worker"
		description: "Task-queue worker"
		program:     "celery"
		args: ["-A", "app.celery", "worker", "-P", "prefork", "-c", "1",
			"-Q", "dataset,generation,mail,ops_trace", "--loglevel", "INFO"]
	},
	{
		name:        "server"
		description: "Web dev server"
		program:     "flask"
		args: ["run", "--host", "0.0.0.0", "--port", "5001", "--debug"]
		watch: {
			patterns: ["**/*.py"]
			ignore: ["**/.venv/**"]
		}
	},
]
`
