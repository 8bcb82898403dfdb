// SPDX-License-Identifier: MPL-2.0

// Package launch turns service definitions into running OS processes.
//
// It assembles the exact command lines the original launch scripts used
// (worker: -A <app> worker -P <pool> -c <n> -Q <queues> --loglevel <lvl>;
// server: run --host <h> --port <p> [--debug]), builds the child environment
// with a documented precedence, runs optional pre-start hooks in the
// embedded shell interpreter, and starts the process either in the
// foreground (combined output teed to the terminal and the log sink, with
// graceful TERM-then-KILL shutdown) or detached in its own session with
// output redirected to the log file.
package launch
