// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"testing"

	"stackup-cli/internal/config"
	"stackup-cli/pkg/stackfile"
)

func TestServiceArgs(t *testing.T) {
	t.Parallel()

	appWithStack := &App{
		Config: config.DefaultConfig(),
		Stack: &stackfile.Stackfile{
			Services: []stackfile.Service{
				{Name: "worker", Program: "celery"},
				{Name: "scheduler", Program: "celery"},
			},
		},
	}
	appWithout := &App{Config: config.DefaultConfig()}

	tests := []struct {
		name string
		app  *App
		args []string
		want []stackfile.ServiceName
	}{
		{
			name: "explicit args win",
			app:  appWithStack,
			args: []string{"server"},
			want: []stackfile.ServiceName{"server"},
		},
		{
			name: "manifest services by default",
			app:  appWithStack,
			want: []stackfile.ServiceName{"worker", "scheduler"},
		},
		{
			name: "well-known pair without manifest",
			app:  appWithout,
			want: []stackfile.ServiceName{stackfile.ServiceWorker, stackfile.ServiceServer},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := serviceArgs(tt.app, tt.args)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("index %d: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	t.Parallel()

	root := NewRootCommand()
	want := []string{"up", "worker", "server", "run", "status", "stop", "logs", "config", "init", "completion"}
	for _, name := range want {
		found := false
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestExitErrorMessage(t *testing.T) {
	t.Parallel()

	e := &ExitError{Code: 143}
	if e.Error() != "exit status 143" {
		t.Errorf("Error() = %q", e.Error())
	}
}
