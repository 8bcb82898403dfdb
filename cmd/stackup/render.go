// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"stackup-cli/internal/config"
	"stackup-cli/internal/issue"
	"stackup-cli/internal/launch"
	"stackup-cli/internal/state"
)

// issueIDForError maps the well-known failure sentinels to their catalog
// cards. Errors without a card get the plain actionable rendering only.
// CUE schema violations are not mapped here: the same sentinel covers both
// config and stackfile parsing, so those cards render at the load sites
// where the context is known.
func issueIDForError(err error) (issue.Id, bool) {
	switch {
	case errors.Is(err, launch.ErrProgramNotFound):
		return issue.ProgramNotFoundId, true
	case errors.Is(err, state.ErrAlreadyRunning):
		return issue.ServiceAlreadyRunningId, true
	case errors.Is(err, state.ErrRunNotFound):
		return issue.ServiceNotRegisteredId, true
	case errors.Is(err, config.ErrInvalidConfig):
		return issue.ConfigLoadFailedId, true
	default:
		return 0, false
	}
}

// renderIssueCard writes the glamour-rendered card for err's failure class,
// when one exists.
func renderIssueCard(w io.Writer, err error) {
	if id, ok := issueIDForError(err); ok {
		renderCard(w, id)
	}
}

// renderCard writes one catalog card. Rendering failures degrade to the
// raw markdown.
func renderCard(w io.Writer, id issue.Id) {
	card := issue.Get(id)
	if card == nil {
		return
	}
	rendered, renderErr := card.Render("dark")
	if renderErr != nil {
		rendered = string(card.MarkdownMsg())
	}
	fmt.Fprintln(w, rendered)
}
