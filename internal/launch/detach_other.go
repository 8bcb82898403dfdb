// SPDX-License-Identifier: MPL-2.0

//go:build !unix

package launch

import "errors"

// errDetachUnavailable is returned on platforms without session support.
var errDetachUnavailable = errors.New("detached mode requires a unix platform")

// Detach is not supported without setsid semantics.
func Detach(_ *ProcessSpec, _ string) (int, error) {
	return 0, errDetachUnavailable
}
