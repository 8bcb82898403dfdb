// SPDX-License-Identifier: MPL-2.0

package main

import cmd "stackup-cli/cmd/stackup"

func main() {
	cmd.Execute()
}
