// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/powerforge/powerforge/cmd/powerforge"

func main() {
	cmd.Execute()
}
