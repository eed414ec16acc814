// SPDX-License-Identifier: MPL-2.0

// divineui-updater installs and updates the Divine UI mod for Dota 2.
package main

import cmd "github.com/dota2-divine-ui/updater/cmd/divineui-updater"

func main() {
	cmd.Execute()
}
