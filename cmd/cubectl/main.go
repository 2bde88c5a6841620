// cubectl is the CLI client for inspecting and managing cubeconnectord's
// pairing store.
package main

import "github.com/sifteo/cubeconnectord/cmd/cubectl/commands"

func main() {
	commands.Execute()
}
