package main

import "github.com/theirongolddev/partsbin/cmd"

func main() {
	cmd.Execute()
}
