package main

import (
	"github.com/questdeck/questdeck/cmd"
)

func main() {
	cmd.Execute()
}
