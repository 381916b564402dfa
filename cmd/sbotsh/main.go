package main

import (
	"github.com/sourcebots/sbot.go/pkg/cli/sh"

	_ "github.com/sourcebots/sbot.go/pkg/cli/cmds/boards"
)

//go-build: CGO_ENABLED=0

func main() {
	sh.Main()
}
