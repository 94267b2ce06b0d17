package main

import (
	"github.com/robotalks/siobridge/pkg/bridge"
	"github.com/robotalks/siobridge/pkg/cli/sh"

	_ "github.com/robotalks/siobridge/pkg/cli/cmds/all"
)

//go-build: CGO_ENABLED=0

func init() {
	bridge.SetupFlags()
}

func main() {
	sh.Main()
}
