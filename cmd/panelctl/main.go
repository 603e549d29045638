package main

import (
	"os"

	panelcmd "github.com/picontrol/panelctl/pkg/panelctl/cmd"
)

func main() {
	root := panelcmd.NewRootCommand(panelcmd.DefaultConfig())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
