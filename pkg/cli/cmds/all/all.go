// Package all registers all shell commands.
package all

import (
	_ "github.com/robotalks/siobridge/pkg/cli/cmds/session"
)
