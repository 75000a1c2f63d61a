package main

import "github.com/oshokin/alarm-orchestrator/cmd/alarm-ctl/cmd"

func main() {
	cmd.Execute()
}
