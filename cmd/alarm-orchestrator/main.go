package main

import "github.com/oshokin/alarm-orchestrator/cmd/alarm-orchestrator/cmd"

func main() {
	cmd.Execute()
}
