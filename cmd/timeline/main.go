package main

import (
	"github.com/tidepool-org/timeline/cmd/timeline/command"
)

func main() {
	command.Execute()
}
