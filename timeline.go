package main

import (
	"github.com/tidepool-org/timeline/api"
)

func main() {
	api.MainLoop()
}
