package main

import (
	"os"

	"github.com/jonesrussell/north-cloud/index-rotator/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
