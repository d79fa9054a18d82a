package main

import (
	"os"

	"github.com/OpenTraceLab/csvfplay/cmd/csvfplay/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
