package main

import (
	"os"

	"github.com/tawjihi/mathbot/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
