package main

import (
	"os"

	"github.com/yumyai/selscan/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
