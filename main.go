package main

import (
	"os"

	"go.withmatt.com/crmmail/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
