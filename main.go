package main

import (
	"os"

	"github.com/visualizing-jp/prj-jcie-sub000/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
