package main

import (
	"github.com/ssargent/infomem/cmd/infomem/cmd"
)

func main() {
	cmd.Execute()
}
