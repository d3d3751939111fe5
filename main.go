package main

import (
	"github.com/chasedut/anonchat/internal/cmd"
)

func main() {
	cmd.Execute()
}
