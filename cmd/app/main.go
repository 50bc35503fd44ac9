package main

import (
	"dispatch/cmd"

	"github.com/labstack/gommon/log"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		log.Fatalf("dispatcher: %v", err)
	}
}
