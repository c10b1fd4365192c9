package main

import (
	"log"

	"github.com/pinewood-robotics/chatbridge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
