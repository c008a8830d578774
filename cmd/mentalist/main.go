package main

import (
	"log"

	"mentalist/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		log.Fatalf("mentalist: %v", err)
	}
}
