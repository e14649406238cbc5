package main

import (
	"fmt"
	"os"
)

func main() {
	token := os.Getenv("SERVICE_TOKEN")
	if token == "" {
		fmt.Fprintln(os.Stderr, "SERVICE_TOKEN is not set")
		os.Exit(1)
	}
	fmt.Println("ready")
}
