// Command tomasulo is a thin entry point; the real CLI lives in
// cmd/rv32sim so `go run ./cmd/rv32sim` is the supported invocation.
package main

import "fmt"

func main() {
	fmt.Println("Use: go run ./cmd/rv32sim [flags] [image]")
}
