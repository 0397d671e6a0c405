// Package main is the entry point for the structure command.
package main

func main() {
	Execute()
}
