// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Command cvm runs programs on the virtual CPU, and checks the memory they
// leave behind.
package main

func main() {
	Execute()
}
