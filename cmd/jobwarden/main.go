package main

import "jobwarden/internal/cmd"

func main() {
	cmd.Run()
}
