package main

import "github.com/Tiliavir/project-time/cmd"

func main() {
	cmd.Execute()
}
