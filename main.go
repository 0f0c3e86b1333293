package main

import "github.com/KaramelBytes/salescluster-cli/cmd"

func main() {
	cmd.Execute()
}
