package main

import "roomload/cmd"

func main() {
	cmd.Execute()
}
