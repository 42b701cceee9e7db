package main

import "github.com/dbgtable/inspect/cmd"

func main() {
	cmd.Execute()
}
