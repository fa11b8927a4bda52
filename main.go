package main

import "github.com/fylein/fyle-integrations-imports/cmd"

func main() {
	cmd.Execute()
}
