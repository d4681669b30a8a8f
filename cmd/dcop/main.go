package main

import "github.com/edp1096/toy-dcop/cmd/dcop/cmd"

func main() {
	cmd.Execute()
}
