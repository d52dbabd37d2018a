package main

import "github.com/user/mindhub/cmd"

func main() {
	cmd.Execute()
}
