package main

import "github.com/redresslabs/redress/cmd"

func main() {
	cmd.Execute()
}
