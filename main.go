package main

import "github.com/wardle/hiservice/cmd"

func main() {
	cmd.Execute()
}
