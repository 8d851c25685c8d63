package main

import "github.com/frahmantamala/electrotrack/cmd"

func main() {
	cmd.Execute()
}
