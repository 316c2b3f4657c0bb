package main

import "github.com/daystar-sdg/sdgtrack/cmd"

func main() {
	cmd.Execute()
}
