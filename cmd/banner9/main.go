package main

import "github.com/openswoop/banner9/cmd"

func main() {
	cmd.Execute()
}
