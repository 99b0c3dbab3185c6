package main

import "github.com/mouse-blink/perturb/cmd"

func main() {
	cmd.Execute()
}
