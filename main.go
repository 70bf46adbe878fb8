package main

import "golang-wifista/cmd"

func main() {
	cmd.Execute()
}
