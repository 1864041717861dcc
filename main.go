package main

import "audio-trimmer/cmd"

func main() {
	cmd.Execute()
}
