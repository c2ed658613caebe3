package main

import "github.com/KaramelBytes/surveydeck-cli/cmd"

func main() {
	cmd.Execute()
}
