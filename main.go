package main

import "github.com/theirongolddev/kirana/cmd"

func main() {
	cmd.Execute()
}
