package main

import "stay-web/cmd"

func main() {
	cmd.Run()
}
