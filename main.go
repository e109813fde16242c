package main

import "github.com/goodparty/infracheck/cmd"

func main() {
	cmd.Execute()
}
