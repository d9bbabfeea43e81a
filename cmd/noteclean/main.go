package main

import "github.com/MeKo-Tech/noteclean/cmd/noteclean/cmd"

func main() {
	cmd.Execute()
}
