package main

import "github.com/MeKo-Tech/discarta/internal/cmd"

func main() {
	cmd.Execute()
}
