package main

import "github.com/quocvuong92/helios/cmd"

func main() {
	cmd.Execute()
}
