package main

import "wavelength-backend/cmd"

func main() {
	cmd.Run()
}
