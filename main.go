package main

import "event-photo-backend/cmd"

func main() {
	cmd.Run()
}
