package main

import "staffportal/internal/app/server"

func main() {
	server.Run()
}
