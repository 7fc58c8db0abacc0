package main

import "github.com/marshallshelly/parcel-orm/cmd/parcel/commands"

func main() {
	commands.Execute()
}
