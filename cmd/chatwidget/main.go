package main

import "github.com/diogo/chatwidget/internal/commands"

func main() {
	commands.Execute()
}
