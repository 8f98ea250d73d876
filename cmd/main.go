package main

import (
	"fmt"
	"os"

	commands "github.com/SeconGokulakannan/giswebapp-sub001/cmd/commands"
)

func printCommandsList() {
	fmt.Println("Commands:")
	fmt.Println("  serve")
	fmt.Println("  migrate")
	fmt.Println("  bootstrap <layer> [geometry type]")
	fmt.Println("  decode <file.sld>")
	fmt.Println("  encode <file.sld> <properties.json>")
}

func main() {
	if len(os.Args) < 2 {
		printCommandsList()
		return
	}
	cmd := os.Args[1]
	os.Args = os.Args[1:]

	switch cmd {
	case "serve":
		runCommand(commands.Serve)
	case "migrate":
		runCommand(commands.Migrate)
	case "bootstrap":
		runCommand(commands.Bootstrap)
	case "decode":
		runCommand(commands.Decode)
	case "encode":
		runCommand(commands.Encode)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printCommandsList()
	}
}

func runCommand(command func() error) {
	if err := command(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
