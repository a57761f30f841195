package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "reserve":
			postCmd("reserve", os.Args[2:], "agent", "resource")
			return
		case "release":
			postCmd("release", os.Args[2:], "resource")
			return
		case "dispenser":
			postCmd("dispenser", os.Args[2:], "resource", "active")
			return
		}
	}
	fmt.Fprintln(os.Stderr, "usage: admin db|reserve|release|dispenser [flags]")
	os.Exit(2)
}
