package main

import "flag"

func main() {
	di := flag.String("di", "manual", "How dependencies are wired: manual or dig.")
	flag.Parse()

	switch *di {
	case "dig":
		startWithDig()
	default:
		startManual()
	}
}
