package main

import (
	"os"

	"github.com/hashchaind/hashchaind/app"
)

func main() {
	if err := app.StartApp(); err != nil {
		os.Exit(1)
	}
}
