package main

import (
	"fmt"
	"os"

	"github.com/bgunnarsson/sqlbind/internal/app"
)

func main() {
	if err := app.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
