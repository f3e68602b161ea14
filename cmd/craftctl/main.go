// Command craftctl answers browser questions offline: which recipes an
// inventory dump can craft, how a recipe would be laid out on the grid,
// and how plans fared according to the server's index.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
