// Command habitrack は習慣トラッカーのバックエンドを起動する。
//
// 使い方:
//
//	habitrack [serve|worker|migrate|healthcheck]
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/habitrack/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "habitrack: %v\n", err)
		os.Exit(1)
	}
}
