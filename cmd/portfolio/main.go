// Command portfolio serves the image portfolio API and runs its maintenance
// tasks.
package main

import (
	"os"

	_ "github.com/kbukum/portfolio/storage/local"
	_ "github.com/kbukum/portfolio/storage/s3"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
