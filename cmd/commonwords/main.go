// Command commonwords prints the most frequent words that occur in every
// one of the given text files.
//
// Usage:
//
//	commonwords [--config configs/commonwords.yaml] [--top N] <file1> [file2 ...]
//	commonwords health [--config configs/commonwords.yaml]
package main

import (
	"os"

	"github.com/Adithya-Monish-Kumar-K/commonwords/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
