package main

import (
	"fmt"
	"os"

	"git.sr.ht/~sircmpwn/getopt"

	"github.com/reliclang/relic/internal/boot"
)

// relic-boot writes the boot blob (error catalog + mezzanine) that the
// interpreter can load at startup instead of its compiled-in copy. Useful
// for shipping catalog fixes or an extended mezzanine without rebuilding.

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [-o output] [-d blob]\n", os.Args[0])
	os.Exit(2)
}

func main() {
	opts, _, err := getopt.Getopts(os.Args, "o:d:")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		usage()
	}

	output := "boot.blob"
	decode := ""
	for _, opt := range opts {
		switch opt.Option {
		case 'o':
			output = opt.Value
		case 'd':
			decode = opt.Value
		}
	}

	if decode != "" {
		dumpBlob(decode)
		return
	}

	doc := boot.Builtin()
	blob, err := boot.Encode(doc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding boot blob: %s\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(output, blob, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %s\n", output, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (%d bytes, %d error templates, %d bytes of mezzanine)\n",
		output, len(blob), len(doc.Errors), len(doc.Mezzanine))
}

// dumpBlob verifies a blob round-trips and shows what is inside.
func dumpBlob(path string) {
	blob, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	doc, err := boot.Decode(blob)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding %s: %s\n", path, err)
		os.Exit(1)
	}
	fmt.Printf("%s: %d error templates\n", path, len(doc.Errors))
	for id, tpl := range doc.Errors {
		fmt.Printf("  %-20s %s\n", id, tpl)
	}
	fmt.Printf("mezzanine: %d bytes\n", len(doc.Mezzanine))
}
