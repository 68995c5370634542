// Command vexel decodes an image and prints its ImageInfo, including any
// recovery notes recorded along the way.
//
// This mirrors gomantics-imx's examples/print-metadata: read a file path
// argument, run the library's top-level entry point, print a human-friendly
// summary plus the raw Additional metadata in JSON form.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aplefull/vexel"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <image-path>\n", os.Args[0])
		os.Exit(1)
	}

	path := os.Args[1]
	img, meta, err := vexel.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to decode %s: %v\n", path, err)
		os.Exit(1)
	}

	fmt.Printf("File: %s\n", path)
	fmt.Printf("Format: %s\n", meta.Format)
	fmt.Printf("Dimensions: %dx%d\n", meta.Width, meta.Height)
	fmt.Printf("Bit Depth: %d\n", meta.BitDepth)
	fmt.Printf("Color Type: %s\n", meta.ColorType)
	if meta.FrameCount > 1 {
		fmt.Printf("Frames: %d (loop count %d)\n", meta.FrameCount, meta.LoopCount)
	}
	if meta.HasGamma {
		fmt.Printf("Gamma: %.5f\n", meta.Gamma)
	}
	fmt.Printf("Kind: %s\n", img.Kind)

	if len(meta.Notes) > 0 {
		fmt.Println("\nRecovery Notes:")
		for _, n := range meta.Notes {
			fmt.Printf("  - %s\n", n)
		}
	}

	if len(meta.Additional) > 0 {
		blob, jerr := json.MarshalIndent(meta.Additional, "", "  ")
		if jerr == nil {
			fmt.Printf("\nAdditional Metadata:\n%s\n", string(blob))
		}
	}
}
