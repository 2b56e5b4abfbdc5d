// Command kasm assembles a mnemonic source file into a ROM image.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kittycatofmagic/kvm8/internal/asm"
)

func run(srcPath, outPath string) error {
	src, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("kasm: unable to read source: %w", err)
	}

	rom, err := asm.Assemble(string(src))
	if err != nil {
		return fmt.Errorf("kasm: %w", err)
	}

	if err := os.WriteFile(outPath, rom, 0o644); err != nil {
		return fmt.Errorf("kasm: unable to write rom: %w", err)
	}
	return nil
}

func main() {
	srcPath := flag.String("src", "program.kasm", "assembler source file")
	outPath := flag.String("out", "ROM.bin", "output ROM file")
	flag.Parse()

	if err := run(*srcPath, *outPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
