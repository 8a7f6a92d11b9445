// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"flag"
	"log"
	"os"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/io"
)

func main() {
	var compile string
	var output string
	var limit int
	var dump bool
	var colorize bool
	var verbose bool

	flag.StringVar(&compile, "c", "", ".asm file to compile")
	flag.StringVar(&output, "o", "", "Write the program image to this file, do not execute")
	flag.IntVar(&limit, "n", emulator.RUN_LIMIT, "Instruction limit, 0 for none")
	flag.BoolVar(&dump, "d", false, "Dump the display when execution stops")
	flag.BoolVar(&colorize, "color", false, "Force color output of the display dump")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	emu := emulator.NewEmulator()
	emu.Verbose = verbose

	switch {
	case len(compile) != 0:
		if flag.NArg() != 0 {
			log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
		}

		// Compile a new instruction stream.
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		asm := &cpu.Assembler{Verbose: verbose}
		asm.PredefineAll(emu.Defines())
		emu.Program, err = asm.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
	case flag.NArg() == 1:
		inf, err := os.Open(flag.Arg(0))
		if err != nil {
			log.Fatalf("%v: %v", flag.Arg(0), err)
		}
		defer inf.Close()

		emu.Program = nil
		emu.Rom, err = io.ReadRom(inf)
		if err != nil {
			log.Fatalf("%v: %v", flag.Arg(0), err)
		}
	default:
		log.Fatalf("%v: Expected -c file.asm or a single ROM image", os.Args[0])
	}

	if len(output) != 0 {
		var image []byte
		if emu.Program != nil {
			image = emu.Program.Binary()
		} else {
			image = emu.Rom.Data
		}
		err := os.WriteFile(output, image, 0o644)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		return
	}

	err := emu.Reset()
	if err != nil {
		log.Fatal(err)
	}

	steps, err := emu.Run(limit)
	if verbose {
		log.Printf("%v: %d instructions\n%v", os.Args[0], steps, emu.Cpu.String())
	}

	if dump {
		term := &io.Terminal{Output: os.Stdout, Color: colorize}
		if rerr := term.Render(&emu.Display); rerr != nil {
			log.Fatal(rerr)
		}
	}

	if err != nil && !errors.Is(err, cpu.ErrHalt{}) {
		log.Fatal(err)
	}
}
