// bootimage inspects, unpacks and builds Samsung boot images.
//
// Synopsis:
//
//	bootimage unpack INPUT [-a] [--kernel FILE] [--ramdisk FILE] [--second FILE] [--tree FILE] [--header FILE]
//	bootimage sections INPUT
//	bootimage info INPUT
//	bootimage pack -o OUTPUT [--kernel FILE] [--ramdisk FILE] [--second FILE] [--tree FILE] [--header FILE]
//
// INPUT may be a file, a block device, "-" for stdin, a gzip, xz, lz4,
// bzip2 or zstd compressed image, or an OTA payload.bin.
//
// Environment:
//
//	BOOTIMAGE_PAGE_SIZE       page size override used when -p is not given
//	BOOTIMAGE_NO_MAGIC_CHECK  "true" to accept headers without the magic
//	BOOTIMAGE_PARTITION       payload.bin partition to read (default: boot)
//	BOOTIMAGE_DEBUG           "true" to trace input handling
//	NO_COLOR                  disable colored output
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
)

// Command is a verb of the tool, such as "unpack".
type Command interface {
	flags.Commander

	// ShortDescription explains what this command does in one line
	ShortDescription() string

	// LongDescription explains what this verb does (without limitation in amount of lines)
	LongDescription() string
}

var knownCommands = map[string]Command{
	"unpack":   &unpackCommand{},
	"sections": &sectionsCommand{},
	"info":     &infoCommand{},
	"pack":     &packCommand{},
}

func newParser() *flags.Parser {
	flagsParser := flags.NewParser(nil, flags.Default&^flags.PrintErrors)
	for commandName, command := range knownCommands {
		_, err := flagsParser.AddCommand(commandName, command.ShortDescription(), command.LongDescription(), command)
		if err != nil {
			panic(err)
		}
	}
	return flagsParser
}

func main() {
	if _, err := newParser().Parse(); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) {
			if ferr.Type == flags.ErrHelp {
				fmt.Fprintln(os.Stdout, ferr.Message)
				os.Exit(0)
			}
			fmt.Fprintln(os.Stderr, ferr.Message)
			os.Exit(2)
		}
		logger.Fatalf("%v", err)
	}
}
