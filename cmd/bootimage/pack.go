package main

import (
	"fmt"
	"io"
	"os"

	"bootimage"

	"github.com/dustin/go-humanize"
)

var _ Command = (*packCommand)(nil)

type packCommand struct {
	Output   string  `short:"o" long:"output" required:"true" description:"image to create, - for stdout" value-name:"FILE"`
	Header   string  `long:"header" description:"start from this raw header instead of the default one" value-name:"FILE"`
	Kernel   string  `long:"kernel" description:"kernel image" value-name:"FILE"`
	Ramdisk  string  `long:"ramdisk" description:"ramdisk" value-name:"FILE"`
	Second   string  `long:"second" description:"second ramdisk" value-name:"FILE"`
	Tree     string  `long:"tree" description:"device tree" value-name:"FILE"`
	PageSize uint32  `short:"p" long:"page-size" description:"page size of the new image"`
	Name     *string `long:"name" description:"product name"`
	Cmdline  *string `long:"cmdline" description:"kernel command line"`
	StampID  bool    `long:"stamp-id" description:"store a checksum of the sections in the unique id"`
}

func (cmd *packCommand) ShortDescription() string {
	return "builds a boot image"
}

func (cmd *packCommand) LongDescription() string {
	return "Starts from the default header, or the one given with --header, inserts the given sections " +
		"and writes every section padded to the page size."
}

func (cmd *packCommand) build() (*bootimage.BootImage, error) {
	img := bootimage.New()

	h := img.Header()
	if cmd.Header != "" {
		data, err := os.ReadFile(cmd.Header)
		if err != nil {
			return nil, err
		}
		if len(data) != bootimage.HEADER_SIZE {
			return nil, fmt.Errorf("unable to use the header '%s': %w", cmd.Header, &bootimage.HeaderLengthError{Length: len(data)})
		}
		// Validated once the overrides are applied, so -p can fill in a
		// zero page size.
		h = bootimage.ParseHeader((*[bootimage.HEADER_SIZE]byte)(data))
	}

	if cmd.PageSize != 0 {
		h.PageSize = cmd.PageSize
	}
	if cmd.Name != nil {
		h.SetProductName(*cmd.Name)
	}
	if cmd.Cmdline != nil {
		h.SetBootArguments(*cmd.Cmdline)
	}
	if _, err := img.InsertHeader(h); err != nil {
		if cmd.Header != "" {
			return nil, fmt.Errorf("unable to use the header '%s': %w", cmd.Header, err)
		}
		return nil, err
	}

	for _, in := range []struct {
		section bootimage.Section
		path    string
	}{
		{bootimage.SectionKernel, cmd.Kernel},
		{bootimage.SectionRamdisk, cmd.Ramdisk},
		{bootimage.SectionSecond, cmd.Second},
		{bootimage.SectionDeviceTree, cmd.Tree},
	} {
		if in.path == "" {
			continue
		}
		data, err := os.ReadFile(in.path)
		if err != nil {
			return nil, fmt.Errorf("unable to read the '%s' section: %w", in.section, err)
		}
		if _, err := img.InsertSection(in.section, data); err != nil {
			return nil, err
		}
	}

	if cmd.StampID {
		img.StampID()
	}
	return img, nil
}

func (cmd *packCommand) Execute(args []string) error {
	if len(args) != 0 {
		return ErrArgs{Err: fmt.Errorf("there are extra arguments")}
	}

	img, err := cmd.build()
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if cmd.Output != "-" {
		f, err := os.Create(cmd.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	n, err := img.WritePaddedTo(w)
	if err != nil {
		return err
	}
	if f, ok := w.(*os.File); ok && f != os.Stdout {
		if err := f.Close(); err != nil {
			return err
		}
	}
	status("Created", "[%s] (%s)", cmd.Output, humanize.IBytes(uint64(n)))
	return nil
}
