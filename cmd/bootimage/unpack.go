package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"bootimage"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
)

var _ Command = (*unpackCommand)(nil)

type unpackCommand struct {
	inputOptions

	All       bool   `short:"a" long:"all" description:"unpack every non-empty section into --dir"`
	UnpackAll bool   `long:"unpack-all" hidden:"yes" description:"same as --all"`
	Dir       string `short:"d" long:"dir" default:"boot" description:"output directory for --all"`
	Header    string `long:"header" description:"write the raw header to FILE" value-name:"FILE"`
	Kernel    string `long:"kernel" description:"write the kernel to FILE" value-name:"FILE"`
	Ramdisk   string `long:"ramdisk" description:"write the ramdisk to FILE" value-name:"FILE"`
	Second    string `long:"second" description:"write the second ramdisk to FILE" value-name:"FILE"`
	Tree      string `long:"tree" description:"write the device tree to FILE" value-name:"FILE"`

	Args struct {
		Input string `positional-arg-name:"INPUT" required:"yes"`
	} `positional-args:"yes"`
}

type unpackTarget struct {
	section bootimage.Section
	path    string
}

func (cmd *unpackCommand) ShortDescription() string {
	return "extracts sections of a boot image"
}

func (cmd *unpackCommand) LongDescription() string {
	return "Each requested section is located from the header and written to its own file. " +
		"A failing section does not stop the others; all failures are reported at the end."
}

func (cmd *unpackCommand) targets(h *bootimage.Header) []unpackTarget {
	var ret []unpackTarget
	if cmd.All || cmd.UnpackAll {
		for _, s := range bootimage.PresentSections(h) {
			ret = append(ret, unpackTarget{s, filepath.Join(cmd.Dir, s.FileName())})
		}
	}
	for _, t := range []unpackTarget{
		{bootimage.SectionHeader, cmd.Header},
		{bootimage.SectionKernel, cmd.Kernel},
		{bootimage.SectionRamdisk, cmd.Ramdisk},
		{bootimage.SectionSecond, cmd.Second},
		{bootimage.SectionDeviceTree, cmd.Tree},
	} {
		if t.path != "" {
			ret = append(ret, t)
		}
	}
	return ret
}

func (cmd *unpackCommand) Execute(args []string) error {
	if len(args) != 0 {
		return ErrArgs{Err: fmt.Errorf("there are extra arguments")}
	}

	src, h, err := cmd.readHeader(cmd.Args.Input)
	if err != nil {
		return err
	}
	defer src.Close()

	targets := cmd.targets(&h)
	if len(targets) == 0 {
		logger.Warnf("no sections requested, nothing to unpack (see --all)")
		return nil
	}

	pageSize := cmd.pageSize(&h)
	var result *multierror.Error
	for _, t := range targets {
		if err := unpackSection(src, &h, pageSize, t); err != nil {
			logger.Errorf("%v", err)
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func unpackSection(r io.ReadSeeker, h *bootimage.Header, pageSize uint32, t unpackTarget) error {
	data, err := bootimage.ReadSection(r, h, pageSize, t.section)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(t.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("unable to create the directory for '%s': %w", t.path, err)
		}
	}
	if err := os.WriteFile(t.path, data, 0644); err != nil {
		return fmt.Errorf("unable to write the '%s' section: %w", t.section, err)
	}
	status("Unpacked", "[%s] to [%s] (%s)", t.section, t.path, humanize.IBytes(uint64(len(data))))
	return nil
}
