package main

import (
	"encoding/hex"
	"fmt"

	"bootimage"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"github.com/jedib0t/go-pretty/v6/table"
)

var _ Command = (*infoCommand)(nil)

type infoCommand struct {
	inputOptions

	Args struct {
		Input string `positional-arg-name:"INPUT" required:"yes"`
	} `positional-args:"yes"`
}

func (cmd *infoCommand) ShortDescription() string {
	return "prints the header of a boot image"
}

func (cmd *infoCommand) LongDescription() string {
	return "Prints every header field and reports problems with it. A bad magic or page size is reported, not fatal."
}

func (cmd *infoCommand) Execute(args []string) error {
	if len(args) != 0 {
		return ErrArgs{Err: fmt.Errorf("there are extra arguments")}
	}

	cmd.NoMagicCheck = true
	src, h, err := cmd.readHeader(cmd.Args.Input)
	if err != nil {
		return err
	}
	defer src.Close()

	size := func(n uint32) string {
		return fmt.Sprintf("%d (%s)", n, humanize.IBytes(uint64(n)))
	}
	addr := func(n uint32) string {
		return fmt.Sprintf("0x%08X", n)
	}

	t := table.NewWriter()
	t.SetOutputMirror(stdout)
	t.SetTitle("%s", cmd.Args.Input)
	t.AppendRows([]table.Row{
		{"Magic", fmt.Sprintf("%q", h.Magic[:])},
		{"Kernel size", size(h.KernelSize)},
		{"Kernel address", addr(h.KernelAddr)},
		{"Ramdisk size", size(h.RamdiskSize)},
		{"Ramdisk address", addr(h.RamdiskAddr)},
		{"Second size", size(h.SecondSize)},
		{"Second address", addr(h.SecondAddr)},
		{"Device tree size", size(h.DeviceTreeSize)},
		{"Reserved", addr(h.Reserved)},
		{"Tags address", addr(h.TagsAddr)},
		{"Page size", h.PageSize},
		{"Product name", h.ProductNameString()},
		{"Boot arguments", h.BootArgumentsString()},
		{"Unique ID", hex.EncodeToString(h.UniqueID[:])},
	})
	if cmd.PageSize != 0 || cfg.PageSize != 0 {
		t.AppendRow(table.Row{"Page size override", cmd.pageSize(&h)})
	}
	t.Render()

	if merr, ok := h.Validate().(*multierror.Error); ok {
		for _, e := range merr.Errors {
			logger.Warnf("%v", e)
		}
	}

	if regions, err := bootimage.Layout(&h, cmd.pageSize(&h)); err == nil {
		for _, r := range regions {
			if r.Size > 0 {
				fmt.Fprintln(stdout, r)
			}
		}
	}
	return nil
}
