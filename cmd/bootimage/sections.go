package main

import (
	"fmt"
	"io"
	"os"

	"bootimage"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

// stdout is where listings go.
var stdout io.Writer = os.Stdout

var _ Command = (*sectionsCommand)(nil)

type sectionsCommand struct {
	inputOptions

	Args struct {
		Input string `positional-arg-name:"INPUT" required:"yes"`
	} `positional-args:"yes"`
}

func (cmd *sectionsCommand) ShortDescription() string {
	return "lists the sections of a boot image"
}

func (cmd *sectionsCommand) LongDescription() string {
	return "Prints offset, name and size of every non-empty section."
}

func (cmd *sectionsCommand) Execute(args []string) error {
	if len(args) != 0 {
		return ErrArgs{Err: fmt.Errorf("there are extra arguments")}
	}

	src, h, err := cmd.readHeader(cmd.Args.Input)
	if err != nil {
		return err
	}
	defer src.Close()

	regions, err := bootimage.Layout(&h, cmd.pageSize(&h))
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(stdout)
	t.SetTitle("%s", cmd.Args.Input)
	t.AppendHeader(table.Row{"Offset", "Section", "Size", "Pages", ""})
	for _, r := range regions {
		if r.Size == 0 {
			continue
		}
		t.AppendRow(table.Row{fmt.Sprintf("0x%08X", r.Offset), r.Section.Title(), r.Size, r.Pages, humanize.IBytes(r.Size)})
	}
	t.Render()
	return nil
}
