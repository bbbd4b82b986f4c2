package main

import (
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/afero"
	"go.ballast.dev/core/catalog"
	mbp "go.ballast.dev/core/mainboilerplate"
)

type cmdCatalog struct{}

func (cmdCatalog) Execute([]string) error {
	mbp.InitLog(Config.Log)

	var cat, err = catalog.Load(afero.NewOsFs(), Config.Engine.Catalog)
	mbp.Must(err, "failed to load catalog", "path", Config.Engine.Catalog)

	writeCatalog(os.Stdout, cat)
	return nil
}

// writeCatalog writes a table of Catalog Entries, in Palette order.
func writeCatalog(w io.Writer, cat *catalog.Catalog) {
	var table = tablewriter.NewWriter(w)
	table.SetHeader([]string{"Type", "Volume (L)", "Mass (kg)", "Quantization", "Stackable"})

	for _, t := range cat.Palette {
		var e = cat.Entries[t]
		var stackable = "no"
		if e.Stackable {
			stackable = "yes"
		}
		table.Append([]string{
			e.Type,
			humanize.FtoaWithDigits(e.Volume, 3),
			humanize.FtoaWithDigits(e.Mass, 3),
			e.Quantization.String(),
			stackable,
		})
	}
	table.Render()
}
