package cmd

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/df07/go-wavefront-raytracer/pkg/scene"
)

// ListScenes prints the built-in scenes
func ListScenes(ctx *cli.Context) error {
	setupLogging(ctx)

	infos, err := scene.ListScenes()
	if err != nil {
		return err
	}
	writeSceneTable(ctx.App.Writer, infos)
	return nil
}

func writeSceneTable(w io.Writer, infos []scene.SceneInfo) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Name", "Description", "Primitives", "Lights"})
	for _, info := range infos {
		table.Append([]string{
			info.Name,
			info.Description,
			fmt.Sprintf("%d", info.Primitives),
			fmt.Sprintf("%d", info.Lights),
		})
	}
	table.Render()
}
