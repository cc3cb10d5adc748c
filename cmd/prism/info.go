package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"Prism3D/internal/loader"
)

func newInfoCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info <model>",
		Short: "Print statistics of a GLTF model without opening a window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := loader.LoadGLTF(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			stats := model.Stats()
			lo, hi, _ := model.CalculateBounds()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Model:      %s\n", model.Name)
			fmt.Fprintf(out, "Primitives: %d\n", stats.Primitives)
			fmt.Fprintf(out, "Vertices:   %d\n", stats.Vertices)
			fmt.Fprintf(out, "Triangles:  %d\n", stats.Triangles)
			fmt.Fprintf(out, "Materials:  %d\n", stats.Materials)
			fmt.Fprintf(out, "Textures:   %d\n", stats.Textures)
			fmt.Fprintf(out, "Bounds:     (%.3g, %.3g, %.3g) - (%.3g, %.3g, %.3g)\n",
				lo.X(), lo.Y(), lo.Z(), hi.X(), hi.Y(), hi.Z())
			return nil
		},
	}
}
