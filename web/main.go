package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/df07/go-tiled-raytracer/version"
	"github.com/df07/go-tiled-raytracer/web/server"
)

func main() {
	var port int
	var sceneDir string

	rootCmd := &cobra.Command{
		Use:     "raytracer-web",
		Short:   "Serve renders of built-in and YAML scenes over HTTP",
		Version: version.GetFullVersion(),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			webServer := server.NewServer(port, sceneDir)

			log.Printf("Tiled Raytracer Web Server")
			log.Printf("Try http://localhost:%d/api/render?scene=cornell&samples=50", port)
			return webServer.Start()
		},
	}
	rootCmd.Flags().IntVar(&port, "port", 8080, "port to serve on")
	rootCmd.Flags().StringVar(&sceneDir, "scenes", "scenes", "directory of YAML scene files")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
