package main

import (
	"fmt"
	"os"

	"github.com/chmdznr/oss-drive-to-blob-copier/pkg/version"
	"github.com/urfave/cli/v2"
)

func main() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"v"},
		Usage:   "print the version",
	}

	app := &cli.App{
		Name:                 "dsync",
		Usage:                "Copy files from Google Drive (or a local folder) into a MinIO bucket or Azure Blob container",
		Version:              version.Version,
		EnableBashCompletion: true,
		Flags:                globalFlags(),
		Commands: []*cli.Command{
			{
				Name:  "version",
				Usage: "Print detailed version information",
				Action: func(c *cli.Context) error {
					fmt.Printf("Version:    %s\n", version.Version)
					fmt.Printf("Git commit: %s\n", version.GitCommit)
					fmt.Printf("Built:      %s\n", version.BuildTime)
					return nil
				},
			},
			{
				Name:  "ls",
				Usage: "List source files (or destination objects with --dest)",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "dest",
						Usage: "List the destination container instead of the source",
					},
				},
				Action: listFiles,
			},
			{
				Name:  "sync",
				Usage: "Copy source files into the destination",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Sync every listed source file",
					},
					&cli.StringSliceFlag{
						Name:  "id",
						Usage: "Source file ID to sync (repeatable)",
					},
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Do not ask for confirmation",
					},
				},
				Action: startSync,
			},
			{
				Name:   "shell",
				Usage:  "Start an interactive session",
				Action: startShell,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "dsync: %v\n", err)
		os.Exit(1)
	}
}
