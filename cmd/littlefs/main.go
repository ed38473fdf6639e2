// Command littlefs formats, mounts, and inspects littlefs disk images from
// the shell: a thin urfave/cli wrapper around the root package, the way the
// teacher's own cmd/main.go wraps disk-image management commands.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	littlefs "github.com/dargueta/littlefs"
	"github.com/dargueta/littlefs/lfblock"
	"github.com/dargueta/littlefs/lfgeom"
	"github.com/dargueta/littlefs/lfpath"
)

func main() {
	app := cli.App{
		Name:  "littlefs",
		Usage: "Format and inspect littlefs disk images",
		Commands: []*cli.Command{
			{
				Name:      "format",
				Usage:     "Create or wipe an image file",
				ArgsUsage: "IMAGE_FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "geometry",
						Usage: fmt.Sprintf("named device geometry (%v)", lfgeom.Slugs()),
						Value: "emulated-small",
					},
				},
				Action: formatImage,
			},
			{
				Name:      "ls",
				Usage:     "List a directory's contents",
				ArgsUsage: "IMAGE_FILE [PATH]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "geometry", Value: "emulated-small"},
				},
				Action: listDir,
			},
			{
				Name:      "df",
				Usage:     "Report total and available space",
				ArgsUsage: "IMAGE_FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "geometry", Value: "emulated-small"},
				},
				Action: diskFree,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

func openDevice(context *cli.Context, imagePath string) (*lfblock.StreamDevice, *os.File, error) {
	geometry, err := lfgeom.Lookup(context.String("geometry"))
	if err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(imagePath, os.O_RDWR, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return lfblock.NewStreamDevice(f, geometry.Config()), f, nil
}

func formatImage(context *cli.Context) error {
	imagePath := context.Args().First()
	if imagePath == "" {
		return cli.Exit("expected an image file path", 1)
	}
	geometry, err := lfgeom.Lookup(context.String("geometry"))
	if err != nil {
		return err
	}

	size := int64(geometry.BlockSize * geometry.BlockCount)
	f, err := os.OpenFile(imagePath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Truncate(size); err != nil {
		return err
	}

	dev := lfblock.NewStreamDevice(f, geometry.Config())
	return littlefs.Format(dev)
}

func listDir(context *cli.Context) error {
	imagePath := context.Args().First()
	if imagePath == "" {
		return cli.Exit("expected an image file path", 1)
	}
	dirArg := context.Args().Get(1)
	if dirArg == "" {
		dirArg = "/"
	}
	path, err := lfpath.New(dirArg)
	if err != nil {
		return err
	}

	dev, f, err := openDevice(context, imagePath)
	if err != nil {
		return err
	}
	defer f.Close()

	return littlefs.MountAndThen(dev, func(fs *littlefs.Filesystem) error {
		return littlefs.ReadDirAndThen(fs, path, func(it *littlefs.DirIterator) error {
			for {
				entry, ok, err := it.Next()
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
				if entry.IsDir {
					fmt.Printf("%s/\n", entry.Name)
				} else {
					fmt.Printf("%-32s %8d\n", entry.Name, entry.Size)
				}
			}
		})
	})
}

func diskFree(context *cli.Context) error {
	imagePath := context.Args().First()
	if imagePath == "" {
		return cli.Exit("expected an image file path", 1)
	}

	dev, f, err := openDevice(context, imagePath)
	if err != nil {
		return err
	}
	defer f.Close()

	return littlefs.MountAndThen(dev, func(fs *littlefs.Filesystem) error {
		avail, err := fs.AvailableBlocks()
		if err != nil {
			return err
		}
		fmt.Printf("total blocks:     %d\n", fs.TotalBlocks())
		fmt.Printf("available blocks: %d\n", avail)
		fmt.Printf("total space:      %d bytes\n", fs.TotalSpace())
		availSpace, err := fs.AvailableSpace()
		if err != nil {
			return err
		}
		fmt.Printf("available space:  %d bytes\n", availSpace)
		return nil
	})
}
