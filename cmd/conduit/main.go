package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:                  "conduit",
		EnableShellCompletion: true,
		Usage:                 "Run and validate declarative workflows",
		Commands: []*cli.Command{
			RunCommand(),
			ValidateCommand(),
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
