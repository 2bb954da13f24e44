package main

import (
	"context"
	"fmt"
	"os"

	"github.com/etlonline/prompt-competition/assignment-service/cmd/adminctl/cmds"
)

func main() {
	ctx := context.Background()

	err := cmds.Execute(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}
