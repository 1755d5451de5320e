package main

import (
	"context"
	"fmt"
)

const golangciLintVersion = "v2.8.0"

// CheckLint runs golangci-lint against the source tree without applying fixes.
func (d *Docpredict) CheckLint(ctx context.Context) (string, error) {
	return d.goContainer().
		WithExec([]string{
			"go",
			"install",
			fmt.Sprintf("github.com/golangci/golangci-lint/v2/cmd/golangci-lint@%s", golangciLintVersion),
		}).
		WithExec([]string{"golangci-lint", "run", "./..."}).
		Stdout(ctx)
}
