// docpredict CI/CD
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
package main

import (
	"context"

	"dagger/docpredict/internal/dagger"
)

// Docpredict is the main module for the docpredict CI/CD pipeline
type Docpredict struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new docpredict CI/CD module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", "build", "tmp", "_examples"]
	source *dagger.Directory,
) *Docpredict {
	return &Docpredict{
		Source: source,
	}
}

// goContainer returns a Go container with module and build caches and the
// project source mounted. docpredict is pure Go, so CGO stays off.
func (d *Docpredict) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-bookworm").
		WithEnvVariable("CGO_ENABLED", "0").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", d.Source)
}

// Test runs the unit tests via "go test"
func (d *Docpredict) Test(ctx context.Context) (string, error) {
	return d.goContainer().
		WithExec([]string{"go", "test", "-v", "./..."}).
		Stdout(ctx)
}

// TestRace runs the unit tests with the race detector. The worker pool and
// its per-worker accumulators are the main target.
func (d *Docpredict) TestRace(ctx context.Context) (string, error) {
	return d.goContainer().
		WithEnvVariable("CGO_ENABLED", "1").
		WithExec([]string{"apt-get", "update"}).
		WithExec([]string{"apt-get", "install", "-y", "gcc"}).
		WithExec([]string{"go", "test", "-race", "./pkg/..."}).
		Stdout(ctx)
}
