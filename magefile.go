//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Default target to run when none is specified
// If not set, running mage will list available targets
var Default = Build

func Build() error {
	mg.Deps(BuildSelector, BuildFixdata)
	fmt.Println("Compilation finished")
	return nil
}

// goCommand runs the go tool with the cgo flags of the environment, needed
// by the HDF5 bindings.
func goCommand(args ...string) *exec.Cmd {
	ldflags := os.Getenv("CGO_LDFLAGS")
	cflags := os.Getenv("CGO_CFLAGS")
	cmd := exec.Command("go", args...)
	cmd.Env = append(os.Environ(),
		"CGO_ENABLED=1",
		fmt.Sprintf("CGO_LDFLAGS=%s", ldflags),
		fmt.Sprintf("CGO_CFLAGS=%s", cflags))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}

func BuildSelector() error {
	fmt.Println("Building selector executable...")
	return goCommand("build", "-o", "./bin/selector", "./selector").Run()
}

func BuildFixdata() error {
	fmt.Println("Building fixdata executable...")
	return goCommand("build", "-o", "./bin/fixdata", "./fixdata").Run()
}

// Test runs the core tests, which do not need libhdf5, then the output
// package.
func Test() error {
	fmt.Println("Running tests...")
	if err := goCommand("test", "-race", "./pkg").Run(); err != nil {
		return err
	}
	return goCommand("test", "./pkg/output").Run()
}
