package commands

import (
	"fmt"
	"runtime"

	"git.home.luguber.info/inful/mdsite/internal/version"
)

// InfoCmd prints version and build metadata.
type InfoCmd struct{}

func (InfoCmd) Run(_ *Global, _ *CLI) error {
	fmt.Printf("mdsite %s\n", version.String())
	fmt.Printf("  commit:  %s\n", version.GitCommit)
	fmt.Printf("  built:   %s\n", version.BuildTime)
	fmt.Printf("  go:      %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return nil
}
