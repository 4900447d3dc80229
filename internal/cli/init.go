package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rileyhilliard/pgtop/internal/config"
	"github.com/rileyhilliard/pgtop/internal/errors"
)

// initConfigCommand writes a commented default config to the current
// directory.
func initConfigCommand(force bool) error {
	cwd, err := os.Getwd()
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrExec,
			"Can't determine current directory",
			"Check your directory permissions.")
	}
	path := filepath.Join(cwd, config.ConfigFileName)

	if err := config.Write(config.DefaultConfig(), path, force); err != nil {
		return err
	}

	fmt.Printf("Created %s\n", config.ConfigFileName)
	fmt.Println("Edit it to set your connection details, then run 'pgtop'.")
	return nil
}
