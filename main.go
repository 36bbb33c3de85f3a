// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	cmd "github.com/sdukit/sdukit/cmd/sdukit"
)

func main() {
	// .env supplies SDUKIT_* overrides and repository credentials; variables
	// already set in the environment win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: .env: %v\n", err)
	}
	cmd.Execute()
}
