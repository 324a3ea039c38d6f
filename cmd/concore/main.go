// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	err := rootCmd.Execute()
	if err == nil {
		os.Exit(exitSuccess)
	}

	var exit *cliExit
	if errors.As(err, &exit) {
		if exit.err != nil {
			fmt.Fprintln(os.Stderr, exit.err)
		}
		os.Exit(exit.code)
	}

	// cobra's own argument-parsing/usage errors land here, never wrapped.
	fmt.Fprintln(os.Stderr, err)
	os.Exit(exitConfigError)
}
