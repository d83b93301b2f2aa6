// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"log"
	"os"

	"github.com/jasondaming/bobail-solver/internal/tracing"
)

func main() {
	shutdown, err := tracing.Init(context.Background(), tracing.DefaultConfig())
	if err != nil {
		log.Println(err)
		os.Exit(1)
	}
	defer shutdown(context.Background())

	if err := rootCmd.Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
