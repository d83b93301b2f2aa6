// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

//go:build debug

package engine

import "fmt"

// assertf panics with a formatted message when cond is false. Compiled
// in only under the "debug" build tag, so release builds pay nothing
// for invariant checks that would otherwise run on every propagation
// step. Go has no built-in assert and nothing in the example pack
// ships an assertion library; a build-tag-gated helper is the
// standard idiom for this in the ecosystem.
func assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("engine: assertion failed: "+format, args...))
	}
}
