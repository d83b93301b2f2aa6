// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import "testing"

func TestParsePacked(t *testing.T) {
	cases := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"0", 0, false},
		{"ff", 0xff, false},
		{"0xFF", 0xff, false},
		{"0X10", 0x10, false},
		{"not-hex", 0, true},
	}
	for _, c := range cases {
		got, err := parsePacked(c.in)
		if (err != nil) != c.wantErr {
			t.Errorf("parsePacked(%q) error = %v, wantErr %v", c.in, err, c.wantErr)
			continue
		}
		if err == nil && got != c.want {
			t.Errorf("parsePacked(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestLoadConfig_AppliesFlagOverrides(t *testing.T) {
	oldDB, oldLevel, oldThreads := dbPath, logLevel, threads
	defer func() { dbPath, logLevel, threads = oldDB, oldLevel, oldThreads }()

	dbPath = "/tmp/example-bobail-data"
	logLevel = "debug"
	threads = 4
	configPath = ""

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.DataDir != dbPath {
		t.Errorf("cfg.DataDir = %q, want %q", cfg.DataDir, dbPath)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("cfg.LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.EnumerateWorkers != 4 || cfg.PredecessorWorkers != 4 || cfg.PropagationWorkers != 4 {
		t.Errorf("cfg worker counts = %d/%d/%d, want all 4",
			cfg.EnumerateWorkers, cfg.PredecessorWorkers, cfg.PropagationWorkers)
	}
}
