// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command lifter solves, replays and serves lambda-lifter mines.
//
// Usage:
//
//	lifter solve maps/contest1.map            # print the best command string
//	lifter solve --time-limit 30s < mine.map  # read the mine from stdin
//	lifter replay maps/contest1.map < moves   # step through a command string
//	lifter bench maps/*.map --parallel 4      # compare scores across mines
//	lifter serve --port 12220                 # HTTP + websocket service
//	lifter archive list                       # best known solutions
//
// A solve stops at its time limit or on SIGINT/SIGTERM and always prints
// the best command string found so far.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
