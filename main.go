// Copyright 2025 The Matjip Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/jcodagnone/matjip/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
