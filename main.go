// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/pharbuilder/pharbuilder/cmd/pharbuilder"

func main() {
	cmd.Execute()
}
