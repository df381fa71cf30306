// Docsmith CLI entry point
//
// Docsmith generates in-code documentation for a source tree with an LLM.
// Every model call goes through a persistent prompt cache, so re-running on
// unchanged code costs nothing.
package main

import "github.com/jbctechsolutions/docsmith/internal/presentation/cli/commands"

func main() {
	commands.Execute()
}
