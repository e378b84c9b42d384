// Package main provides the entry point for the aiflavor CLI.
//
// aiflavor scores how strongly a website's visual design follows the
// patterns typical of AI-generated pages: large rounded corners, purple
// palettes, gradients, decorated buttons and AI vocabulary.
//
// Usage:
//
//	aiflavor scan <url>
//	aiflavor scan --list <file>
//	aiflavor records list
//	aiflavor compare <url>
//
// See --help for all available options.
package main

func main() {
	Execute()
}
