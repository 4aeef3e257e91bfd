// Avouch is a toolkit for disclosing AI involvement in a piece of work.
//
// It encodes disclosure fields into a single compact statement string,
// decodes and assesses statements against configurable rules, renders
// shields.io badges for the result, and serves a live dashboard.
//
// Usage:
//
//	# Build a statement from fields
//	avouch encode --origin acme --field code.assistant=copilot --field review.human=full
//
//	# Decode a statement to JSON
//	avouch decode 'v:1;o:acme;code.assistant:copilot'
//
//	# Classify a statement against the configured rules
//	avouch assess 'v:1;o:acme;risk.deploy:critical'
//
//	# Render the badge and share link for a statement
//	avouch badge 'v:1;o:acme;risk.deploy:critical'
//
//	# Check the configuration file
//	avouch validate
//
//	# Run the assessment dashboard
//	avouch serve --config avouch.yaml
//
// For complete documentation, see: https://github.com/chosenoffset/avouch
package main

func main() {
	Execute()
}
