// cmd/formcheck validates form definitions and renders HTML forms in their
// initial visibility state.
//
// Validation reports every authoring defect of every definition: malformed
// choice maps, choices naming unknown groups or options, duplicate names
// and cyclic group dependencies.
package main

import "log"

func main() {
	log.SetFlags(0)
	log.SetPrefix("formcheck: ")

	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}
