package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/formvis/internal/document"
	"github.com/matthewbaird/formvis/internal/engine"
	"github.com/matthewbaird/formvis/internal/formdef"
	"github.com/matthewbaird/formvis/internal/htmlform"
)

var errDefects = errors.New("definitions have defects")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "formcheck",
		Short:         "Validate and render conditional form definitions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newCheckCmd(), newRenderCmd())
	return root
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [file...]",
		Short: "Validate JSON, CUE and HTML form definitions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				defs, err := formdef.LoadFile(path)
				if err != nil {
					fmt.Fprintf(out, "FAIL %s\n  %v\n", path, err)
					failed++
					continue
				}
				for _, def := range defs {
					frm, err := def.Compile()
					if err != nil {
						fmt.Fprintf(out, "FAIL %s#%s\n", path, def.ID)
						for _, e := range unjoin(err) {
							fmt.Fprintf(out, "  %v\n", e)
						}
						failed++
						continue
					}
					fmt.Fprintf(out, "ok   %s#%s (%d fields, %d groups)\n",
						path, def.ID, len(frm.Fields()), len(frm.Groups()))
				}
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d failed", errDefects, failed)
			}
			return nil
		},
	}
}

func newRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render [file.html]",
		Short: "Apply the initial resolution pass to an HTML page and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			page, err := htmlform.Parse(f)
			if err != nil {
				return err
			}
			eng := engine.New()
			for _, hf := range page.Forms() {
				if _, err := document.New(eng, hf.Form).Init(nil); err != nil {
					return fmt.Errorf("form %s: %w", hf.Form.ID, err)
				}
			}
			return page.Render(cmd.OutOrStdout())
		},
	}
}

// unjoin flattens a tree of joined errors into its leaves, dropping the
// ErrInvalidDefinition marker.
func unjoin(err error) []error {
	if err == formdef.ErrInvalidDefinition {
		return nil
	}
	j, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []error{err}
	}
	var out []error
	for _, e := range j.Unwrap() {
		out = append(out, unjoin(e)...)
	}
	return out
}
