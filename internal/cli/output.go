package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tOgg1/galleria/internal/actions"
)

func (a *app) structured() bool {
	return a.opts.json || a.opts.jsonl || a.opts.yaml
}

// writeOutput encodes v in the selected structured format. For JSON lines a
// slice is written one element per line.
func (a *app) writeOutput(out io.Writer, v any) error {
	switch {
	case a.opts.jsonl:
		enc := json.NewEncoder(out)
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Slice {
			for i := 0; i < rv.Len(); i++ {
				if err := enc.Encode(rv.Index(i).Interface()); err != nil {
					return err
				}
			}
			return nil
		}
		return enc.Encode(v)
	case a.opts.yaml:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

type resultOutput struct {
	Command    string `json:"command" yaml:"command"`
	Message    string `json:"message" yaml:"message"`
	ID         string `json:"id,omitempty" yaml:"id,omitempty"`
	Path       string `json:"path,omitempty" yaml:"path,omitempty"`
	IsFavorite *bool  `json:"is_favorite,omitempty" yaml:"is_favorite,omitempty"`
	Count      int    `json:"count,omitempty" yaml:"count,omitempty"`
}

func (a *app) writeResult(cmd *cobra.Command, res actions.Result) error {
	out := cmd.OutOrStdout()
	if a.structured() {
		payload := resultOutput{Command: res.Command, Message: res.Message, Count: res.Count}
		switch {
		case res.Image != nil:
			payload.ID = res.Image.ID
			payload.Path = res.Image.RelativePath
		case res.Deleted != nil:
			payload.Path = res.Deleted.TrashedPath
		case res.Person != nil:
			payload.ID = res.Person.ID
		}
		if res.Favorites != nil {
			on := res.IsFavorite
			payload.IsFavorite = &on
		}
		return a.writeOutput(out, payload)
	}
	if a.opts.quiet {
		return nil
	}
	_, err := fmt.Fprintln(out, res.Message)
	return err
}
