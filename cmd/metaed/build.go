package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"metaed/internal/builder"
	"metaed/internal/model"
	"metaed/internal/validation"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type namespaceDump struct {
	Name             string         `json:"name" yaml:"name"`
	ProjectExtension string         `json:"projectExtension,omitempty" yaml:"projectExtension,omitempty"`
	Entities         []model.Entity `json:"entities" yaml:"entities"`
}

type modelDump struct {
	Files      []string             `json:"files" yaml:"files"`
	Namespaces []namespaceDump      `json:"namespaces" yaml:"namespaces"`
	Failures   []validation.Failure `json:"failures" yaml:"failures"`
}

func dumpOf(res *builder.Result) modelDump {
	out := modelDump{Files: res.Files, Failures: res.Failures.All()}
	for _, ns := range res.Registry.All() {
		d := namespaceDump{Name: ns.Name, ProjectExtension: ns.ProjectExtension}
		for _, k := range ns.Entities.Kinds() {
			d.Entities = append(d.Entities, ns.Entities.All(k)...)
		}
		out.Namespaces = append(out.Namespaces, d)
	}
	return out
}

func writeResult(w io.Writer, res *builder.Result, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(dumpOf(res))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(dumpOf(res)); err != nil {
			return err
		}
		return enc.Close()
	case "text":
		return writeSummary(w, res)
	default:
		return fmt.Errorf("unknown format %q (text, json, yaml)", format)
	}
}

func writeSummary(w io.Writer, res *builder.Result) error {
	fmt.Fprintf(w, "files: %d\n", len(res.Files))
	for _, ns := range res.Registry.All() {
		ext := "core"
		if ns.IsExtension() {
			ext = ns.ProjectExtension
		}
		fmt.Fprintf(w, "namespace %s (%s): %d entities\n", ns.Name, ext, ns.Entities.Len())
		for _, k := range ns.Entities.Kinds() {
			fmt.Fprintf(w, "  %-26s %d\n", model.Humanize(k), ns.Entities.Count(k))
		}
	}
	if all := res.Failures.All(); len(all) > 0 {
		fmt.Fprintln(w, all.Error())
	}
	_, err := fmt.Fprintf(w, "errors: %d, warnings: %d\n", len(res.Failures.Errors()), len(res.Failures.Warnings()))
	return err
}

func buildCmd(f *rootFlags) *cobra.Command {
	var (
		format string
		strict bool
	)
	cmd := &cobra.Command{
		Use:   "build [patterns...]",
		Short: "Build the model and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd, f, args)
			if err != nil {
				return err
			}
			res, err := buildModel(cmd.Context(), cfg, log, nil)
			if err != nil {
				return err
			}
			if err := writeResult(cmd.OutOrStdout(), res, format); err != nil {
				return err
			}
			if strict {
				return res.Failures.Errors().Err()
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text, json, yaml)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with an error when the model has errors")
	return cmd
}
