package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/viant/afs"
	"github.com/viant/shift/service/migration"
)

func (a *app) migrateCommand() *cobra.Command {
	var document string
	var moves, enable, variables []string
	var dryRun bool
	ret := &cobra.Command{
		Use:   "migrate [process]",
		Short: "Move executions of a running process to other activities",
		Long: `Move executions of a running process to other activities.

The request is read from a YAML document (--file) and/or assembled from
flags; --move source:target moves every execution at source.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			srv, _, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer srv.Close()
			runtime := srv.Runtime()

			doc := &migration.Document{}
			if document != "" {
				data, err := afs.New().DownloadWithURL(ctx, document)
				if err != nil {
					return fmt.Errorf("failed to read request %v: %w", document, err)
				}
				if doc, err = migration.DecodeDocument(data); err != nil {
					return err
				}
			}
			if len(args) == 1 {
				doc.Process = args[0]
			}
			for _, move := range moves {
				source, target, ok := strings.Cut(move, ":")
				if !ok {
					return fmt.Errorf("invalid move %q, expected source:target", move)
				}
				doc.Moves = append(doc.Moves, migration.Directive{SourceActivityID: source, TargetActivityID: target})
			}
			doc.Enable = append(doc.Enable, enable...)
			parameters, err := parseVariables(variables)
			if err != nil {
				return err
			}
			doc.Variables = append(doc.Variables, parameters...)
			request, err := doc.Request(runtime)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if dryRun {
				plan, err := runtime.Plan(ctx, request)
				if err != nil {
					return err
				}
				fmt.Fprint(out, plan.Describe())
				return nil
			}
			result, err := request.Apply(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "migrated %v to revision %d: %d cancelled, %d created, %d registered\n",
				result.ProcessID, result.Revision, len(result.Cancelled), len(result.Created), result.Registered)
			return nil
		},
	}
	ret.Flags().StringVarP(&document, "file", "f", "", "YAML request document")
	ret.Flags().StringArrayVar(&moves, "move", nil, "activity move as source:target (repeatable)")
	ret.Flags().StringArrayVar(&enable, "enable", nil, "event sub-process start event to enable (repeatable)")
	ret.Flags().StringArrayVar(&variables, "var", nil, "instance variable as name=value (repeatable)")
	ret.Flags().BoolVar(&dryRun, "dry-run", false, "print the plan without applying it")
	return ret
}
