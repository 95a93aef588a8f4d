package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/viant/shift/runtime/execution"
	"github.com/viant/shift/service/dao"
	"github.com/viant/shift/service/dao/process"
)

func (a *app) startCommand() *cobra.Command {
	var id string
	var variables []string
	ret := &cobra.Command{
		Use:   "start <definition>",
		Short: "Start a process instance of a deployed definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			parameters, err := parseVariables(variables)
			if err != nil {
				return err
			}
			srv, _, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer srv.Close()
			started, err := srv.Runtime().StartProcess(ctx, args[0], id, parameters)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), started.Render())
			return nil
		},
	}
	ret.Flags().StringVar(&id, "id", "", "process id (generated when empty)")
	ret.Flags().StringArrayVar(&variables, "var", nil, "instance variable as name=value (repeatable)")
	return ret
}

func (a *app) showCommand() *cobra.Command {
	var asJSON bool
	var state, definition string
	ret := &cobra.Command{
		Use:   "show [process]",
		Short: "Show a process instance, or list instances when no id is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			srv, _, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer srv.Close()
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				found, err := srv.Runtime().Process(ctx, args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(out, found)
				}
				fmt.Fprint(out, found.Render())
				return nil
			}
			var parameters []*dao.Parameter
			if state != "" {
				parameters = append(parameters, dao.NewParameter(process.ParamState, state))
			}
			if definition != "" {
				parameters = append(parameters, dao.NewParameter(process.ParamDefinitionID, definition))
			}
			list, err := srv.Runtime().Processes(ctx, parameters...)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(out, list)
			}
			for _, item := range list {
				fmt.Fprintf(out, "%v\t%v\t%v\trev %d\n", item.ID, item.DefinitionID, item.State, item.Revision)
			}
			return nil
		},
	}
	ret.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	ret.Flags().StringVar(&state, "state", "", "filter by state (running, completed)")
	ret.Flags().StringVar(&definition, "definition", "", "filter by definition id")
	return ret
}

func (a *app) completeCommand() *cobra.Command {
	var variables []string
	ret := &cobra.Command{
		Use:   "complete <process> <execution|activity>",
		Short: "Complete the task an execution waits at",
		Long: `Complete the task an execution waits at. The second argument is an
execution id, or an activity id when exactly one execution waits there.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			parameters, err := parseVariables(variables)
			if err != nil {
				return err
			}
			srv, _, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer srv.Close()
			runtime := srv.Runtime()
			current, err := runtime.Process(ctx, args[0])
			if err != nil {
				return err
			}
			executionID, err := resolveExecution(current, args[1])
			if err != nil {
				return err
			}
			updated, err := runtime.Complete(ctx, args[0], executionID, parameters)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), updated.Render())
			return nil
		},
	}
	ret.Flags().StringArrayVar(&variables, "var", nil, "instance variable as name=value (repeatable)")
	return ret
}

func (a *app) triggerCommand(kind, short string) *cobra.Command {
	return &cobra.Command{
		Use:   kind + " <process> <name>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			srv, _, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer srv.Close()
			runtime := srv.Runtime()
			deliver := runtime.Signal
			if kind == "message" {
				deliver = runtime.Message
			}
			count, err := deliver(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%v %v triggered %d subscription(s)\n", kind, args[1], count)
			return nil
		},
	}
}

func (a *app) fireCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fire <process> <job>",
		Short: "Fire a timer job of a process",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			srv, _, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer srv.Close()
			if err = srv.Runtime().FireJob(ctx, args[0], args[1]); err != nil {
				return err
			}
			updated, err := srv.Runtime().Process(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), updated.Render())
			return nil
		},
	}
}

// resolveExecution accepts an execution id or an activity with a single execution
func resolveExecution(p *execution.Process, ref string) (string, error) {
	if p.Execution(ref) != nil {
		return ref, nil
	}
	switch candidates := p.ExecutionsAt(ref); len(candidates) {
	case 1:
		return candidates[0].ID, nil
	case 0:
		return "", fmt.Errorf("no execution %q in process %v", ref, p.ID)
	default:
		return "", fmt.Errorf("%d executions wait at %q, pass an execution id", len(candidates), ref)
	}
}

func writeJSON(out io.Writer, value interface{}) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
