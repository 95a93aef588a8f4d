package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

func (a *app) deployCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "deploy <definition.yaml>",
		Short: "Validate a process definition and add it to the definitions folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			srv, cfg, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer srv.Close()
			if cfg.Definitions == "" {
				return fmt.Errorf("no definitions location configured")
			}
			fs := afs.New()
			data, err := fs.DownloadWithURL(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to read definition %v: %w", args[0], err)
			}
			definition, err := srv.Runtime().DeployYAML(ctx, data)
			if err != nil {
				return err
			}
			dest := url.Join(cfg.Definitions, definition.ID+".yaml")
			if err = fs.Upload(ctx, dest, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
				return fmt.Errorf("failed to store definition %v: %w", definition.ID, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deployed %v (%d activities)\n", definition.ID, len(definition.Activities))
			return nil
		},
	}
}
