package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sendto/internal/plugin"
)

var pluginName string

// outputsCmd manages stored outputs
var outputsCmd = &cobra.Command{
	Use:   "outputs",
	Short: "Manage configured outputs",
}

var outputsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an output with the edit dialog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.Close()

		out, err := a.CreateOutput(cmd.Context(), pluginName)
		if errors.Is(err, plugin.ErrCanceled) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Canceled.")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created output %q.\n", out.Name)
		return nil
	},
}

var outputsEditCmd = &cobra.Command{
	Use:   "edit NAME",
	Short: "Edit an output with the edit dialog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.Close()

		out, err := a.EditOutput(cmd.Context(), args[0])
		if errors.Is(err, plugin.ErrCanceled) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Canceled.")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved output %q.\n", out.Name)
		return nil
	},
}

var outputsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List outputs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.Close()

		outputs, err := a.Outputs(cmd.Context())
		if err != nil {
			return err
		}
		if len(outputs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No outputs. Create one with 'sendto outputs create'.")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tPLUGIN\tURL\tLAST CASE")
		for _, so := range outputs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", so.Output.Name, so.Plugin, so.Output.URL, so.Output.LastCaseID)
		}
		return tw.Flush()
	},
}

var outputsShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Show an output's stored values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.Close()

		so, err := a.Output(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Name:       %s\n", so.Output.Name)
		fmt.Fprintf(w, "Plugin:     %s\n", so.Plugin)
		fmt.Fprintf(w, "URL:        %s\n", so.Output.URL)
		fmt.Fprintf(w, "Last case:  %s\n", strconv.Itoa(so.Output.LastCaseID))
		fmt.Fprintf(w, "Updated:    %s\n", so.Record.UpdatedAt.Format(time.RFC3339))
		return nil
	},
}

var outputsDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete an output",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.DeleteOutput(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted output %q.\n", args[0])
		return nil
	},
}

var outputsExportCmd = &cobra.Command{
	Use:   "export [FILE]",
	Short: "Export outputs as YAML (stdout by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.Close()

		var w io.Writer = cmd.OutOrStdout()
		if len(args) == 1 {
			f, err := os.OpenFile(args[0], os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}

		n, err := a.ExportOutputs(cmd.Context(), w)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d output(s).\n", n)
		return nil
	},
}

var outputsImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import outputs from a YAML export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		n, err := a.ImportOutputs(cmd.Context(), f)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d output(s).\n", n)
		return nil
	},
}

func init() {
	outputsCreateCmd.Flags().StringVar(&pluginName, "plugin", plugin.ManuscriptName, "Plugin for the new output")

	outputsCmd.AddCommand(outputsCreateCmd)
	outputsCmd.AddCommand(outputsEditCmd)
	outputsCmd.AddCommand(outputsListCmd)
	outputsCmd.AddCommand(outputsShowCmd)
	outputsCmd.AddCommand(outputsDeleteCmd)
	outputsCmd.AddCommand(outputsExportCmd)
	outputsCmd.AddCommand(outputsImportCmd)
}
