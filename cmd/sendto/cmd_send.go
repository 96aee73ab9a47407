package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sendto/internal/app"
	"github.com/sendto/internal/dialog"
	"github.com/sendto/internal/media"
	"github.com/sendto/internal/model"
	"github.com/sendto/internal/plugin"
	"github.com/sendto/internal/submission"
)

var (
	outputName string
	sendMode   string
	sendCaseID int

	renderURL    string
	renderMode   string
	renderCaseID int
)

// terminalDialogs builds the interactive dialogs used when send has no --mode.
var terminalDialogs = func(cmd *cobra.Command) plugin.Dialogs {
	return dialog.NewTerminal(cmd.InOrStdin(), cmd.OutOrStdout())
}

// sendCmd sends an image to a stored output
var sendCmd = &cobra.Command{
	Use:   "send IMAGE",
	Short: "Send an image to an output",
	Long: `Send an image to a stored output.

Without --mode the send dialog asks for the mode and case. With --mode the
dialog is skipped; case-bound modes use --case or the output's last case.`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

// renderCmd prints the send page without storing or opening anything
var renderCmd = &cobra.Command{
	Use:   "render IMAGE",
	Short: "Print the send page for an image",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	sendCmd.Flags().StringVarP(&outputName, "output", "o", "", "Output name")
	sendCmd.Flags().StringVarP(&sendMode, "mode", "m", "", "Send mode: new-case, attach, new-email, reply")
	sendCmd.Flags().IntVarP(&sendCaseID, "case", "c", 0, "Case number for attach and reply")
	_ = sendCmd.MarkFlagRequired("output")

	renderCmd.Flags().StringVar(&renderURL, "url", "", "Manuscript URL to post to")
	renderCmd.Flags().StringVarP(&renderMode, "mode", "m", model.NewCase.String(), "Send mode: new-case, attach, new-email, reply")
	renderCmd.Flags().IntVarP(&renderCaseID, "case", "c", 0, "Case number for attach and reply")
	_ = renderCmd.MarkFlagRequired("url")
}

func runSend(cmd *cobra.Command, args []string) error {
	img, err := media.Load(args[0])
	if err != nil {
		return err
	}

	dialogs := terminalDialogs(cmd)
	if sendMode != "" {
		mode, err := model.ParseSendMode(sendMode)
		if err != nil {
			return err
		}
		dialogs = &dialog.Scripted{Choice: &plugin.SendChoice{Mode: mode, CaseID: sendCaseID}}
	}

	a, err := openApp(cmd.Context(), dialogs)
	if err != nil {
		return err
	}
	defer a.Close()

	result, sendErr := a.Send(cmd.Context(), outputName, img)
	if sendErr != nil && !errors.Is(sendErr, app.ErrOutputNotUpdated) {
		return sendErr
	}

	switch result.Result {
	case plugin.Canceled:
		fmt.Fprintln(cmd.ErrOrStderr(), "Canceled.")
	case plugin.Failed:
		return fmt.Errorf("send failed: %s", result.Message)
	default:
		msg := "Opened the send page in the browser."
		if result.Output != nil {
			msg = fmt.Sprintf("Opened the send page for case %d in the browser.", result.Output.LastCaseID)
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
	}
	return sendErr
}

func runRender(cmd *cobra.Command, args []string) error {
	mode, err := model.ParseSendMode(renderMode)
	if err != nil {
		return err
	}

	req := model.SendRequest{URL: renderURL, Mode: mode, CaseID: renderCaseID}
	if err := req.Validate(); err != nil {
		return err
	}

	img, err := media.Load(args[0])
	if err != nil {
		return err
	}

	doc, err := submission.Build(req.URL, img, req.Mode, req.CaseID)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), doc)
	return err
}
