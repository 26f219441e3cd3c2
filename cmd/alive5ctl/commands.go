package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aradsms/alive5_connector/internal/alive5_connector/app"
	"github.com/aradsms/alive5_connector/internal/alive5_connector/domain"

	"github.com/spf13/cobra"
)

func newChannelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "channels",
		Short: "List channels that have a phone number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtimeFromCmd(cmd)
			if err != nil {
				return err
			}
			opts, err := rt.options.ListChannels(cmd.Context(), cliNodeID, rt.creds)
			if err != nil {
				return err
			}
			return printOptions(cmd, rt.asJSON, opts, "no channels with a phone number")
		},
	}
}

func newAgentsCmd() *cobra.Command {
	var channelID string
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "List agents of one channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtimeFromCmd(cmd)
			if err != nil {
				return err
			}
			opts := rt.options.ListAgents(cmd.Context(), cliNodeID, rt.creds, strings.TrimSpace(channelID))
			return printOptions(cmd, rt.asJSON, opts, "no agents")
		},
	}
	cmd.Flags().StringVar(&channelID, "channel", "", "Channel ID")
	_ = cmd.MarkFlagRequired("channel")
	return cmd
}

func newSendCmd() *cobra.Command {
	var channelID string
	var userID string
	var recipients []string
	var message string
	var continueOnFail bool

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send an SMS from a channel's number to one or more recipients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtimeFromCmd(cmd)
			if err != nil {
				return err
			}
			items := make([]domain.InputItem, 0, len(recipients))
			for _, to := range recipients {
				items = append(items, domain.InputItem{
					ChannelID:     strings.TrimSpace(channelID),
					UserID:        strings.TrimSpace(userID),
					PhoneNumberTo: strings.TrimSpace(to),
					Message:       message,
					JSON:          map[string]any{"phone_number_to": to},
				})
			}

			dispatcher := app.NewDispatcher(rt.client, rt.client, rt.logger)
			exec, execErr := dispatcher.Execute(cmd.Context(), rt.creds, items, continueOnFail)
			resp := app.NewExecuteResponse(exec, execErr)
			if rt.asJSON {
				if err := writeJSON(cmd.OutOrStdout(), resp); err != nil {
					return err
				}
				return execErr
			}
			if execErr != nil {
				return execErr
			}
			for _, out := range resp.Items {
				if out.Error != "" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d\tfailed\t%s\t%s\n", out.PairedItem, out.ErrorKind, out.Error)
					continue
				}
				body, _ := json.Marshal(out.JSON)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d\tsent\t%s\n", out.PairedItem, body)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "execution %s: %d sent, %d failed\n", exec.ID, exec.Succeeded(), exec.Failed())
			return nil
		},
	}
	cmd.Flags().StringVar(&channelID, "channel", "", "Channel ID to send from")
	cmd.Flags().StringVar(&userID, "user", "", "Agent user ID sending the message")
	cmd.Flags().StringArrayVar(&recipients, "to", nil, "Recipient number in E.164 format (repeatable)")
	cmd.Flags().StringVar(&message, "message", "", "Message body")
	cmd.Flags().BoolVar(&continueOnFail, "continue-on-fail", false, "Keep sending after a failed recipient")
	for _, name := range []string{"channel", "user", "to", "message"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newCheckCredentialsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-credentials",
		Short: "Verify the API key against the Alive5 account endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtimeFromCmd(cmd)
			if err != nil {
				return err
			}
			if err := rt.options.TestCredentials(cmd.Context(), rt.creds); err != nil {
				return err
			}
			if rt.asJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"status": "OK"})
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "credentials OK")
			return nil
		},
	}
}

func printOptions(cmd *cobra.Command, asJSON bool, opts []domain.Option, empty string) error {
	if asJSON {
		return writeJSON(cmd.OutOrStdout(), opts)
	}
	if len(opts) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), empty)
		return nil
	}
	for _, o := range opts {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", o.Value, o.Name)
	}
	return nil
}
