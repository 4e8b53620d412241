package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	"github.com/cosmos/cosmos-sdk/client/tx"

	"github.com/gashedge/gashedge/x/breaker/types"
)

// GetTxCmd returns the transaction commands for the breaker module
func GetTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "breaker",
		Short:                      "Breaker module transaction commands",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdReset(),
		CmdActivateEmergency(),
		CmdPause(),
		CmdResume(),
	)

	return cmd
}

// CmdReset returns the command to reset tripped breakers
func CmdReset() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset tripped circuit breakers after cooldown",
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgResetBreakers{
				Caller: clientCtx.GetFromAddress().String(),
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdActivateEmergency returns the command to enter emergency mode
func CmdActivateEmergency() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emergency [reason] [estimated-duration-ms]",
		Short: "Activate emergency mode (authority only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			duration, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return err
			}

			msg := &types.MsgActivateEmergency{
				Authority:           clientCtx.GetFromAddress().String(),
				Reason:              args[0],
				EstimatedDurationMs: duration,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdPause returns the command to pause the system
func CmdPause() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pause",
		Short: "Pause the system (authority only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgPauseSystem{
				Authority: clientCtx.GetFromAddress().String(),
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdResume returns the command to resume the system
func CmdResume() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Resume the system (authority only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgResumeSystem{
				Authority: clientCtx.GetFromAddress().String(),
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}
