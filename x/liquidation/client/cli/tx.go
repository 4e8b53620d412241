package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	"github.com/cosmos/cosmos-sdk/client/tx"

	"github.com/gashedge/gashedge/x/liquidation/types"
)

// GetTxCmd returns the transaction commands for the liquidation module
func GetTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "liquidation",
		Short:                      "Liquidation module transaction commands",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdRefresh(),
		CmdLiquidate(),
		CmdEmergencyClose(),
	)

	return cmd
}

// CmdRefresh returns the command to refresh a position's risk state
func CmdRefresh() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh [position-id]",
		Short: "Revalue a position at the current oracle price",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			positionID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid position id: %v", err)
			}

			msg := &types.MsgRefreshPosition{
				Caller:     clientCtx.GetFromAddress().String(),
				PositionID: positionID,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdLiquidate returns the command to liquidate a position
func CmdLiquidate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "liquidate [position-id] [amount]",
		Short: "Liquidate a position below its threshold",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			positionID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid position id: %v", err)
			}

			msg := &types.MsgLiquidate{
				Liquidator: clientCtx.GetFromAddress().String(),
				PositionID: positionID,
				Amount:     args[1],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdEmergencyClose returns the command to force-close a position
func CmdEmergencyClose() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emergency-close [position-id]",
		Short: "Force-close a position (authority only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			positionID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid position id: %v", err)
			}
			forced, _ := cmd.Flags().GetBool("forced")

			msg := &types.MsgEmergencyClose{
				Authority:  clientCtx.GetFromAddress().String(),
				PositionID: positionID,
				Forced:     forced,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	cmd.Flags().Bool("forced", false, "apply the forced closure penalty")
	flags.AddTxFlagsToCmd(cmd)
	return cmd
}
