package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	"github.com/cosmos/cosmos-sdk/client/tx"

	"github.com/gashedge/gashedge/x/collateral/types"
)

// GetTxCmd returns the transaction commands for the collateral module
func GetTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "collateral",
		Short:                      "Collateral module transaction commands",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdOpenPosition(),
		CmdTopUp(),
		CmdClosePosition(),
		CmdSubmitPrice(),
	)

	return cmd
}

// CmdOpenPosition returns the command to open a risk position
func CmdOpenPosition() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open [exposure] [collateral] [leverage-bps]",
		Short: "Open a leveraged risk position",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			leverage, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid leverage: %v", err)
			}
			autoLiq, _ := cmd.Flags().GetBool("auto-liquidation")

			msg := &types.MsgOpenPosition{
				Owner:           clientCtx.GetFromAddress().String(),
				ExposureAmount:  args[0],
				Collateral:      args[1],
				LeverageRatio:   leverage,
				AutoLiquidation: autoLiq,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	cmd.Flags().Bool("auto-liquidation", true, "allow automated partial liquidation")
	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdTopUp returns the command to add collateral to a position
func CmdTopUp() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "top-up [position-id] [amount]",
		Short: "Add collateral to a position",
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

			msg := &types.MsgTopUp{
				Owner:      clientCtx.GetFromAddress().String(),
				PositionID: positionID,
				Amount:     args[1],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdClosePosition returns the command to close a position
func CmdClosePosition() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "close [position-id]",
		Short: "Close a fully unwound position and refund collateral",
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

			msg := &types.MsgClosePosition{
				Owner:      clientCtx.GetFromAddress().String(),
				PositionID: positionID,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdSubmitPrice returns the command to submit an oracle observation
func CmdSubmitPrice() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit-price [price] [confidence-bps]",
		Short: "Submit a gas price observation (authority only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			confidence, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid confidence: %v", err)
			}

			msg := &types.MsgSubmitPrice{
				Authority:  clientCtx.GetFromAddress().String(),
				Symbol:     types.GasSymbol,
				Price:      args[0],
				Confidence: confidence,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}
