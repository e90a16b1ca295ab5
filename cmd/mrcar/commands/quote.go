package commands

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/dryanez/MrcarCotizacion/internal/pricing"
)

func init() {
	rootCmd.AddCommand(quoteCmd)
}

var quoteCmd = &cobra.Command{
	Use:   "quote <market_price>",
	Short: "Print the resale pricing breakdown for a known market price in CLP.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		price, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || price <= 0 {
			return fmt.Errorf("market price must be a positive peso amount, got %q", args[0])
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		engine, err := pricing.NewEngine(cfg.Pricing, nil)
		if err != nil {
			return err
		}

		market := decimal.NewFromInt(price)
		offer := engine.ImmediateOffer(market)
		liquidation, kind := engine.Liquidation(market)

		fmt.Printf("Market price:            %s\n", pricing.FormatCLP(price))
		fmt.Printf("Immediate offer:         %s\n", pricing.FormatCLP(offer.IntPart()))
		fmt.Printf("Consignment liquidation: %s (%s)\n", pricing.FormatCLP(liquidation.IntPart()), kind)
		return nil
	},
}
