package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dryanez/MrcarCotizacion/internal/scrape"
	"github.com/dryanez/MrcarCotizacion/internal/services"
)

var (
	resolveRefresh bool
	resolveJSON    bool
)

func init() {
	resolveCmd.Flags().BoolVar(&resolveRefresh, "refresh", false, "force a fresh registry scrape even when the plate is cached")
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "print the record as JSON")
	rootCmd.AddCommand(resolveCmd)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <plate>",
	Short: "Resolve a license plate to its vehicle record, scraping the registry on a cache miss.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openStore(cfg)
		if err != nil {
			return err
		}

		browser := scrape.NewBrowser(cfg.Browser)
		defer browser.Close()

		gate := services.NewRateGate(db, usageRepoShim{}, cfg.DailyQuota)
		registry := scrape.NewRegistry(cfg.Registry, browser, gate)
		svc := services.NewVehicleService(db, vehicleRepoShim{}, registry)

		v, err := svc.GetOrResolve(cmd.Context(), args[0], resolveRefresh)
		switch {
		case errors.Is(err, services.ErrVehicleNotFound):
			// A clean empty registry answer is a successful resolution.
			fmt.Printf("plate %s: no registry record\n", args[0])
			return nil
		case err != nil:
			return err
		}

		if resolveJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		}
		fmt.Printf("Plate:  %s\n", v.Plate)
		fmt.Printf("Make:   %s\n", v.Make)
		fmt.Printf("Model:  %s\n", v.Model)
		fmt.Printf("Year:   %d\n", v.Year)
		if v.FuelCode != "" {
			fmt.Printf("Fuel:   %s\n", v.FuelCode)
		}
		if v.RegionCode != "" {
			fmt.Printf("Region: %s\n", v.RegionCode)
		}
		return nil
	},
}
