// Command solarcalc runs the yield estimator and savings projector offline.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"Solaire/internal/calc/premium/recommend"
	"Solaire/internal/calc/solar"
	"Solaire/internal/format"
)

const tabPadding = 2

type siteFlags struct {
	wattage     float64
	orientation float64
	tilt        float64
	lat         float64
	lng         float64
	price       float64
	asJSON      bool
}

func (f *siteFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.wattage, "wattage", 0.4, "panel rating in kW")
	cmd.Flags().Float64Var(&f.orientation, "orientation", 180, "azimuth in degrees, 180 is south")
	cmd.Flags().Float64Var(&f.tilt, "tilt", 30, "tilt in degrees from horizontal")
	cmd.Flags().Float64Var(&f.lat, "lat", 45, "site latitude")
	cmd.Flags().Float64Var(&f.lng, "lng", 0, "site longitude")
	cmd.Flags().Float64Var(&f.price, "price", solar.DefaultElectricityPrice, "electricity price per kWh")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print JSON instead of a table")
}

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "solarcalc",
		Short:         "Estimate solar production and savings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(NewEstimateCmd(), NewRecommendCmd())
	return root
}

func NewEstimateCmd() *cobra.Command {
	var (
		site   siteFlags
		panels int
		cost   float64
	)
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate yearly production and savings for an array",
		Example: `  # 20 panels of 400 W facing south at 45N
  solarcalc estimate --panels 20 --wattage 0.4 --lat 45 --tilt 30`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := solar.Calculate(solar.Input{
				PanelCount:     panels,
				PanelWattage:   site.wattage,
				OrientationDeg: site.orientation,
				TiltDeg:        site.tilt,
				Location:       solar.SiteLocation{Lat: site.lat, Lng: site.lng},
				PricePerKWh:    site.price,
				InstallCost:    cost,
			})
			if err != nil {
				return fmt.Errorf("estimate: %w", err)
			}
			if site.asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			return writeResult(cmd.OutOrStdout(), res)
		},
	}
	site.register(cmd)
	cmd.Flags().IntVar(&panels, "panels", 10, "number of panels")
	cmd.Flags().Float64Var(&cost, "cost", 0, "installation cost, enables the payback figure")
	return cmd
}

func NewRecommendCmd() *cobra.Command {
	var (
		site        siteFlags
		consumption float64
	)
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Find the smallest array covering a yearly consumption",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := recommend.PanelCount(recommend.SolarRecommendInput{
				TargetConsumptionKWh: consumption,
				PanelWattage:         site.wattage,
				OrientationDeg:       site.orientation,
				TiltDeg:              site.tilt,
				Location:             solar.SiteLocation{Lat: site.lat, Lng: site.lng},
				PricePerKWh:          site.price,
			})
			if err != nil {
				return fmt.Errorf("recommend: %w", err)
			}
			if site.asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Panels: %d\n", res.PanelCount)
			return writeResult(cmd.OutOrStdout(), res.Simulation)
		},
	}
	site.register(cmd)
	cmd.Flags().Float64Var(&consumption, "consumption", 0, "yearly consumption to cover, in kWh")
	_ = cmd.MarkFlagRequired("consumption")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeResult(w io.Writer, res solar.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)
	fmt.Fprintf(tw, "Production annuelle\t%s kWh\n", format.Number(res.AnnualProduction))
	fmt.Fprintf(tw, "Économies annuelles\t%s\n", format.Currency(res.AnnualSavings))
	fmt.Fprintf(tw, "Économies mensuelles\t%s\n", format.Currency(res.MonthlySavings))
	fmt.Fprintf(tw, "Économies sur 20 ans\t%s\n", format.Currency(res.TwentyYearSavings))
	if res.PaybackPeriod > 0 {
		fmt.Fprintf(tw, "Retour sur investissement\t%.1f ans\n", res.PaybackPeriod)
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(tw, "Attention\t%s\n", warn)
	}
	return tw.Flush()
}

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
