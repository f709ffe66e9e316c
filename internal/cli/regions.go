package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	var locate string

	cmd := &cobra.Command{
		Use:   "regions",
		Short: "List loaded region boundaries or locate a point",
		Run: func(cmd *cobra.Command, args []string) {
			runRegions(locate)
		},
	}

	cmd.Flags().StringVar(&locate, "locate", "", "Locate a decimal \"lat,lon\" point instead of listing")

	RootCmd.AddCommand(cmd)
}

func runRegions(locate string) {
	index, err := loadRegionIndex()
	if err != nil {
		exitErr("load regions", err)
	}

	if locate != "" {
		latStr, lonStr, ok := strings.Cut(locate, ",")
		if !ok {
			exitErr("locate", fmt.Errorf("expected \"lat,lon\", got %q", locate))
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
		if err != nil {
			exitErr("locate", fmt.Errorf("bad latitude: %w", err))
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
		if err != nil {
			exitErr("locate", fmt.Errorf("bad longitude: %w", err))
		}

		region, found := index.Locate(lat, lon)
		if !found {
			fmt.Println("no region contains this point")
			return
		}
		fmt.Printf("%s\t%s\t%s\n", region.Code, region.Name, region.FederalDistrict)
		return
	}

	regions := index.Regions()
	if len(regions) == 0 {
		fmt.Println("no regions loaded, set --regions or $UAV_REGIONS")
		return
	}
	fmt.Printf("version: %s\n", index.Version())
	for _, r := range regions {
		fmt.Printf("%s\t%s\t%s\n", r.Code, r.Name, r.FederalDistrict)
	}
}
