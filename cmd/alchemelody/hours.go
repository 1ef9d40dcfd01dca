package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/PartyShepherd/alchemelody/internal/planetary"
)

// locationFlags are shared by commands that work on a place.
type locationFlags struct {
	lat, lon float64
	ruler    string
	format   string
}

func (f *locationFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.lat, "lat", 0, "latitude in degrees (default: stored location)")
	cmd.Flags().Float64Var(&f.lon, "lon", 0, "longitude in degrees (default: stored location)")
	cmd.Flags().StringVar(&f.ruler, "ruler", "", "first-hour ruler: sun or weekday (default: RULER_MODE)")
	cmd.Flags().StringVarP(&f.format, "format", "o", formatTable, "output format: table, json or yaml")
	cmd.MarkFlagsRequiredTogether("lat", "lon")
}

func (f *locationFlags) resolve(ctx context.Context, cmd *cobra.Command, rt *runtime) (planetary.Location, planetary.RulerMode, error) {
	mode := rt.cfg.RulerMode
	if f.ruler != "" {
		m, err := planetary.ParseRulerMode(f.ruler)
		if err != nil {
			return planetary.Location{}, mode, err
		}
		mode = m
	}
	if err := checkFormat(f.format); err != nil {
		return planetary.Location{}, mode, err
	}

	if !cmd.Flags().Changed("lat") {
		loc, err := rt.service.Location(ctx)
		if err != nil {
			return loc, mode, fmt.Errorf("no location given (use --lat/--lon or DEFAULT_LATITUDE/DEFAULT_LONGITUDE): %w", err)
		}
		return loc, mode, nil
	}

	loc := planetary.Location{Latitude: f.lat, Longitude: f.lon}
	return loc, mode, loc.Validate()
}

func newHoursCmd(rt *runtime) *cobra.Command {
	var (
		flags locationFlags
		date  string
	)

	cmd := &cobra.Command{
		Use:   "hours",
		Short: "Print the 24 planetary hours of a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			loc, mode, err := flags.resolve(ctx, cmd, rt)
			if err != nil {
				return err
			}

			now := time.Now()
			var table planetary.HourTable
			if date == "" {
				table, err = rt.service.TableAt(ctx, loc, now, mode)
			} else {
				d, perr := time.Parse(time.DateOnly, date)
				if perr != nil {
					return errors.New("--date must be YYYY-MM-DD")
				}
				table, err = rt.service.Hours(ctx, loc, d, mode)
			}
			if err != nil {
				return err
			}

			if flags.format == formatTable {
				return writeHourTable(cmd.OutOrStdout(), table, now)
			}
			return writeStructured(cmd.OutOrStdout(), flags.format, table)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&date, "date", "", "local date YYYY-MM-DD (default: the planetary day in progress)")
	return cmd
}

func newNowCmd(rt *runtime) *cobra.Command {
	var (
		flags locationFlags
		at    string
	)

	cmd := &cobra.Command{
		Use:   "now",
		Short: "Print the current planetary hour, moon phase and element",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			loc, mode, err := flags.resolve(ctx, cmd, rt)
			if err != nil {
				return err
			}
			t, err := parseAtFlag(at)
			if err != nil {
				return err
			}

			snap, err := rt.service.Now(ctx, loc, t, mode)
			if err != nil {
				return err
			}

			if flags.format == formatTable {
				return writeSnapshot(cmd.OutOrStdout(), snap)
			}
			return writeStructured(cmd.OutOrStdout(), flags.format, snap)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&at, "at", "", "instant as RFC3339 (default: now)")
	return cmd
}

// moonReport is the structured output of the moon command.
type moonReport struct {
	At           time.Time           `json:"at" yaml:"at"`
	Phase        planetary.MoonPhase `json:"phase" yaml:"phase"`
	AgeDays      float64             `json:"age_days" yaml:"age_days"`
	Illumination float64             `json:"illumination" yaml:"illumination"`
}

func newMoonCmd(rt *runtime) *cobra.Command {
	var at, format string

	cmd := &cobra.Command{
		Use:   "moon",
		Short: "Print the moon phase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			t, err := parseAtFlag(at)
			if err != nil {
				return err
			}

			report := moonReport{
				At:           t,
				Phase:        planetary.PhaseAt(t),
				AgeDays:      planetary.MoonAge(t),
				Illumination: planetary.Illumination(t),
			}
			if format == formatTable {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s  (age %.1f days, %.0f%% lit)\n",
					report.Phase, report.AgeDays, report.Illumination*100)
				return err
			}
			return writeStructured(cmd.OutOrStdout(), format, report)
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "instant as RFC3339 (default: now)")
	cmd.Flags().StringVarP(&format, "format", "o", formatTable, "output format: table, json or yaml")
	return cmd
}

func parseAtFlag(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return t, fmt.Errorf("--at must be RFC3339: %w", err)
	}
	return t, nil
}
