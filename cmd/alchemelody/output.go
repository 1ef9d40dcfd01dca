package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/PartyShepherd/alchemelody/internal/almanac"
	"github.com/PartyShepherd/alchemelody/internal/planetary"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func checkFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return checkFormat(format)
	}
}

const clock = "15:04"

func writeHourTable(w io.Writer, table planetary.HourTable, now time.Time) error {
	day := table.Day
	header := fmt.Sprintf("%s  %s  sunrise %s  sunset %s  ruler %s",
		day.Date().Format(time.DateOnly), table.Location.Key(),
		day.Sunrise.Format(clock), day.Sunset.Format(clock), table.Ruler)
	if day.Synthetic {
		header += "  (synthetic: no astronomical data)"
	}
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\t#\tSTART\tEND\tPLANET\tHALF")
	for _, s := range table.Slots {
		mark := ""
		if s.Contains(now) {
			mark = "*"
		}
		half := "night"
		if s.Daytime {
			half = "day"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n",
			mark, s.Index+1, s.Start.Format(clock), s.End.Format(clock), s.Planet, half)
	}
	return tw.Flush()
}

func writeSnapshot(w io.Writer, snap almanac.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	cur := snap.Current
	fmt.Fprintf(tw, "time\t%s\n", snap.At.Format(time.RFC3339))
	fmt.Fprintf(tw, "location\t%s\n", snap.Location.Key())
	fmt.Fprintf(tw, "hour\t%d of 24 (%s to %s)\n", cur.Index+1, cur.Start.Format(clock), cur.End.Format(clock))
	fmt.Fprintf(tw, "planet\t%s %s\n", cur.Planet, cur.Color)
	fmt.Fprintf(tw, "moon\t%s (%.0f%% lit)\n", snap.Moon, snap.Illumination*100)
	fmt.Fprintf(tw, "element\t%s\n", snap.Element)
	if snap.Synthetic {
		fmt.Fprintln(tw, "note\tsynthetic day: no astronomical data available")
	}
	return tw.Flush()
}
