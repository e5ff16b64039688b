package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/flightrec/blackbox/container"
	"github.com/flightrec/blackbox/frame"
	"github.com/flightrec/blackbox/schema"
	"github.com/flightrec/blackbox/stream"
)

func runDump(cmd *cobra.Command, args []string) error {
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	c, err := container.Open(data)
	if err != nil {
		return fmt.Errorf("opening container: %w", err)
	}

	log.Info().
		Str("file", path).
		Int("logs", c.Count()).
		Str("archive", fmt.Sprintf("%v", c.Archive)).
		Msg("container opened")

	logBytes, err := c.Log(logIndex)
	if err != nil {
		return err
	}

	dec := stream.NewDecoder()
	dec.Raw = raw

	var meta logMeta
	dec.OnMetadataReady = func(cfg schema.Config, iFields, pFields, gpsFields, gpsHomeFields []schema.Field) {
		meta = logMeta{
			Firmware:    fmt.Sprintf("%v", cfg.Firmware),
			DataVersion: cfg.DataVersion,
			MainFields:  len(iFields),
			GPSFields:   len(gpsFields),
		}
	}
	dec.OnLogEvent = func(ev stream.LogEvent) {
		log.Debug().Str("type", ev.Type.String()).Uint32("sync_beep_time", ev.SyncBeepTime).Msg("log event")
	}

	ok, err := dec.Parse(logBytes)
	if err != nil {
		return fmt.Errorf("parsing log %d: %w", logIndex, err)
	}
	if !ok {
		log.Warn().Int("log_index", logIndex).Msg("log never resynchronised onto a valid main frame")
	}

	report := buildReport(meta, dec.Stats)

	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	default:
		printText(report)
		return nil
	}
}

type logMeta struct {
	Firmware    string `json:"firmware"`
	DataVersion int    `json:"data_version"`
	MainFields  int    `json:"main_fields"`
	GPSFields   int    `json:"gps_fields"`
}

type frameTypeReport struct {
	Count uint32 `json:"count"`
	Bytes uint32 `json:"bytes"`
}

type report struct {
	Meta                      logMeta                    `json:"meta"`
	Frames                    map[string]frameTypeReport `json:"frames"`
	TotalBytes                uint32                     `json:"total_bytes"`
	DurationMicros            int64                      `json:"duration_micros"`
	NumBrokenFrames           uint32                     `json:"num_broken_frames"`
	NumUnusablePFrames        uint32                     `json:"num_unusable_p_frames"`
	IntentionallyAbsentFrames uint32                     `json:"intentionally_absent_frames"`
}

func buildReport(meta logMeta, stats stream.Statistics) report {
	return report{
		Meta: meta,
		Frames: map[string]frameTypeReport{
			string(frame.KindIntra):   {Count: stats.I.Count, Bytes: stats.I.Bytes},
			string(frame.KindInter):   {Count: stats.P.Count, Bytes: stats.P.Bytes},
			string(frame.KindGPS):     {Count: stats.G.Count, Bytes: stats.G.Bytes},
			string(frame.KindGPSHome): {Count: stats.H.Count, Bytes: stats.H.Bytes},
		},
		TotalBytes:                stats.TotalBytes(),
		DurationMicros:            stats.Duration(),
		NumBrokenFrames:           stats.NumBrokenFrames,
		NumUnusablePFrames:        stats.NumUnusablePFrames,
		IntentionallyAbsentFrames: stats.IntentionallyAbsentFrames,
	}
}

func printText(r report) {
	fmt.Printf("firmware:        %s (data version %d)\n", r.Meta.Firmware, r.Meta.DataVersion)
	fmt.Printf("main fields:     %d\n", r.Meta.MainFields)
	fmt.Printf("gps fields:      %d\n", r.Meta.GPSFields)
	fmt.Printf("duration:        %.3fs\n", float64(r.DurationMicros)/1e6)
	fmt.Printf("total bytes:     %d\n", r.TotalBytes)
	for _, kind := range []string{"I", "P", "G", "H"} {
		f := r.Frames[kind]
		fmt.Printf("frame %s:         count=%-8d bytes=%d\n", kind, f.Count, f.Bytes)
	}
	fmt.Printf("broken frames:   %d\n", r.NumBrokenFrames)
	fmt.Printf("unusable P:      %d\n", r.NumUnusablePFrames)
	fmt.Printf("skipped frames:  %d\n", r.IntentionallyAbsentFrames)
}
