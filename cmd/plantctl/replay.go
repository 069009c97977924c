package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abgtour/planttour/internal/adapters/scene"
	"github.com/abgtour/planttour/internal/core/domain"
	"github.com/abgtour/planttour/internal/core/ports"
	"github.com/abgtour/planttour/internal/core/usecases"
)

var (
	replayStep     time.Duration
	replayInterval time.Duration
	replayBatches  bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <track-file>",
	Short: "Feed a recorded walk through a tour and print the markers",
	Long: `Replay reads a track file with one "lat,lon[,seconds]" sample per line
("-" reads stdin) and runs every sample through a tour session backed by an
in-memory scene. Samples without a seconds column are --step apart.

Blank lines and lines starting with # are ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().DurationVar(&replayStep, "step", time.Second, "time between samples without a timestamp")
	replayCmd.Flags().DurationVar(&replayInterval, "interval", usecases.DefaultUpdateInterval, "minimum time between marker refreshes")
	replayCmd.Flags().BoolVar(&replayBatches, "batches", false, "print every instruction batch as a JSON line")
}

// trackSample is one recorded position, At after the start of the walk.
type trackSample struct {
	Position domain.GeoPoint
	At       time.Duration
}

// parseTrack reads "lat,lon[,seconds]" lines.
func parseTrack(r io.Reader, step time.Duration) ([]trackSample, error) {
	var out []trackSample
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, ",")
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: want lat,lon", line)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: latitude: %w", line, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: longitude: %w", line, err)
		}
		at := time.Duration(len(out)) * step
		if len(fields) > 2 {
			secs, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: seconds: %w", line, err)
			}
			at = time.Duration(secs * float64(time.Second))
		}
		if n := len(out); n > 0 && at < out[n-1].At {
			return nil, fmt.Errorf("line %d: time goes backwards", line)
		}
		out = append(out, trackSample{Position: domain.GeoPoint{Lat: lat, Lon: lon}, At: at})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("track is empty")
	}
	return out, nil
}

// replayResult summarises one replay.
type replayResult struct {
	Samples      int
	Batches      int
	Instructions map[domain.InstructionKind]int
	Final        []scene.Node
}

// replay runs samples through a fresh session. The session clock follows
// the sample timestamps, so throttling behaves as on a device.
func replay(ctx context.Context, catalogSvc *usecases.CatalogService, samples []trackSample, interval time.Duration, extra ports.SceneRenderer) (replayResult, error) {
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	var now time.Time
	clock := func() time.Time { return now }

	sc := scene.New()
	tours := usecases.NewTourService(catalogSvc, nil, usecases.TourOptions{
		Throttle: usecases.ThrottlePolicy{MinInterval: interval},
		Clock:    clock,
	})
	session := tours.NewSession("replay", scene.Fanout{sc, extra})

	res := replayResult{Instructions: make(map[domain.InstructionKind]int)}
	for _, s := range samples {
		now = start.Add(s.At)
		batch, err := session.HandlePosition(ctx, s.Position)
		if err != nil {
			return res, fmt.Errorf("sample %d: %w", res.Samples+1, err)
		}
		res.Samples++
		res.Batches++
		for _, in := range batch.Instructions {
			res.Instructions[in.Kind]++
		}
	}
	res.Final = sc.Plants()
	return res, nil
}

func runReplay(cmd *cobra.Command, args []string) error {
	var in io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	samples, err := parseTrack(in, replayStep)
	if err != nil {
		return err
	}

	svc, err := catalogService()
	if err != nil {
		return err
	}

	var extra ports.SceneRenderer
	if replayBatches {
		extra = scene.NewWriter(os.Stdout)
	}
	res, err := replay(cmd.Context(), svc, samples, replayInterval, extra)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "%d samples, %d creates, %d updates, %d deletes\n",
		res.Samples,
		res.Instructions[domain.InstructionCreate],
		res.Instructions[domain.InstructionUpdate],
		res.Instructions[domain.InstructionDelete])
	for _, n := range res.Final {
		title := n.PlantID
		if n.Display != nil {
			title = n.Display.Title
		}
		fmt.Fprintf(os.Stderr, "  %s  %s\n", n.PlantID, title)
	}
	return nil
}
