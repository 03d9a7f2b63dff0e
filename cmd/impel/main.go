package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/impel-engine/impel/internal/config"
	"github.com/impel-engine/impel/internal/events"
	"github.com/impel-engine/impel/internal/export"
)

var (
	dt            float64
	duration      float64
	gravityY      float64
	velIters      int
	posIters      int
	useCCD        bool
	threads       int
	deterministic bool
	stackBodies   int
	dropHeight    float64
	launchSpeed   float64
	restitution   float64
	configFile    string
	preset        string
	exportJSON    string
	exportSVG     string
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ccff"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899"))

	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(0, 2)
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "impel",
		Short: "2D rigid-body physics engine",
	}

	runCmd := &cobra.Command{
		Use:   "run [scene]",
		Short: "run a scene (bounce, stack, projectile, sensor)",
		Args:  cobra.ExactArgs(1),
		RunE:  runScene,
	}
	runCmd.Flags().Float64Var(&dt, "dt", 1.0/60.0, "timestep")
	runCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	runCmd.Flags().Float64Var(&gravityY, "gravity", config.DefaultGravityY, "vertical gravity")
	runCmd.Flags().IntVar(&velIters, "vel-iters", 8, "velocity solver iterations")
	runCmd.Flags().IntVar(&posIters, "pos-iters", 3, "position solver iterations")
	runCmd.Flags().BoolVar(&useCCD, "ccd", false, "continuous collision detection")
	runCmd.Flags().IntVar(&threads, "threads", 1, "island solver threads")
	runCmd.Flags().BoolVar(&deterministic, "deterministic", true, "strict determinism (single thread)")
	runCmd.Flags().IntVar(&stackBodies, "bodies", config.DefaultBodies, "body count (stack, sensor)")
	runCmd.Flags().Float64Var(&dropHeight, "height", config.DefaultHeight, "drop height (bounce, sensor)")
	runCmd.Flags().Float64Var(&launchSpeed, "speed", config.DefaultSpeed, "launch speed (projectile)")
	runCmd.Flags().Float64Var(&restitution, "restitution", config.DefaultRestitution, "restitution (bounce)")
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().StringVar(&exportJSON, "export-json", "", "write run record to JSON file")
	runCmd.Flags().StringVar(&exportSVG, "export-svg", "", "write trajectory plot to SVG file")

	presetsCmd := &cobra.Command{
		Use:   "presets [scene]",
		Short: "list available presets for a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for scene: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a default config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.Save(args[0], config.DefaultConfig())
		},
	}

	rootCmd.AddCommand(runCmd, presetsCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildRunConfig merges preset, config file and flags, flags winning.
func buildRunConfig(cmd *cobra.Command, scene string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(scene, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(scene))
		}
		*cfg = *p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	cfg.Scene = scene

	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("gravity") {
		cfg.GravityY = gravityY
	}
	if cmd.Flags().Changed("vel-iters") {
		cfg.VelocityIterations = velIters
	}
	if cmd.Flags().Changed("pos-iters") {
		cfg.PositionIterations = posIters
	}
	if cmd.Flags().Changed("ccd") {
		cfg.CCD = useCCD
	}
	if cmd.Flags().Changed("threads") {
		cfg.NumThreads = threads
	}
	if cmd.Flags().Changed("deterministic") {
		cfg.StrictDeterminism = deterministic
	}
	if cmd.Flags().Changed("bodies") {
		cfg.SceneParams.Bodies = stackBodies
	}
	if cmd.Flags().Changed("height") {
		cfg.SceneParams.Height = dropHeight
	}
	if cmd.Flags().Changed("speed") {
		cfg.SceneParams.Speed = launchSpeed
	}
	if cmd.Flags().Changed("restitution") {
		cfg.SceneParams.Restitution = restitution
	}
	return cfg, nil
}

func runScene(cmd *cobra.Command, args []string) error {
	cfg, err := buildRunConfig(cmd, args[0])
	if err != nil {
		return err
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer logger.Sync()

	sim, err := buildScene(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	steps := int(cfg.Duration / cfg.Dt)
	logger.Info("starting run",
		zap.String("scene", cfg.Scene),
		zap.Int("steps", steps),
		zap.Float64("dt", cfg.Dt),
		zap.Bool("ccd", cfg.CCD),
		zap.Int("threads", cfg.NumThreads),
	)

	samples := make([]float64, 0, steps)
	times := make([]float64, 0, steps)
	var contactEvents, intersectionEvents int
	start := time.Now()

loop:
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			logger.Warn("interrupted", zap.Int("step", i))
			steps = i
			break loop
		default:
		}
		sim.step()
		samples = append(samples, sim.sample())
		times = append(times, float64(i+1)*cfg.Dt)
		sim.sink.DrainContactEvents(func(events.ContactEvent) { contactEvents++ })
		sim.sink.DrainIntersectionEvents(func(events.IntersectionEvent) { intersectionEvents++ })
	}
	elapsed := time.Since(start)

	logger.Info("run finished",
		zap.Duration("elapsed", elapsed),
		zap.Int("contact_events", contactEvents),
		zap.Int("intersection_events", intersectionEvents),
	)

	if len(samples) > 1 {
		graph := asciigraph.Plot(samples,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(sim.caption),
		)
		fmt.Println(graph)
	}

	fmt.Println(renderSummary(cfg, sim, steps, elapsed, contactEvents, intersectionEvents))

	if exportJSON != "" || exportSVG != "" {
		run := &export.Run{
			Scene:              cfg.Scene,
			Dt:                 cfg.Dt,
			Duration:           float64(steps) * cfg.Dt,
			Steps:              steps,
			Bodies:             sim.bodies.Len(),
			Times:              times,
			Samples:            samples,
			ContactEvents:      contactEvents,
			IntersectionEvents: intersectionEvents,
		}
		if exportJSON != "" {
			if err := export.WriteJSON(exportJSON, run); err != nil {
				return fmt.Errorf("export json: %w", err)
			}
			logger.Info("wrote run record", zap.String("path", exportJSON))
		}
		if exportSVG != "" {
			if err := export.WriteSVG(exportSVG, run, 800, 400); err != nil {
				return fmt.Errorf("export svg: %w", err)
			}
			logger.Info("wrote trajectory plot", zap.String("path", exportSVG))
		}
	}
	return nil
}

func renderSummary(cfg *config.Config, sim *simulation, steps int, elapsed time.Duration, contacts, intersections int) string {
	row := func(label string, value any) string {
		return labelStyle.Render(fmt.Sprintf("%-16s", label)) + valueStyle.Render(fmt.Sprint(value))
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("impel "+cfg.Scene),
		row("steps", steps),
		row("sim time", fmt.Sprintf("%.2fs", float64(steps)*cfg.Dt)),
		row("wall time", elapsed.Round(time.Millisecond)),
		row("bodies", sim.bodies.Len()),
		row("contacts", contacts),
		row("intersections", intersections),
		row("final sample", fmt.Sprintf("%.3f", sim.sample())),
	)
	return panelStyle.Render(body)
}
