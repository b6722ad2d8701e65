package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/holdfast/camera"
	"github.com/pthm-cable/holdfast/components"
	"github.com/pthm-cable/holdfast/config"
	"github.com/pthm-cable/holdfast/gpu"
	"github.com/pthm-cable/holdfast/scheduler"
	"github.com/pthm-cable/holdfast/simlog"
	"github.com/pthm-cable/holdfast/simworld"
	"github.com/pthm-cable/holdfast/worldstate"
)

var (
	configPath  = flag.String("config", "", "Path to a YAML config overlay (embedded defaults if empty)")
	outputDir   = flag.String("output", "./telemetry-out", "Directory for telemetry CSV output (empty disables file output)")
	headless    = flag.Bool("headless", false, "Run without graphics (for logging/benchmarking)")
	maxTicks    = flag.Int("max-ticks", 0, "Stop after N ticks (0 = run forever, useful with -headless)")
	initialSpeed = flag.Int("speed", 1, "Ticks advanced per real update (1-10)")
	logInterval = flag.Int("log", 0, "Log world state every N ticks (0 = disabled)")
	logFile     = flag.String("logfile", "", "Write the tick narrative to a file instead of stdout")
	perfLog     = flag.Bool("perf", false, "Log performance stats every 120 ticks")
)

const (
	screenWidth  = 1280
	screenHeight = 800
)

func main() {
	flag.Parse()

	if *logFile != "" {
		f, err := os.Create(*logFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		simlog.SetLogWriter(f)
		slog.SetDefault(slog.New(slog.NewTextHandler(f, nil)))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	world := simworld.New(cfg.Population.MaxNPCs)
	state := worldstate.New(float32(cfg.World.Width), float32(cfg.World.Height), float32(cfg.World.GridCellSize))

	var pipeline gpu.Pipeline
	if *headless {
		pipeline = gpu.NewCPUPipeline(cfg.Population.MaxNPCs, cfg.Population.MaxProj)
	} else {
		rl.InitWindow(screenWidth, screenHeight, "holdfast")
		rl.SetTargetFPS(60)
		pipeline = gpu.NewRaylibPipeline(cfg.Population.MaxNPCs, cfg.Population.MaxProj)
	}

	dir := *outputDir
	sched, err := scheduler.New(world, state, cfg, pipeline, dir)
	if err != nil {
		slog.Error("constructing scheduler", "error", err)
		os.Exit(1)
	}

	seedWorld(sched, cfg)

	if *headless {
		runHeadless(sched, cfg)
		return
	}
	runWindowed(sched, cfg)
}

// runHeadless drives the scheduler without graphics, mirroring the teacher's
// runHeadless progress-report loop (main.go) but advancing scheduler.Tick
// instead of a Game.UpdateHeadless.
func runHeadless(sched *scheduler.Scheduler, cfg *config.Config) {
	simlog.Logf("Starting headless simulation...")
	simlog.Logf("  Max ticks: %d, output: %q", *maxTicks, *outputDir)
	simlog.Logf("")

	dt := cfg.Derived.DT32
	startTime := time.Now()
	lastReport := startTime
	reportInterval := 10 * time.Second
	var tick int64

	for {
		if *maxTicks > 0 && int(tick) >= *maxTicks {
			simlog.Logf("Reached max ticks (%d), stopping.", *maxTicks)
			break
		}

		for s := 0; s < clampSpeed(*initialSpeed); s++ {
			sched.Tick(dt)
			tick++
		}

		if *logInterval > 0 && tick%int64(*logInterval) == 0 {
			logWorldState(sched, tick)
		}
		if *perfLog && tick%120 == 0 {
			logPerfStats(sched, tick)
		}

		if time.Since(lastReport) >= reportInterval {
			elapsed := time.Since(startTime)
			tps := float64(tick) / elapsed.Seconds()
			simlog.Logf("[PROGRESS] Tick %d | %.0f ticks/sec | Elapsed: %s", tick, tps, elapsed.Round(time.Second))
			lastReport = time.Now()
		}
	}

	elapsed := time.Since(startTime)
	simlog.Logf("")
	simlog.Logf("Simulation complete.")
	simlog.Logf("  Total ticks: %d", tick)
	simlog.Logf("  Elapsed time: %s", elapsed.Round(time.Millisecond))
	simlog.Logf("  Average: %.0f ticks/sec", float64(tick)/elapsed.Seconds())
}

// runWindowed drives the scheduler with a raylib window open, drawing the
// slot-indexed position/faction/health buffers directly: rendering beyond
// this data contract (sprites, terrain, UI) is explicitly out of scope.
func runWindowed(sched *scheduler.Scheduler, cfg *config.Config) {
	defer rl.CloseWindow()

	cam := camera.New(screenWidth, screenHeight, float32(cfg.World.Width), float32(cfg.World.Height))

	dt := cfg.Derived.DT32
	stepsPerFrame := clampSpeed(*initialSpeed)
	paused := false
	var tick int64

	for !rl.WindowShouldClose() {
		if rl.IsKeyPressed(rl.KeySpace) {
			paused = !paused
			sched.Commands.SetPaused(paused)
		}
		if rl.IsKeyPressed(rl.KeyPeriod) && stepsPerFrame < 10 {
			stepsPerFrame++
		}
		if rl.IsKeyPressed(rl.KeyComma) && stepsPerFrame > 1 {
			stepsPerFrame--
		}
		if rl.IsKeyPressed(rl.KeyR) {
			cam.Reset()
		}
		handleCameraInput(cam)

		for s := 0; s < stepsPerFrame; s++ {
			sched.Tick(dt)
			tick++
			if *maxTicks > 0 && int(tick) >= *maxTicks {
				break
			}
		}

		if *logInterval > 0 && tick%int64(*logInterval) == 0 {
			logWorldState(sched, tick)
		}

		drawFrame(sched, cam)

		if *maxTicks > 0 && int(tick) >= *maxTicks {
			break
		}
	}
}

// handleCameraInput applies mouse-drag panning and scroll-wheel zoom to cam,
// mirroring the teacher's input-polls-camera-each-frame pattern (game/input.go).
func handleCameraInput(cam *camera.Camera) {
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		cam.Pan(-d.X, -d.Y)
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		cam.ZoomBy(1.0 + wheel*0.1)
	}
}

func drawFrame(sched *scheduler.Scheduler, cam *camera.Camera) {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 20, G: 24, B: 30, A: 255})

	q := sched.World.Filter.Query()
	for q.Next() {
		pos, _, id, health, _, _, _ := q.Get()
		if health.Dead {
			continue
		}
		if !cam.IsVisible(pos.X, pos.Y, 4) {
			continue
		}
		col := rl.Gray
		switch id.Faction {
		case components.FactionPlayer:
			col = rl.SkyBlue
		case components.FactionNeutral:
			col = rl.Gray
		default:
			col = rl.Maroon
		}
		sx, sy := cam.WorldToScreen(pos.X, pos.Y)
		rl.DrawCircle(int32(sx), int32(sy), 4*cam.Zoom, col)
	}

	rl.DrawFPS(10, 10)
	rl.EndDrawing()
}

func clampSpeed(n int) int {
	if n < 1 {
		return 1
	}
	if n > 10 {
		return 10
	}
	return n
}

// logWorldState logs a compact population/combat snapshot, mirroring the
// teacher's logWorldState (main.go) generalized to this domain's job roster.
func logWorldState(sched *scheduler.Scheduler, tick int64) {
	var total, dead int
	var counts [components.JobMiner + 1]int
	var energySum float32

	q := sched.World.Filter.Query()
	for q.Next() {
		_, _, id, health, _, _, energy := q.Get()
		if health.Dead {
			dead++
			continue
		}
		total++
		energySum += energy.Value
		if int(id.Job) < len(counts) {
			counts[id.Job]++
		}
	}

	avgEnergy := float32(0)
	if total > 0 {
		avgEnergy = energySum / float32(total)
	}

	simlog.Logf("=== Tick %d ===", tick)
	simlog.Logf("Population: %d alive, %d dead | avg energy: %.1f", total, dead, avgEnergy)
	simlog.Logf("  Farmers=%d Archers=%d Crossbows=%d Raiders=%d Fighters=%d Miners=%d",
		counts[components.JobFarmer], counts[components.JobArcher], counts[components.JobCrossbow],
		counts[components.JobRaider], counts[components.JobFighter], counts[components.JobMiner])
	simlog.Logf("Kills: %d, Deaths: %d", sched.Combat.Kills, sched.Combat.Deaths)
	simlog.Logf("")
}

func logPerfStats(sched *scheduler.Scheduler, tick int64) {
	if sched.Perf == nil {
		return
	}
	simlog.Logf("=== Perf @ Tick %d ===", tick)
	sched.Perf.Stats().LogStats()
}
