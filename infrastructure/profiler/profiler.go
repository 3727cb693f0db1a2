// Package profiler captures pprof profiles when the process runs hot.
// Sweep fan-out and busy change-log feeds are the usual culprits; having
// the profile from the actual spike beats trying to reproduce it later.
package profiler

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"sync"
	"time"

	"github.com/sortline/sortline/api/infrastructure/logger"
	"go.uber.org/zap"
)

type AdaptiveProfiler struct {
	profileDir      string
	cpuThreshold    float64 // 0-1, trigger level
	memThreshold    float64 // 0-1, trigger level
	minInterval     time.Duration
	profileDuration time.Duration
	logger          *logger.Logger

	lastProfile time.Time
	mutex       sync.Mutex
	isRunning   bool

	lastCPUTime  time.Time
	lastCPUUsage float64
}

func NewAdaptiveProfiler(profileDir string, log *logger.Logger) *AdaptiveProfiler {
	return &AdaptiveProfiler{
		profileDir:      profileDir,
		cpuThreshold:    0.70,
		memThreshold:    0.80,
		minInterval:     10 * time.Minute,
		profileDuration: 30 * time.Second,
		logger:          log,
		lastProfile:     time.Time{},
		lastCPUTime:     time.Now(),
	}
}

func (p *AdaptiveProfiler) Start(ctx context.Context) {
	go p.monitor(ctx)
}

func (p *AdaptiveProfiler) monitor(ctx context.Context) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.checkAndProfile()
		case <-ctx.Done():
			return
		}
	}
}

func (p *AdaptiveProfiler) checkAndProfile() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.isRunning {
		return
	}
	if time.Since(p.lastProfile) < p.minInterval {
		return
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	memUsage := float64(m.Alloc) / float64(m.Sys)

	cpuUsage := p.getCPUUsage()

	if cpuUsage > p.cpuThreshold || memUsage > p.memThreshold {
		p.logger.Warn("Load thresholds exceeded, capturing profiles",
			zap.Float64("cpuUsage", cpuUsage),
			zap.Float64("memUsage", memUsage),
		)
		p.isRunning = true
		go p.captureProfiles()
	}
}

// getCPUUsage approximates load from goroutines per CPU, smoothed with an
// exponential moving average. Crude, but portable, and the absolute value
// matters less than the trend against the threshold.
func (p *AdaptiveProfiler) getCPUUsage() float64 {
	numGoroutines := float64(runtime.NumGoroutine())
	numCPU := float64(runtime.NumCPU())

	// Treat 10 goroutines per CPU as the steady-state baseline.
	usage := numGoroutines / (numCPU * 10)
	if usage > 1.0 {
		usage = 1.0
	}

	now := time.Now()
	if now.Sub(p.lastCPUTime).Seconds() > 0 {
		const alpha = 0.3
		p.lastCPUUsage = alpha*usage + (1-alpha)*p.lastCPUUsage
		p.lastCPUTime = now
	}

	return p.lastCPUUsage
}

func (p *AdaptiveProfiler) captureProfiles() {
	timestamp := time.Now().Format("20060102-150405")

	if err := os.MkdirAll(p.profileDir, 0755); err != nil {
		p.logger.Error("Failed to create profile directory", zap.Error(err))
		p.mutex.Lock()
		p.isRunning = false
		p.mutex.Unlock()
		return
	}

	cpuFile, err := os.Create(fmt.Sprintf("%s/cpu-%s.pprof", p.profileDir, timestamp))
	if err != nil {
		p.logger.Error("Failed to create CPU profile", zap.Error(err))
	} else {
		runtime.GC()
		if err := pprof.StartCPUProfile(cpuFile); err != nil {
			p.logger.Error("Failed to start CPU profile", zap.Error(err))
		} else {
			time.Sleep(p.profileDuration)
			pprof.StopCPUProfile()
		}
		cpuFile.Close()
		p.logger.Info("CPU profile saved", zap.String("file", fmt.Sprintf("cpu-%s.pprof", timestamp)))
	}

	memFile, err := os.Create(fmt.Sprintf("%s/mem-%s.pprof", p.profileDir, timestamp))
	if err != nil {
		p.logger.Error("Failed to create memory profile", zap.Error(err))
	} else {
		runtime.GC()
		if err := pprof.WriteHeapProfile(memFile); err != nil {
			p.logger.Error("Failed to write memory profile", zap.Error(err))
		}
		memFile.Close()
		p.logger.Info("Memory profile saved", zap.String("file", fmt.Sprintf("mem-%s.pprof", timestamp)))
	}

	goroutineFile, err := os.Create(fmt.Sprintf("%s/goroutine-%s.pprof", p.profileDir, timestamp))
	if err != nil {
		p.logger.Error("Failed to create goroutine profile", zap.Error(err))
	} else {
		if profile := pprof.Lookup("goroutine"); profile != nil {
			if err := profile.WriteTo(goroutineFile, 0); err != nil {
				p.logger.Error("Failed to write goroutine profile", zap.Error(err))
			}
		}
		goroutineFile.Close()
		p.logger.Info("Goroutine profile saved", zap.String("file", fmt.Sprintf("goroutine-%s.pprof", timestamp)))
	}

	p.mutex.Lock()
	p.lastProfile = time.Now()
	p.isRunning = false
	p.mutex.Unlock()
}
