package main

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/cachesim/emu"
	"github.com/sarchlab/cachesim/loader"
	"github.com/sarchlab/cachesim/timing/core"
	"github.com/sarchlab/cachesim/timing/hierarchy"
	"github.com/sarchlab/cachesim/timing/latency"
)

type options struct {
	configPath   string
	timingPath   string
	logPath      string
	tracePath    string
	imagePath    string
	rawImagePath string
	base         uint64
}

type result struct {
	tracePath string
	config    hierarchy.Config
	core      core.Stats
	caches    hierarchy.Stats
	timing    latency.Stats
	flushed   int
}

func loadConfigs(o options) (hierarchy.Config, *latency.TimingConfig, error) {
	config := hierarchy.DefaultConfig()
	if o.configPath != "" {
		var err error
		config, err = hierarchy.LoadConfig(o.configPath)
		if err != nil {
			return config, nil, err
		}
	}

	timingConfig := latency.DefaultTimingConfig()
	if o.timingPath != "" {
		var err error
		timingConfig, err = latency.LoadConfig(o.timingPath)
		if err != nil {
			return config, nil, err
		}
	}

	if err := timingConfig.Validate(); err != nil {
		return config, nil, fmt.Errorf("invalid timing config: %w", err)
	}

	return config, timingConfig, nil
}

func loadImage(o options) (*loader.Image, error) {
	switch {
	case o.imagePath != "":
		return loader.Load(o.imagePath)
	case o.rawImagePath != "":
		return loader.LoadRaw(o.rawImagePath, o.base)
	default:
		return nil, nil
	}
}

// checkTrace rejects accesses the hierarchy cannot serve: those outside
// memory and those crossing a line of the smallest configured line size.
// Instruction writes go straight to memory and only need to fit in it.
func checkTrace(trace []core.Access, config hierarchy.Config) error {
	lineSize := uint64(min(config.L1I.LineSize, config.L1D.LineSize, config.L2.LineSize))

	for _, a := range trace {
		size := uint64(a.Op.Size())

		if a.Addr >= config.MemorySize || size > config.MemorySize-a.Addr {
			return fmt.Errorf("trace line %d: %s is outside memory of %d bytes",
				a.Line, a, config.MemorySize)
		}

		if a.Op == core.OpWriteInstruction32 {
			continue
		}

		if a.Addr%lineSize+size > lineSize {
			return fmt.Errorf("trace line %d: %s crosses a %d-byte line boundary",
				a.Line, a, lineSize)
		}
	}

	return nil
}

// simulate replays the trace named by o against a freshly built hierarchy
// and returns the statistics gathered on the way.
func simulate(o options) (*result, error) {
	config, timingConfig, err := loadConfigs(o)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	trace, err := core.LoadTrace(o.tracePath)
	if err != nil {
		return nil, err
	}

	if err := checkTrace(trace, config); err != nil {
		return nil, err
	}

	memory := emu.NewMemory(config.MemorySize)

	img, err := loadImage(o)
	if err != nil {
		return nil, err
	}
	if img != nil {
		if err := img.Install(memory); err != nil {
			return nil, err
		}

		logrus.WithFields(logrus.Fields{
			"entry":    fmt.Sprintf("0x%x", img.Entry),
			"segments": len(img.Segments),
		}).Info("image loaded")
	}

	hierarchyOpts := []hierarchy.Option{hierarchy.WithMemory(memory)}

	var accessLog *hierarchy.TextLogger
	if o.logPath != "" {
		accessLog, err = hierarchy.NewFileLogger(o.logPath)
		if err != nil {
			return nil, err
		}
		hierarchyOpts = append(hierarchyOpts, hierarchy.WithAccessLogger(accessLog))
	}

	h, err := hierarchy.New(config, hierarchyOpts...)
	if err != nil {
		if accessLog != nil {
			_ = accessLog.Close()
		}
		return nil, err
	}

	acc := latency.NewAccumulator(latency.NewTableWithConfig(timingConfig))
	h.AcceptHook(acc)

	c := core.NewCore(h, trace)
	c.Run()

	res := &result{
		tracePath: o.tracePath,
		config:    config,
		core:      c.Stats(),
		caches:    h.Stats(),
		timing:    acc.Stats(),
	}

	res.flushed = h.Flush()
	if accessLog != nil {
		if err := accessLog.Close(); err != nil {
			return nil, err
		}
	}

	return res, nil
}
