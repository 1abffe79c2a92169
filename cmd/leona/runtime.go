package main

import (
	"context"
	"fmt"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"leona-console/internal/bridge"
	"leona-console/internal/cache"
	"leona-console/internal/integrations/leona"
	"leona-console/internal/integrations/paramstore"
	"leona-console/internal/telemetry"
)

// runtime holds the collaborators shared by every subcommand.
type runtime struct {
	logger *slog.Logger
	tracer trace.Tracer
	meter  metric.Meter
	client *leona.Client
	cache  *cache.TabCache
	bridge *bridge.Bridge

	closers []func()
}

func setup(ctx context.Context) (*runtime, error) {
	rt := &runtime{}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger, logFile, err := telemetry.InitLogger(cfg.LogDir, level)
	if err != nil {
		return nil, err
	}
	rt.logger = logger
	rt.closers = append(rt.closers, func() { _ = logFile.Close() })

	if cfg.Telemetry {
		tracer, meter, cleanup, err := telemetry.InitTelemetry(ctx, cfg.LogDir)
		if err != nil {
			rt.close()
			return nil, err
		}
		rt.tracer, rt.meter = tracer, meter
		rt.closers = append(rt.closers, cleanup)
	}

	var ps *paramstore.Client
	if cfg.ParamPrefix != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			rt.close()
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		ps, err = paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			rt.close()
			return nil, err
		}
		if err := cfg.ApplyParameters(ctx, ps); err != nil {
			logger.Warn("parameter store defaults not applied", "err", err)
		}
	}

	var opts []leona.Option
	if cfg.BackendURL != "" {
		opts = append(opts, leona.WithBaseURL(cfg.BackendURL))
	}
	var getter leona.Getter
	if ps != nil {
		getter = ps
	}
	rt.client, err = leona.NewClient(getter, cfg.ParamPrefix, opts...)
	if err != nil {
		rt.close()
		return nil, err
	}

	rt.cache, err = cache.Open(cfg.CachePath)
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.closers = append(rt.closers, func() {
		if err := rt.cache.Close(); err != nil {
			logger.Error("close tab cache failed", "err", err)
		}
	})

	rt.bridge, err = bridge.New(rt.cache, rt.client, bridge.WithLogger(logger))
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.closers = append(rt.closers, rt.bridge.Close)
	return rt, nil
}

// close releases collaborators in reverse order of creation.
func (rt *runtime) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}
