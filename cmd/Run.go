package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/klog/v2"

	"github.com/samuelfneumann/lunarlearn/config"
	"github.com/samuelfneumann/lunarlearn/experiment"
	"github.com/samuelfneumann/lunarlearn/experiment/checkpointer"
	"github.com/samuelfneumann/lunarlearn/utils/progressbar"
)

// signalContext returns a context which is cancelled on SIGINT or
// SIGTERM
func signalContext(parent context.Context) (context.Context,
	context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// serveMetrics serves prometheus metrics on addr until the returned
// function is called. Nothing is served if addr is empty.
func serveMetrics(addr string) func() {
	if addr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	klog.InfoS("Starting metrics server", "address", addr)
	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			klog.ErrorS(err, "Metrics server failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}
}

// train runs loop to completion, checkpointing objects as configured
// in c
func train(ctx context.Context, c config.Config,
	loop *experiment.TrainingLoop,
	objects map[string]checkpointer.Serializable) error {
	store, closeStore, err := newStore(ctx, c)
	if err != nil {
		return err
	}
	defer closeStore()

	objects["returns.bin"] = loop.Returns()
	if err := attach(ctx, c, store, loop, objects); err != nil {
		return err
	}

	if progress {
		bar := progressbar.New(os.Stdout, 40, c.Training.MaxEpisodes)
		loop.Notify(func(ep experiment.Episode) {
			if ep.Phase != experiment.Train {
				return
			}
			bar.Increment()
			bar.SetStatus("episode %d reward %.2f", ep.Attempt, ep.Return)
			bar.Display()
		})
		defer bar.Finish()
	}

	result, runErr := loop.Run(ctx)
	klog.InfoS("Training finished", "state", result.State, "solved",
		result.Solved, "episodes", result.Episodes, "evaluations",
		result.Evaluations, "averageReward", result.Average,
		"evalAverageReward", result.EvalAverage)

	// Save what was learned even if the run was interrupted
	saveCtx, cancel := context.WithTimeout(context.Background(),
		10*time.Second)
	defer cancel()
	if err := saveAll(saveCtx, store, objects); err != nil {
		klog.ErrorS(err, "Could not save final snapshots")
		if runErr == nil {
			runErr = err
		}
	}
	return runErr
}
