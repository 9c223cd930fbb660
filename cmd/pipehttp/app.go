package main

import (
	"context"
	"errors"
	"os"

	"github.com/DaianCosta/pipehttp"
	"github.com/DaianCosta/pipehttp/internal/constants"
	"github.com/DaianCosta/pipehttp/internal/httpc"
	"github.com/DaianCosta/pipehttp/internal/telemetry"
	"github.com/spf13/viper"
)

// app is everything a command needs, built from one ConfigDoc.
type app struct {
	doc      *ConfigDoc
	executor *pipehttp.Executor
	store    *pipehttp.Store
	shutdown telemetry.ShutdownFunc
}

// loadConfig reads the YAML config named by the "config" key and applies
// flag and PIPEHTTP_* overrides. A missing default config file is not an error.
func loadConfig(v *viper.Viper) (*ConfigDoc, error) {
	doc := &ConfigDoc{}
	path := v.GetString("config")
	if path != "" {
		err := doc.Load(path)
		switch {
		case err == nil:
		case errors.Is(err, os.ErrNotExist) && path == constants.DefaultConfigFile:
		default:
			return nil, err
		}
	}
	if s := v.GetString("addr"); s != "" {
		doc.Server.Addr = s
	}
	if s := v.GetString("pipelines"); s != "" {
		doc.Pipelines.Path = s
	}
	if s := v.GetString("timeout"); s != "" {
		doc.Execution.Timeout = s
	}
	doc.ApplyDefaults()
	if err := doc.SetupLogging(); err != nil {
		return nil, err
	}
	return doc, nil
}

// newApp wires transport, executor, tracing and, when configured, the run store.
func newApp(doc *ConfigDoc) (*app, error) {
	clientTimeout, err := doc.ClientTimeout()
	if err != nil {
		return nil, err
	}
	execTimeout, err := doc.ExecutionTimeout()
	if err != nil {
		return nil, err
	}
	tlsCfg, err := httpc.TLSConfig(doc.Client.Insecure, doc.Client.MinTLSVersion, doc.Client.MaxTLSVersion)
	if err != nil {
		return nil, err
	}
	shutdown, err := telemetry.Setup(telemetry.Config{Enabled: doc.Tracing.Enabled, Pretty: doc.Tracing.Pretty})
	if err != nil {
		return nil, err
	}

	client := pipehttp.Client{
		TlsConfig:           tlsCfg,
		Timeout:             clientTimeout,
		MaxIdleConnsPerHost: doc.Client.MaxIdleConnsPerHost,
		Tracing:             doc.Client.Tracing || doc.Tracing.Enabled,
	}
	e := pipehttp.NewExecutor(pipehttp.FileSource{Path: doc.Pipelines.Path}, pipehttp.NewHTTPInvoker(client))
	e.Timeout = execTimeout

	a := &app{doc: doc, executor: e, shutdown: shutdown}
	if cfg := NewStoreFactory().CreateStoreConfig(doc.Store); cfg != nil {
		st, err := pipehttp.OpenStore(*cfg)
		if err != nil {
			_ = shutdown(context.Background())
			return nil, err
		}
		a.store = st
		e.Recorder = st
	}
	return a, nil
}

func (a *app) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.shutdown != nil {
		_ = a.shutdown(context.Background())
	}
}
