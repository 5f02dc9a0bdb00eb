package main

/*------------------------------------------------------------------
 *
 * Purpose:	Monitor a demodulated NOAA/EAS audio feed for SAME
 *		headers and relay decoded alerts into a Meshtastic
 *		mesh.
 *
 * Inputs:	Raw signed 16-bit little-endian mono PCM on stdin
 *		(e.g. piped from rtl_fm) or from a file, plus command
 *		line options below.
 *
 *----------------------------------------------------------------*/

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	samealert "github.com/RCGV1/Meshtastic-SAME-EAS-Alerter/src"
)

func main() {
	var configFile = pflag.StringP("config", "c", "", "Optional YAML configuration file.")
	var serialPort = pflag.StringP("port", "p", "", "Serial port of the Meshtastic device.")
	var tcpHost = pflag.String("host", "", "host[:port] of the Meshtastic device.")
	var alertChannel = pflag.IntP("alert-channel", "a", 0, "Channel alerts are sent to.")
	var testChannel = pflag.IntP("test-channel", "t", samealert.TestChannelUnset,
		"Channel test alerts are sent to.  Unset means tests are ignored.")
	var sampleRate = pflag.IntP("rate", "r", 48000, "Audio sample rate.")
	var input = pflag.StringP("input", "i", "", "PCM input file.  Default is stdin.")
	var metricsAddr = pflag.String("metrics-addr", "", "Listen address for prometheus metrics, e.g. :9100.")
	var logLevel = pflag.String("log-level", "info", "Log level: debug, info, warn, error.")
	pflag.Parse()

	var cfg *samealert.Config
	var err error
	if *configFile != "" {
		cfg, err = samealert.LoadConfig(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	} else {
		cfg = samealert.DefaultConfig()
	}

	// Flags win over the file.
	if *serialPort != "" {
		cfg.SerialPort = *serialPort
	}
	if *tcpHost != "" {
		cfg.TCPHost = *tcpHost
	}
	if pflag.Lookup("alert-channel").Changed {
		cfg.AlertChannel = *alertChannel
	}
	if pflag.Lookup("test-channel").Changed {
		cfg.TestChannel = *testChannel
	}
	if pflag.Lookup("rate").Changed {
		cfg.SampleRate = *sampleRate
	}
	if *input != "" {
		cfg.SamplePath = *input
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if pflag.Lookup("log-level").Changed {
		cfg.LogLevel = *logLevel
	}

	samealert.SetLogLevel(cfg.LogLevel)

	var audio io.ReadCloser = os.Stdin
	if cfg.SamplePath != "" {
		audio, err = os.Open(cfg.SamplePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open audio input: %v\n", err)
			os.Exit(1)
		}
	}
	defer audio.Close()

	if cfg.MetricsAddr != "" {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, nil); err != nil {
				fmt.Fprintf(os.Stderr, "metrics listener: %v\n", err)
			}
		}()
	}

	pipeline, err := samealert.NewPipeline(cfg, func() (samealert.Conn, error) {
		return samealert.DialMesh(cfg)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := pipeline.Run(ctx, audio); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
