package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/tarm/serial"

	"github.com/jangala-dev/tinygo-svuart/bridge"
	"github.com/jangala-dev/tinygo-svuart/sysview"
)

var (
	portName  = "/dev/ttyACM0"
	baudRate  = 115200
	version   = uint(sysview.Version)
	outPath   string
	wsAddr    string
	mqttURL   string
	withShell bool
)

func init() {
	if val := os.Getenv("SVBRIDGE_PORT"); val != "" {
		portName = val
	}
	if val := os.Getenv("SVBRIDGE_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&portName, "port", portName, "Serial device of the target.")
	flag.IntVar(&baudRate, "baud", baudRate, "Baud rate.")
	flag.UintVar(&version, "version", version, "SystemView version announced in the server hello.")
	flag.StringVar(&outPath, "out", outPath, "Write the trace stream to this file.")
	flag.StringVar(&wsAddr, "ws", wsAddr, "Serve the trace stream over websocket on this address.")
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "Publish the trace stream to this MQTT broker URL.")
	flag.BoolVar(&withShell, "shell", withShell, "Start an interactive shell.")
}

func main() {
	flag.Parse()
	defer glog.Flush()

	ctx, cancel := signalContext()
	defer cancel()

	port, err := serial.OpenPort(&serial.Config{
		Name:     portName,
		Baud:     baudRate,
		Size:     8,
		Parity:   serial.ParityNone,
		StopBits: serial.Stop1,
	})
	if err != nil {
		glog.Exitf("open %s: %v", portName, err)
	}
	defer port.Close()

	hctx, hcancel := context.WithTimeout(ctx, 5*time.Second)
	session, err := bridge.Handshake(hctx, port, uint32(version))
	hcancel()
	if err != nil {
		glog.Exitf("handshake on %s: %v", portName, err)
	}

	sinks, err := openSinks(session)
	if err != nil {
		glog.Exit(err)
	}

	if withShell {
		go func() {
			newShell(session).Run()
			cancel()
		}()
	}

	err = session.Run(ctx, sinks...)
	for _, sink := range sinks {
		sink.Close()
	}
	if err != nil && err != context.Canceled {
		glog.Errorf("session: %v", err)
	}
	st := session.Stats()
	glog.Infof("relayed %d bytes, sent %d commands", st.TraceBytes, st.Commands)
}

func openSinks(session *bridge.Session) ([]bridge.Sink, error) {
	var sinks []bridge.Sink
	if outPath != "" {
		fs, err := bridge.CreateFileSink(outPath)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, fs)
	}
	if wsAddr != "" {
		hub := bridge.NewWebsocketHub(session.SendCommand)
		go func() {
			glog.Infof("websocket on %s", wsAddr)
			if err := http.ListenAndServe(wsAddr, hub.Handler()); err != nil {
				glog.Errorf("websocket: %v", err)
			}
		}()
		sinks = append(sinks, hub)
	}
	if mqttURL != "" {
		m, err := bridge.NewMQTTSink(mqttURL, session.SendCommand)
		if err != nil {
			return nil, err
		}
		if err := m.Connect(); err != nil {
			return nil, err
		}
		sinks = append(sinks, m)
	}
	return sinks, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		glog.Info("stop requested")
		cancel()
		<-sigCh
		glog.Error("stop requested again, force exit")
		os.Exit(1)
	}()
	return ctx, cancel
}
