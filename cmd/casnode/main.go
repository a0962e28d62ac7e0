// Command casnode serves a content-addressed blob store over gRPC, so the
// attestry service can keep its content on a separate node. The wire
// contract re-verifies every address on the server side.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"attestry/internal/cas"
	"attestry/internal/cas/casgrpc"
	"attestry/internal/platform/logger"
)

func main() {
	fs := flag.NewFlagSet("casnode", flag.ExitOnError)
	listen := fs.String("listen", "127.0.0.1:7833", "listen address")
	backend := fs.String("backend", "localfs", "storage backend: memory, localfs or ipfs")
	dir := fs.String("dir", "./data/cas", "blob directory for the localfs backend")
	ipfsAPI := fs.String("ipfs-api", "http://127.0.0.1:5001", "Kubo API base URL for the ipfs backend")
	logLevel := fs.String("log-level", "info", "log level: debug, info, warn or error")
	_ = fs.Parse(os.Args[1:])

	log := logger.New(*logLevel)

	var (
		store cas.Store
		err   error
	)
	switch *backend {
	case "memory":
		store = cas.NewMemory()
	case "localfs":
		store, err = cas.NewLocalFS(*dir)
	case "ipfs":
		store, err = cas.NewIPFS(*ipfsAPI, http.DefaultClient)
	default:
		err = fmt.Errorf("unknown backend %q", *backend)
	}
	if err != nil {
		log.Error("store init failed", "backend", *backend, "error", err.Error())
		os.Exit(1)
	}

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		log.Error("listen failed", "addr", *listen, "error", err.Error())
		os.Exit(1)
	}

	srv := grpc.NewServer()
	casgrpc.RegisterCASServer(srv, &casgrpc.Server{Store: store})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("casnode listening", "addr", lis.Addr().String(), "backend", *backend)
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Error("serve failed", "error", err.Error())
		os.Exit(1)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	srv.GracefulStop()
}
