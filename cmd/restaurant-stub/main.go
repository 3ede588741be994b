// Command restaurant-stub serves an in-memory restaurant service over REST
// and gRPC so the load generator can run without the real deployment.
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
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"restaurant-loadgen/internal/logging"
	"restaurant-loadgen/internal/stub"
	"restaurant-loadgen/internal/target/grpcapi"
)

func main() {
	_ = godotenv.Load()

	port := flag.Int("port", atoiOr(getenv("PORT", "8080"), 8080), "REST port; gRPC listens on port+1 unless -grpc-port is set")
	grpcPort := flag.Int("grpc-port", atoiOr(getenv("GRPC_PORT", ""), 0), "gRPC port")
	protoPackage := flag.String("proto-package", getenv("PROTO_PACKAGE", ""), "proto package of RestaurantService")
	workMs := flag.Int("work-ms", atoiOr(getenv("WORK_MS", "0"), 0), "CPU work per request in milliseconds")
	lenient := flag.Bool("lenient-menu", getenv("LENIENT_MENU", "") == "true", `accept menu updates without the "menu" wrapper`)
	logLevel := flag.String("log-level", getenv("LOG_LEVEL", "info"), "debug|info|warn|error")
	flag.Parse()

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := logging.NewConsole(os.Stderr, level, logging.NoColor()).With("instance", hostnameOr("restaurant-stub"))

	if *grpcPort == 0 {
		*grpcPort = *port + 1
	}
	schema, err := grpcapi.NewSchema(*protoPackage)
	if err != nil {
		log.Error("build schema", "err", err)
		os.Exit(1)
	}

	svc := stub.NewService(stub.NewStore(),
		stub.WithWork(time.Duration(*workMs)*time.Millisecond),
		stub.WithLenientMenu(*lenient),
		stub.WithLogger(log))

	httpLis, err := net.Listen("tcp", ":"+strconv.Itoa(*port))
	if err != nil {
		log.Error("listen", "err", err)
		os.Exit(1)
	}
	grpcLis, err := net.Listen("tcp", ":"+strconv.Itoa(*grpcPort))
	if err != nil {
		log.Error("listen", "err", err)
		os.Exit(1)
	}

	httpServer := &http.Server{Handler: svc.Handler(), ReadHeaderTimeout: 5 * time.Second}
	grpcServer := grpc.NewServer()
	grpcapi.Register(grpcServer, schema, svc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("restaurant stub starting", "http", httpLis.Addr().String(), "grpc", grpcLis.Addr().String(),
		"proto_package", schema.Package(), "service", schema.ServiceFullName(),
		"work_ms", *workMs, "lenient_menu", *lenient)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := grpcServer.Serve(grpcLis); err != nil {
			return fmt.Errorf("serve grpc: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		grpcServer.GracefulStop()
		return httpServer.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error("stub stopped", "err", err)
		os.Exit(1)
	}
	log.Info("stub stopped")
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func hostnameOr(def string) string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return def
	}
	return h
}
